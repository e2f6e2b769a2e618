package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ticket-triage/internal/config"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util"
)

const callerKey = "auth_caller"

// WebhookAuth guards the ingest endpoints. Callers present either a Bearer
// JWT signed with AUTH_JWT_SECRET or an X-API-Key matching
// WEBHOOK_API_KEY_HASH. When neither credential is configured the endpoints
// are open.
type WebhookAuth struct {
	tokens     *TokenManager
	apiKeyHash string
}

// NewWebhookAuth constructs middleware from configuration.
func NewWebhookAuth(cfg config.AuthConfig) *WebhookAuth {
	var tokens *TokenManager
	if cfg.JWTSecret != "" {
		tokens = NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	}
	return &WebhookAuth{tokens: tokens, apiKeyHash: cfg.APIKeyHash}
}

// Enabled reports whether any credential is configured.
func (m *WebhookAuth) Enabled() bool {
	return m.tokens != nil || m.apiKeyHash != ""
}

// Handle enforces authentication when credentials are configured.
func (m *WebhookAuth) Handle(c *fiber.Ctx) error {
	if !m.Enabled() {
		return c.Next()
	}

	if apiKey := c.Get("X-API-Key"); apiKey != "" && m.apiKeyHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(m.apiKeyHash), []byte(apiKey)); err == nil {
			c.Locals(callerKey, "api-key")
			return c.Next()
		}
		return apperrors.NewUnauthorized("invalid api key")
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" || m.tokens == nil {
		return apperrors.NewUnauthorized("missing credentials")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(callerKey, claims.CallerID)
	return c.Next()
}

// CallerFromContext returns the authenticated caller id, if any.
func CallerFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(callerKey)
	if val == nil {
		return "", false
	}
	caller, ok := val.(string)
	return caller, ok
}
