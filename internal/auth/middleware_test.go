package auth

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ticket-triage/internal/config"
)

func protectedApp(cfg config.AuthConfig) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return nil
	})
	app.Use(NewWebhookAuth(cfg).Handle)
	app.Get("/protected", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestWebhookAuthOpenWhenUnconfigured(t *testing.T) {
	app := protectedApp(config.AuthConfig{})

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestWebhookAuthAcceptsValidJWT(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5}
	app := protectedApp(cfg)

	token, _, err := NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes).GenerateToken("caller")
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestWebhookAuthRejectsMissingAndBadCredentials(t *testing.T) {
	app := protectedApp(config.AuthConfig{JWTSecret: "test-secret"})

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookAuthAcceptsMatchingAPIKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("super-secret-key"), bcrypt.MinCost)
	require.NoError(t, err)
	app := protectedApp(config.AuthConfig{APIKeyHash: string(hash)})

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-API-Key", "super-secret-key")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
