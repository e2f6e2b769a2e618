package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/resilience"
)

const maxResponseBytes = 1 << 20

// Router delivers classified tickets to external systems. One shared pooled
// HTTP client serves every delivery; per-endpoint circuit state gates
// attempts before any network I/O happens.
type Router struct {
	client     *http.Client
	breaker    *BreakerRegistry
	retry      resilience.Policy
	systemAuth map[SystemName]string
	userAgent  string
	logger     *zap.Logger
}

// RouterDependencies bundles router collaborators.
type RouterDependencies struct {
	Client     *http.Client
	Breaker    *BreakerRegistry
	Retry      resilience.Policy
	SystemAuth map[SystemName]string
	UserAgent  string
	Logger     *zap.Logger
}

// NewRouter constructs the router.
func NewRouter(deps RouterDependencies) *Router {
	client := deps.Client
	if client == nil {
		client = NewHTTPClient(config.RoutingConfig{})
	}
	breaker := deps.Breaker
	if breaker == nil {
		breaker = NewBreakerRegistry(DefaultFailureThreshold, DefaultCooldown)
	}
	retry := deps.Retry
	if retry.MaxAttempts == 0 {
		retry = resilience.DefaultPolicy
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	userAgent := deps.UserAgent
	if userAgent == "" {
		userAgent = "TicketTriageAgent/1.0"
	}
	return &Router{
		client:     client,
		breaker:    breaker,
		retry:      retry,
		systemAuth: deps.SystemAuth,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// NewHTTPClient builds the shared outbound client: bounded connection pool,
// pool/connect/read/write timeouts, TLS verification on, redirects followed.
func NewHTTPClient(cfg config.RoutingConfig) *http.Client {
	connectTimeout := secondsOr(cfg.ConnectTimeoutSeconds, 10)
	readTimeout := secondsOr(cfg.ReadTimeoutSeconds, 30)
	writeTimeout := secondsOr(cfg.WriteTimeoutSeconds, 10)
	poolTimeout := secondsOr(cfg.PoolTimeoutSeconds, 5)
	keepAlive := secondsOr(cfg.KeepAliveSeconds, 30)

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 100
	}
	maxIdle := cfg.MaxIdleConnections
	if maxIdle <= 0 {
		maxIdle = 20
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: keepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: readTimeout,
		ExpectContinueTimeout: writeTimeout,
		MaxConnsPerHost:       maxConns,
		MaxIdleConns:          maxConns,
		MaxIdleConnsPerHost:   maxIdle,
		IdleConnTimeout:       keepAlive,
	}

	// The overall deadline budgets one full request: waiting for a pooled
	// connection, connecting, writing, and reading.
	return &http.Client{
		Transport: transport,
		Timeout:   poolTimeout + connectTimeout + writeTimeout + readTimeout,
	}
}

// SystemAuthFromConfig builds the per-system default Authorization headers.
// Slack webhooks carry their credential in the URL and get no entry.
func SystemAuthFromConfig(cfg config.RoutingConfig) map[SystemName]string {
	auth := make(map[SystemName]string)
	if cfg.JiraToken != "" {
		auth[SystemJira] = "Bearer " + cfg.JiraToken
	}
	if cfg.FreshserviceToken != "" {
		auth[SystemFreshservice] = "Basic " + cfg.FreshserviceToken
	}
	return auth
}

// Route performs the resilient delivery sequence: breaker gate, system
// resolution, payload transformation, HTTP call under the retry policy, and
// response parsing. It always returns a RoutingResult, never an error.
func (r *Router) Route(ctx context.Context, ticket *domain.ProcessedTicket, mapping *domain.TeamMapping) domain.RoutingResult {
	start := time.Now()

	if !r.breaker.Allow(mapping.Endpoint) {
		errMsg := "circuit breaker open for " + mapping.Endpoint
		r.logger.Error("routing short-circuited",
			zap.String("ticket_id", ticket.TicketID),
			zap.String("endpoint", mapping.Endpoint))
		return domain.RoutingResult{
			Success:        false,
			SystemName:     SystemCircuitBreaker,
			ErrorMessage:   errMsg,
			ProcessingTime: time.Since(start),
		}
	}

	system := ResolveSystem(mapping.Endpoint)
	payload := TransformPayload(ticket, system)
	headers := r.buildHeaders(mapping, system)

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.RoutingResult{
			Success:        false,
			SystemName:     string(system),
			ErrorMessage:   fmt.Sprintf("encode payload: %v", err),
			ProcessingTime: time.Since(start),
		}
	}

	r.logger.Info("routing ticket to external system",
		zap.String("ticket_id", ticket.TicketID),
		zap.String("system", string(system)),
		zap.String("endpoint", mapping.Endpoint),
		zap.String("method", mapping.Method),
		zap.Int("payload_bytes", len(body)))

	var success *domain.RoutingResult
	var lastStatus int
	var lastErr error

	retryErr := r.retry.Do(ctx, func() error {
		attemptStart := time.Now()
		result, status, err := r.attempt(ctx, system, mapping, headers, body)
		if err != nil {
			r.breaker.RecordFailure(mapping.Endpoint)
			// Error and status must describe the same attempt, so a
			// transport failure clears any earlier HTTP status.
			lastErr = err
			lastStatus = status
			r.logger.Warn("routing attempt failed",
				zap.String("ticket_id", ticket.TicketID),
				zap.String("endpoint", mapping.Endpoint),
				zap.Int("status", status),
				zap.Duration("attempt_duration", time.Since(attemptStart)),
				zap.Error(err))
			return err
		}
		r.breaker.RecordSuccess(mapping.Endpoint)
		success = result
		return nil
	}, nil)

	if retryErr != nil || success == nil {
		errMsg := "routing failed"
		if lastErr != nil {
			errMsg = lastErr.Error()
		}
		r.logger.Error("ticket routing failed",
			zap.String("ticket_id", ticket.TicketID),
			zap.String("system", string(system)),
			zap.String("error", errMsg),
			zap.Int("status", lastStatus))
		return domain.RoutingResult{
			Success:        false,
			SystemName:     string(system),
			ErrorMessage:   errMsg,
			HTTPStatus:     lastStatus,
			ProcessingTime: time.Since(start),
		}
	}

	success.ProcessingTime = time.Since(start)
	r.logger.Info("ticket routed successfully",
		zap.String("ticket_id", ticket.TicketID),
		zap.String("system", string(system)),
		zap.String("external_ticket_id", success.ExternalTicketID),
		zap.Duration("duration", success.ProcessingTime))
	return *success
}

// attempt performs exactly one HTTP delivery. A non-nil error means the
// attempt failed and is eligible for retry; the returned status is the HTTP
// status when one was received.
func (r *Router) attempt(ctx context.Context, system SystemName, mapping *domain.TeamMapping, headers map[string]string, body []byte) (*domain.RoutingResult, int, error) {
	method := mapping.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, mapping.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed map[string]any
	if len(respBody) > 0 {
		// Non-JSON bodies (Slack answers "ok") are tolerated.
		_ = json.Unmarshal(respBody, &parsed)
	}

	externalID := ""
	if system == SystemSlack {
		externalID = fmt.Sprintf("slack_%d", time.Now().Unix())
	} else {
		externalID = extractTicketID(system, parsed)
	}

	return &domain.RoutingResult{
		Success:          true,
		SystemName:       string(system),
		ExternalTicketID: externalID,
		ResponseBody:     parsed,
		HTTPStatus:       resp.StatusCode,
	}, resp.StatusCode, nil
}

// buildHeaders layers system defaults under team-mapping overrides; mapping
// headers win.
func (r *Router) buildHeaders(mapping *domain.TeamMapping, system SystemName) map[string]string {
	headers := map[string]string{
		"User-Agent":   r.userAgent,
		"Content-Type": "application/json",
	}
	if auth, ok := r.systemAuth[system]; ok && system != SystemSlack {
		headers["Authorization"] = auth
	}
	for key, value := range mapping.Headers {
		headers[key] = value
	}
	return headers
}

// EndpointTestResult reports a connectivity probe outcome.
type EndpointTestResult struct {
	Success        bool   `json:"success"`
	StatusCode     int    `json:"status_code,omitempty"`
	ResponseTimeMS int64  `json:"response_time_ms,omitempty"`
	Endpoint       string `json:"endpoint"`
	Error          string `json:"error,omitempty"`
}

// TestEndpoint checks connectivity to an endpoint without breaker or retry
// involvement. Used to validate team-mapping configuration.
func (r *Router) TestEndpoint(ctx context.Context, endpoint, method string) EndpointTestResult {
	if method == "" {
		method = http.MethodGet
	}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return EndpointTestResult{Endpoint: endpoint, Error: err.Error()}
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return EndpointTestResult{Endpoint: endpoint, Error: err.Error()}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	return EndpointTestResult{
		Success:        true,
		StatusCode:     resp.StatusCode,
		ResponseTimeMS: time.Since(start).Milliseconds(),
		Endpoint:       endpoint,
	}
}

// BreakerSnapshot exposes current circuit state for diagnostics.
func (r *Router) BreakerSnapshot() map[string]BreakerStatus {
	return r.breaker.Snapshot()
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
