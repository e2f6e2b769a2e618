package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-triage/internal/api/http/handlers"
	"github.com/spec-kit/ticket-triage/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Webhook     *handlers.WebhookHandler
	WebhookAuth *auth.WebhookAuth
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	webhook := app.Group("/webhook", cfg.WebhookAuth.Handle)
	webhook.Post("/ticket", cfg.Webhook.CreateTicket)
	webhook.Get("/ticket/:id", cfg.Webhook.GetTicket)
	webhook.Get("/metrics", cfg.Webhook.Metrics)
	webhook.Post("/test/endpoint", cfg.Webhook.TestEndpoint)
}
