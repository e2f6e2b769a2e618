package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/repository"
	"github.com/spec-kit/ticket-triage/internal/routing"
	"github.com/spec-kit/ticket-triage/internal/service"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util"
)

// ClassifierStats exposes classifier cache state to the metrics endpoint.
type ClassifierStats interface {
	CacheSize() int
	ModelVersion() string
}

// WebhookHandler serves the ticket ingest and status endpoints.
type WebhookHandler struct {
	triage     *service.TriageService
	logs       repository.TicketLogRepository
	classifier ClassifierStats
	router     *routing.Router
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(
	triage *service.TriageService,
	logs repository.TicketLogRepository,
	classifier ClassifierStats,
	router *routing.Router,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		triage:     triage,
		logs:       logs,
		classifier: classifier,
		router:     router,
		metrics:    metrics,
		logger:     logger,
	}
}

// CreateTicket accepts a ticket and responds 202 once the pipeline is
// started; classification and routing happen in the background.
func (h *WebhookHandler) CreateTicket(c *fiber.Ctx) error {
	start := time.Now()

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticketID, err := h.triage.Accept(c.UserContext(), req.ToDomain())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.TicketAcceptedResponse{
		TicketID:         ticketID,
		Status:           "received",
		Message:          "Ticket accepted and queued for classification",
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	})
}

// GetTicket returns the current state of a ticket by id.
func (h *WebhookHandler) GetTicket(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	if ticketID == "" {
		return apperrors.NewValidationError("ticket id is required", nil)
	}

	ticket, err := h.triage.GetTicket(c.UserContext(), ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.MapError(err)
	}

	return c.JSON(dto.TicketStatusResponse{Ticket: ticket})
}

// Metrics reports pipeline counters, audit aggregates, classifier cache
// state and circuit breaker status.
func (h *WebhookHandler) Metrics(c *fiber.Ctx) error {
	response := dto.MetricsResponse{
		Service: h.metrics.Snapshot(),
		Classifier: dto.ClassifierMetrics{
			CacheSize:    h.classifier.CacheSize(),
			ModelVersion: h.classifier.ModelVersion(),
		},
		CircuitBreaker: h.router.BreakerSnapshot(),
	}

	if h.logs != nil {
		triage, err := h.logs.Metrics(c.UserContext())
		if err != nil {
			h.logger.Warn("audit metrics unavailable", zap.Error(err))
		} else {
			response.Triage = triage
		}
	}

	return c.JSON(response)
}

// TestEndpoint probes connectivity to an arbitrary endpoint, bypassing
// breaker and retry.
func (h *WebhookHandler) TestEndpoint(c *fiber.Ctx) error {
	var req dto.EndpointTestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.Endpoint == "" {
		return apperrors.NewValidationError("endpoint is required", nil)
	}

	result := h.router.TestEndpoint(c.UserContext(), req.Endpoint, req.Method)
	return c.JSON(result)
}
