package dto

import (
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/repository"
	"github.com/spec-kit/ticket-triage/internal/routing"
)

// CreateTicketRequest is the webhook ingest payload.
type CreateTicketRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Email       string         `json:"email"`
	Priority    string         `json:"priority"`
	Metadata    map[string]any `json:"metadata"`
}

// ToDomain converts the request to the domain type.
func (r CreateTicketRequest) ToDomain() domain.IncomingTicket {
	return domain.IncomingTicket{
		Title:       r.Title,
		Description: r.Description,
		Email:       r.Email,
		Priority:    domain.TicketPriority(r.Priority),
		Metadata:    r.Metadata,
	}
}

// TicketAcceptedResponse acknowledges an accepted ticket.
type TicketAcceptedResponse struct {
	TicketID         string `json:"ticket_id"`
	Status           string `json:"status"`
	Message          string `json:"message"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
}

// TicketStatusResponse reports the current pipeline state of a ticket.
type TicketStatusResponse struct {
	Ticket *domain.ProcessedTicket `json:"ticket"`
}

// MetricsResponse aggregates service counters for the metrics endpoint.
type MetricsResponse struct {
	Service        observability.MetricsSnapshot    `json:"service"`
	Triage         *repository.TriageMetrics        `json:"triage,omitempty"`
	Classifier     ClassifierMetrics                `json:"classifier"`
	CircuitBreaker map[string]routing.BreakerStatus `json:"circuit_breakers"`
}

// ClassifierMetrics reports classifier cache state.
type ClassifierMetrics struct {
	CacheSize    int    `json:"cache_size"`
	ModelVersion string `json:"model_version"`
}

// EndpointTestRequest asks for a connectivity probe of an endpoint.
type EndpointTestRequest struct {
	Endpoint string `json:"endpoint"`
	Method   string `json:"method"`
}
