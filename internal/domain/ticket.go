package domain

import (
	"errors"
	"strings"
	"time"
)

// TicketPriority enumerates SLA urgency for incoming tickets.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// PriorityRank orders priorities for threshold comparisons.
func PriorityRank(p TicketPriority) int {
	switch p {
	case TicketPriorityLow:
		return 1
	case TicketPriorityMedium:
		return 2
	case TicketPriorityHigh:
		return 3
	case TicketPriorityCritical:
		return 4
	default:
		return 1
	}
}

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// TicketStatus enumerates pipeline states for a ticket.
type TicketStatus string

const (
	TicketStatusReceived   TicketStatus = "received"
	TicketStatusClassified TicketStatus = "classified"
	TicketStatusRouted     TicketStatus = "routed"
	TicketStatusFailed     TicketStatus = "failed"
)

// IncomingTicket is the raw ticket payload accepted at the front door.
type IncomingTicket struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Email       string         `json:"email"`
	Priority    TicketPriority `json:"priority"`
	Metadata    map[string]any `json:"metadata"`
}

// Validate rejects malformed input before it reaches the pipeline. An empty
// priority defaults to medium; anything else unknown is an error.
func (t *IncomingTicket) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("ticket title cannot be empty")
	}
	if strings.TrimSpace(t.Description) == "" {
		return errors.New("ticket description cannot be empty")
	}
	if strings.TrimSpace(t.Email) == "" {
		return errors.New("reporter email cannot be empty")
	}
	if t.Priority == "" {
		t.Priority = TicketPriorityMedium
	}
	if !ValidPriority(t.Priority) {
		return errors.New("unknown ticket priority: " + string(t.Priority))
	}
	return nil
}

// ProcessedTicket carries a ticket through the triage pipeline and into the
// audit log. It accumulates classification and routing outcomes as the
// pipeline advances.
type ProcessedTicket struct {
	TicketID    string         `json:"ticket_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Email       string         `json:"email"`
	Priority    TicketPriority `json:"priority"`
	Metadata    map[string]any `json:"metadata"`
	Status      TicketStatus   `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Department   Department `json:"department,omitempty"`
	AssignedTeam string     `json:"assigned_team,omitempty"`
	Confidence   float64    `json:"confidence"`
	Reasoning    string     `json:"reasoning,omitempty"`
	ModelVersion string     `json:"model_version,omitempty"`

	RoutedToSystem   string `json:"routed_to_system,omitempty"`
	ExternalTicketID string `json:"external_ticket_id,omitempty"`
	RoutingError     string `json:"routing_error,omitempty"`
}

// NewProcessedTicket seeds a pipeline record from validated input.
func NewProcessedTicket(ticketID string, in IncomingTicket) *ProcessedTicket {
	now := time.Now().UTC()
	return &ProcessedTicket{
		TicketID:    ticketID,
		Title:       in.Title,
		Description: in.Description,
		Email:       in.Email,
		Priority:    in.Priority,
		Metadata:    in.Metadata,
		Status:      TicketStatusReceived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Incoming re-derives the classifier input from the pipeline record.
func (t *ProcessedTicket) Incoming() IncomingTicket {
	return IncomingTicket{
		Title:       t.Title,
		Description: t.Description,
		Email:       t.Email,
		Priority:    t.Priority,
		Metadata:    t.Metadata,
	}
}

// ApplyClassification copies classifier output onto the pipeline record.
func (t *ProcessedTicket) ApplyClassification(result ClassificationResult) {
	t.Department = result.Department
	t.AssignedTeam = result.AssignedTeam
	t.Confidence = result.Confidence
	t.Reasoning = result.Reasoning
	t.ModelVersion = result.ModelVersion
	t.Status = TicketStatusClassified
	t.UpdatedAt = time.Now().UTC()
}
