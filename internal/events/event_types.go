package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// EventType identifies a lifecycle event emitted by the triage pipeline.
type EventType string

const (
	TicketReceived      EventType = "ticket_received"
	TicketClassified    EventType = "ticket_classified"
	TicketRouted        EventType = "ticket_routed"
	TicketRoutingFailed EventType = "ticket_routing_failed"
)

// Event carries the payload published to subscribers.
type Event struct {
	ID        string
	Type      EventType
	TicketID  string
	Timestamp time.Time
	Payload   any
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(eventType EventType, ticketID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketReceivedPayload accompanies TicketReceived.
type TicketReceivedPayload struct {
	Title    string
	Email    string
	Priority domain.TicketPriority
}

// TicketClassifiedPayload accompanies TicketClassified.
type TicketClassifiedPayload struct {
	Department   domain.Department
	AssignedTeam string
	Confidence   float64
	ModelVersion string
}

// TicketRoutedPayload accompanies TicketRouted.
type TicketRoutedPayload struct {
	System           string
	ExternalTicketID string
}

// TicketRoutingFailedPayload accompanies TicketRoutingFailed.
type TicketRoutingFailedPayload struct {
	System string
	Reason string
}
