package domain

import "time"

// TeamMapping links a department and priority threshold to a destination
// endpoint. The routing layer treats mappings as read-only input.
type TeamMapping struct {
	ID                int64
	Department        Department
	TeamName          string
	Endpoint          string
	Method            string
	Headers           map[string]string
	PriorityThreshold TicketPriority
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RoutingResult is produced exactly once per routing attempt sequence, after
// internal retries are exhausted or an attempt succeeds.
type RoutingResult struct {
	Success          bool           `json:"success"`
	SystemName       string         `json:"system_name"`
	ExternalTicketID string         `json:"external_ticket_id,omitempty"`
	ResponseBody     map[string]any `json:"response_body,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	HTTPStatus       int            `json:"http_status,omitempty"`
	ProcessingTime   time.Duration  `json:"processing_time"`
}
