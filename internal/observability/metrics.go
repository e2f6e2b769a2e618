package observability

import (
	"sync"
	"time"
)

// Metrics keeps in-process counters for the triage pipeline. All methods are
// safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	startedAt time.Time

	requestsTotal int64
	errorsTotal   int64

	ticketsByStatus     map[string]int64
	ticketsByDepartment map[string]int64
	classifiedByModel   map[string]int64
	routedBySystem      map[string]int64
	routingFailures     map[string]int64
}

// MetricsSnapshot is a point-in-time copy safe to serialize.
type MetricsSnapshot struct {
	UptimeSeconds       float64          `json:"uptime_seconds"`
	RequestsTotal       int64            `json:"requests_total"`
	ErrorsTotal         int64            `json:"errors_total"`
	TicketsByStatus     map[string]int64 `json:"tickets_by_status"`
	TicketsByDepartment map[string]int64 `json:"tickets_by_department"`
	ClassifiedByModel   map[string]int64 `json:"classified_by_model"`
	RoutedBySystem      map[string]int64 `json:"routed_by_system"`
	RoutingFailures     map[string]int64 `json:"routing_failures_by_system"`
}

// NewMetrics returns zeroed counters.
func NewMetrics() *Metrics {
	return &Metrics{
		startedAt:           time.Now(),
		ticketsByStatus:     map[string]int64{},
		ticketsByDepartment: map[string]int64{},
		classifiedByModel:   map[string]int64{},
		routedBySystem:      map[string]int64{},
		routingFailures:     map[string]int64{},
	}
}

// IncRequest counts an inbound HTTP request.
func (m *Metrics) IncRequest() {
	m.mu.Lock()
	m.requestsTotal++
	m.mu.Unlock()
}

// IncError counts a request that ended in an error response.
func (m *Metrics) IncError() {
	m.mu.Lock()
	m.errorsTotal++
	m.mu.Unlock()
}

// RecordTicketStatus counts a ticket reaching a pipeline status.
func (m *Metrics) RecordTicketStatus(status string) {
	m.mu.Lock()
	m.ticketsByStatus[status]++
	m.mu.Unlock()
}

// RecordClassification counts a classification by department and model.
func (m *Metrics) RecordClassification(department, modelVersion string) {
	m.mu.Lock()
	m.ticketsByDepartment[department]++
	m.classifiedByModel[modelVersion]++
	m.mu.Unlock()
}

// RecordRouting counts a routing attempt outcome per target system.
func (m *Metrics) RecordRouting(system string, success bool) {
	m.mu.Lock()
	if success {
		m.routedBySystem[system]++
	} else {
		m.routingFailures[system]++
	}
	m.mu.Unlock()
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		UptimeSeconds:       time.Since(m.startedAt).Seconds(),
		RequestsTotal:       m.requestsTotal,
		ErrorsTotal:         m.errorsTotal,
		TicketsByStatus:     copyCounts(m.ticketsByStatus),
		TicketsByDepartment: copyCounts(m.ticketsByDepartment),
		ClassifiedByModel:   copyCounts(m.classifiedByModel),
		RoutedBySystem:      copyCounts(m.routedBySystem),
		RoutingFailures:     copyCounts(m.routingFailures),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
