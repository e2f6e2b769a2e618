package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// ErrTicketNotFound is returned when no audit record exists for a ticket id.
var ErrTicketNotFound = errors.New("ticket not found")

// TriageMetrics aggregates processing statistics from the audit log.
type TriageMetrics struct {
	TotalProcessed         int64            `json:"total_tickets_processed"`
	SuccessRate            float64          `json:"success_rate"`
	DepartmentDistribution map[string]int64 `json:"department_distribution"`
}

// TicketLogRepository persists the audit trail of processed tickets,
// append-or-update keyed by ticket id.
type TicketLogRepository interface {
	Upsert(ctx context.Context, ticket *domain.ProcessedTicket) error
	GetByTicketID(ctx context.Context, ticketID string) (*domain.ProcessedTicket, error)
	Metrics(ctx context.Context) (*TriageMetrics, error)
}

type ticketLogRepository struct {
	pool *pgxpool.Pool
}

// NewTicketLogRepository instantiates repository.
func NewTicketLogRepository(pool *pgxpool.Pool) TicketLogRepository {
	return &ticketLogRepository{pool: pool}
}

func (r *ticketLogRepository) Upsert(ctx context.Context, ticket *domain.ProcessedTicket) error {
	const query = `
        INSERT INTO ticket_logs (ticket_id, title, description, email, priority, department, assigned_to,
                                 status, confidence, reasoning, model_version, external_ticket_id,
                                 routed_to_system, routing_error, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        ON CONFLICT (ticket_id) DO UPDATE SET
            department=EXCLUDED.department,
            assigned_to=EXCLUDED.assigned_to,
            status=EXCLUDED.status,
            confidence=EXCLUDED.confidence,
            reasoning=EXCLUDED.reasoning,
            model_version=EXCLUDED.model_version,
            external_ticket_id=EXCLUDED.external_ticket_id,
            routed_to_system=EXCLUDED.routed_to_system,
            routing_error=EXCLUDED.routing_error,
            updated_at=NOW()`
	_, err := r.pool.Exec(ctx, query,
		ticket.TicketID,
		ticket.Title,
		ticket.Description,
		ticket.Email,
		string(ticket.Priority),
		nullable(string(ticket.Department)),
		nullable(ticket.AssignedTeam),
		string(ticket.Status),
		ticket.Confidence,
		nullable(ticket.Reasoning),
		nullable(ticket.ModelVersion),
		nullable(ticket.ExternalTicketID),
		nullable(ticket.RoutedToSystem),
		nullable(ticket.RoutingError),
		ticket.Metadata,
	)
	return err
}

func (r *ticketLogRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.ProcessedTicket, error) {
	const query = `
        SELECT ticket_id, title, description, email, priority, department, assigned_to, status,
               confidence, reasoning, model_version, external_ticket_id, routed_to_system,
               routing_error, metadata, created_at, updated_at
        FROM ticket_logs WHERE ticket_id=$1`

	var ticket domain.ProcessedTicket
	var priority, status string
	var department, assignedTo, reasoning, modelVersion, externalID, routedSystem, routingError *string
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&ticket.TicketID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Email,
		&priority,
		&department,
		&assignedTo,
		&status,
		&ticket.Confidence,
		&reasoning,
		&modelVersion,
		&externalID,
		&routedSystem,
		&routingError,
		&ticket.Metadata,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	ticket.Priority = domain.TicketPriority(priority)
	ticket.Status = domain.TicketStatus(status)
	ticket.Department = domain.Department(deref(department))
	ticket.AssignedTeam = deref(assignedTo)
	ticket.Reasoning = deref(reasoning)
	ticket.ModelVersion = deref(modelVersion)
	ticket.ExternalTicketID = deref(externalID)
	ticket.RoutedToSystem = deref(routedSystem)
	ticket.RoutingError = deref(routingError)
	return &ticket, nil
}

func (r *ticketLogRepository) Metrics(ctx context.Context) (*TriageMetrics, error) {
	metrics := &TriageMetrics{DepartmentDistribution: map[string]int64{}}

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_logs`).Scan(&metrics.TotalProcessed); err != nil {
		return nil, err
	}

	var routed int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_logs WHERE status='routed'`).Scan(&routed); err != nil {
		return nil, err
	}
	if metrics.TotalProcessed > 0 {
		metrics.SuccessRate = float64(routed) / float64(metrics.TotalProcessed) * 100
	}

	rows, err := r.pool.Query(ctx, `SELECT COALESCE(department, 'unknown'), COUNT(*) FROM ticket_logs GROUP BY department`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var dept string
		var count int64
		if err := rows.Scan(&dept, &count); err != nil {
			return nil, err
		}
		metrics.DepartmentDistribution[dept] = count
	}
	return metrics, rows.Err()
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
