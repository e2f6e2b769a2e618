package repository

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// TeamMappingRepository looks up routing configuration. GetMapping returns
// (nil, nil) when no mapping exists: absence is a first-class outcome, not
// an error, and no synthetic endpoint is fabricated.
type TeamMappingRepository interface {
	GetMapping(ctx context.Context, dept domain.Department, priority domain.TicketPriority) (*domain.TeamMapping, error)
	ListActive(ctx context.Context) ([]domain.TeamMapping, error)
}

type teamMappingRepository struct {
	pool *pgxpool.Pool
}

// NewTeamMappingRepository instantiates repository.
func NewTeamMappingRepository(pool *pgxpool.Pool) TeamMappingRepository {
	return &teamMappingRepository{pool: pool}
}

const mappingColumns = `id, department, team_name, api_endpoint, api_method, api_headers, priority_threshold, is_active, created_at, updated_at`

func (r *teamMappingRepository) GetMapping(ctx context.Context, dept domain.Department, priority domain.TicketPriority) (*domain.TeamMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM team_mappings WHERE department=$1 AND is_active=true`
	rows, err := r.pool.Query(ctx, query, string(dept))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mappings, err := scanMappings(rows)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return nil, nil
	}

	// Highest threshold first; the first mapping whose threshold the ticket
	// priority meets wins.
	sort.SliceStable(mappings, func(i, j int) bool {
		return domain.PriorityRank(mappings[i].PriorityThreshold) > domain.PriorityRank(mappings[j].PriorityThreshold)
	})

	ticketRank := domain.PriorityRank(priority)
	for i := range mappings {
		if ticketRank >= domain.PriorityRank(mappings[i].PriorityThreshold) {
			return &mappings[i], nil
		}
	}
	return &mappings[0], nil
}

func (r *teamMappingRepository) ListActive(ctx context.Context) ([]domain.TeamMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM team_mappings WHERE is_active=true ORDER BY department, priority_threshold`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMappings(rows)
}

func scanMappings(rows pgx.Rows) ([]domain.TeamMapping, error) {
	var result []domain.TeamMapping
	for rows.Next() {
		var mapping domain.TeamMapping
		var dept, threshold string
		if err := rows.Scan(
			&mapping.ID,
			&dept,
			&mapping.TeamName,
			&mapping.Endpoint,
			&mapping.Method,
			&mapping.Headers,
			&threshold,
			&mapping.Active,
			&mapping.CreatedAt,
			&mapping.UpdatedAt,
		); err != nil {
			return nil, err
		}
		mapping.Department = domain.Department(dept)
		mapping.PriorityThreshold = domain.TicketPriority(threshold)
		if mapping.Headers == nil {
			mapping.Headers = map[string]string{}
		}
		result = append(result, mapping)
	}
	return result, rows.Err()
}
