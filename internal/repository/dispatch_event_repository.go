package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
)

// DispatchEventFilter narrows resolution log listings.
type DispatchEventFilter struct {
	Action   *domain.DispatchAction
	TicketID *string
	Limit    int
	Offset   int
}

// DispatchEventRepository is the append-only resolution log.
type DispatchEventRepository interface {
	Append(ctx context.Context, event *domain.DispatchEvent) error
	// List returns events newest first.
	List(ctx context.Context, filter DispatchEventFilter) ([]domain.DispatchEvent, error)
}

type dispatchEventRepository struct {
	pool *pgxpool.Pool
}

// NewDispatchEventRepository builds repository.
func NewDispatchEventRepository(pool *pgxpool.Pool) DispatchEventRepository {
	return &dispatchEventRepository{pool: pool}
}

func (r *dispatchEventRepository) Append(ctx context.Context, event *domain.DispatchEvent) error {
	const query = `
        INSERT INTO dispatch_events (id, action, ticket_id, ticket_summary, priority, agent_id, agent_name, occurred_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Action,
		event.TicketID,
		event.TicketSummary,
		event.Priority,
		event.AgentID,
		event.AgentName,
		event.OccurredAt,
	)
	return err
}

func (r *dispatchEventRepository) List(ctx context.Context, filter DispatchEventFilter) ([]domain.DispatchEvent, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Action != nil {
		args = append(args, *filter.Action)
		clauses = append(clauses, fmt.Sprintf("action=$%d", len(args)))
	}
	if filter.TicketID != nil {
		args = append(args, *filter.TicketID)
		clauses = append(clauses, fmt.Sprintf("ticket_id=$%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT id, action, ticket_id, ticket_summary, priority, agent_id, agent_name, occurred_at
        FROM dispatch_events WHERE %s ORDER BY occurred_at DESC, seq DESC LIMIT %d OFFSET %d`,
		strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DispatchEvent
	for rows.Next() {
		var event domain.DispatchEvent
		if err := rows.Scan(
			&event.ID,
			&event.Action,
			&event.TicketID,
			&event.TicketSummary,
			&event.Priority,
			&event.AgentID,
			&event.AgentName,
			&event.OccurredAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
