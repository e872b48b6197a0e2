package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
)

// EntityChangeRepository stores audit entries for manual edits.
type EntityChangeRepository interface {
	Create(ctx context.Context, change *domain.EntityChange) error
	// List returns changes for an entity kind, optionally a single record, newest first.
	List(ctx context.Context, entity domain.ChangedEntity, entityID *string) ([]domain.EntityChange, error)
}

type entityChangeRepository struct {
	pool *pgxpool.Pool
}

// NewEntityChangeRepository builds repository.
func NewEntityChangeRepository(pool *pgxpool.Pool) EntityChangeRepository {
	return &entityChangeRepository{pool: pool}
}

func (r *entityChangeRepository) Create(ctx context.Context, change *domain.EntityChange) error {
	const query = `
        INSERT INTO entity_changes (entity, entity_id, field, old_value, new_value, changed_by_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, changed_at`
	return r.pool.QueryRow(ctx, query,
		change.Entity,
		change.EntityID,
		change.Field,
		change.OldValue,
		change.NewValue,
		change.ChangedByID,
	).Scan(&change.ID, &change.ChangedAt)
}

func (r *entityChangeRepository) List(ctx context.Context, entity domain.ChangedEntity, entityID *string) ([]domain.EntityChange, error) {
	const query = `
        SELECT id, entity, entity_id, field, old_value, new_value, changed_by_id, changed_at
        FROM entity_changes
        WHERE entity=$1 AND ($2::uuid IS NULL OR entity_id=$2::uuid)
        ORDER BY changed_at DESC`
	rows, err := r.pool.Query(ctx, query, entity, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EntityChange
	for rows.Next() {
		var change domain.EntityChange
		if err := rows.Scan(
			&change.ID,
			&change.Entity,
			&change.EntityID,
			&change.Field,
			&change.OldValue,
			&change.NewValue,
			&change.ChangedByID,
			&change.ChangedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, change)
	}
	return result, rows.Err()
}
