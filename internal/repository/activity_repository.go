package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/bugtrack-service/internal/domain"
)

// ActivityRepository stores append-only audit records.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	ListByBug(ctx context.Context, bugID string, limit, offset int) ([]domain.Activity, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository instantiates repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	const query = `
        INSERT INTO activities (bug_id, module_id, actor_id, action, from_value, to_value, note)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		activity.BugID,
		activity.ModuleID,
		activity.ActorID,
		activity.Action,
		activity.From,
		activity.To,
		activity.Note,
	).Scan(&activity.ID, &activity.CreatedAt)
}

func (r *activityRepository) ListByBug(ctx context.Context, bugID string, limit, offset int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, bug_id, module_id, actor_id, action, from_value, to_value, note, created_at
        FROM activities WHERE bug_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, bugID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Activity
	for rows.Next() {
		var activity domain.Activity
		if err := rows.Scan(
			&activity.ID,
			&activity.BugID,
			&activity.ModuleID,
			&activity.ActorID,
			&activity.Action,
			&activity.From,
			&activity.To,
			&activity.Note,
			&activity.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, activity)
	}
	return result, rows.Err()
}
