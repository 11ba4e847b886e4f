package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/bugtrack-service/internal/domain"
)

// BugFilter captures listing parameters.
type BugFilter struct {
	ProjectID *string
	ModuleID  *string
	Status    *domain.BugStatus
	Assignee  *string
	Limit     int
	Offset    int
}

// BugRepository encapsulates bug persistence.
type BugRepository interface {
	Create(ctx context.Context, bug *domain.Bug) error
	Update(ctx context.Context, bug *domain.Bug) error
	UpdateStatus(ctx context.Context, id string, from, to domain.BugStatus) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Bug, error)
	ListWithFilter(ctx context.Context, filter BugFilter) ([]domain.Bug, int, error)
}

type bugRepository struct {
	pool *pgxpool.Pool
}

// NewBugRepository instantiates repository.
func NewBugRepository(pool *pgxpool.Pool) BugRepository {
	return &bugRepository{pool: pool}
}

func (r *bugRepository) Create(ctx context.Context, bug *domain.Bug) error {
	const query = `
        INSERT INTO bugs (project_id, module_id, title, description, status, reported_by, assignees)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		bug.ProjectID,
		bug.ModuleID,
		bug.Title,
		bug.Description,
		bug.Status,
		bug.ReportedBy,
		bug.Assignees,
	).Scan(&bug.ID, &bug.CreatedAt, &bug.UpdatedAt)
}

func (r *bugRepository) Update(ctx context.Context, bug *domain.Bug) error {
	const query = `
        UPDATE bugs SET module_id=$1, title=$2, description=$3, status=$4, assignees=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		bug.ModuleID,
		bug.Title,
		bug.Description,
		bug.Status,
		bug.Assignees,
		bug.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateStatus writes the status compare-and-swap style: the row is touched
// only while it still holds the expected from status, so concurrent writers
// carrying the same from cannot both win.
func (r *bugRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BugStatus) error {
	const query = `UPDATE bugs SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2`
	cmd, err := r.pool.Exec(ctx, query, id, from, to)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *bugRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM bugs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *bugRepository) GetByID(ctx context.Context, id string) (*domain.Bug, error) {
	const query = `
        SELECT id, project_id, module_id, title, description, status, reported_by, assignees, created_at, updated_at
        FROM bugs WHERE id=$1`

	var bug domain.Bug
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&bug.ID,
		&bug.ProjectID,
		&bug.ModuleID,
		&bug.Title,
		&bug.Description,
		&bug.Status,
		&bug.ReportedBy,
		&bug.Assignees,
		&bug.CreatedAt,
		&bug.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &bug, nil
}

func (r *bugRepository) ListWithFilter(ctx context.Context, filter BugFilter) ([]domain.Bug, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		clauses = append(clauses, fmt.Sprintf("project_id=$%d", len(args)))
	}
	if filter.ModuleID != nil {
		args = append(args, *filter.ModuleID)
		clauses = append(clauses, fmt.Sprintf("module_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Assignee != nil {
		args = append(args, *filter.Assignee)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(assignees)", len(args)))
	}

	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM bugs WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT id, project_id, module_id, title, description, status, reported_by, assignees, created_at, updated_at
        FROM bugs WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Bug
	for rows.Next() {
		var bug domain.Bug
		if err := rows.Scan(
			&bug.ID,
			&bug.ProjectID,
			&bug.ModuleID,
			&bug.Title,
			&bug.Description,
			&bug.Status,
			&bug.ReportedBy,
			&bug.Assignees,
			&bug.CreatedAt,
			&bug.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, bug)
	}
	return result, total, rows.Err()
}
