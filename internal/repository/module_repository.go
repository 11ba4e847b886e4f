package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/bugtrack-service/internal/domain"
)

// ModuleRepository encapsulates module persistence.
type ModuleRepository interface {
	Create(ctx context.Context, module *domain.Module) error
	GetByID(ctx context.Context, id string) (*domain.Module, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Module, error)
	ListByProjects(ctx context.Context, projectIDs []string) ([]domain.Module, error)
	ListAll(ctx context.Context) ([]domain.Module, error)
}

type moduleRepository struct {
	pool *pgxpool.Pool
}

// NewModuleRepository instantiates repository.
func NewModuleRepository(pool *pgxpool.Pool) ModuleRepository {
	return &moduleRepository{pool: pool}
}

func (r *moduleRepository) Create(ctx context.Context, module *domain.Module) error {
	const query = `
        INSERT INTO modules (project_id, name, created_by)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		module.ProjectID,
		module.Name,
		module.CreatedBy,
	).Scan(&module.ID, &module.CreatedAt, &module.UpdatedAt)
}

func (r *moduleRepository) GetByID(ctx context.Context, id string) (*domain.Module, error) {
	const query = `
        SELECT id, project_id, name, created_by, created_at, updated_at
        FROM modules WHERE id=$1`

	var module domain.Module
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&module.ID,
		&module.ProjectID,
		&module.Name,
		&module.CreatedBy,
		&module.CreatedAt,
		&module.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *moduleRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Module, error) {
	const query = `
        SELECT id, project_id, name, created_by, created_at, updated_at
        FROM modules WHERE project_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanModules(rows)
}

func (r *moduleRepository) ListByProjects(ctx context.Context, projectIDs []string) ([]domain.Module, error) {
	if len(projectIDs) == 0 {
		return []domain.Module{}, nil
	}
	const query = `
        SELECT id, project_id, name, created_by, created_at, updated_at
        FROM modules WHERE project_id = ANY($1) ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, projectIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanModules(rows)
}

func (r *moduleRepository) ListAll(ctx context.Context) ([]domain.Module, error) {
	const query = `
        SELECT id, project_id, name, created_by, created_at, updated_at
        FROM modules ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanModules(rows)
}

func scanModules(rows pgx.Rows) ([]domain.Module, error) {
	var result []domain.Module
	for rows.Next() {
		var module domain.Module
		if err := rows.Scan(
			&module.ID,
			&module.ProjectID,
			&module.Name,
			&module.CreatedBy,
			&module.CreatedAt,
			&module.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, module)
	}
	return result, rows.Err()
}
