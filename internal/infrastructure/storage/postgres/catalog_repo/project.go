package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/domain"
	"prorab/internal/domain/projects"
	"prorab/internal/infrastructure/storage/postgres"
)

const projectsTable = "cat_projects"

var projectColumns = []string{
	"id", "deletion_mark", "version",
	"code", "name", "client_name", "budget", "fee_type", "fee_value", "is_archived",
}

// ProjectRepo implements projects.Repository.
type ProjectRepo struct {
	baseRepo
}

// NewProjectRepo creates a new project repository.
func NewProjectRepo(txManager *postgres.TxManager) *ProjectRepo {
	return &ProjectRepo{baseRepo{txManager: txManager}}
}

var _ projects.Repository = (*ProjectRepo)(nil)

// Create inserts a new project.
func (r *ProjectRepo) Create(ctx context.Context, p *projects.Project) error {
	q := r.Builder().
		Insert(projectsTable).
		Columns(projectColumns...).
		Values(
			p.ID, p.DeletionMark, p.Version,
			p.Code, p.Name, p.ClientName, p.Budget, p.FeeType, p.FeeValue, p.IsArchived,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", projectsTable, err)
	}

	return nil
}

// GetByID retrieves a project by ID.
func (r *ProjectRepo) GetByID(ctx context.Context, projectID id.ID) (*projects.Project, error) {
	q := r.Builder().
		Select(projectColumns...).
		From(projectsTable).
		Where(squirrel.Eq{"id": projectID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p projects.Project
	if err := pgxscan.Get(ctx, r.querier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(projectsTable, projectID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}

	return &p, nil
}

// GetByCode retrieves a project by code.
func (r *ProjectRepo) GetByCode(ctx context.Context, code string) (*projects.Project, error) {
	q := r.Builder().
		Select(projectColumns...).
		From(projectsTable).
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p projects.Project
	if err := pgxscan.Get(ctx, r.querier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(projectsTable, code)
		}
		return nil, fmt.Errorf("get by code: %w", err)
	}

	return &p, nil
}

// Update modifies a project with optimistic locking.
func (r *ProjectRepo) Update(ctx context.Context, p *projects.Project) error {
	q := r.Builder().
		Update(projectsTable).
		Set("code", p.Code).
		Set("name", p.Name).
		Set("client_name", p.ClientName).
		Set("budget", p.Budget).
		Set("fee_type", p.FeeType).
		Set("fee_value", p.FeeValue).
		Set("is_archived", p.IsArchived).
		Set("deletion_mark", p.DeletionMark).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"version": p.Version}) // optimistic lock

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", projectsTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(projectsTable, p.ID)
	}

	p.Version++
	return nil
}

// SetDeletionMark soft-deletes or restores a project.
func (r *ProjectRepo) SetDeletionMark(ctx context.Context, projectID id.ID, marked bool) error {
	q := r.Builder().
		Update(projectsTable).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": projectID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(projectsTable, projectID.String())
	}

	return nil
}

// List retrieves projects with filtering and pagination.
func (r *ProjectRepo) List(ctx context.Context, filter projects.ListFilter) (domain.ListResult[*projects.Project], error) {
	result := domain.ListResult[*projects.Project]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(projectColumns...).
		From(projectsTable)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if !filter.IncludeArchived {
		q = q.Where(squirrel.Eq{"is_archived": false})
	}

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": searchPattern},
			squirrel.ILike{"code": searchPattern},
			squirrel.ILike{"client_name": searchPattern},
		})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy := "name"
	if filter.OrderBy != "" {
		orderBy = filter.OrderBy
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}

	return result, nil
}
