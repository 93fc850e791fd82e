package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/core/types"
	"prorab/internal/domain"
	"prorab/internal/domain/catalogs/material"
	"prorab/internal/infrastructure/storage/postgres"
)

const materialsTable = "cat_materials"

var materialColumns = []string{
	"id", "deletion_mark", "version",
	"code", "name", "unit", "quantity", "cost_per_unit", "is_active",
}

// MaterialRepo implements material.Repository.
type MaterialRepo struct {
	baseRepo
}

// NewMaterialRepo creates a new workshop material repository.
func NewMaterialRepo(txManager *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{baseRepo{txManager: txManager}}
}

var _ material.Repository = (*MaterialRepo)(nil)

// Create inserts a new material.
func (r *MaterialRepo) Create(ctx context.Context, m *material.WorkshopMaterial) error {
	q := r.Builder().
		Insert(materialsTable).
		Columns(materialColumns...).
		Values(
			m.ID, m.DeletionMark, m.Version,
			m.Code, m.Name, m.Unit, m.Quantity, m.CostPerUnit, m.IsActive,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", materialsTable, err)
	}

	return nil
}

// GetByID retrieves a material by ID.
func (r *MaterialRepo) GetByID(ctx context.Context, materialID id.ID) (*material.WorkshopMaterial, error) {
	q := r.Builder().
		Select(materialColumns...).
		From(materialsTable).
		Where(squirrel.Eq{"id": materialID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m material.WorkshopMaterial
	if err := pgxscan.Get(ctx, r.querier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(materialsTable, materialID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}

	return &m, nil
}

// GetByCode retrieves a material by code.
func (r *MaterialRepo) GetByCode(ctx context.Context, code string) (*material.WorkshopMaterial, error) {
	q := r.Builder().
		Select(materialColumns...).
		From(materialsTable).
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m material.WorkshopMaterial
	if err := pgxscan.Get(ctx, r.querier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(materialsTable, code)
		}
		return nil, fmt.Errorf("get by code: %w", err)
	}

	return &m, nil
}

// GetForUpdate retrieves a material with a pessimistic row lock. Callers
// must be inside a transaction; the lock serializes concurrent ledger
// operations on the same material.
func (r *MaterialRepo) GetForUpdate(ctx context.Context, materialID id.ID) (*material.WorkshopMaterial, error) {
	sql := `
		SELECT id, deletion_mark, version,
		       code, name, unit, quantity, cost_per_unit, is_active
		FROM cat_materials
		WHERE id = $1
		FOR UPDATE
	`

	var m material.WorkshopMaterial
	if err := pgxscan.Get(ctx, r.querier(ctx), &m, sql, materialID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(materialsTable, materialID.String())
		}
		return nil, fmt.Errorf("get for update: %w", err)
	}

	return &m, nil
}

// AdjustStock applies a signed quantity delta to the material row.
// The CHECK (quantity >= 0) constraint on the table backs up the
// service-level availability check.
func (r *MaterialRepo) AdjustStock(ctx context.Context, materialID id.ID, delta types.Quantity) error {
	q := r.Builder().
		Update(materialsTable).
		Set("quantity", squirrel.Expr("quantity + ?", delta)).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": materialID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(materialsTable, materialID.String())
	}

	return nil
}

// Update modifies descriptive fields with optimistic locking.
// Stock quantity is written only through AdjustStock.
func (r *MaterialRepo) Update(ctx context.Context, m *material.WorkshopMaterial) error {
	q := r.Builder().
		Update(materialsTable).
		Set("code", m.Code).
		Set("name", m.Name).
		Set("unit", m.Unit).
		Set("cost_per_unit", m.CostPerUnit).
		Set("is_active", m.IsActive).
		Set("deletion_mark", m.DeletionMark).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": m.ID}).
		Where(squirrel.Eq{"version": m.Version}) // optimistic lock

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", materialsTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(materialsTable, m.ID)
	}

	m.Version++
	return nil
}

// SetDeletionMark soft-deletes or restores a material.
func (r *MaterialRepo) SetDeletionMark(ctx context.Context, materialID id.ID, marked bool) error {
	q := r.Builder().
		Update(materialsTable).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": materialID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(materialsTable, materialID.String())
	}

	return nil
}

// listSelect builds the filtered select for List. Separated so the
// generated SQL can be asserted without a database.
func (r *MaterialRepo) listSelect(filter material.ListFilter) squirrel.SelectBuilder {
	q := r.Builder().
		Select(materialColumns...).
		From(materialsTable)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	if filter.InStockOnly {
		q = q.Where(squirrel.Gt{"quantity": int64(0)})
	}

	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": searchPattern},
			squirrel.ILike{"code": searchPattern},
		})
	}

	return q
}

// List retrieves materials with filtering and pagination.
func (r *MaterialRepo) List(ctx context.Context, filter material.ListFilter) (domain.ListResult[*material.WorkshopMaterial], error) {
	result := domain.ListResult[*material.WorkshopMaterial]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.listSelect(filter)

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
