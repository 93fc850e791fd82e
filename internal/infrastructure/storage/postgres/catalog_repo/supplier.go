package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/domain"
	"prorab/internal/domain/catalogs/supplier"
	"prorab/internal/infrastructure/storage/postgres"
)

const supplierMaterialsTable = "cat_supplier_materials"

var supplierMaterialColumns = []string{
	"id", "deletion_mark", "version",
	"code", "name", "supplier_name", "unit", "unit_price", "category",
}

// SupplierMaterialRepo implements supplier.Repository.
type SupplierMaterialRepo struct {
	baseRepo
}

// NewSupplierMaterialRepo creates a new supplier price list repository.
func NewSupplierMaterialRepo(txManager *postgres.TxManager) *SupplierMaterialRepo {
	return &SupplierMaterialRepo{baseRepo{txManager: txManager}}
}

var _ supplier.Repository = (*SupplierMaterialRepo)(nil)

// Create inserts a new price list entry.
func (r *SupplierMaterialRepo) Create(ctx context.Context, m *supplier.Material) error {
	q := r.Builder().
		Insert(supplierMaterialsTable).
		Columns(supplierMaterialColumns...).
		Values(
			m.ID, m.DeletionMark, m.Version,
			m.Code, m.Name, m.SupplierName, m.Unit, m.UnitPrice, m.Category,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", supplierMaterialsTable, err)
	}

	return nil
}

// GetByID retrieves a price list entry by ID.
func (r *SupplierMaterialRepo) GetByID(ctx context.Context, entryID id.ID) (*supplier.Material, error) {
	q := r.Builder().
		Select(supplierMaterialColumns...).
		From(supplierMaterialsTable).
		Where(squirrel.Eq{"id": entryID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m supplier.Material
	if err := pgxscan.Get(ctx, r.querier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(supplierMaterialsTable, entryID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}

	return &m, nil
}

// GetByCode retrieves a price list entry by code.
func (r *SupplierMaterialRepo) GetByCode(ctx context.Context, code string) (*supplier.Material, error) {
	q := r.Builder().
		Select(supplierMaterialColumns...).
		From(supplierMaterialsTable).
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m supplier.Material
	if err := pgxscan.Get(ctx, r.querier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(supplierMaterialsTable, code)
		}
		return nil, fmt.Errorf("get by code: %w", err)
	}

	return &m, nil
}

// Update modifies a price list entry with optimistic locking.
func (r *SupplierMaterialRepo) Update(ctx context.Context, m *supplier.Material) error {
	q := r.Builder().
		Update(supplierMaterialsTable).
		Set("code", m.Code).
		Set("name", m.Name).
		Set("supplier_name", m.SupplierName).
		Set("unit", m.Unit).
		Set("unit_price", m.UnitPrice).
		Set("category", m.Category).
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
		return fmt.Errorf("update %s: %w", supplierMaterialsTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(supplierMaterialsTable, m.ID)
	}

	m.Version++
	return nil
}

// SetDeletionMark soft-deletes or restores a price list entry.
func (r *SupplierMaterialRepo) SetDeletionMark(ctx context.Context, entryID id.ID, marked bool) error {
	q := r.Builder().
		Update(supplierMaterialsTable).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entryID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(supplierMaterialsTable, entryID.String())
	}

	return nil
}

// List retrieves price list entries with filtering and pagination.
func (r *SupplierMaterialRepo) List(ctx context.Context, filter supplier.ListFilter) (domain.ListResult[*supplier.Material], error) {
	result := domain.ListResult[*supplier.Material]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(supplierMaterialColumns...).
		From(supplierMaterialsTable)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.SupplierName != "" {
		q = q.Where(squirrel.Eq{"supplier_name": filter.SupplierName})
	}

	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": searchPattern},
			squirrel.ILike{"code": searchPattern},
			squirrel.ILike{"supplier_name": searchPattern},
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
