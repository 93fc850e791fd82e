package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/domain"
	"prorab/internal/domain/changeorders"
	"prorab/internal/infrastructure/storage/postgres"
)

const (
	changeOrdersTable     = "doc_change_orders"
	changeOrderItemsTable = "doc_change_order_items"
)

var changeOrderColumns = []string{
	"id", "deletion_mark", "version",
	"created_at", "updated_at", "created_by", "updated_by",
	"number", "date", "project_id", "comment",
	"title", "status", "total", "approved_at", "invoiced",
}

// ChangeOrderRepo implements changeorders.Repository.
type ChangeOrderRepo struct {
	baseRepo
}

// NewChangeOrderRepo creates a new change order repository.
func NewChangeOrderRepo(txManager *postgres.TxManager) *ChangeOrderRepo {
	return &ChangeOrderRepo{baseRepo{txManager: txManager}}
}

var _ changeorders.Repository = (*ChangeOrderRepo)(nil)

// Create inserts a change order and its items.
func (r *ChangeOrderRepo) Create(ctx context.Context, co *changeorders.ChangeOrder) error {
	q := r.Builder().
		Insert(changeOrdersTable).
		Columns(changeOrderColumns...).
		Values(
			co.ID, co.DeletionMark, co.Version,
			co.CreatedAt, co.UpdatedAt, co.CreatedBy, co.UpdatedBy,
			co.Number, co.Date, co.ProjectID, co.Comment,
			co.Title, co.Status, co.Total, co.ApprovedAt, co.Invoiced,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", changeOrdersTable, err)
	}

	return r.saveItems(ctx, co.ID, co.Items)
}

func (r *ChangeOrderRepo) saveItems(ctx context.Context, docID id.ID, items []changeorders.Item) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + changeOrderItemsTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(changeOrderItemsTable).
		Columns("line_id", "document_id", "line_no", "description", "quantity", "unit_price", "total")

	for _, item := range items {
		q = q.Values(item.LineID, docID, item.LineNo, item.Description, item.Quantity, item.UnitPrice, item.Total)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

func (r *ChangeOrderRepo) loadItems(ctx context.Context, docID id.ID) ([]changeorders.Item, error) {
	q := r.Builder().
		Select("line_id", "line_no", "description", "quantity", "unit_price", "total").
		From(changeOrderItemsTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []changeorders.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	return items, nil
}

// GetByID retrieves a change order with its items.
func (r *ChangeOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*changeorders.ChangeOrder, error) {
	q := r.Builder().
		Select(changeOrderColumns...).
		From(changeOrdersTable).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var co changeorders.ChangeOrder
	if err := pgxscan.Get(ctx, r.querier(ctx), &co, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(changeOrdersTable, orderID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}

	if co.Items, err = r.loadItems(ctx, co.ID); err != nil {
		return nil, err
	}

	return &co, nil
}

// GetForUpdate retrieves a change order with a pessimistic row lock.
func (r *ChangeOrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*changeorders.ChangeOrder, error) {
	sql := `
		SELECT id, deletion_mark, version,
		       created_at, updated_at, created_by, updated_by,
		       number, date, project_id, comment,
		       title, status, total, approved_at, invoiced
		FROM doc_change_orders
		WHERE id = $1
		FOR UPDATE
	`

	var co changeorders.ChangeOrder
	if err := pgxscan.Get(ctx, r.querier(ctx), &co, sql, orderID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(changeOrdersTable, orderID.String())
		}
		return nil, fmt.Errorf("get for update: %w", err)
	}

	var err error
	if co.Items, err = r.loadItems(ctx, co.ID); err != nil {
		return nil, err
	}

	return &co, nil
}

// Update modifies a change order and rewrites its items with optimistic locking.
func (r *ChangeOrderRepo) Update(ctx context.Context, co *changeorders.ChangeOrder) error {
	q := r.Builder().
		Update(changeOrdersTable).
		Set("date", co.Date).
		Set("comment", co.Comment).
		Set("title", co.Title).
		Set("status", co.Status).
		Set("total", co.Total).
		Set("approved_at", co.ApprovedAt).
		Set("invoiced", co.Invoiced).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("updated_by", co.UpdatedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": co.ID}).
		Where(squirrel.Eq{"version": co.Version}) // optimistic lock

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", changeOrdersTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(changeOrdersTable, co.ID)
	}

	co.Version++
	return r.saveItems(ctx, co.ID, co.Items)
}

// MarkInvoiced flips the invoiced flag if not already set.
func (r *ChangeOrderRepo) MarkInvoiced(ctx context.Context, orderID id.ID) (bool, error) {
	sql := `
		UPDATE doc_change_orders
		SET invoiced = TRUE, updated_at = NOW(), version = version + 1
		WHERE id = $1 AND invoiced = FALSE AND deletion_mark = FALSE
	`

	result, err := r.querier(ctx).Exec(ctx, sql, orderID)
	if err != nil {
		return false, fmt.Errorf("mark invoiced: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// SetDeletionMark soft-deletes or restores a change order.
func (r *ChangeOrderRepo) SetDeletionMark(ctx context.Context, orderID id.ID, marked bool) error {
	q := r.Builder().
		Update(changeOrdersTable).
		Set("deletion_mark", marked).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(changeOrdersTable, orderID.String())
	}

	return nil
}

// ListApprovedByProject returns approved live orders with items loaded.
func (r *ChangeOrderRepo) ListApprovedByProject(ctx context.Context, projectID id.ID) ([]*changeorders.ChangeOrder, error) {
	q := r.Builder().
		Select(changeOrderColumns...).
		From(changeOrdersTable).
		Where(squirrel.Eq{"project_id": projectID}).
		Where(squirrel.Eq{"status": changeorders.StatusApproved}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("date", "number")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*changeorders.ChangeOrder
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	for _, co := range items {
		if co.Items, err = r.loadItems(ctx, co.ID); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// List retrieves change orders with filtering and pagination.
func (r *ChangeOrderRepo) List(ctx context.Context, filter changeorders.ListFilter) (domain.ListResult[*changeorders.ChangeOrder], error) {
	result := domain.ListResult[*changeorders.ChangeOrder]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(changeOrderColumns...).
		From(changeOrdersTable)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.ProjectID != nil {
		q = q.Where(squirrel.Eq{"project_id": *filter.ProjectID})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": searchPattern},
			squirrel.ILike{"title": searchPattern},
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

	orderBy := "date DESC"
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

	for _, co := range result.Items {
		if co.Items, err = r.loadItems(ctx, co.ID); err != nil {
			return result, err
		}
	}

	return result, nil
}
