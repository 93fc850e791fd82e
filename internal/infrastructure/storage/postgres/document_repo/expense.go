package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/domain"
	"prorab/internal/domain/expenses"
	"prorab/internal/infrastructure/storage/postgres"
)

const (
	expensesTable    = "doc_expenses"
	expenseTaxesTable = "doc_expense_taxes"
)

var expenseColumns = []string{
	"id", "deletion_mark", "version",
	"created_at", "updated_at", "created_by", "updated_by",
	"number", "date", "project_id", "comment",
	"description", "category", "amount", "quantity", "unit",
	"unused_quantity", "invoiced",
}

// ExpenseRepo implements expenses.Repository.
type ExpenseRepo struct {
	baseRepo
}

// NewExpenseRepo creates a new expense repository.
func NewExpenseRepo(txManager *postgres.TxManager) *ExpenseRepo {
	return &ExpenseRepo{baseRepo{txManager: txManager}}
}

var _ expenses.Repository = (*ExpenseRepo)(nil)

// Create inserts an expense and its tax lines.
func (r *ExpenseRepo) Create(ctx context.Context, e *expenses.Expense) error {
	q := r.Builder().
		Insert(expensesTable).
		Columns(expenseColumns...).
		Values(
			e.ID, e.DeletionMark, e.Version,
			e.CreatedAt, e.UpdatedAt, e.CreatedBy, e.UpdatedBy,
			e.Number, e.Date, e.ProjectID, e.Comment,
			e.Description, e.Category, e.Amount, e.Quantity, e.Unit,
			e.UnusedQuantity, e.Invoiced,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", expensesTable, err)
	}

	return r.saveTaxes(ctx, e.ID, e.Taxes)
}

func (r *ExpenseRepo) saveTaxes(ctx context.Context, expenseID id.ID, taxes []expenses.Tax) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + expenseTaxesTable + " WHERE expense_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, expenseID); err != nil {
		return fmt.Errorf("delete existing taxes: %w", err)
	}

	if len(taxes) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(expenseTaxesTable).
		Columns("id", "expense_id", "name", "rate")

	for _, t := range taxes {
		taxID := t.ID
		if id.IsNil(taxID) {
			taxID = id.New()
		}
		q = q.Values(taxID, expenseID, t.Name, t.Rate)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert taxes: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert taxes: %w", err)
	}

	return nil
}

func (r *ExpenseRepo) loadTaxes(ctx context.Context, expenseID id.ID) ([]expenses.Tax, error) {
	q := r.Builder().
		Select("id", "name", "rate").
		From(expenseTaxesTable).
		Where(squirrel.Eq{"expense_id": expenseID}).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var taxes []expenses.Tax
	if err := pgxscan.Select(ctx, r.querier(ctx), &taxes, sql, args...); err != nil {
		return nil, fmt.Errorf("load taxes: %w", err)
	}

	return taxes, nil
}

// GetByID retrieves an expense with its tax lines.
func (r *ExpenseRepo) GetByID(ctx context.Context, expenseID id.ID) (*expenses.Expense, error) {
	q := r.Builder().
		Select(expenseColumns...).
		From(expensesTable).
		Where(squirrel.Eq{"id": expenseID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var e expenses.Expense
	if err := pgxscan.Get(ctx, r.querier(ctx), &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(expensesTable, expenseID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}

	if e.Taxes, err = r.loadTaxes(ctx, e.ID); err != nil {
		return nil, err
	}

	return &e, nil
}

// GetForUpdate retrieves an expense with a pessimistic row lock.
func (r *ExpenseRepo) GetForUpdate(ctx context.Context, expenseID id.ID) (*expenses.Expense, error) {
	sql := `
		SELECT id, deletion_mark, version,
		       created_at, updated_at, created_by, updated_by,
		       number, date, project_id, comment,
		       description, category, amount, quantity, unit,
		       unused_quantity, invoiced
		FROM doc_expenses
		WHERE id = $1
		FOR UPDATE
	`

	var e expenses.Expense
	if err := pgxscan.Get(ctx, r.querier(ctx), &e, sql, expenseID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(expensesTable, expenseID.String())
		}
		return nil, fmt.Errorf("get for update: %w", err)
	}

	var err error
	if e.Taxes, err = r.loadTaxes(ctx, e.ID); err != nil {
		return nil, err
	}

	return &e, nil
}

// Update modifies an expense and rewrites its tax lines with optimistic locking.
func (r *ExpenseRepo) Update(ctx context.Context, e *expenses.Expense) error {
	q := r.Builder().
		Update(expensesTable).
		Set("date", e.Date).
		Set("comment", e.Comment).
		Set("description", e.Description).
		Set("category", e.Category).
		Set("amount", e.Amount).
		Set("quantity", e.Quantity).
		Set("unit", e.Unit).
		Set("unused_quantity", e.UnusedQuantity).
		Set("invoiced", e.Invoiced).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("updated_by", e.UpdatedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": e.ID}).
		Where(squirrel.Eq{"version": e.Version}) // optimistic lock

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", expensesTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(expensesTable, e.ID)
	}

	e.Version++
	return r.saveTaxes(ctx, e.ID, e.Taxes)
}

// MarkInvoiced flips the invoiced flag if not already set. The conditional
// update is the double-billing guard at the storage level: of two
// concurrent invoices claiming the same expense, exactly one sees a row.
func (r *ExpenseRepo) MarkInvoiced(ctx context.Context, expenseID id.ID) (bool, error) {
	sql := `
		UPDATE doc_expenses
		SET invoiced = TRUE, updated_at = NOW(), version = version + 1
		WHERE id = $1 AND invoiced = FALSE AND deletion_mark = FALSE
	`

	result, err := r.querier(ctx).Exec(ctx, sql, expenseID)
	if err != nil {
		return false, fmt.Errorf("mark invoiced: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// SetDeletionMark soft-deletes or restores an expense.
func (r *ExpenseRepo) SetDeletionMark(ctx context.Context, expenseID id.ID, marked bool) error {
	q := r.Builder().
		Update(expensesTable).
		Set("deletion_mark", marked).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": expenseID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(expensesTable, expenseID.String())
	}

	return nil
}

// ListByProject returns all live expenses for a project with taxes loaded.
func (r *ExpenseRepo) ListByProject(ctx context.Context, projectID id.ID) ([]*expenses.Expense, error) {
	q := r.Builder().
		Select(expenseColumns...).
		From(expensesTable).
		Where(squirrel.Eq{"project_id": projectID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("date", "number")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*expenses.Expense
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	for _, e := range items {
		if e.Taxes, err = r.loadTaxes(ctx, e.ID); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// List retrieves expenses with filtering and pagination. Tax lines are
// loaded per row; expense lists are small enough that N+1 is acceptable.
func (r *ExpenseRepo) List(ctx context.Context, filter expenses.ListFilter) (domain.ListResult[*expenses.Expense], error) {
	result := domain.ListResult[*expenses.Expense]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(expenseColumns...).
		From(expensesTable)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.ProjectID != nil {
		q = q.Where(squirrel.Eq{"project_id": *filter.ProjectID})
	}

	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}

	if filter.UnbilledOnly {
		q = q.Where(squirrel.Eq{"invoiced": false})
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": searchPattern},
			squirrel.ILike{"description": searchPattern},
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

	for _, e := range result.Items {
		if e.Taxes, err = r.loadTaxes(ctx, e.ID); err != nil {
			return result, err
		}
	}

	return result, nil
}
