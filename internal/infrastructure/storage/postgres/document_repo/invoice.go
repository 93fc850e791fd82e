package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/core/types"
	"prorab/internal/domain"
	"prorab/internal/domain/billing"
	"prorab/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "doc_invoices"
	invoiceLinesTable = "doc_invoice_lines"
)

var invoiceColumns = []string{
	"id", "deletion_mark", "version",
	"created_at", "updated_at", "created_by", "updated_by",
	"number", "date", "project_id", "comment",
	"status", "client_name", "tax_rate", "subtotal", "tax", "total", "due_date",
}

// invoiceLineRow is the flat storage shape of billing.Line. The source ref
// is stored as two columns; source_id is NULL for custom lines.
type invoiceLineRow struct {
	LineID      id.ID            `db:"line_id"`
	LineNo      int              `db:"line_no"`
	SourceType  string           `db:"source_type"`
	SourceID    *id.ID           `db:"source_id"`
	Description string           `db:"description"`
	Quantity    *types.Quantity  `db:"quantity"`
	Unit        string           `db:"unit"`
	Amount      types.MinorUnits `db:"amount"`
}

func (row invoiceLineRow) toLine() billing.Line {
	line := billing.Line{
		LineID:      row.LineID,
		LineNo:      row.LineNo,
		Description: row.Description,
		Quantity:    row.Quantity,
		Unit:        row.Unit,
		Amount:      row.Amount,
	}
	line.Source.Type = billing.SourceType(row.SourceType)
	if row.SourceID != nil {
		line.Source.ID = *row.SourceID
	}
	return line
}

// InvoiceRepo implements billing.Repository.
type InvoiceRepo struct {
	baseRepo
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{baseRepo{txManager: txManager}}
}

var _ billing.Repository = (*InvoiceRepo)(nil)

// Create inserts an invoice and its lines.
func (r *InvoiceRepo) Create(ctx context.Context, inv *billing.Invoice) error {
	q := r.Builder().
		Insert(invoicesTable).
		Columns(invoiceColumns...).
		Values(
			inv.ID, inv.DeletionMark, inv.Version,
			inv.CreatedAt, inv.UpdatedAt, inv.CreatedBy, inv.UpdatedBy,
			inv.Number, inv.Date, inv.ProjectID, inv.Comment,
			inv.Status, inv.ClientName, inv.TaxRate, inv.Subtotal, inv.Tax, inv.Total, inv.DueDate,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", invoicesTable, err)
	}

	return r.saveLines(ctx, inv.ID, inv.Lines)
}

func (r *InvoiceRepo) saveLines(ctx context.Context, docID id.ID, lines []billing.Line) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + invoiceLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(invoiceLinesTable).
		Columns(
			"line_id", "document_id", "line_no",
			"source_type", "source_id",
			"description", "quantity", "unit", "amount",
		)

	for _, line := range lines {
		var sourceID *id.ID
		if !id.IsNil(line.Source.ID) {
			sid := line.Source.ID
			sourceID = &sid
		}
		q = q.Values(
			line.LineID, docID, line.LineNo,
			string(line.Source.Type), sourceID,
			line.Description, line.Quantity, line.Unit, line.Amount,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

func (r *InvoiceRepo) loadLines(ctx context.Context, docID id.ID) ([]billing.Line, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "source_type", "source_id",
			"description", "quantity", "unit", "amount",
		).
		From(invoiceLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []invoiceLineRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}

	lines := make([]billing.Line, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, row.toLine())
	}

	return lines, nil
}

// GetByID retrieves an invoice with its lines.
func (r *InvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*billing.Invoice, error) {
	q := r.Builder().
		Select(invoiceColumns...).
		From(invoicesTable).
		Where(squirrel.Eq{"id": invoiceID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var inv billing.Invoice
	if err := pgxscan.Get(ctx, r.querier(ctx), &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(invoicesTable, invoiceID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}

	if inv.Lines, err = r.loadLines(ctx, inv.ID); err != nil {
		return nil, err
	}

	return &inv, nil
}

// GetForUpdate retrieves an invoice with a pessimistic row lock.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*billing.Invoice, error) {
	sql := `
		SELECT id, deletion_mark, version,
		       created_at, updated_at, created_by, updated_by,
		       number, date, project_id, comment,
		       status, client_name, tax_rate, subtotal, tax, total, due_date
		FROM doc_invoices
		WHERE id = $1
		FOR UPDATE
	`

	var inv billing.Invoice
	if err := pgxscan.Get(ctx, r.querier(ctx), &inv, sql, invoiceID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(invoicesTable, invoiceID.String())
		}
		return nil, fmt.Errorf("get for update: %w", err)
	}

	var err error
	if inv.Lines, err = r.loadLines(ctx, inv.ID); err != nil {
		return nil, err
	}

	return &inv, nil
}

// Update modifies an invoice and rewrites its lines with optimistic locking.
func (r *InvoiceRepo) Update(ctx context.Context, inv *billing.Invoice) error {
	q := r.Builder().
		Update(invoicesTable).
		Set("date", inv.Date).
		Set("comment", inv.Comment).
		Set("status", inv.Status).
		Set("client_name", inv.ClientName).
		Set("tax_rate", inv.TaxRate).
		Set("subtotal", inv.Subtotal).
		Set("tax", inv.Tax).
		Set("total", inv.Total).
		Set("due_date", inv.DueDate).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("updated_by", inv.UpdatedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": inv.ID}).
		Where(squirrel.Eq{"version": inv.Version}) // optimistic lock

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", invoicesTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(invoicesTable, inv.ID)
	}

	inv.Version++
	return r.saveLines(ctx, inv.ID, inv.Lines)
}

// ListByProject returns all invoices for a project with lines loaded,
// void ones included. The double-billing guard set is built from this.
func (r *InvoiceRepo) ListByProject(ctx context.Context, projectID id.ID) ([]*billing.Invoice, error) {
	q := r.Builder().
		Select(invoiceColumns...).
		From(invoicesTable).
		Where(squirrel.Eq{"project_id": projectID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("date", "number")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*billing.Invoice
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	for _, inv := range items {
		if inv.Lines, err = r.loadLines(ctx, inv.ID); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// List retrieves invoices with filtering and pagination.
func (r *InvoiceRepo) List(ctx context.Context, filter billing.ListFilter) (domain.ListResult[*billing.Invoice], error) {
	result := domain.ListResult[*billing.Invoice]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(invoiceColumns...).
		From(invoicesTable)

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

	for _, inv := range result.Items {
		if inv.Lines, err = r.loadLines(ctx, inv.ID); err != nil {
			return result, err
		}
	}

	return result, nil
}
