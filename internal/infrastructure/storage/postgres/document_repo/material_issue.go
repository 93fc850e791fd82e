package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"prorab/internal/core/apperror"
	"prorab/internal/core/entity"
	"prorab/internal/core/id"
	"prorab/internal/domain"
	"prorab/internal/domain/inventory"
	"prorab/internal/infrastructure/storage/postgres"
	"prorab/internal/infrastructure/storage/postgres/register_repo"
)

const materialIssuesTable = "doc_material_issues"

var materialIssueColumns = []string{
	"id", "deletion_mark", "version",
	"created_at", "updated_at", "created_by", "updated_by",
	"number", "date", "project_id", "comment",
	"material_id", "material_name", "unit",
	"quantity", "issued_total", "unit_cost",
	"billable", "invoiced", "unused_quantity",
}

// MaterialIssueRepo implements inventory.Repository. Document rows live in
// doc_material_issues; the movement register is delegated to register_repo.
type MaterialIssueRepo struct {
	baseRepo
	movements *register_repo.InventoryMovementRepo
}

// NewMaterialIssueRepo creates a new issuance repository.
func NewMaterialIssueRepo(txManager *postgres.TxManager) *MaterialIssueRepo {
	return &MaterialIssueRepo{
		baseRepo:  baseRepo{txManager: txManager},
		movements: register_repo.NewInventoryMovementRepo(txManager),
	}
}

var _ inventory.Repository = (*MaterialIssueRepo)(nil)

// Create inserts a new issuance.
func (r *MaterialIssueRepo) Create(ctx context.Context, mi *inventory.MaterialIssue) error {
	q := r.Builder().
		Insert(materialIssuesTable).
		Columns(materialIssueColumns...).
		Values(
			mi.ID, mi.DeletionMark, mi.Version,
			mi.CreatedAt, mi.UpdatedAt, mi.CreatedBy, mi.UpdatedBy,
			mi.Number, mi.Date, mi.ProjectID, mi.Comment,
			mi.MaterialID, mi.MaterialName, mi.Unit,
			mi.Quantity, mi.IssuedTotal, mi.UnitCost,
			mi.Billable, mi.Invoiced, mi.UnusedQuantity,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", materialIssuesTable, err)
	}

	return nil
}

// GetByID retrieves an issuance by ID.
func (r *MaterialIssueRepo) GetByID(ctx context.Context, issueID id.ID) (*inventory.MaterialIssue, error) {
	q := r.Builder().
		Select(materialIssueColumns...).
		From(materialIssuesTable).
		Where(squirrel.Eq{"id": issueID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var mi inventory.MaterialIssue
	if err := pgxscan.Get(ctx, r.querier(ctx), &mi, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(materialIssuesTable, issueID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}

	return &mi, nil
}

// GetForUpdate retrieves an issuance with a pessimistic row lock.
func (r *MaterialIssueRepo) GetForUpdate(ctx context.Context, issueID id.ID) (*inventory.MaterialIssue, error) {
	sql := `
		SELECT id, deletion_mark, version,
		       created_at, updated_at, created_by, updated_by,
		       number, date, project_id, comment,
		       material_id, material_name, unit,
		       quantity, issued_total, unit_cost,
		       billable, invoiced, unused_quantity
		FROM doc_material_issues
		WHERE id = $1
		FOR UPDATE
	`

	var mi inventory.MaterialIssue
	if err := pgxscan.Get(ctx, r.querier(ctx), &mi, sql, issueID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(materialIssuesTable, issueID.String())
		}
		return nil, fmt.Errorf("get for update: %w", err)
	}

	return &mi, nil
}

// FindOpenForUpdate returns the live non-invoiced issuance for a
// (material, project) pair with a row lock. A partial unique index on
// (material_id, project_id) WHERE NOT invoiced AND NOT deletion_mark
// guarantees at most one such row.
func (r *MaterialIssueRepo) FindOpenForUpdate(ctx context.Context, materialID, projectID id.ID) (*inventory.MaterialIssue, error) {
	sql := `
		SELECT id, deletion_mark, version,
		       created_at, updated_at, created_by, updated_by,
		       number, date, project_id, comment,
		       material_id, material_name, unit,
		       quantity, issued_total, unit_cost,
		       billable, invoiced, unused_quantity
		FROM doc_material_issues
		WHERE material_id = $1 AND project_id = $2
		  AND invoiced = FALSE AND deletion_mark = FALSE
		FOR UPDATE
	`

	var mi inventory.MaterialIssue
	if err := pgxscan.Get(ctx, r.querier(ctx), &mi, sql, materialID, projectID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(materialIssuesTable, materialID.String())
		}
		return nil, fmt.Errorf("find open issuance: %w", err)
	}

	return &mi, nil
}

// Update modifies an issuance with optimistic locking.
func (r *MaterialIssueRepo) Update(ctx context.Context, mi *inventory.MaterialIssue) error {
	q := r.Builder().
		Update(materialIssuesTable).
		Set("date", mi.Date).
		Set("comment", mi.Comment).
		Set("quantity", mi.Quantity).
		Set("issued_total", mi.IssuedTotal).
		Set("unit_cost", mi.UnitCost).
		Set("billable", mi.Billable).
		Set("invoiced", mi.Invoiced).
		Set("unused_quantity", mi.UnusedQuantity).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("updated_by", mi.UpdatedBy).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": mi.ID}).
		Where(squirrel.Eq{"version": mi.Version}) // optimistic lock

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", materialIssuesTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(materialIssuesTable, mi.ID)
	}

	mi.Version++
	return nil
}

// MarkInvoiced flips the invoiced flag if not already set. See the expense
// repo for the guard semantics.
func (r *MaterialIssueRepo) MarkInvoiced(ctx context.Context, issueID id.ID) (bool, error) {
	sql := `
		UPDATE doc_material_issues
		SET invoiced = TRUE, updated_at = NOW(), version = version + 1
		WHERE id = $1 AND invoiced = FALSE AND deletion_mark = FALSE
	`

	result, err := r.querier(ctx).Exec(ctx, sql, issueID)
	if err != nil {
		return false, fmt.Errorf("mark invoiced: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ListByProject returns all live issuances for a project.
func (r *MaterialIssueRepo) ListByProject(ctx context.Context, projectID id.ID) ([]*inventory.MaterialIssue, error) {
	q := r.Builder().
		Select(materialIssueColumns...).
		From(materialIssuesTable).
		Where(squirrel.Eq{"project_id": projectID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("date", "number")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*inventory.MaterialIssue
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	return items, nil
}

// List retrieves issuances with filtering and pagination.
func (r *MaterialIssueRepo) List(ctx context.Context, filter inventory.ListFilter) (domain.ListResult[*inventory.MaterialIssue], error) {
	result := domain.ListResult[*inventory.MaterialIssue]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(materialIssueColumns...).
		From(materialIssuesTable)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.ProjectID != nil {
		q = q.Where(squirrel.Eq{"project_id": *filter.ProjectID})
	}

	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}

	if filter.UnbilledOnly {
		q = q.Where(squirrel.Eq{"invoiced": false})
		q = q.Where(squirrel.Eq{"billable": true})
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": searchPattern},
			squirrel.ILike{"material_name": searchPattern},
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

	return result, nil
}

// AddMovement appends a register row (delegated to the register repo).
func (r *MaterialIssueRepo) AddMovement(ctx context.Context, mv entity.InventoryMovement) error {
	return r.movements.AddMovement(ctx, mv)
}

// ListMovements returns register history (delegated to the register repo).
func (r *MaterialIssueRepo) ListMovements(ctx context.Context, filter inventory.MovementFilter) ([]entity.InventoryMovement, error) {
	return r.movements.ListMovements(ctx, filter)
}
