// Package register_repo provides PostgreSQL implementations for register
// repositories. Register rows are immutable: they are only inserted and
// queried, never updated.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"prorab/internal/core/entity"
	"prorab/internal/domain/inventory"
	"prorab/internal/infrastructure/storage/postgres"
)

const inventoryMovementsTable = "reg_inventory_movements"

var movementColumns = []string{
	"line_id", "recorder_id", "recorder_type",
	"period", "record_type",
	"material_id", "project_id", "quantity", "created_at",
}

// InventoryMovementRepo stores the workshop inventory movement register.
type InventoryMovementRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewInventoryMovementRepo creates a new inventory register repository.
func NewInventoryMovementRepo(txManager *postgres.TxManager) *InventoryMovementRepo {
	return &InventoryMovementRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovements batch inserts movements.
func (r *InventoryMovementRepo) CreateMovements(ctx context.Context, movements []entity.InventoryMovement) error {
	if len(movements) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.LineID, m.RecorderID, m.RecorderType,
				m.Period, m.RecordType,
				m.MaterialID, m.ProjectID, m.Quantity, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, inventoryMovementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	// Fallback: non-transactional insert (slower). Prefer calling CreateMovements within tx.
	q := r.builder.Insert(inventoryMovementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(
			m.LineID, m.RecorderID, m.RecorderType,
			m.Period, m.RecordType,
			m.MaterialID, m.ProjectID, m.Quantity, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// AddMovement inserts a single register row.
func (r *InventoryMovementRepo) AddMovement(ctx context.Context, mv entity.InventoryMovement) error {
	return r.CreateMovements(ctx, []entity.InventoryMovement{mv})
}

// ListMovements returns register rows matching the filter, newest first.
func (r *InventoryMovementRepo) ListMovements(ctx context.Context, filter inventory.MovementFilter) ([]entity.InventoryMovement, error) {
	q := r.builder.
		Select(movementColumns...).
		From(inventoryMovementsTable)

	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}

	if filter.ProjectID != nil {
		q = q.Where(squirrel.Eq{"project_id": *filter.ProjectID})
	}

	if filter.RecorderID != nil {
		q = q.Where(squirrel.Eq{"recorder_id": *filter.RecorderID})
	}

	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.From})
	}

	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.To})
	}

	q = q.OrderBy("period DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.InventoryMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}
