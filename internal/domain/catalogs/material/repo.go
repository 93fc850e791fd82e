package material

import (
	"context"

	"prorab/internal/core/id"
	"prorab/internal/core/types"
	"prorab/internal/domain"
)

// Repository defines the interface for WorkshopMaterial persistence.
type Repository interface {
	Create(ctx context.Context, m *WorkshopMaterial) error
	GetByID(ctx context.Context, id id.ID) (*WorkshopMaterial, error)
	GetByCode(ctx context.Context, code string) (*WorkshopMaterial, error)
	Update(ctx context.Context, m *WorkshopMaterial) error
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*WorkshopMaterial], error)

	// GetForUpdate retrieves the material with a row lock. The inventory
	// ledger calls it inside a transaction so concurrent issues against the
	// same stock serialize on the row.
	GetForUpdate(ctx context.Context, id id.ID) (*WorkshopMaterial, error)

	// AdjustStock applies a signed stock delta to the locked row.
	AdjustStock(ctx context.Context, id id.ID, delta types.Quantity) error
}

// ListFilter for filtering workshop materials.
type ListFilter struct {
	domain.ListFilter

	ActiveOnly  bool
	InStockOnly bool
}
