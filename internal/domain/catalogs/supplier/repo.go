package supplier

import (
	"context"

	"prorab/internal/core/id"
	"prorab/internal/domain"
)

// Repository defines the interface for supplier price-list persistence.
type Repository interface {
	Create(ctx context.Context, m *Material) error
	GetByID(ctx context.Context, id id.ID) (*Material, error)
	GetByCode(ctx context.Context, code string) (*Material, error)
	Update(ctx context.Context, m *Material) error
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Material], error)
}

// ListFilter for filtering price-list entries.
type ListFilter struct {
	domain.ListFilter

	SupplierName string
	Category     string
}
