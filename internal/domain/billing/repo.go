package billing

import (
	"context"

	"prorab/internal/core/id"
	"prorab/internal/domain"
)

// Repository defines the interface for Invoice persistence.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id id.ID) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)

	// ListByProject returns all invoices for a project with lines loaded,
	// including void ones. The guard set is derived from this.
	ListByProject(ctx context.Context, projectID id.ID) ([]*Invoice, error)

	// GetForUpdate retrieves the invoice with a row lock for status changes.
	GetForUpdate(ctx context.Context, id id.ID) (*Invoice, error)
}

// ListFilter for filtering invoices.
type ListFilter struct {
	domain.ListFilter

	ProjectID *id.ID
	Status    *Status
}
