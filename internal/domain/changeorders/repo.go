package changeorders

import (
	"context"

	"prorab/internal/core/id"
	"prorab/internal/domain"
)

// Repository defines the interface for ChangeOrder persistence.
type Repository interface {
	Create(ctx context.Context, co *ChangeOrder) error
	GetByID(ctx context.Context, id id.ID) (*ChangeOrder, error)
	Update(ctx context.Context, co *ChangeOrder) error
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*ChangeOrder], error)

	// ListApprovedByProject returns approved live orders for budget math.
	ListApprovedByProject(ctx context.Context, projectID id.ID) ([]*ChangeOrder, error)

	// GetForUpdate retrieves the order with a row lock for status changes
	// and invoicing.
	GetForUpdate(ctx context.Context, id id.ID) (*ChangeOrder, error)

	// MarkInvoiced flips the invoiced flag if it is not already set.
	// Returns false when the order was already invoiced.
	MarkInvoiced(ctx context.Context, id id.ID) (bool, error)
}

// ListFilter for filtering change orders.
type ListFilter struct {
	domain.ListFilter

	ProjectID *id.ID
	Status    *Status
}
