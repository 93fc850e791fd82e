package expenses

import (
	"context"

	"prorab/internal/core/id"
	"prorab/internal/domain"
)

// Repository defines the interface for Expense persistence.
type Repository interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, id id.ID) (*Expense, error)
	Update(ctx context.Context, e *Expense) error
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Expense], error)

	// ListByProject returns all live expenses for a project, tax lines loaded.
	ListByProject(ctx context.Context, projectID id.ID) ([]*Expense, error)

	// GetForUpdate retrieves the expense with a row lock for invoicing
	// and unused-quantity updates.
	GetForUpdate(ctx context.Context, id id.ID) (*Expense, error)

	// MarkInvoiced flips the invoiced flag if it is not already set.
	// Returns false when the expense was already invoiced, so the caller
	// can reject double billing without a prior read.
	MarkInvoiced(ctx context.Context, id id.ID) (bool, error)
}

// ListFilter for filtering expenses.
type ListFilter struct {
	domain.ListFilter

	ProjectID    *id.ID
	Category     string
	UnbilledOnly bool
}
