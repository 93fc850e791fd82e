package projects

import (
	"context"

	"prorab/internal/core/id"
	"prorab/internal/domain"
)

// Repository defines the interface for Project persistence.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id id.ID) (*Project, error)
	GetByCode(ctx context.Context, code string) (*Project, error)
	Update(ctx context.Context, p *Project) error
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Project], error)
}

// ListFilter for filtering projects.
type ListFilter struct {
	domain.ListFilter

	IncludeArchived bool
}
