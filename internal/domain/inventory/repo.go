package inventory

import (
	"context"
	"time"

	"prorab/internal/core/entity"
	"prorab/internal/core/id"
	"prorab/internal/domain"
)

// Repository defines the interface for MaterialIssue persistence and the
// movement register behind it.
type Repository interface {
	Create(ctx context.Context, mi *MaterialIssue) error
	GetByID(ctx context.Context, id id.ID) (*MaterialIssue, error)
	Update(ctx context.Context, mi *MaterialIssue) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*MaterialIssue], error)

	// ListByProject returns all live issuances for a project.
	ListByProject(ctx context.Context, projectID id.ID) ([]*MaterialIssue, error)

	// GetForUpdate retrieves the issuance with a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*MaterialIssue, error)

	// FindOpenForUpdate returns the live non-invoiced issuance for a
	// (material, project) pair with a row lock, or NotFound when repeated
	// issues should start a fresh record.
	FindOpenForUpdate(ctx context.Context, materialID, projectID id.ID) (*MaterialIssue, error)

	// MarkInvoiced flips the invoiced flag if it is not already set.
	// Returns false when the issuance was already invoiced.
	MarkInvoiced(ctx context.Context, id id.ID) (bool, error)

	// AddMovement appends an immutable register row. Movements are the
	// audit trail behind the materialized quantities and are never
	// updated or deleted.
	AddMovement(ctx context.Context, mv entity.InventoryMovement) error

	// ListMovements returns register rows matching the filter, newest first.
	ListMovements(ctx context.Context, filter MovementFilter) ([]entity.InventoryMovement, error)
}

// ListFilter for filtering issuances.
type ListFilter struct {
	domain.ListFilter

	ProjectID    *id.ID
	MaterialID   *id.ID
	UnbilledOnly bool
}

// MovementFilter for querying the movement register.
type MovementFilter struct {
	MaterialID *id.ID
	ProjectID  *id.ID
	RecorderID *id.ID
	From       *time.Time
	To         *time.Time
	Limit      int
}
