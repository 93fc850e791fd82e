// Package material provides the WorkshopMaterial catalog (Справочник "Материалы цеха").
// Each record is the current available stock of one material at the shared workshop.
package material

import (
	"context"

	"prorab/internal/core/apperror"
	"prorab/internal/core/entity"
	"prorab/internal/core/types"
)

// WorkshopMaterial represents stock of one material at the workshop.
//
// Quantity is mutated exclusively by the inventory ledger (issue and return
// operations); catalog updates may change descriptive fields only.
type WorkshopMaterial struct {
	entity.Catalog

	// Unit of measure (pcs, kg, m)
	Unit string `db:"unit" json:"unit"`

	// Quantity currently available at the workshop
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// CostPerUnit in minor units; nil when the material has no book cost
	CostPerUnit *types.MinorUnits `db:"cost_per_unit" json:"costPerUnit,omitempty"`

	// IsActive indicates the material can be issued
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewWorkshopMaterial creates a new WorkshopMaterial with required fields.
func NewWorkshopMaterial(code, name, unit string) *WorkshopMaterial {
	return &WorkshopMaterial{
		Catalog:  entity.NewCatalog(code, name),
		Unit:     unit,
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (m *WorkshopMaterial) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}

	if m.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	if m.Quantity.IsNegative() {
		return apperror.NewValidation("stock quantity cannot be negative").
			WithDetail("field", "quantity")
	}

	if m.CostPerUnit != nil && m.CostPerUnit.IsNegative() {
		return apperror.NewValidation("cost per unit cannot be negative").
			WithDetail("field", "costPerUnit")
	}

	return nil
}

// CanIssue returns true if the material can currently be issued to a site.
func (m *WorkshopMaterial) CanIssue() bool {
	return m.IsActive && !m.DeletionMark
}
