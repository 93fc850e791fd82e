// Package supplier provides the supplier price-list catalog.
// Entries are catalog prices, not consumable events: they carry no issued
// state, are offered as ad-hoc billable items, and are deliberately outside
// the double-billing guard (the same price-list item may appear on any
// number of invoices).
package supplier

import (
	"context"

	"prorab/internal/core/apperror"
	"prorab/internal/core/entity"
	"prorab/internal/core/types"
)

// Material is one supplier price-list entry.
type Material struct {
	entity.Catalog

	// SupplierName identifies the vendor
	SupplierName string `db:"supplier_name" json:"supplierName"`

	// Unit of measure
	Unit string `db:"unit" json:"unit"`

	// UnitPrice is the catalog price in minor units
	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`

	// Category groups price-list entries (concrete, lumber, electrical)
	Category string `db:"category" json:"category,omitempty"`
}

// NewMaterial creates a new price-list entry.
func NewMaterial(code, name, unit string, unitPrice types.MinorUnits) *Material {
	return &Material{
		Catalog:   entity.NewCatalog(code, name),
		Unit:      unit,
		UnitPrice: unitPrice,
	}
}

// Validate implements entity.Validatable interface.
func (m *Material) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}

	if m.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	if m.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}

	return nil
}
