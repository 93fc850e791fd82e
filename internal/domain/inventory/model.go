// Package inventory implements the workshop inventory ledger (Регистр
// "Материалы на объектах"). Stock physically lives in the workshop; an
// issuance moves a quantity of a material to a project site, a return moves
// it back. The ledger conserves quantity: workshop stock plus outstanding
// site quantities always equals the original stock for every material.
package inventory

import (
	"context"
	"time"

	"prorab/internal/core/apperror"
	"prorab/internal/core/entity"
	"prorab/internal/core/id"
	"prorab/internal/core/types"
)

// RecorderType identifies issuance documents in register movements.
const RecorderType = "MaterialIssue"

// MaterialIssue tracks material issued from the workshop to one project.
// One live record exists per (material, project): repeated issues accumulate
// on it until the record is invoiced, then a fresh record starts.
type MaterialIssue struct {
	entity.Document

	MaterialID id.ID `db:"material_id" json:"materialId"`

	// MaterialName and Unit are snapshots taken at first issue,
	// so renamed materials don't rewrite history.
	MaterialName string `db:"material_name" json:"materialName"`
	Unit         string `db:"unit" json:"unit"`

	// Quantity is the outstanding quantity on site: issues add, returns
	// subtract. Never negative.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// IssuedTotal is the cumulative issued quantity, never reduced by
	// returns. Unused reporting is bounded by it.
	IssuedTotal types.Quantity `db:"issued_total" json:"issuedTotal"`

	// UnitCost is the workshop cost per unit at first issue, nil when the
	// material has no cost on record. Used for project cost aggregation.
	UnitCost *types.MinorUnits `db:"unit_cost" json:"unitCost,omitempty"`

	// Billable marks the issuance as chargeable to the client
	Billable bool `db:"billable" json:"billable"`

	// Invoiced is set when the issuance is pulled onto a client invoice
	Invoiced bool `db:"invoiced" json:"invoiced"`

	// UnusedQuantity is the part reported as not consumed on site.
	// Informational only; stock and billing are unaffected.
	UnusedQuantity types.Quantity `db:"unused_quantity" json:"unusedQuantity"`
}

// NewMaterialIssue creates an issuance record with material snapshot fields.
// Billable defaults to false; charging the client for issued material is an
// explicit choice at issue time.
func NewMaterialIssue(projectID, materialID id.ID, name, unit string, unitCost *types.MinorUnits) *MaterialIssue {
	return &MaterialIssue{
		Document:     entity.NewDocument(projectID),
		MaterialID:   materialID,
		MaterialName: name,
		Unit:         unit,
		UnitCost:     unitCost,
	}
}

// Validate implements entity.Validatable interface.
func (mi *MaterialIssue) Validate(ctx context.Context) error {
	if err := mi.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(mi.MaterialID) {
		return apperror.NewValidation("material is required").
			WithDetail("field", "materialId")
	}

	if mi.Quantity.IsNegative() {
		return apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}

	return nil
}

// ApplyIssue adds an issued quantity to the record.
func (mi *MaterialIssue) ApplyIssue(qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("issue quantity must be positive").
			WithDetail("field", "quantity")
	}
	mi.Quantity += qty
	mi.IssuedTotal += qty
	mi.Touch()
	return nil
}

// ApplyReturn subtracts a returned quantity. A return may never exceed the
// outstanding quantity on site.
func (mi *MaterialIssue) ApplyReturn(qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("return quantity must be positive").
			WithDetail("field", "quantity")
	}
	if qty > mi.Quantity {
		return apperror.NewExcessReturn(mi.ID.String(), qty.Float64(), mi.Quantity.Float64())
	}
	mi.Quantity -= qty
	mi.Touch()
	return nil
}

// RecordUnused marks a portion of the issued material as not consumed.
// Bounded by the cumulative issued quantity; does not move stock.
func (mi *MaterialIssue) RecordUnused(qty types.Quantity) error {
	if !qty.IsPositive() {
		return apperror.NewValidation("unused quantity must be positive").
			WithDetail("field", "quantity")
	}
	if mi.UnusedQuantity+qty > mi.IssuedTotal {
		return apperror.NewOutOfRange(mi.ID.String(), (mi.UnusedQuantity + qty).Float64(), mi.IssuedTotal.Float64())
	}
	mi.UnusedQuantity += qty
	mi.Touch()
	return nil
}

// Cost returns the outstanding quantity valued at the snapshot unit cost.
// Records without a cost on file value at zero.
func (mi *MaterialIssue) Cost() types.MinorUnits {
	if mi.UnitCost == nil {
		return 0
	}
	return mi.Quantity.MulMinor(*mi.UnitCost)
}

// IsBillable reports whether the issuance can appear on an invoice.
func (mi *MaterialIssue) IsBillable() bool {
	return mi.Billable && !mi.Invoiced && mi.Quantity.IsPositive()
}

// NewIssueMovement builds the register row for an issue.
func (mi *MaterialIssue) NewIssueMovement(period time.Time, qty types.Quantity) entity.InventoryMovement {
	return entity.NewInventoryMovement(mi.ID, RecorderType, period, entity.RecordTypeIssue, mi.MaterialID, mi.ProjectID, qty)
}

// NewReturnMovement builds the register row for a return.
func (mi *MaterialIssue) NewReturnMovement(period time.Time, qty types.Quantity) entity.InventoryMovement {
	return entity.NewInventoryMovement(mi.ID, RecorderType, period, entity.RecordTypeReturn, mi.MaterialID, mi.ProjectID, qty)
}
