// Package entity provides core domain entities.
package entity

import (
	"time"

	"prorab/internal/core/id"
	"prorab/internal/core/types"
)

// RecordType defines movement direction for the inventory register.
type RecordType string

const (
	// RecordTypeIssue moves stock from the workshop to a project site (выдача)
	RecordTypeIssue RecordType = "issue"
	// RecordTypeReturn moves stock from a project site back to the workshop (возврат)
	RecordTypeReturn RecordType = "return"
)

// MovementBase contains common fields for all register movements.
// Movements are immutable - they are never updated or deleted; they are
// the audit trail behind the materialized stock quantities.
type MovementBase struct {
	// LineID is unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// RecorderID is the record that created this movement (issuance id)
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderType is the record type (e.g., "MaterialIssue")
	RecorderType string `db:"recorder_type" json:"recorderType"`

	// Period is the business date for the movement (for period-based queries)
	Period time.Time `db:"period" json:"period"`

	// RecordType: issue (выдача) or return (возврат)
	RecordType RecordType `db:"record_type" json:"recordType"`

	// CreatedAt is when the movement was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovementBase creates a new movement base with generated LineID.
func NewMovementBase(recorderID id.ID, recorderType string, period time.Time, recordType RecordType) MovementBase {
	return MovementBase{
		LineID:       id.New(),
		RecorderID:   recorderID,
		RecorderType: recorderType,
		Period:       period,
		RecordType:   recordType,
		CreatedAt:    time.Now().UTC(),
	}
}

// InventoryMovement represents a movement in the workshop inventory register.
// Tracks quantity flow between workshop stock and project sites.
type InventoryMovement struct {
	MovementBase

	// Dimensions (измерения)
	MaterialID id.ID `db:"material_id" json:"materialId"`
	ProjectID  id.ID `db:"project_id" json:"projectId"`

	// Resources (ресурсы)
	Quantity types.Quantity `db:"quantity" json:"quantity"`
}

// NewInventoryMovement creates a new inventory movement.
func NewInventoryMovement(
	recorderID id.ID,
	recorderType string,
	period time.Time,
	recordType RecordType,
	materialID, projectID id.ID,
	quantity types.Quantity,
) InventoryMovement {
	return InventoryMovement{
		MovementBase: NewMovementBase(recorderID, recorderType, period, recordType),
		MaterialID:   materialID,
		ProjectID:    projectID,
		Quantity:     quantity,
	}
}

// SignedQuantity returns the stock delta seen from the workshop.
// Issue = negative (stock leaves), Return = positive (stock comes back).
func (m *InventoryMovement) SignedQuantity() types.Quantity {
	if m.RecordType == RecordTypeIssue {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
