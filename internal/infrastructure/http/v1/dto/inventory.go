package dto

import (
	"time"

	"prorab/internal/core/entity"
	"prorab/internal/core/types"
	"prorab/internal/domain/inventory"
)

// --- Request DTOs ---

// IssueMaterialRequest moves workshop stock to a project site.
type IssueMaterialRequest struct {
	MaterialID string         `json:"materialId" binding:"required"`
	ProjectID  string         `json:"projectId" binding:"required"`
	Quantity   types.Quantity `json:"quantity"`
	Date       *time.Time     `json:"date"`
	Comment    string         `json:"comment"`
	Billable   bool           `json:"billable"`
}

// ReturnMaterialRequest returns unused material back to the workshop.
type ReturnMaterialRequest struct {
	Quantity types.Quantity `json:"quantity"`
	Date     *time.Time     `json:"date"`
}

// --- Response DTOs ---

// MaterialIssueResponse is the response body for an issuance record.
type MaterialIssueResponse struct {
	ID                string            `json:"id"`
	Number            string            `json:"number"`
	Date              time.Time         `json:"date"`
	ProjectID         string            `json:"projectId"`
	MaterialID        string            `json:"materialId"`
	MaterialName      string            `json:"materialName"`
	Unit              string            `json:"unit"`
	Quantity          types.Quantity    `json:"quantity"`
	IssuedTotal       types.Quantity    `json:"issuedTotal"`
	UnitCost          *types.MinorUnits `json:"unitCost,omitempty"`
	UnitCostFormatted string            `json:"unitCostFormatted,omitempty"`
	Cost              types.MinorUnits  `json:"cost"`
	CostFormatted     string            `json:"costFormatted"`
	UnusedQuantity    types.Quantity    `json:"unusedQuantity"`
	Billable          bool              `json:"billable"`
	Invoiced          bool              `json:"invoiced"`
	Comment           string            `json:"comment,omitempty"`
	DeletionMark      bool              `json:"deletionMark"`
	Version           int               `json:"version"`
}

// FromMaterialIssue creates response DTO from domain entity.
func FromMaterialIssue(mi *inventory.MaterialIssue) *MaterialIssueResponse {
	cost := mi.Cost()
	return &MaterialIssueResponse{
		ID:                mi.ID.String(),
		Number:            mi.Number,
		Date:              mi.Date,
		ProjectID:         mi.ProjectID.String(),
		MaterialID:        mi.MaterialID.String(),
		MaterialName:      mi.MaterialName,
		Unit:              mi.Unit,
		Quantity:          mi.Quantity,
		IssuedTotal:       mi.IssuedTotal,
		UnitCost:          mi.UnitCost,
		UnitCostFormatted: FormatAmountPtr(mi.UnitCost),
		Cost:              cost,
		CostFormatted:     FormatAmount(cost),
		UnusedQuantity:    mi.UnusedQuantity,
		Billable:          mi.Billable,
		Invoiced:          mi.Invoiced,
		Comment:           mi.Comment,
		DeletionMark:      mi.DeletionMark,
		Version:           mi.Version,
	}
}

// LedgerResultResponse carries the refreshed aggregates after an issue
// or return, so the dashboard renders new stock without a second call.
type LedgerResultResponse struct {
	Material *MaterialResponse      `json:"material"`
	Issue    *MaterialIssueResponse `json:"issue"`
}

// FromLedgerResult creates response DTO from a ledger mutation result.
func FromLedgerResult(r *inventory.Result) *LedgerResultResponse {
	return &LedgerResultResponse{
		Material: FromMaterial(r.Material),
		Issue:    FromMaterialIssue(r.Issue),
	}
}

// MovementResponse is one immutable register row.
type MovementResponse struct {
	LineID     string            `json:"lineId"`
	RecorderID string            `json:"recorderId"`
	RecordType entity.RecordType `json:"recordType"`
	MaterialID string            `json:"materialId"`
	ProjectID  string            `json:"projectId"`
	Quantity   types.Quantity    `json:"quantity"`
	Period     time.Time         `json:"period"`
}

// FromMovement creates response DTO from a register row.
func FromMovement(m entity.InventoryMovement) MovementResponse {
	return MovementResponse{
		LineID:     m.LineID.String(),
		RecorderID: m.RecorderID.String(),
		RecordType: m.RecordType,
		MaterialID: m.MaterialID.String(),
		ProjectID:  m.ProjectID.String(),
		Quantity:   m.Quantity,
		Period:     m.Period,
	}
}
