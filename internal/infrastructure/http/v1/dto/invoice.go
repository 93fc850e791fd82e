package dto

import (
	"time"

	"prorab/internal/core/id"
	"prorab/internal/core/types"
	"prorab/internal/domain/billing"
)

// --- Request DTOs ---

// SourceRefRequest names one billable source record.
type SourceRefRequest struct {
	Type string `json:"type" binding:"required"`
	ID   string `json:"id"`
}

// CustomLineRequest is an ad-hoc invoice line outside the guard.
type CustomLineRequest struct {
	Description string           `json:"description" binding:"required"`
	Quantity    *types.Quantity  `json:"quantity"`
	Unit        string           `json:"unit"`
	Amount      types.MinorUnits `json:"amount"`
}

// CreateInvoiceRequest assembles an invoice from selected sources.
type CreateInvoiceRequest struct {
	ProjectID   string              `json:"projectId" binding:"required"`
	Sources     []SourceRefRequest  `json:"sources"`
	CustomLines []CustomLineRequest `json:"customLines"`
	TaxRate     types.Rate          `json:"taxRate"`
	Comment     string              `json:"comment"`
}

// --- Response DTOs ---

// InvoiceLineResponse is one invoice line.
type InvoiceLineResponse struct {
	LineID          string           `json:"lineId"`
	LineNo          int              `json:"lineNo"`
	SourceType      string           `json:"sourceType"`
	SourceID        string           `json:"sourceId,omitempty"`
	Description     string           `json:"description"`
	Quantity        *types.Quantity  `json:"quantity,omitempty"`
	Unit            string           `json:"unit,omitempty"`
	Amount          types.MinorUnits `json:"amount"`
	AmountFormatted string           `json:"amountFormatted"`
}

// InvoiceResponse is the response body for an invoice.
type InvoiceResponse struct {
	ID                string                `json:"id"`
	Number            string                `json:"number"`
	Date              time.Time             `json:"date"`
	ProjectID         string                `json:"projectId"`
	Status            billing.Status        `json:"status"`
	ClientName        string                `json:"clientName"`
	Lines             []InvoiceLineResponse `json:"lines"`
	TaxRate           types.Rate            `json:"taxRate"`
	Subtotal          types.MinorUnits      `json:"subtotal"`
	SubtotalFormatted string                `json:"subtotalFormatted"`
	Tax               types.MinorUnits      `json:"tax"`
	TaxFormatted      string                `json:"taxFormatted"`
	Total             types.MinorUnits      `json:"total"`
	TotalFormatted    string                `json:"totalFormatted"`
	DueDate           *time.Time            `json:"dueDate,omitempty"`
	Comment           string                `json:"comment,omitempty"`
	DeletionMark      bool                  `json:"deletionMark"`
	Version           int                   `json:"version"`
}

// FromInvoice creates response DTO from domain entity.
func FromInvoice(inv *billing.Invoice) *InvoiceResponse {
	resp := &InvoiceResponse{
		ID:                inv.ID.String(),
		Number:            inv.Number,
		Date:              inv.Date,
		ProjectID:         inv.ProjectID.String(),
		Status:            inv.Status,
		ClientName:        inv.ClientName,
		Lines:             make([]InvoiceLineResponse, 0, len(inv.Lines)),
		TaxRate:           inv.TaxRate,
		Subtotal:          inv.Subtotal,
		SubtotalFormatted: FormatAmount(inv.Subtotal),
		Tax:               inv.Tax,
		TaxFormatted:      FormatAmount(inv.Tax),
		Total:             inv.Total,
		TotalFormatted:    FormatAmount(inv.Total),
		DueDate:           inv.DueDate,
		Comment:           inv.Comment,
		DeletionMark:      inv.DeletionMark,
		Version:           inv.Version,
	}

	for _, line := range inv.Lines {
		lr := InvoiceLineResponse{
			LineID:          line.LineID.String(),
			LineNo:          line.LineNo,
			SourceType:      string(line.Source.Type),
			Description:     line.Description,
			Quantity:        line.Quantity,
			Unit:            line.Unit,
			Amount:          line.Amount,
			AmountFormatted: FormatAmount(line.Amount),
		}
		if !id.IsNil(line.Source.ID) {
			lr.SourceID = line.Source.ID.String()
		}
		resp.Lines = append(resp.Lines, lr)
	}

	return resp
}

// BillableItemResponse is one unbilled candidate for invoice assembly.
type BillableItemResponse struct {
	SourceType      string           `json:"sourceType"`
	SourceID        string           `json:"sourceId"`
	Description     string           `json:"description"`
	Quantity        *types.Quantity  `json:"quantity,omitempty"`
	Unit            string           `json:"unit,omitempty"`
	Amount          types.MinorUnits `json:"amount"`
	AmountFormatted string           `json:"amountFormatted"`
}

// FromBillableItem creates response DTO from a billable candidate.
func FromBillableItem(item billing.BillableItem) BillableItemResponse {
	resp := BillableItemResponse{
		SourceType:      string(item.Ref.Type),
		Description:     item.Description,
		Quantity:        item.Quantity,
		Unit:            item.Unit,
		Amount:          item.Amount,
		AmountFormatted: FormatAmount(item.Amount),
	}
	if !id.IsNil(item.Ref.ID) {
		resp.SourceID = item.Ref.ID.String()
	}
	return resp
}
