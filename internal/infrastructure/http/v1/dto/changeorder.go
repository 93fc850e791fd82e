package dto

import (
	"time"

	"prorab/internal/core/id"
	"prorab/internal/core/types"
	"prorab/internal/domain/changeorders"
)

// --- Request DTOs ---

// ChangeOrderItemRequest is one line of a change order.
type ChangeOrderItemRequest struct {
	Description string           `json:"description" binding:"required"`
	Quantity    types.Quantity   `json:"quantity"`
	UnitPrice   types.MinorUnits `json:"unitPrice"`
}

// CreateChangeOrderRequest is the request body for creating a change order.
type CreateChangeOrderRequest struct {
	ProjectID string                   `json:"projectId" binding:"required"`
	Title     string                   `json:"title" binding:"required"`
	Items     []ChangeOrderItemRequest `json:"items"`
	Date      *time.Time               `json:"date"`
	Comment   string                   `json:"comment"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateChangeOrderRequest) ToEntity(projectID id.ID) *changeorders.ChangeOrder {
	co := changeorders.NewChangeOrder(projectID, r.Title)
	co.Comment = r.Comment
	if r.Date != nil {
		co.Date = *r.Date
	}
	for _, item := range r.Items {
		co.AddItem(item.Description, item.Quantity, item.UnitPrice)
	}
	return co
}

// UpdateChangeOrderRequest is the request body for updating a draft
// change order. Lines are replaced wholesale.
type UpdateChangeOrderRequest struct {
	Title   string                   `json:"title" binding:"required"`
	Items   []ChangeOrderItemRequest `json:"items"`
	Date    *time.Time               `json:"date"`
	Comment string                   `json:"comment"`
	Version int                      `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateChangeOrderRequest) ApplyTo(co *changeorders.ChangeOrder) {
	co.Title = r.Title
	co.Comment = r.Comment
	if r.Date != nil {
		co.Date = *r.Date
	}
	co.Items = co.Items[:0]
	for _, item := range r.Items {
		co.AddItem(item.Description, item.Quantity, item.UnitPrice)
	}
	co.Version = r.Version
}

// SetStatusRequest moves a document to a new status.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- Response DTOs ---

// ChangeOrderItemResponse is one line of a change order.
type ChangeOrderItemResponse struct {
	LineID         string           `json:"lineId"`
	LineNo         int              `json:"lineNo"`
	Description    string           `json:"description"`
	Quantity       types.Quantity   `json:"quantity"`
	UnitPrice      types.MinorUnits `json:"unitPrice"`
	Total          types.MinorUnits `json:"total"`
	TotalFormatted string           `json:"totalFormatted"`
}

// ChangeOrderResponse is the response body for a change order.
type ChangeOrderResponse struct {
	ID             string                    `json:"id"`
	Number         string                    `json:"number"`
	Date           time.Time                 `json:"date"`
	ProjectID      string                    `json:"projectId"`
	Title          string                    `json:"title"`
	Status         changeorders.Status       `json:"status"`
	Items          []ChangeOrderItemResponse `json:"items"`
	Total          types.MinorUnits          `json:"total"`
	TotalFormatted string                    `json:"totalFormatted"`
	ApprovedAt     *time.Time                `json:"approvedAt,omitempty"`
	Invoiced       bool                      `json:"invoiced"`
	Comment        string                    `json:"comment,omitempty"`
	DeletionMark   bool                      `json:"deletionMark"`
	Version        int                       `json:"version"`
}

// FromChangeOrder creates response DTO from domain entity.
func FromChangeOrder(co *changeorders.ChangeOrder) *ChangeOrderResponse {
	resp := &ChangeOrderResponse{
		ID:             co.ID.String(),
		Number:         co.Number,
		Date:           co.Date,
		ProjectID:      co.ProjectID.String(),
		Title:          co.Title,
		Status:         co.Status,
		Items:          make([]ChangeOrderItemResponse, 0, len(co.Items)),
		Total:          co.Total,
		TotalFormatted: FormatAmount(co.Total),
		ApprovedAt:     co.ApprovedAt,
		Invoiced:       co.Invoiced,
		Comment:        co.Comment,
		DeletionMark:   co.DeletionMark,
		Version:        co.Version,
	}

	for _, item := range co.Items {
		resp.Items = append(resp.Items, ChangeOrderItemResponse{
			LineID:         item.LineID.String(),
			LineNo:         item.LineNo,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			Total:          item.Total,
			TotalFormatted: FormatAmount(item.Total),
		})
	}

	return resp
}
