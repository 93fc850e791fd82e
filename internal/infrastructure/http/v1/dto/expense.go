package dto

import (
	"time"

	"prorab/internal/core/id"
	"prorab/internal/core/types"
	"prorab/internal/domain/expenses"
)

// --- Request DTOs ---

// TaxLineRequest is one tax applied to an expense.
type TaxLineRequest struct {
	Name string     `json:"name" binding:"required"`
	Rate types.Rate `json:"rate"`
}

// CreateExpenseRequest is the request body for creating an expense.
type CreateExpenseRequest struct {
	ProjectID   string           `json:"projectId" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Category    string           `json:"category"`
	Amount      types.MinorUnits `json:"amount"`
	Taxes       []TaxLineRequest `json:"taxes"`
	Quantity    *types.Quantity  `json:"quantity"`
	Unit        string           `json:"unit"`
	Date        *time.Time       `json:"date"`
	Comment     string           `json:"comment"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateExpenseRequest) ToEntity(projectID id.ID) *expenses.Expense {
	e := expenses.NewExpense(projectID, r.Description, r.Amount)
	e.Category = r.Category
	e.Quantity = r.Quantity
	e.Unit = r.Unit
	e.Comment = r.Comment
	if r.Date != nil {
		e.Date = *r.Date
	}
	for _, t := range r.Taxes {
		e.Taxes = append(e.Taxes, expenses.Tax{
			ID:   id.New(),
			Name: t.Name,
			Rate: t.Rate,
		})
	}
	return e
}

// UpdateExpenseRequest is the request body for updating an expense.
type UpdateExpenseRequest struct {
	Description string           `json:"description" binding:"required"`
	Category    string           `json:"category"`
	Amount      types.MinorUnits `json:"amount"`
	Taxes       []TaxLineRequest `json:"taxes"`
	Quantity    *types.Quantity  `json:"quantity"`
	Unit        string           `json:"unit"`
	Date        *time.Time       `json:"date"`
	Comment     string           `json:"comment"`
	Version     int              `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateExpenseRequest) ApplyTo(e *expenses.Expense) {
	e.Description = r.Description
	e.Category = r.Category
	e.Amount = r.Amount
	e.Quantity = r.Quantity
	e.Unit = r.Unit
	e.Comment = r.Comment
	if r.Date != nil {
		e.Date = *r.Date
	}
	e.Taxes = e.Taxes[:0]
	for _, t := range r.Taxes {
		e.Taxes = append(e.Taxes, expenses.Tax{
			ID:   id.New(),
			Name: t.Name,
			Rate: t.Rate,
		})
	}
	e.Version = r.Version
}

// RecordUnusedRequest reports a remainder left over after the work.
type RecordUnusedRequest struct {
	Quantity types.Quantity `json:"quantity"`
}

// --- Response DTOs ---

// TaxLineResponse is one tax line with its computed amount.
type TaxLineResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Rate            types.Rate       `json:"rate"`
	Amount          types.MinorUnits `json:"amount"`
	AmountFormatted string           `json:"amountFormatted"`
}

// ExpenseResponse is the response body for an expense.
type ExpenseResponse struct {
	ID              string            `json:"id"`
	Number          string            `json:"number"`
	Date            time.Time         `json:"date"`
	ProjectID       string            `json:"projectId"`
	Description     string            `json:"description"`
	Category        string            `json:"category,omitempty"`
	Amount          types.MinorUnits  `json:"amount"`
	AmountFormatted string            `json:"amountFormatted"`
	Taxes           []TaxLineResponse `json:"taxes"`
	Total           types.MinorUnits  `json:"total"`
	TotalFormatted  string            `json:"totalFormatted"`
	Quantity        *types.Quantity   `json:"quantity,omitempty"`
	Unit            string            `json:"unit,omitempty"`
	UnusedQuantity  types.Quantity    `json:"unusedQuantity"`
	Invoiced        bool              `json:"invoiced"`
	Comment         string            `json:"comment,omitempty"`
	DeletionMark    bool              `json:"deletionMark"`
	Version         int               `json:"version"`
}

// FromExpense creates response DTO from domain entity.
func FromExpense(e *expenses.Expense) *ExpenseResponse {
	resp := &ExpenseResponse{
		ID:              e.ID.String(),
		Number:          e.Number,
		Date:            e.Date,
		ProjectID:       e.ProjectID.String(),
		Description:     e.Description,
		Category:        e.Category,
		Amount:          e.Amount,
		AmountFormatted: FormatAmount(e.Amount),
		Taxes:           make([]TaxLineResponse, 0, len(e.Taxes)),
		Quantity:        e.Quantity,
		Unit:            e.Unit,
		UnusedQuantity:  e.UnusedQuantity,
		Invoiced:        e.Invoiced,
		Comment:         e.Comment,
		DeletionMark:    e.DeletionMark,
		Version:         e.Version,
	}

	for _, t := range e.Taxes {
		amount := types.PercentOf(e.Amount, t.Rate)
		resp.Taxes = append(resp.Taxes, TaxLineResponse{
			ID:              t.ID.String(),
			Name:            t.Name,
			Rate:            t.Rate,
			Amount:          amount,
			AmountFormatted: FormatAmount(amount),
		})
	}

	if total, err := e.Total(); err == nil {
		resp.Total = total
		resp.TotalFormatted = FormatAmount(total)
	}

	return resp
}
