// Package expenses provides the Expense document (Документ "Расход").
// An expense is a taxed cost item attributed to a project: labor, rented
// equipment, subcontractor work, purchased materials outside the workshop.
package expenses

import (
	"context"
	"time"

	"prorab/internal/core/apperror"
	"prorab/internal/core/entity"
	"prorab/internal/core/id"
	"prorab/internal/core/types"
)

// Tax is a named tax line applied to an expense amount.
// Rates are percentages (8.25 means 8.25%).
type Tax struct {
	ID   id.ID      `db:"id" json:"id"`
	Name string     `db:"name" json:"name"`
	Rate types.Rate `db:"rate" json:"rate"`
}

// Expense represents a project cost item with zero or more tax lines.
type Expense struct {
	entity.Document

	// Description is what the money was spent on
	Description string `db:"description" json:"description"`

	// Category groups expenses for reporting (labor, equipment, subcontract...)
	Category string `db:"category" json:"category,omitempty"`

	// Amount is the pre-tax amount in minor units
	Amount types.MinorUnits `db:"amount" json:"amount"`

	// Taxes applied to Amount. Each tax line is rounded independently.
	Taxes []Tax `db:"-" json:"taxes"`

	// Quantity and Unit are optional: set for countable expenses
	// (e.g. 40 hours of crane rental), nil for lump sums.
	Quantity *types.Quantity `db:"quantity" json:"quantity,omitempty"`
	Unit     string          `db:"unit" json:"unit,omitempty"`

	// UnusedQuantity is the part reported as not consumed on site.
	// Informational only; it does not change Amount or Total.
	UnusedQuantity types.Quantity `db:"unused_quantity" json:"unusedQuantity"`

	// Invoiced is set when the expense is pulled onto a client invoice.
	// An invoiced expense is never offered for billing again.
	Invoiced bool `db:"invoiced" json:"invoiced"`
}

// NewExpense creates a new Expense for a project.
func NewExpense(projectID id.ID, description string, amount types.MinorUnits) *Expense {
	return &Expense{
		Document:    entity.NewDocument(projectID),
		Description: description,
		Amount:      amount,
	}
}

// Validate implements entity.Validatable interface.
func (e *Expense) Validate(ctx context.Context) error {
	if err := e.Document.Validate(ctx); err != nil {
		return err
	}

	if e.Description == "" {
		return apperror.NewValidation("description is required").
			WithDetail("field", "description")
	}

	if e.Amount.IsNegative() {
		return apperror.NewValidation("amount cannot be negative").
			WithDetail("field", "amount")
	}

	for _, t := range e.Taxes {
		if t.Rate.IsNegative() {
			return apperror.NewValidation("tax rate cannot be negative").
				WithDetail("field", "taxes").
				WithDetail("tax", t.Name)
		}
	}

	if e.Quantity != nil && e.Quantity.IsNegative() {
		return apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}

	return nil
}

// TaxAmount returns the total tax on the expense. Each rate is applied to
// the pre-tax amount and rounded to whole minor units independently, so
// the sum of the displayed tax lines always equals the charged tax.
func (e *Expense) TaxAmount() (types.MinorUnits, error) {
	var total types.MinorUnits
	for _, t := range e.Taxes {
		if t.Rate.IsNegative() {
			return 0, apperror.NewValidation("tax rate cannot be negative").
				WithDetail("tax", t.Name)
		}
		total += types.PercentOf(e.Amount, t.Rate)
	}
	return total, nil
}

// Total returns amount plus all taxes in minor units.
func (e *Expense) Total() (types.MinorUnits, error) {
	tax, err := e.TaxAmount()
	if err != nil {
		return 0, err
	}
	return e.Amount + tax, nil
}

// RecordUnused marks a portion of a countable expense as not consumed.
// The cumulative unused quantity may never exceed the expense quantity.
func (e *Expense) RecordUnused(qty types.Quantity) error {
	if e.Quantity == nil {
		return apperror.NewValidation("expense has no quantity to mark unused").
			WithDetail("expenseId", e.ID)
	}
	if !qty.IsPositive() {
		return apperror.NewValidation("unused quantity must be positive").
			WithDetail("field", "quantity")
	}
	if e.UnusedQuantity+qty > *e.Quantity {
		return apperror.NewOutOfRange(e.ID.String(), (e.UnusedQuantity + qty).Float64(), e.Quantity.Float64())
	}
	e.UnusedQuantity += qty
	e.UpdatedAt = time.Now().UTC()
	return nil
}
