package billing

import (
	"context"
	"time"

	"prorab/internal/core/apperror"
	"prorab/internal/core/entity"
	"prorab/internal/core/id"
	"prorab/internal/core/types"
)

// Status represents the invoice lifecycle.
type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusPaid  Status = "paid"
	// StatusVoid cancels an invoice. Void invoices do not participate in
	// the double-billing guard; their source flags are not reset, so
	// re-billing a voided line is a deliberate manual step.
	StatusVoid Status = "void"
)

// allowedTransitions: Draft -> {Sent, Void}, Sent -> {Paid, Void}.
// Paid and Void are terminal.
var allowedTransitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusVoid},
	StatusSent:  {StatusPaid, StatusVoid},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Line is one invoice position.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	// Source records where the line came from (tagged by SourceType)
	Source SourceRef `db:"-" json:"source"`

	Description string           `db:"description" json:"description"`
	Quantity    *types.Quantity  `db:"quantity" json:"quantity,omitempty"`
	Unit        string           `db:"unit" json:"unit,omitempty"`
	Amount      types.MinorUnits `db:"amount" json:"amount"`
}

// Invoice represents a client invoice for one project.
type Invoice struct {
	entity.Document

	Status Status `db:"status" json:"status"`

	// ClientName snapshot taken from the project at assembly time
	ClientName string `db:"client_name" json:"clientName"`

	Lines []Line `db:"-" json:"lines"`

	// TaxRate applies to the whole invoice subtotal (0 for none)
	TaxRate types.Rate `db:"tax_rate" json:"taxRate"`

	// Derived amounts, maintained by recalculateTotals
	Subtotal types.MinorUnits `db:"subtotal" json:"subtotal"`
	Tax      types.MinorUnits `db:"tax" json:"tax"`
	Total    types.MinorUnits `db:"total" json:"total"`

	// DueDate for payment (optional)
	DueDate *time.Time `db:"due_date" json:"dueDate,omitempty"`
}

// Validate implements entity.Validatable interface.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}

	switch inv.Status {
	case StatusDraft, StatusSent, StatusPaid, StatusVoid:
	default:
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(inv.Status))
	}

	if inv.TaxRate.IsNegative() {
		return apperror.NewValidation("tax rate cannot be negative").
			WithDetail("field", "taxRate")
	}

	for _, l := range inv.Lines {
		if !l.Source.Type.Valid() {
			return apperror.NewValidation("unknown line source type").
				WithDetail("lineNo", l.LineNo).
				WithDetail("sourceType", string(l.Source.Type))
		}
		if l.Source.Type.Guarded() && id.IsNil(l.Source.ID) {
			return apperror.NewValidation("line source id is required").
				WithDetail("lineNo", l.LineNo).
				WithDetail("sourceType", string(l.Source.Type))
		}
	}

	return nil
}

// recalculateTotals keeps the derived amounts consistent with the lines.
// Invoice tax is applied to the subtotal in one rounding step.
func (inv *Invoice) recalculateTotals() {
	var subtotal types.MinorUnits
	for i := range inv.Lines {
		inv.Lines[i].LineNo = i + 1
		subtotal += inv.Lines[i].Amount
	}
	inv.Subtotal = subtotal
	inv.Tax = types.PercentOf(subtotal, inv.TaxRate)
	inv.Total = inv.Subtotal + inv.Tax
}

// Transition moves the invoice to a new status or fails with the current one.
func (inv *Invoice) Transition(to Status) error {
	if !CanTransition(inv.Status, to) {
		return apperror.NewInvalidTransition("invoice", string(inv.Status), string(to))
	}
	inv.Status = to
	inv.Touch()
	return nil
}

// IsVoid reports whether the invoice is cancelled.
func (inv *Invoice) IsVoid() bool {
	return inv.Status == StatusVoid
}
