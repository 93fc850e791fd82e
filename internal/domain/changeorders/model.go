// Package changeorders provides the ChangeOrder document (Документ
// "Дополнительное соглашение"). A change order extends the project scope;
// once approved, its total extends the project budget and the order becomes
// billable to the client.
package changeorders

import (
	"context"
	"time"

	"prorab/internal/core/apperror"
	"prorab/internal/core/entity"
	"prorab/internal/core/id"
	"prorab/internal/core/types"
)

// Status represents the approval lifecycle of a change order.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// allowedTransitions defines the approval state machine.
// Draft -> Sent -> {Approved, Rejected}. Approved and Rejected are terminal.
var allowedTransitions = map[Status][]Status{
	StatusDraft: {StatusSent},
	StatusSent:  {StatusApproved, StatusRejected},
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

// Item is a single scope line of a change order.
type Item struct {
	LineID      id.ID            `db:"line_id" json:"lineId"`
	LineNo      int              `db:"line_no" json:"lineNo"`
	Description string           `db:"description" json:"description"`
	Quantity    types.Quantity   `db:"quantity" json:"quantity"`
	UnitPrice   types.MinorUnits `db:"unit_price" json:"unitPrice"`

	// Total = Quantity * UnitPrice, recalculated on every mutation
	Total types.MinorUnits `db:"total" json:"total"`
}

// ChangeOrder represents a scope extension pending client approval.
type ChangeOrder struct {
	entity.Document

	Title  string `db:"title" json:"title"`
	Status Status `db:"status" json:"status"`

	Items []Item `db:"-" json:"items"`

	// Total is the sum of item totals, maintained on every item change
	Total types.MinorUnits `db:"total" json:"total"`

	// ApprovedAt is set when the client approves the order
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`

	// Invoiced is set when the approved order is pulled onto an invoice
	Invoiced bool `db:"invoiced" json:"invoiced"`
}

// NewChangeOrder creates a draft change order for a project.
func NewChangeOrder(projectID id.ID, title string) *ChangeOrder {
	return &ChangeOrder{
		Document: entity.NewDocument(projectID),
		Title:    title,
		Status:   StatusDraft,
	}
}

// Validate implements entity.Validatable interface.
func (co *ChangeOrder) Validate(ctx context.Context) error {
	if err := co.Document.Validate(ctx); err != nil {
		return err
	}

	if co.Title == "" {
		return apperror.NewValidation("title is required").
			WithDetail("field", "title")
	}

	switch co.Status {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected:
	default:
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(co.Status))
	}

	for _, item := range co.Items {
		if item.Description == "" {
			return apperror.NewValidation("item description is required").
				WithDetail("lineNo", item.LineNo)
		}
		if item.Quantity.IsNegative() {
			return apperror.NewValidation("item quantity cannot be negative").
				WithDetail("lineNo", item.LineNo)
		}
	}

	return nil
}

// AddItem appends a scope line and recalculates totals.
func (co *ChangeOrder) AddItem(description string, qty types.Quantity, unitPrice types.MinorUnits) *Item {
	item := Item{
		LineID:      id.New(),
		LineNo:      len(co.Items) + 1,
		Description: description,
		Quantity:    qty,
		UnitPrice:   unitPrice,
	}
	co.Items = append(co.Items, item)
	co.recalculateTotals()
	return &co.Items[len(co.Items)-1]
}

// RemoveItem removes a line by LineID and renumbers the rest.
func (co *ChangeOrder) RemoveItem(lineID id.ID) bool {
	for i, item := range co.Items {
		if item.LineID == lineID {
			co.Items = append(co.Items[:i], co.Items[i+1:]...)
			for j := range co.Items {
				co.Items[j].LineNo = j + 1
			}
			co.recalculateTotals()
			return true
		}
	}
	return false
}

// recalculateTotals keeps line and document totals consistent with the items.
func (co *ChangeOrder) recalculateTotals() {
	var total types.MinorUnits
	for i := range co.Items {
		co.Items[i].Total = co.Items[i].Quantity.MulMinor(co.Items[i].UnitPrice)
		total += co.Items[i].Total
	}
	co.Total = total
}

// Transition moves the order to a new status or fails with the current one.
func (co *ChangeOrder) Transition(to Status) error {
	if !CanTransition(co.Status, to) {
		return apperror.NewInvalidTransition("change order", string(co.Status), string(to))
	}
	co.Status = to
	if to == StatusApproved {
		now := time.Now().UTC()
		co.ApprovedAt = &now
	}
	co.Touch()
	return nil
}

// IsEditable reports whether scope lines may still change.
// Sent and later statuses freeze the content the client saw.
func (co *ChangeOrder) IsEditable() bool {
	return co.Status == StatusDraft
}

// IsBillable reports whether the order can appear on an invoice.
func (co *ChangeOrder) IsBillable() bool {
	return co.Status == StatusApproved && !co.Invoiced
}
