// Package billing implements client invoices: selecting unbilled work,
// assembling invoice documents and guarding against double billing.
package billing

import (
	"fmt"

	"prorab/internal/core/id"
)

// SourceType discriminates what an invoice line was built from.
// Switches over SourceType list every constant explicitly and fail on
// unknown values, so adding a type forces every call site to decide.
type SourceType string

const (
	// SourceExpense bills a taxed project expense
	SourceExpense SourceType = "expense"
	// SourceMaterialIssue bills material issued from the workshop
	SourceMaterialIssue SourceType = "material_issue"
	// SourceChangeOrder bills an approved change order
	SourceChangeOrder SourceType = "change_order"
	// SourceCustom is a free-form line typed in by the user
	SourceCustom SourceType = "custom"
)

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	switch t {
	case SourceExpense, SourceMaterialIssue, SourceChangeOrder, SourceCustom:
		return true
	}
	return false
}

// Guarded reports whether lines of this type participate in the
// double-billing guard. Custom lines reference no record and may repeat.
func (t SourceType) Guarded() bool {
	switch t {
	case SourceExpense, SourceMaterialIssue, SourceChangeOrder:
		return true
	case SourceCustom:
		return false
	}
	return false
}

// SourceRef identifies the record behind an invoice line.
// For SourceCustom the ID is nil.
type SourceRef struct {
	Type SourceType `db:"source_type" json:"sourceType"`
	ID   id.ID      `db:"source_id" json:"sourceId"`
}

// Key returns a stable map key for guard sets.
func (r SourceRef) Key() string {
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}
