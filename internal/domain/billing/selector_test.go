package billing

import (
	"testing"

	"prorab/internal/core/entity"
	"prorab/internal/core/id"
	"prorab/internal/core/types"
)

func invoiceWithLines(status Status, refs ...SourceRef) *Invoice {
	inv := &Invoice{
		Document: entity.NewDocument(id.New()),
		Status:   status,
	}
	for _, ref := range refs {
		inv.Lines = append(inv.Lines, Line{
			LineID:      id.New(),
			Source:      ref,
			Description: "line",
			Amount:      1000,
		})
	}
	inv.recalculateTotals()
	return inv
}

func TestNewBilledSet(t *testing.T) {
	expenseRef := SourceRef{Type: SourceExpense, ID: id.New()}
	issueRef := SourceRef{Type: SourceMaterialIssue, ID: id.New()}
	voidedRef := SourceRef{Type: SourceChangeOrder, ID: id.New()}
	customRef := SourceRef{Type: SourceCustom}

	set := NewBilledSet([]*Invoice{
		invoiceWithLines(StatusSent, expenseRef, customRef),
		invoiceWithLines(StatusPaid, issueRef),
		invoiceWithLines(StatusVoid, voidedRef),
	})

	if !set.Contains(expenseRef) {
		t.Error("expense ref from sent invoice missing from billed set")
	}
	if !set.Contains(issueRef) {
		t.Error("issue ref from paid invoice missing from billed set")
	}
	if set.Contains(voidedRef) {
		t.Error("ref from void invoice must not be in billed set")
	}
	if set.Contains(customRef) {
		t.Error("custom line must never enter the billed set")
	}
}

func TestBilledSetGuardsAcrossInvoices(t *testing.T) {
	ref := SourceRef{Type: SourceExpense, ID: id.New()}

	// The same source billed on an earlier draft invoice blocks reuse.
	set := NewBilledSet([]*Invoice{invoiceWithLines(StatusDraft, ref)})

	candidates := []BillableItem{
		{Ref: ref, Description: "already billed", Amount: 500},
		{Ref: SourceRef{Type: SourceExpense, ID: id.New()}, Description: "fresh", Amount: 700},
	}
	got := SelectUnbilled(candidates, set)

	if len(got) != 1 {
		t.Fatalf("SelectUnbilled returned %d items, want 1", len(got))
	}
	if got[0].Description != "fresh" {
		t.Errorf("kept item = %q, want fresh", got[0].Description)
	}
}

func TestSelectUnbilledKeepsCustomLines(t *testing.T) {
	custom := BillableItem{Ref: SourceRef{Type: SourceCustom}, Description: "site cleanup", Amount: 300}
	set := NewBilledSet([]*Invoice{invoiceWithLines(StatusSent, SourceRef{Type: SourceCustom})})

	got := SelectUnbilled([]BillableItem{custom, custom}, set)
	if len(got) != 2 {
		t.Errorf("SelectUnbilled filtered custom lines: got %d, want 2", len(got))
	}
}

func TestSelectUnbilledPreservesOrder(t *testing.T) {
	refs := []SourceRef{
		{Type: SourceExpense, ID: id.New()},
		{Type: SourceMaterialIssue, ID: id.New()},
		{Type: SourceChangeOrder, ID: id.New()},
	}
	candidates := make([]BillableItem, 0, len(refs))
	for i, ref := range refs {
		candidates = append(candidates, BillableItem{Ref: ref, Amount: types.MinorUnits(i + 1)})
	}

	got := SelectUnbilled(candidates, NewBilledSet(nil))
	if len(got) != len(candidates) {
		t.Fatalf("got %d items, want %d", len(got), len(candidates))
	}
	for i := range got {
		if got[i].Ref != candidates[i].Ref {
			t.Errorf("item %d out of order", i)
		}
	}
}

func TestSourceTypeGuarded(t *testing.T) {
	tests := []struct {
		t    SourceType
		want bool
	}{
		{SourceExpense, true},
		{SourceMaterialIssue, true},
		{SourceChangeOrder, true},
		{SourceCustom, false},
		{SourceType("bogus"), false},
	}
	for _, tt := range tests {
		if got := tt.t.Guarded(); got != tt.want {
			t.Errorf("%s.Guarded() = %v, want %v", tt.t, got, tt.want)
		}
	}
	if SourceType("bogus").Valid() {
		t.Error("unknown source type reported valid")
	}
}
