package changeorders

import (
	"testing"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/core/types"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusDraft, StatusApproved, false},
		{StatusDraft, StatusRejected, false},
		{StatusSent, StatusApproved, true},
		{StatusSent, StatusRejected, true},
		{StatusSent, StatusDraft, false},
		{StatusApproved, StatusSent, false},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusSent, false},
		{StatusRejected, StatusApproved, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTransition(t *testing.T) {
	co := NewChangeOrder(id.New(), "extra electrical work")

	if co.Status != StatusDraft {
		t.Fatalf("new order status = %s, want draft", co.Status)
	}
	if err := co.Transition(StatusSent); err != nil {
		t.Fatalf("draft -> sent: %v", err)
	}
	if co.ApprovedAt != nil {
		t.Error("ApprovedAt set before approval")
	}
	if err := co.Transition(StatusApproved); err != nil {
		t.Fatalf("sent -> approved: %v", err)
	}
	if co.ApprovedAt == nil {
		t.Error("ApprovedAt not set on approval")
	}

	err := co.Transition(StatusRejected)
	if !apperror.IsCode(err, apperror.CodeInvalidTransition) {
		t.Errorf("approved -> rejected: error = %v, want %s", err, apperror.CodeInvalidTransition)
	}
	if co.Status != StatusApproved {
		t.Errorf("status mutated on failed transition: %s", co.Status)
	}
}

func TestItemTotals(t *testing.T) {
	co := NewChangeOrder(id.New(), "extra work")

	first := co.AddItem("wiring", types.NewQuantityFromInt(10), 1500)
	if first.Total != 15_000 {
		t.Errorf("first item total = %d, want 15000", first.Total)
	}
	if first.LineNo != 1 {
		t.Errorf("first item LineNo = %d, want 1", first.LineNo)
	}

	second := co.AddItem("conduit", types.NewQuantityFromFloat64(2.5), 1000)
	if second.Total != 2500 {
		t.Errorf("second item total = %d, want 2500", second.Total)
	}
	if co.Total != 17_500 {
		t.Errorf("order total = %d, want 17500", co.Total)
	}

	if !co.RemoveItem(first.LineID) {
		t.Fatal("RemoveItem returned false for existing line")
	}
	if co.Total != 2500 {
		t.Errorf("order total after removal = %d, want 2500", co.Total)
	}
	if co.Items[0].LineNo != 1 {
		t.Errorf("remaining line not renumbered: LineNo = %d", co.Items[0].LineNo)
	}

	if co.RemoveItem(id.New()) {
		t.Error("RemoveItem returned true for unknown line")
	}
}

func TestEditableAndBillable(t *testing.T) {
	co := NewChangeOrder(id.New(), "extra work")
	co.AddItem("wiring", types.NewQuantityFromInt(1), 1000)

	if !co.IsEditable() {
		t.Error("draft order not editable")
	}
	if co.IsBillable() {
		t.Error("draft order billable")
	}

	if err := co.Transition(StatusSent); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if co.IsEditable() {
		t.Error("sent order still editable")
	}

	if err := co.Transition(StatusApproved); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if !co.IsBillable() {
		t.Error("approved order not billable")
	}

	co.Invoiced = true
	if co.IsBillable() {
		t.Error("invoiced order still billable")
	}
}
