package billing

import (
	"testing"
	"time"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/core/types"
	"prorab/internal/domain/projects"
)

func testProject() *projects.Project {
	p := projects.NewProject("PRJ-7", "Office fit-out", 1_000_000, projects.FeeTypeFixed, types.MustRate("0"))
	p.ClientName = "Acme Holdings"
	return p
}

func TestAssemble(t *testing.T) {
	p := testProject()
	qty := types.NewQuantityFromInt(40)
	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	due := date.AddDate(0, 0, 30)

	inv, err := Assemble(p, AssembleInput{
		Items: []BillableItem{
			{Ref: SourceRef{Type: SourceExpense, ID: id.New()}, Description: "crane rental", Quantity: &qty, Unit: "h", Amount: 80_000},
			{Ref: SourceRef{Type: SourceMaterialIssue, ID: id.New()}, Description: "rebar 12mm", Amount: 20_000},
			{Ref: SourceRef{Type: SourceCustom}, Description: "site cleanup", Amount: 5_000},
		},
		TaxRate: types.MustRate("10"),
		Date:    date,
		DueDate: &due,
		Comment: "April progress billing",
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if inv.Status != StatusDraft {
		t.Errorf("Status = %s, want draft", inv.Status)
	}
	if inv.ClientName != "Acme Holdings" {
		t.Errorf("ClientName = %q", inv.ClientName)
	}
	if inv.ProjectID != p.ID {
		t.Error("ProjectID not taken from project")
	}
	if !inv.Date.Equal(date) {
		t.Errorf("Date = %s, want %s", inv.Date, date)
	}
	if inv.DueDate == nil || !inv.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want %s", inv.DueDate, due)
	}

	if len(inv.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(inv.Lines))
	}
	for i, line := range inv.Lines {
		if line.LineNo != i+1 {
			t.Errorf("line %d numbered %d", i, line.LineNo)
		}
		if id.IsNil(line.LineID) {
			t.Errorf("line %d has no line id", i)
		}
	}

	if inv.Subtotal != 105_000 {
		t.Errorf("Subtotal = %d, want 105000", inv.Subtotal)
	}
	if inv.Tax != 10_500 {
		t.Errorf("Tax = %d, want 10500", inv.Tax)
	}
	if inv.Total != 115_500 {
		t.Errorf("Total = %d, want 115500", inv.Total)
	}
}

func TestAssembleEmpty(t *testing.T) {
	_, err := Assemble(testProject(), AssembleInput{TaxRate: types.MustRate("10")})
	if !apperror.IsCode(err, apperror.CodeEmptyInvoice) {
		t.Errorf("error = %v, want %s", err, apperror.CodeEmptyInvoice)
	}
}

func TestAssembleTaxRoundsOnce(t *testing.T) {
	// 1050 at 5% is 52.5: one rounding step over the subtotal, not per line.
	inv, err := Assemble(testProject(), AssembleInput{
		Items: []BillableItem{
			{Ref: SourceRef{Type: SourceCustom}, Description: "a", Amount: 525},
			{Ref: SourceRef{Type: SourceCustom}, Description: "b", Amount: 525},
		},
		TaxRate: types.MustRate("5"),
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if inv.Tax != 53 {
		t.Errorf("Tax = %d, want 53", inv.Tax)
	}
	if inv.Total != 1103 {
		t.Errorf("Total = %d, want 1103", inv.Total)
	}
}

func TestInvoiceTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusDraft, StatusVoid, true},
		{StatusDraft, StatusPaid, false},
		{StatusSent, StatusPaid, true},
		{StatusSent, StatusVoid, true},
		{StatusSent, StatusDraft, false},
		{StatusPaid, StatusVoid, false},
		{StatusVoid, StatusDraft, false},
		{StatusVoid, StatusSent, false},
	}

	for _, tt := range tests {
		inv := invoiceWithLines(tt.from, SourceRef{Type: SourceCustom})
		err := inv.Transition(tt.to)
		if tt.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tt.from, tt.to, err)
		}
		if !tt.ok {
			if !apperror.IsCode(err, apperror.CodeInvalidTransition) {
				t.Errorf("%s -> %s: error = %v, want %s", tt.from, tt.to, err, apperror.CodeInvalidTransition)
			}
			if inv.Status != tt.from {
				t.Errorf("%s -> %s: status mutated on failed transition", tt.from, tt.to)
			}
		}
	}
}
