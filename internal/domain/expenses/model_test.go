package expenses

import (
	"context"
	"testing"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/core/types"
)

func TestExpenseTotal(t *testing.T) {
	tests := []struct {
		name      string
		amount    types.MinorUnits
		rates     []string
		wantTax   types.MinorUnits
		wantTotal types.MinorUnits
	}{
		{"no taxes", 10_000, nil, 0, 10_000},
		{"single rate", 10_000, []string{"5"}, 500, 10_500},
		{"two rates rounded independently", 10_000, []string{"5", "10"}, 1500, 11_500},
		// 1050 * 5% = 52.5 -> 53 and 1050 * 3% = 31.5 -> 32 per line;
		// summing first would give 1050 * 8% = 84.
		{"per-line half up", 1050, []string{"5", "3"}, 85, 1135},
		{"zero amount", 0, []string{"8.25"}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExpense(id.New(), "crane rental", tt.amount)
			for _, r := range tt.rates {
				e.Taxes = append(e.Taxes, Tax{ID: id.New(), Name: "tax " + r, Rate: types.MustRate(r)})
			}

			tax, err := e.TaxAmount()
			if err != nil {
				t.Fatalf("TaxAmount: %v", err)
			}
			if tax != tt.wantTax {
				t.Errorf("TaxAmount() = %d, want %d", tax, tt.wantTax)
			}

			total, err := e.Total()
			if err != nil {
				t.Fatalf("Total: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("Total() = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}

func TestExpenseNegativeTaxRate(t *testing.T) {
	e := NewExpense(id.New(), "labor", 5000)
	e.Taxes = append(e.Taxes, Tax{ID: id.New(), Name: "broken", Rate: types.MustRate("-5")})

	if _, err := e.Total(); !apperror.IsCode(err, apperror.CodeValidation) {
		t.Errorf("Total() error = %v, want %s", err, apperror.CodeValidation)
	}
	if err := e.Validate(context.Background()); !apperror.IsCode(err, apperror.CodeValidation) {
		t.Errorf("Validate() error = %v, want %s", err, apperror.CodeValidation)
	}
}

func TestExpenseRecordUnused(t *testing.T) {
	qty := types.NewQuantityFromInt(40)

	t.Run("accumulates within quantity", func(t *testing.T) {
		e := NewExpense(id.New(), "crane rental", 80_000)
		e.Quantity = &qty
		e.Unit = "h"

		if err := e.RecordUnused(types.NewQuantityFromInt(10)); err != nil {
			t.Fatalf("first RecordUnused: %v", err)
		}
		if err := e.RecordUnused(types.NewQuantityFromInt(30)); err != nil {
			t.Fatalf("second RecordUnused: %v", err)
		}
		if e.UnusedQuantity != qty {
			t.Errorf("UnusedQuantity = %s, want %s", e.UnusedQuantity, qty)
		}
	})

	t.Run("rejects cumulative overflow", func(t *testing.T) {
		e := NewExpense(id.New(), "crane rental", 80_000)
		e.Quantity = &qty
		e.UnusedQuantity = types.NewQuantityFromInt(35)

		err := e.RecordUnused(types.NewQuantityFromInt(6))
		if !apperror.IsCode(err, apperror.CodeOutOfRange) {
			t.Fatalf("error = %v, want %s", err, apperror.CodeOutOfRange)
		}
		if e.UnusedQuantity != types.NewQuantityFromInt(35) {
			t.Errorf("UnusedQuantity changed on failed call: %s", e.UnusedQuantity)
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		e := NewExpense(id.New(), "crane rental", 80_000)
		e.Quantity = &qty
		if err := e.RecordUnused(0); !apperror.IsCode(err, apperror.CodeValidation) {
			t.Errorf("error = %v, want %s", err, apperror.CodeValidation)
		}
	})

	t.Run("rejects lump sum expense", func(t *testing.T) {
		e := NewExpense(id.New(), "permit fee", 12_000)
		if err := e.RecordUnused(types.NewQuantityFromInt(1)); !apperror.IsCode(err, apperror.CodeValidation) {
			t.Errorf("error = %v, want %s", err, apperror.CodeValidation)
		}
	})
}

func TestExpenseUnusedDoesNotAffectTotal(t *testing.T) {
	qty := types.NewQuantityFromInt(10)
	e := NewExpense(id.New(), "scaffolding", 50_000)
	e.Quantity = &qty
	e.Taxes = append(e.Taxes, Tax{ID: id.New(), Name: "sales", Rate: types.MustRate("10")})

	before, err := e.Total()
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if err := e.RecordUnused(types.NewQuantityFromInt(4)); err != nil {
		t.Fatalf("RecordUnused: %v", err)
	}
	after, err := e.Total()
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if before != after {
		t.Errorf("Total changed after RecordUnused: %d -> %d", before, after)
	}
}
