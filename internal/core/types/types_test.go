package types

import (
	"encoding/json"
	"testing"
)

func TestQuantityString(t *testing.T) {
	tests := []struct {
		name string
		q    Quantity
		want string
	}{
		{"zero", 0, "0.0000"},
		{"whole", NewQuantityFromInt(25), "25.0000"},
		{"fractional", NewQuantityFromInt64Scaled(105_000), "10.5000"},
		{"sub-unit", NewQuantityFromInt64Scaled(1), "0.0001"},
		{"negative", NewQuantityFromInt64Scaled(-42_500), "-4.2500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuantityUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Quantity
		wantErr bool
	}{
		{"number", `10.5`, NewQuantityFromInt64Scaled(105_000), false},
		{"string", `"10.5"`, NewQuantityFromInt64Scaled(105_000), false},
		{"integer", `25`, NewQuantityFromInt(25), false},
		{"four digits", `0.0001`, NewQuantityFromInt64Scaled(1), false},
		{"extra digits truncated", `1.23456`, NewQuantityFromInt64Scaled(12_345), false},
		{"negative", `-4.25`, NewQuantityFromInt64Scaled(-42_500), false},
		{"null", `null`, 0, false},
		{"garbage", `"abc"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			err := json.Unmarshal([]byte(tt.input), &q)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q != tt.want {
				t.Errorf("got %d, want %d", q, tt.want)
			}
		})
	}
}

func TestQuantityMarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewQuantityFromInt64Scaled(105_000))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "10.5000" {
		t.Errorf("got %s, want 10.5000", data)
	}
}

func TestQuantityMulMinor(t *testing.T) {
	tests := []struct {
		name      string
		q         Quantity
		unitPrice MinorUnits
		want      MinorUnits
	}{
		{"whole units", NewQuantityFromInt(10), 2500, 25_000},
		{"half unit", NewQuantityFromInt64Scaled(5_000), 1999, 999},      // 0.5 * 19.99 truncates
		{"small fraction", NewQuantityFromInt64Scaled(3_333), 100, 33},   // 0.3333 * 1.00
		{"negative quantity", NewQuantityFromInt(-3), 1500, -4500},
		{"zero price", NewQuantityFromInt(7), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.MulMinor(tt.unitPrice); got != tt.want {
				t.Errorf("MulMinor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name   string
		amount MinorUnits
		rate   string
		want   MinorUnits
	}{
		{"five percent", 10_000, "5", 500},
		{"ten percent", 10_000, "10", 1000},
		{"rounds half up", 1050, "5", 53},       // 52.5 -> 53
		{"rounds down below half", 1040, "5", 52}, // 52.0
		{"fractional rate", 100_000, "8.25", 8250},
		{"zero rate", 10_000, "0", 0},
		{"zero amount", 0, "20", 0},
		{"negative amount half up", -1050, "5", -53},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentOf(tt.amount, MustRate(tt.rate))
			if got != tt.want {
				t.Errorf("PercentOf(%d, %s) = %d, want %d", tt.amount, tt.rate, got, tt.want)
			}
		})
	}
}
