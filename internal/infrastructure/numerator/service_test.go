package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "prorab/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences row: every call advances the
// stored value by the increment argument (1 for strict calls).
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	var increment int64 = 1
	if len(args) == 2 {
		// Cached strategy passes (key string, increment int64); the strict
		// variant passes (prefix string, year int), which leaves 1.
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

// Fixed period so formatted numbers do not depend on the wall clock.
var testPeriod = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func TestGetNextNumberStrict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("INV")

	num, err := svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "INV-2026-00001" {
		t.Errorf("expected INV-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "INV-2026-00002" {
		t.Errorf("expected INV-2026-00002, got %s", num)
	}
}

func TestGetNextNumberCached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("ISS")

	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		RangeSize: 10,
	}

	// First call reserves 1..10 and hands out 1.
	num, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ISS-2026-00001" {
		t.Errorf("expected ISS-2026-00001, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected DB value 10, got %d", q.currentValue)
	}

	// Second call is served from memory without touching the DB.
	callsBefore := q.calls
	num, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ISS-2026-00002" {
		t.Errorf("expected ISS-2026-00002, got %s", num)
	}
	if q.calls != callsBefore {
		t.Errorf("cached call hit the DB")
	}

	// Exhaust the range; the next call reserves 11..20.
	for i := 0; i < 8; i++ {
		if _, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	num, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ISS-2026-00011" {
		t.Errorf("expected ISS-2026-00011, got %s", num)
	}
	if q.currentValue != 20 {
		t.Errorf("expected DB value 20, got %d", q.currentValue)
	}
}

func TestSetNextNumberInvalidatesCache(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("ISS")

	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		RangeSize: 10,
	}

	if _, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.SetNextNumber(ctx, cfg, testPeriod, 100); err != nil {
		t.Fatalf("SetNextNumber: %v", err)
	}

	// The cached range is dropped, so the next call reserves from the DB.
	callsBefore := q.calls
	if _, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.calls != callsBefore+1 {
		t.Errorf("expected a DB round-trip after SetNextNumber")
	}
}

func TestFormatNumber(t *testing.T) {
	svc := New(&mockQuerier{})

	tests := []struct {
		name string
		cfg  corenumerator.Config
		num  int64
		want string
	}{
		{"default", corenumerator.DefaultConfig("INV"), 1, "INV-2026-00001"},
		{"no year", corenumerator.Config{Prefix: "DOC", PadWidth: 3}, 42, "DOC-042"},
		{"wide pad", corenumerator.Config{Prefix: "EXP", IncludeYear: true, PadWidth: 7}, 12, "EXP-2026-0000012"},
		{"zero pad defaults to five", corenumerator.Config{Prefix: "ISS", IncludeYear: true}, 7, "ISS-2026-00007"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.formatNumber(tt.cfg, testPeriod, tt.num); got != tt.want {
				t.Errorf("formatNumber() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"INV-2026-00042", 42},
		{"DOC-007", 7},
		{"garbage", -1},
	}

	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
