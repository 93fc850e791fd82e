package billing

import (
	"prorab/internal/core/types"
)

// BillableItem is a candidate for an invoice line: a piece of work or cost
// that could be charged to the client.
type BillableItem struct {
	Ref         SourceRef        `json:"ref"`
	Description string           `json:"description"`
	Quantity    *types.Quantity  `json:"quantity,omitempty"`
	Unit        string           `json:"unit,omitempty"`
	Amount      types.MinorUnits `json:"amount"`
}

// BilledSet is the set of source references already present on live
// invoices. Void invoices never contribute: cancelling an invoice makes its
// lines eligible again only through an explicit flag reset.
type BilledSet map[string]struct{}

// NewBilledSet collects guarded source refs from all non-void invoices.
func NewBilledSet(invoices []*Invoice) BilledSet {
	set := make(BilledSet)
	for _, inv := range invoices {
		if inv.IsVoid() {
			continue
		}
		for _, line := range inv.Lines {
			if line.Source.Type.Guarded() {
				set[line.Source.Key()] = struct{}{}
			}
		}
	}
	return set
}

// Contains reports whether the ref is already billed.
func (s BilledSet) Contains(ref SourceRef) bool {
	_, ok := s[ref.Key()]
	return ok
}

// SelectUnbilled filters candidates down to those not yet billed.
// Pure function: order is preserved, inputs are not mutated.
func SelectUnbilled(candidates []BillableItem, billed BilledSet) []BillableItem {
	result := make([]BillableItem, 0, len(candidates))
	for _, c := range candidates {
		if c.Ref.Type.Guarded() && billed.Contains(c.Ref) {
			continue
		}
		result = append(result, c)
	}
	return result
}
