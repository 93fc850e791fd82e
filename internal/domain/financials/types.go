// Package financials aggregates project cost, fee and budget figures.
// Calculation is pure: it reads the already-loaded documents and never
// touches storage, so the same inputs always produce the same summary.
package financials

import (
	"prorab/internal/core/types"

	"github.com/shopspring/decimal"
)

// Summary is the financial snapshot of one project.
type Summary struct {
	// TotalExpenses is the sum of expense totals (amount plus taxes)
	TotalExpenses types.MinorUnits `json:"totalExpenses"`

	// TotalMaterials values outstanding issued materials at snapshot cost
	TotalMaterials types.MinorUnits `json:"totalMaterials"`

	// BaseCost = TotalExpenses + TotalMaterials
	BaseCost types.MinorUnits `json:"baseCost"`

	// ContractorFee derived from the project fee arrangement
	ContractorFee types.MinorUnits `json:"contractorFee"`

	// TotalCost = BaseCost + ContractorFee
	TotalCost types.MinorUnits `json:"totalCost"`

	// Budget is the original contract budget
	Budget types.MinorUnits `json:"budget"`

	// ApprovedChanges is the sum of approved change order totals
	ApprovedChanges types.MinorUnits `json:"approvedChanges"`

	// CurrentBudget = Budget + ApprovedChanges
	CurrentBudget types.MinorUnits `json:"currentBudget"`

	// Remaining = CurrentBudget - TotalCost (negative when over budget)
	Remaining types.MinorUnits `json:"remaining"`

	// Utilization is TotalCost as a percentage of CurrentBudget, rounded
	// to two decimal places. Zero when the budget is not positive: a
	// ratio against a zero or negative budget is meaningless.
	Utilization decimal.Decimal `json:"utilization"`
}

// IsOverBudget reports whether spending exceeds the current budget.
func (s Summary) IsOverBudget() bool {
	return s.TotalCost > s.CurrentBudget
}
