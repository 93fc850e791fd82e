package dto

import (
	"github.com/shopspring/decimal"

	"prorab/internal/core/types"
	"prorab/internal/domain/financials"
)

// FinancialSummaryResponse is the financial snapshot of one project.
type FinancialSummaryResponse struct {
	TotalExpenses           types.MinorUnits `json:"totalExpenses"`
	TotalExpensesFormatted  string           `json:"totalExpensesFormatted"`
	TotalMaterials          types.MinorUnits `json:"totalMaterials"`
	TotalMaterialsFormatted string           `json:"totalMaterialsFormatted"`
	BaseCost                types.MinorUnits `json:"baseCost"`
	BaseCostFormatted       string           `json:"baseCostFormatted"`
	ContractorFee           types.MinorUnits `json:"contractorFee"`
	ContractorFeeFormatted  string           `json:"contractorFeeFormatted"`
	TotalCost               types.MinorUnits `json:"totalCost"`
	TotalCostFormatted      string           `json:"totalCostFormatted"`
	Budget                  types.MinorUnits `json:"budget"`
	BudgetFormatted         string           `json:"budgetFormatted"`
	ApprovedChanges         types.MinorUnits `json:"approvedChanges"`
	CurrentBudget           types.MinorUnits `json:"currentBudget"`
	CurrentBudgetFormatted  string           `json:"currentBudgetFormatted"`
	Remaining               types.MinorUnits `json:"remaining"`
	RemainingFormatted      string           `json:"remainingFormatted"`
	Utilization             decimal.Decimal  `json:"utilization"`
	IsOverBudget            bool             `json:"isOverBudget"`
}

// FromSummary creates response DTO from a financial summary.
func FromSummary(s financials.Summary) *FinancialSummaryResponse {
	return &FinancialSummaryResponse{
		TotalExpenses:           s.TotalExpenses,
		TotalExpensesFormatted:  FormatAmount(s.TotalExpenses),
		TotalMaterials:          s.TotalMaterials,
		TotalMaterialsFormatted: FormatAmount(s.TotalMaterials),
		BaseCost:                s.BaseCost,
		BaseCostFormatted:       FormatAmount(s.BaseCost),
		ContractorFee:           s.ContractorFee,
		ContractorFeeFormatted:  FormatAmount(s.ContractorFee),
		TotalCost:               s.TotalCost,
		TotalCostFormatted:      FormatAmount(s.TotalCost),
		Budget:                  s.Budget,
		BudgetFormatted:         FormatAmount(s.Budget),
		ApprovedChanges:         s.ApprovedChanges,
		CurrentBudget:           s.CurrentBudget,
		CurrentBudgetFormatted:  FormatAmount(s.CurrentBudget),
		Remaining:               s.Remaining,
		RemainingFormatted:      FormatAmount(s.Remaining),
		Utilization:             s.Utilization,
		IsOverBudget:            s.IsOverBudget(),
	}
}
