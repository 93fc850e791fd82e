package financials

import (
	"context"

	"prorab/internal/core/id"
	"prorab/internal/core/types"
	"prorab/internal/domain/changeorders"
	"prorab/internal/domain/expenses"
	"prorab/internal/domain/inventory"
	"prorab/internal/domain/projects"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculate produces the financial summary for a project from its loaded
// documents. Fee math: a fixed fee is the configured amount in minor units;
// a percentage fee applies the configured rate to base cost and rounds
// half-up to whole minor units.
func Calculate(
	project *projects.Project,
	expenseList []*expenses.Expense,
	issueList []*inventory.MaterialIssue,
	approvedOrders []*changeorders.ChangeOrder,
) (Summary, error) {
	var s Summary

	for _, e := range expenseList {
		if e.DeletionMark {
			continue
		}
		total, err := e.Total()
		if err != nil {
			return Summary{}, err
		}
		s.TotalExpenses += total
	}

	for _, mi := range issueList {
		if mi.DeletionMark {
			continue
		}
		s.TotalMaterials += mi.Cost()
	}

	s.BaseCost = s.TotalExpenses + s.TotalMaterials

	switch project.FeeType {
	case projects.FeeTypeFixed:
		s.ContractorFee = types.MinorUnits(project.FeeValue.IntPart())
	case projects.FeeTypePercentage:
		s.ContractorFee = types.PercentOf(s.BaseCost, project.FeeValue)
	}

	s.TotalCost = s.BaseCost + s.ContractorFee

	s.Budget = project.Budget
	for _, co := range approvedOrders {
		if co.DeletionMark || co.Status != changeorders.StatusApproved {
			continue
		}
		s.ApprovedChanges += co.Total
	}
	s.CurrentBudget = s.Budget + s.ApprovedChanges
	s.Remaining = s.CurrentBudget - s.TotalCost

	if s.CurrentBudget.IsPositive() {
		s.Utilization = s.TotalCost.Decimal().
			Div(s.CurrentBudget.Decimal()).
			Mul(hundred).
			Round(2)
	} else {
		s.Utilization = decimal.Zero
	}

	return s, nil
}

// ProjectReader loads the project under summary.
type ProjectReader interface {
	GetByID(ctx context.Context, id id.ID) (*projects.Project, error)
}

// ExpenseReader loads project expenses.
type ExpenseReader interface {
	ListByProject(ctx context.Context, projectID id.ID) ([]*expenses.Expense, error)
}

// IssueReader loads project issuances.
type IssueReader interface {
	ListByProject(ctx context.Context, projectID id.ID) ([]*inventory.MaterialIssue, error)
}

// ChangeOrderReader loads approved change orders.
type ChangeOrderReader interface {
	ListApprovedByProject(ctx context.Context, projectID id.ID) ([]*changeorders.ChangeOrder, error)
}

// Service loads a project's documents and produces its financial summary.
type Service struct {
	projects     ProjectReader
	expenses     ExpenseReader
	issues       IssueReader
	changeOrders ChangeOrderReader
}

// NewService creates a new financials service.
func NewService(p ProjectReader, e ExpenseReader, i IssueReader, co ChangeOrderReader) *Service {
	return &Service{
		projects:     p,
		expenses:     e,
		issues:       i,
		changeOrders: co,
	}
}

// Summarize computes the current financial summary for a project.
func (s *Service) Summarize(ctx context.Context, projectID id.ID) (Summary, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return Summary{}, err
	}

	expenseList, err := s.expenses.ListByProject(ctx, projectID)
	if err != nil {
		return Summary{}, err
	}

	issueList, err := s.issues.ListByProject(ctx, projectID)
	if err != nil {
		return Summary{}, err
	}

	orders, err := s.changeOrders.ListApprovedByProject(ctx, projectID)
	if err != nil {
		return Summary{}, err
	}

	return Calculate(project, expenseList, issueList, orders)
}
