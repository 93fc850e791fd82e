package financials

import (
	"context"
	"testing"

	"prorab/internal/core/id"
	"prorab/internal/core/types"
	"prorab/internal/domain/changeorders"
	"prorab/internal/domain/expenses"
	"prorab/internal/domain/inventory"
	"prorab/internal/domain/projects"

	"github.com/shopspring/decimal"
)

func fixedFeeProject(budget types.MinorUnits, fee string) *projects.Project {
	return projects.NewProject("PRJ-1", "Renovation", budget, projects.FeeTypeFixed, types.MustRate(fee))
}

func percentageFeeProject(budget types.MinorUnits, rate string) *projects.Project {
	return projects.NewProject("PRJ-1", "Renovation", budget, projects.FeeTypePercentage, types.MustRate(rate))
}

func taxedExpense(projectID id.ID, amount types.MinorUnits, rates ...string) *expenses.Expense {
	e := expenses.NewExpense(projectID, "expense", amount)
	for _, r := range rates {
		e.Taxes = append(e.Taxes, expenses.Tax{ID: id.New(), Name: "tax", Rate: types.MustRate(r)})
	}
	return e
}

func issuance(projectID id.ID, qty int64, unitCost types.MinorUnits) *inventory.MaterialIssue {
	mi := inventory.NewMaterialIssue(projectID, id.New(), "rebar", "kg", &unitCost)
	mi.Quantity = types.NewQuantityFromInt(qty)
	mi.IssuedTotal = mi.Quantity
	return mi
}

func approvedOrder(projectID id.ID, itemTotals ...types.MinorUnits) *changeorders.ChangeOrder {
	co := changeorders.NewChangeOrder(projectID, "extra work")
	for _, amount := range itemTotals {
		co.AddItem("line", types.NewQuantityFromInt(1), amount)
	}
	if err := co.Transition(changeorders.StatusSent); err != nil {
		panic(err)
	}
	if err := co.Transition(changeorders.StatusApproved); err != nil {
		panic(err)
	}
	return co
}

func TestCalculateFixedFee(t *testing.T) {
	p := fixedFeeProject(200_000, "5000")
	pid := p.ID

	s, err := Calculate(p,
		[]*expenses.Expense{taxedExpense(pid, 50_000)},
		[]*inventory.MaterialIssue{issuance(pid, 10, 3000)},
		nil,
	)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if s.TotalExpenses != 50_000 {
		t.Errorf("TotalExpenses = %d, want 50000", s.TotalExpenses)
	}
	if s.TotalMaterials != 30_000 {
		t.Errorf("TotalMaterials = %d, want 30000", s.TotalMaterials)
	}
	if s.BaseCost != 80_000 {
		t.Errorf("BaseCost = %d, want 80000", s.BaseCost)
	}
	if s.ContractorFee != 5000 {
		t.Errorf("ContractorFee = %d, want 5000", s.ContractorFee)
	}
	if s.TotalCost != 85_000 {
		t.Errorf("TotalCost = %d, want 85000", s.TotalCost)
	}
	if s.Remaining != 115_000 {
		t.Errorf("Remaining = %d, want 115000", s.Remaining)
	}
	if got := s.Utilization.String(); got != "42.5" {
		t.Errorf("Utilization = %s, want 42.5", got)
	}
	if s.IsOverBudget() {
		t.Error("IsOverBudget() = true for under-budget project")
	}
}

func TestCalculatePercentageFee(t *testing.T) {
	p := percentageFeeProject(100_000, "15")
	pid := p.ID

	// Base cost 120000: 100000 of expenses plus 20000 of materials.
	s, err := Calculate(p,
		[]*expenses.Expense{taxedExpense(pid, 100_000)},
		[]*inventory.MaterialIssue{issuance(pid, 4, 5000)},
		nil,
	)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if s.BaseCost != 120_000 {
		t.Fatalf("BaseCost = %d, want 120000", s.BaseCost)
	}
	if s.ContractorFee != 18_000 {
		t.Errorf("ContractorFee = %d, want 18000", s.ContractorFee)
	}
	if s.TotalCost != 138_000 {
		t.Errorf("TotalCost = %d, want 138000", s.TotalCost)
	}
	if !s.IsOverBudget() {
		t.Error("IsOverBudget() = false, want true")
	}
	if s.Remaining != -38_000 {
		t.Errorf("Remaining = %d, want -38000", s.Remaining)
	}
	if got := s.Utilization.String(); got != "138" {
		t.Errorf("Utilization = %s, want 138", got)
	}
}

func TestCalculateExpenseTaxesIncluded(t *testing.T) {
	p := percentageFeeProject(0, "10")
	pid := p.ID

	s, err := Calculate(p,
		[]*expenses.Expense{taxedExpense(pid, 10_000, "5", "10")},
		nil, nil,
	)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if s.TotalExpenses != 11_500 {
		t.Errorf("TotalExpenses = %d, want 11500", s.TotalExpenses)
	}
	if s.ContractorFee != 1150 {
		t.Errorf("ContractorFee = %d, want 1150", s.ContractorFee)
	}
}

func TestCalculateApprovedChangesExtendBudget(t *testing.T) {
	p := fixedFeeProject(100_000, "0")
	pid := p.ID

	s, err := Calculate(p, nil, nil, []*changeorders.ChangeOrder{
		approvedOrder(pid, 20_000),
		approvedOrder(pid, 5_000),
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if s.ApprovedChanges != 25_000 {
		t.Errorf("ApprovedChanges = %d, want 25000", s.ApprovedChanges)
	}
	if s.CurrentBudget != 125_000 {
		t.Errorf("CurrentBudget = %d, want 125000", s.CurrentBudget)
	}
}

func TestCalculateNonApprovedOrdersIgnored(t *testing.T) {
	p := fixedFeeProject(100_000, "0")
	draft := changeorders.NewChangeOrder(p.ID, "pending work")
	draft.AddItem("line", types.NewQuantityFromInt(1), 40_000)

	s, err := Calculate(p, nil, nil, []*changeorders.ChangeOrder{draft})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if s.ApprovedChanges != 0 {
		t.Errorf("ApprovedChanges = %d, want 0", s.ApprovedChanges)
	}
	if s.CurrentBudget != 100_000 {
		t.Errorf("CurrentBudget = %d, want 100000", s.CurrentBudget)
	}
}

func TestCalculateZeroBudgetUtilization(t *testing.T) {
	for _, budget := range []types.MinorUnits{0, -50_000} {
		p := fixedFeeProject(budget, "0")
		s, err := Calculate(p, []*expenses.Expense{taxedExpense(p.ID, 10_000)}, nil, nil)
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		if !s.Utilization.IsZero() {
			t.Errorf("budget %d: Utilization = %s, want 0", budget, s.Utilization)
		}
	}
}

func TestCalculateRepeatable(t *testing.T) {
	p := percentageFeeProject(400_000, "12.5")
	pid := p.ID

	exps := []*expenses.Expense{taxedExpense(pid, 77_777, "5", "3")}
	issues := []*inventory.MaterialIssue{issuance(pid, 7, 3333)}
	orders := []*changeorders.ChangeOrder{approvedOrder(pid, 25_000)}

	first, err := Calculate(p, exps, issues, orders)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	second, err := Calculate(p, exps, issues, orders)
	if err != nil {
		t.Fatalf("Calculate again: %v", err)
	}

	// Same snapshot in, same summary out.
	if !first.Utilization.Equal(second.Utilization) {
		t.Errorf("Utilization = %s then %s", first.Utilization, second.Utilization)
	}
	first.Utilization, second.Utilization = decimal.Decimal{}, decimal.Decimal{}
	if first != second {
		t.Errorf("summaries differ:\n%+v\n%+v", first, second)
	}
}

func TestCalculateSkipsDeletionMarked(t *testing.T) {
	p := fixedFeeProject(100_000, "0")
	pid := p.ID

	marked := taxedExpense(pid, 99_000)
	marked.DeletionMark = true
	markedIssue := issuance(pid, 100, 1000)
	markedIssue.DeletionMark = true
	markedOrder := approvedOrder(pid, 77_000)
	markedOrder.DeletionMark = true

	s, err := Calculate(p,
		[]*expenses.Expense{marked, taxedExpense(pid, 1000)},
		[]*inventory.MaterialIssue{markedIssue},
		[]*changeorders.ChangeOrder{markedOrder},
	)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if s.TotalExpenses != 1000 {
		t.Errorf("TotalExpenses = %d, want 1000", s.TotalExpenses)
	}
	if s.TotalMaterials != 0 {
		t.Errorf("TotalMaterials = %d, want 0", s.TotalMaterials)
	}
	if s.ApprovedChanges != 0 {
		t.Errorf("ApprovedChanges = %d, want 0", s.ApprovedChanges)
	}
}

type stubProjects struct{ p *projects.Project }

func (s stubProjects) GetByID(context.Context, id.ID) (*projects.Project, error) { return s.p, nil }

type stubExpenses struct{ list []*expenses.Expense }

func (s stubExpenses) ListByProject(context.Context, id.ID) ([]*expenses.Expense, error) {
	return s.list, nil
}

type stubIssues struct{ list []*inventory.MaterialIssue }

func (s stubIssues) ListByProject(context.Context, id.ID) ([]*inventory.MaterialIssue, error) {
	return s.list, nil
}

type stubOrders struct{ list []*changeorders.ChangeOrder }

func (s stubOrders) ListApprovedByProject(context.Context, id.ID) ([]*changeorders.ChangeOrder, error) {
	return s.list, nil
}

func TestServiceSummarize(t *testing.T) {
	p := percentageFeeProject(500_000, "10")
	svc := NewService(
		stubProjects{p},
		stubExpenses{[]*expenses.Expense{taxedExpense(p.ID, 40_000)}},
		stubIssues{[]*inventory.MaterialIssue{issuance(p.ID, 2, 5000)}},
		stubOrders{[]*changeorders.ChangeOrder{approvedOrder(p.ID, 10_000)}},
	)

	s, err := svc.Summarize(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.BaseCost != 50_000 {
		t.Errorf("BaseCost = %d, want 50000", s.BaseCost)
	}
	if s.ContractorFee != 5000 {
		t.Errorf("ContractorFee = %d, want 5000", s.ContractorFee)
	}
	if s.CurrentBudget != 510_000 {
		t.Errorf("CurrentBudget = %d, want 510000", s.CurrentBudget)
	}
}
