package billing

import (
	"context"
	"testing"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/core/numerator"
	"prorab/internal/core/types"
	"prorab/internal/domain"
	"prorab/internal/domain/audit"
	"prorab/internal/domain/changeorders"
	"prorab/internal/domain/expenses"
	"prorab/internal/domain/inventory"
	"prorab/internal/domain/projects"
)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeInvoiceRepo struct {
	invoices map[id.ID]*Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[id.ID]*Invoice)}
}

func (f *fakeInvoiceRepo) Create(_ context.Context, inv *Invoice) error {
	f.invoices[inv.ID] = inv
	return nil
}

func (f *fakeInvoiceRepo) GetByID(_ context.Context, invID id.ID) (*Invoice, error) {
	inv, ok := f.invoices[invID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invID)
	}
	return inv, nil
}

func (f *fakeInvoiceRepo) Update(_ context.Context, inv *Invoice) error {
	f.invoices[inv.ID] = inv
	return nil
}

func (f *fakeInvoiceRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Invoice], error) {
	return domain.ListResult[*Invoice]{}, nil
}

func (f *fakeInvoiceRepo) ListByProject(_ context.Context, projectID id.ID) ([]*Invoice, error) {
	var out []*Invoice
	for _, inv := range f.invoices {
		if inv.ProjectID == projectID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvoiceRepo) GetForUpdate(ctx context.Context, invID id.ID) (*Invoice, error) {
	return f.GetByID(ctx, invID)
}

type fakeProjects struct{ p *projects.Project }

func (f fakeProjects) GetByID(_ context.Context, pid id.ID) (*projects.Project, error) {
	if f.p == nil || f.p.ID != pid {
		return nil, apperror.NewNotFound("project", pid)
	}
	return f.p, nil
}

type fakeExpenseSource struct {
	byID map[id.ID]*expenses.Expense
}

func (f *fakeExpenseSource) GetByID(_ context.Context, eid id.ID) (*expenses.Expense, error) {
	e, ok := f.byID[eid]
	if !ok {
		return nil, apperror.NewNotFound("expense", eid)
	}
	return e, nil
}

func (f *fakeExpenseSource) ListByProject(_ context.Context, projectID id.ID) ([]*expenses.Expense, error) {
	var out []*expenses.Expense
	for _, e := range f.byID {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExpenseSource) MarkInvoiced(_ context.Context, eid id.ID) (bool, error) {
	e, ok := f.byID[eid]
	if !ok || e.Invoiced {
		return false, nil
	}
	e.Invoiced = true
	return true, nil
}

type fakeIssueSource struct {
	byID map[id.ID]*inventory.MaterialIssue
}

func (f *fakeIssueSource) GetByID(_ context.Context, iid id.ID) (*inventory.MaterialIssue, error) {
	mi, ok := f.byID[iid]
	if !ok {
		return nil, apperror.NewNotFound("material issue", iid)
	}
	return mi, nil
}

func (f *fakeIssueSource) ListByProject(_ context.Context, projectID id.ID) ([]*inventory.MaterialIssue, error) {
	var out []*inventory.MaterialIssue
	for _, mi := range f.byID {
		if mi.ProjectID == projectID {
			out = append(out, mi)
		}
	}
	return out, nil
}

func (f *fakeIssueSource) MarkInvoiced(_ context.Context, iid id.ID) (bool, error) {
	mi, ok := f.byID[iid]
	if !ok || mi.Invoiced {
		return false, nil
	}
	mi.Invoiced = true
	return true, nil
}

type fakeChangeOrderSource struct {
	byID map[id.ID]*changeorders.ChangeOrder
}

func (f *fakeChangeOrderSource) GetByID(_ context.Context, cid id.ID) (*changeorders.ChangeOrder, error) {
	co, ok := f.byID[cid]
	if !ok {
		return nil, apperror.NewNotFound("change order", cid)
	}
	return co, nil
}

func (f *fakeChangeOrderSource) ListApprovedByProject(_ context.Context, projectID id.ID) ([]*changeorders.ChangeOrder, error) {
	var out []*changeorders.ChangeOrder
	for _, co := range f.byID {
		if co.ProjectID == projectID && co.Status == changeorders.StatusApproved {
			out = append(out, co)
		}
	}
	return out, nil
}

func (f *fakeChangeOrderSource) MarkInvoiced(_ context.Context, cid id.ID) (bool, error) {
	co, ok := f.byID[cid]
	if !ok || co.Invoiced {
		return false, nil
	}
	co.Invoiced = true
	return true, nil
}

type billingFixture struct {
	svc     *Service
	repo    *fakeInvoiceRepo
	project *projects.Project
	expense *expenses.Expense
	issue   *inventory.MaterialIssue
	order   *changeorders.ChangeOrder
}

func newBillingFixture() *billingFixture {
	p := testProject()

	e := expenses.NewExpense(p.ID, "crane rental", 80_000)
	e.Taxes = append(e.Taxes, expenses.Tax{ID: id.New(), Name: "sales", Rate: types.MustRate("10")})

	unitCost := types.MinorUnits(2500)
	mi := inventory.NewMaterialIssue(p.ID, id.New(), "rebar 12mm", "kg", &unitCost)
	mi.Billable = true
	mi.Quantity = types.NewQuantityFromInt(8)
	mi.IssuedTotal = mi.Quantity

	co := changeorders.NewChangeOrder(p.ID, "extra electrical work")
	co.AddItem("wiring", types.NewQuantityFromInt(1), 30_000)
	if err := co.Transition(changeorders.StatusSent); err != nil {
		panic(err)
	}
	if err := co.Transition(changeorders.StatusApproved); err != nil {
		panic(err)
	}

	repo := newFakeInvoiceRepo()
	svc := NewService(
		repo,
		fakeProjects{p},
		&fakeExpenseSource{byID: map[id.ID]*expenses.Expense{e.ID: e}},
		&fakeIssueSource{byID: map[id.ID]*inventory.MaterialIssue{mi.ID: mi}},
		&fakeChangeOrderSource{byID: map[id.ID]*changeorders.ChangeOrder{co.ID: co}},
		passthroughTx{},
		&numerator.MockGenerator{},
		audit.NopRecorder{},
	)

	return &billingFixture{svc: svc, repo: repo, project: p, expense: e, issue: mi, order: co}
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	fx := newBillingFixture()

	qty := types.NewQuantityFromFloat64(2.5)
	inv, err := fx.svc.Create(ctx, CreateRequest{
		ProjectID: fx.project.ID,
		Sources: []SourceRef{
			{Type: SourceExpense, ID: fx.expense.ID},
			{Type: SourceMaterialIssue, ID: fx.issue.ID},
			{Type: SourceChangeOrder, ID: fx.order.ID},
		},
		CustomLines: []CustomLine{
			{Description: "site cleanup", Quantity: &qty, Unit: "h", Amount: 5_000},
		},
		TaxRate: types.MustRate("0"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if inv.Number != "MOCK-2026-00001" {
		t.Errorf("Number = %q", inv.Number)
	}
	if len(inv.Lines) != 4 {
		t.Fatalf("lines = %d, want 4", len(inv.Lines))
	}
	// 88000 expense with tax, 20000 materials, 30000 change order, 5000 custom.
	if inv.Subtotal != 143_000 {
		t.Errorf("Subtotal = %d, want 143000", inv.Subtotal)
	}

	if !fx.expense.Invoiced {
		t.Error("expense not marked invoiced")
	}
	if !fx.issue.Invoiced {
		t.Error("issuance not marked invoiced")
	}
	if !fx.order.Invoiced {
		t.Error("change order not marked invoiced")
	}
	if len(fx.repo.invoices) != 1 {
		t.Errorf("stored invoices = %d, want 1", len(fx.repo.invoices))
	}
}

func TestServiceCreateAlreadyInvoiced(t *testing.T) {
	ctx := context.Background()
	fx := newBillingFixture()
	fx.expense.Invoiced = true

	_, err := fx.svc.Create(ctx, CreateRequest{
		ProjectID: fx.project.ID,
		Sources:   []SourceRef{{Type: SourceExpense, ID: fx.expense.ID}},
	})
	if !apperror.IsCode(err, apperror.CodeAlreadyInvoiced) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeAlreadyInvoiced)
	}
	if len(fx.repo.invoices) != 0 {
		t.Error("invoice persisted despite claimed source")
	}
}

func TestServiceCreateUnapprovedChangeOrder(t *testing.T) {
	ctx := context.Background()
	fx := newBillingFixture()

	draft := changeorders.NewChangeOrder(fx.project.ID, "pending work")
	draft.AddItem("line", types.NewQuantityFromInt(1), 10_000)
	fx.svc.changeOrders.(*fakeChangeOrderSource).byID[draft.ID] = draft

	_, err := fx.svc.Create(ctx, CreateRequest{
		ProjectID: fx.project.ID,
		Sources:   []SourceRef{{Type: SourceChangeOrder, ID: draft.ID}},
	})
	if !apperror.IsCode(err, apperror.CodeNotApproved) {
		t.Errorf("error = %v, want %s", err, apperror.CodeNotApproved)
	}
	if draft.Invoiced {
		t.Error("unapproved change order marked invoiced")
	}
}

func TestServiceCreateNonBillableIssuance(t *testing.T) {
	ctx := context.Background()
	fx := newBillingFixture()
	fx.issue.Billable = false

	_, err := fx.svc.Create(ctx, CreateRequest{
		ProjectID: fx.project.ID,
		Sources:   []SourceRef{{Type: SourceMaterialIssue, ID: fx.issue.ID}},
	})
	if !apperror.IsCode(err, apperror.CodeValidation) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeValidation)
	}
	if fx.issue.Invoiced {
		t.Error("non-billable issuance marked invoiced")
	}
	if len(fx.repo.invoices) != 0 {
		t.Error("invoice persisted from a non-billable issuance")
	}

	// An already-claimed issuance stays an ALREADY_INVOICED error, not a
	// billability complaint.
	fx.issue.Billable = true
	fx.issue.Invoiced = true
	_, err = fx.svc.Create(ctx, CreateRequest{
		ProjectID: fx.project.ID,
		Sources:   []SourceRef{{Type: SourceMaterialIssue, ID: fx.issue.ID}},
	})
	if !apperror.IsCode(err, apperror.CodeAlreadyInvoiced) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeAlreadyInvoiced)
	}
}

func TestServiceCreateCrossProjectSource(t *testing.T) {
	ctx := context.Background()
	fx := newBillingFixture()

	other := projects.NewProject("PRJ-9", "Warehouse annex", 500_000, projects.FeeTypeFixed, types.MustRate("0"))
	stray := expenses.NewExpense(other.ID, "scaffolding", 15_000)
	fx.svc.expenses.(*fakeExpenseSource).byID[stray.ID] = stray

	_, err := fx.svc.Create(ctx, CreateRequest{
		ProjectID: fx.project.ID,
		Sources:   []SourceRef{{Type: SourceExpense, ID: stray.ID}},
	})
	if !apperror.IsCode(err, apperror.CodeValidation) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeValidation)
	}
	if stray.Invoiced {
		t.Error("foreign project expense marked invoiced")
	}
	if len(fx.repo.invoices) != 0 {
		t.Error("invoice persisted with a foreign project source")
	}
}

func TestServiceCreateRejectsCustomSourceRef(t *testing.T) {
	ctx := context.Background()
	fx := newBillingFixture()

	_, err := fx.svc.Create(ctx, CreateRequest{
		ProjectID: fx.project.ID,
		Sources:   []SourceRef{{Type: SourceCustom}},
	})
	if !apperror.IsCode(err, apperror.CodeValidation) {
		t.Errorf("error = %v, want %s", err, apperror.CodeValidation)
	}
}

func TestServiceCreateEmpty(t *testing.T) {
	ctx := context.Background()
	fx := newBillingFixture()

	_, err := fx.svc.Create(ctx, CreateRequest{ProjectID: fx.project.ID})
	if !apperror.IsCode(err, apperror.CodeEmptyInvoice) {
		t.Errorf("error = %v, want %s", err, apperror.CodeEmptyInvoice)
	}
}

func TestServiceListUnbilled(t *testing.T) {
	ctx := context.Background()
	fx := newBillingFixture()

	items, err := fx.svc.ListUnbilled(ctx, fx.project.ID)
	if err != nil {
		t.Fatalf("ListUnbilled: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("candidates = %d, want 3", len(items))
	}

	// Bill the expense; it must drop out of the candidate list.
	_, err = fx.svc.Create(ctx, CreateRequest{
		ProjectID: fx.project.ID,
		Sources:   []SourceRef{{Type: SourceExpense, ID: fx.expense.ID}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, err = fx.svc.ListUnbilled(ctx, fx.project.ID)
	if err != nil {
		t.Fatalf("ListUnbilled: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("candidates after billing = %d, want 2", len(items))
	}
	for _, item := range items {
		if item.Ref.Type == SourceExpense {
			t.Error("billed expense still offered")
		}
	}
}

func TestServiceListUnbilledGuardWithoutFlag(t *testing.T) {
	ctx := context.Background()
	fx := newBillingFixture()

	// Simulate a lagging source flag: the invoice references the expense
	// but the expense itself was not flagged. The guard set still hides it.
	inv := invoiceWithLines(StatusSent, SourceRef{Type: SourceExpense, ID: fx.expense.ID})
	inv.ProjectID = fx.project.ID
	fx.repo.invoices[inv.ID] = inv

	items, err := fx.svc.ListUnbilled(ctx, fx.project.ID)
	if err != nil {
		t.Fatalf("ListUnbilled: %v", err)
	}
	for _, item := range items {
		if item.Ref.Type == SourceExpense && item.Ref.ID == fx.expense.ID {
			t.Error("expense referenced by a live invoice still offered")
		}
	}
}

func TestServiceSetStatus(t *testing.T) {
	ctx := context.Background()
	fx := newBillingFixture()

	created, err := fx.svc.Create(ctx, CreateRequest{
		ProjectID: fx.project.ID,
		Sources:   []SourceRef{{Type: SourceExpense, ID: fx.expense.ID}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sent, err := fx.svc.SetStatus(ctx, created.ID, StatusSent)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if sent.Status != StatusSent {
		t.Errorf("Status = %s, want sent", sent.Status)
	}

	if _, err := fx.svc.SetStatus(ctx, created.ID, StatusDraft); !apperror.IsCode(err, apperror.CodeInvalidTransition) {
		t.Errorf("error = %v, want %s", err, apperror.CodeInvalidTransition)
	}
}

func TestServiceVoidKeepsSourceFlags(t *testing.T) {
	ctx := context.Background()
	fx := newBillingFixture()

	created, err := fx.svc.Create(ctx, CreateRequest{
		ProjectID: fx.project.ID,
		Sources:   []SourceRef{{Type: SourceExpense, ID: fx.expense.ID}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := fx.svc.SetStatus(ctx, created.ID, StatusVoid); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	// Voiding cancels the document but does not release the source.
	if !fx.expense.Invoiced {
		t.Error("voiding the invoice reset the expense flag")
	}
	items, err := fx.svc.ListUnbilled(ctx, fx.project.ID)
	if err != nil {
		t.Fatalf("ListUnbilled: %v", err)
	}
	for _, item := range items {
		if item.Ref.Type == SourceExpense && item.Ref.ID == fx.expense.ID {
			t.Error("voided expense offered for billing again")
		}
	}
}
