package inventory

import (
	"context"
	"testing"
	"time"

	"prorab/internal/core/apperror"
	"prorab/internal/core/entity"
	"prorab/internal/core/id"
	"prorab/internal/core/numerator"
	"prorab/internal/core/types"
	"prorab/internal/domain"
	"prorab/internal/domain/audit"
	"prorab/internal/domain/catalogs/material"
)

// passthroughTx runs the callback directly. The fakes below mutate state
// only after all checks pass, matching the rollback semantics the real
// transaction manager provides.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeMaterialRepo struct {
	materials map[id.ID]*material.WorkshopMaterial
}

func (f *fakeMaterialRepo) GetByID(_ context.Context, matID id.ID) (*material.WorkshopMaterial, error) {
	m, ok := f.materials[matID]
	if !ok {
		return nil, apperror.NewNotFound("workshop material", matID)
	}
	return m, nil
}

func (f *fakeMaterialRepo) GetForUpdate(ctx context.Context, matID id.ID) (*material.WorkshopMaterial, error) {
	return f.GetByID(ctx, matID)
}

func (f *fakeMaterialRepo) AdjustStock(_ context.Context, matID id.ID, delta types.Quantity) error {
	m, ok := f.materials[matID]
	if !ok {
		return apperror.NewNotFound("workshop material", matID)
	}
	m.Quantity += delta
	return nil
}

type fakeIssueRepo struct {
	issues    map[id.ID]*MaterialIssue
	movements []entity.InventoryMovement
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: make(map[id.ID]*MaterialIssue)}
}

func (f *fakeIssueRepo) Create(_ context.Context, mi *MaterialIssue) error {
	f.issues[mi.ID] = mi
	return nil
}

func (f *fakeIssueRepo) GetByID(_ context.Context, issueID id.ID) (*MaterialIssue, error) {
	mi, ok := f.issues[issueID]
	if !ok {
		return nil, apperror.NewNotFound("material issue", issueID)
	}
	return mi, nil
}

func (f *fakeIssueRepo) Update(_ context.Context, mi *MaterialIssue) error {
	f.issues[mi.ID] = mi
	return nil
}

func (f *fakeIssueRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*MaterialIssue], error) {
	return domain.ListResult[*MaterialIssue]{}, nil
}

func (f *fakeIssueRepo) ListByProject(_ context.Context, projectID id.ID) ([]*MaterialIssue, error) {
	var out []*MaterialIssue
	for _, mi := range f.issues {
		if mi.ProjectID == projectID {
			out = append(out, mi)
		}
	}
	return out, nil
}

func (f *fakeIssueRepo) GetForUpdate(ctx context.Context, issueID id.ID) (*MaterialIssue, error) {
	return f.GetByID(ctx, issueID)
}

func (f *fakeIssueRepo) FindOpenForUpdate(_ context.Context, materialID, projectID id.ID) (*MaterialIssue, error) {
	for _, mi := range f.issues {
		if mi.MaterialID == materialID && mi.ProjectID == projectID && !mi.Invoiced && !mi.DeletionMark {
			return mi, nil
		}
	}
	return nil, apperror.NewNotFound("material issue", materialID)
}

func (f *fakeIssueRepo) MarkInvoiced(_ context.Context, issueID id.ID) (bool, error) {
	mi, ok := f.issues[issueID]
	if !ok || mi.Invoiced {
		return false, nil
	}
	mi.Invoiced = true
	return true, nil
}

func (f *fakeIssueRepo) AddMovement(_ context.Context, mv entity.InventoryMovement) error {
	f.movements = append(f.movements, mv)
	return nil
}

func (f *fakeIssueRepo) ListMovements(_ context.Context, _ MovementFilter) ([]entity.InventoryMovement, error) {
	return f.movements, nil
}

func newTestService(stock int64) (*Service, *fakeMaterialRepo, *fakeIssueRepo, *material.WorkshopMaterial) {
	mat := material.NewWorkshopMaterial("MAT-001", "rebar 12mm", "kg")
	mat.Quantity = types.NewQuantityFromInt(stock)
	cost := types.MinorUnits(2500)
	mat.CostPerUnit = &cost

	matRepo := &fakeMaterialRepo{materials: map[id.ID]*material.WorkshopMaterial{mat.ID: mat}}
	issueRepo := newFakeIssueRepo()
	svc := NewService(issueRepo, matRepo, passthroughTx{}, &numerator.MockGenerator{}, audit.NopRecorder{})
	return svc, matRepo, issueRepo, mat
}

func TestServiceIssueAndReturn(t *testing.T) {
	ctx := context.Background()
	svc, _, issueRepo, mat := newTestService(25)
	projectID := id.New()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	res, err := svc.Issue(ctx, IssueRequest{
		MaterialID: mat.ID,
		ProjectID:  projectID,
		Quantity:   types.NewQuantityFromInt(10),
		Date:       date,
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got := res.Material.Quantity; got != types.NewQuantityFromInt(15) {
		t.Errorf("stock after issue = %s, want 15.0000", got)
	}
	if got := res.Issue.Quantity; got != types.NewQuantityFromInt(10) {
		t.Errorf("outstanding after issue = %s, want 10.0000", got)
	}
	if res.Issue.Number != "MOCK-2026-00001" {
		t.Errorf("issue number = %q", res.Issue.Number)
	}

	res, err = svc.Return(ctx, res.Issue.ID, types.NewQuantityFromInt(4), date)
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if got := res.Material.Quantity; got != types.NewQuantityFromInt(19) {
		t.Errorf("stock after return = %s, want 19.0000", got)
	}
	if got := res.Issue.Quantity; got != types.NewQuantityFromInt(6) {
		t.Errorf("outstanding after return = %s, want 6.0000", got)
	}
	if got := res.Issue.IssuedTotal; got != types.NewQuantityFromInt(10) {
		t.Errorf("IssuedTotal after return = %s, want 10.0000", got)
	}

	if len(issueRepo.movements) != 2 {
		t.Fatalf("movements = %d, want 2", len(issueRepo.movements))
	}
	if issueRepo.movements[0].RecordType != entity.RecordTypeIssue {
		t.Errorf("first movement type = %s", issueRepo.movements[0].RecordType)
	}
	if issueRepo.movements[1].RecordType != entity.RecordTypeReturn {
		t.Errorf("second movement type = %s", issueRepo.movements[1].RecordType)
	}
}

func TestServiceRepeatedIssueReusesOpenRecord(t *testing.T) {
	ctx := context.Background()
	svc, _, issueRepo, mat := newTestService(25)
	projectID := id.New()

	first, err := svc.Issue(ctx, IssueRequest{MaterialID: mat.ID, ProjectID: projectID, Quantity: types.NewQuantityFromInt(10)})
	if err != nil {
		t.Fatalf("first Issue: %v", err)
	}
	second, err := svc.Issue(ctx, IssueRequest{MaterialID: mat.ID, ProjectID: projectID, Quantity: types.NewQuantityFromInt(5)})
	if err != nil {
		t.Fatalf("second Issue: %v", err)
	}

	if first.Issue.ID != second.Issue.ID {
		t.Error("second issue started a new record instead of reusing the open one")
	}
	if got := second.Issue.Quantity; got != types.NewQuantityFromInt(15) {
		t.Errorf("outstanding = %s, want 15.0000", got)
	}
	if len(issueRepo.issues) != 1 {
		t.Errorf("issuance records = %d, want 1", len(issueRepo.issues))
	}
}

func TestServiceIssueToSeparateProjects(t *testing.T) {
	ctx := context.Background()
	svc, _, issueRepo, mat := newTestService(25)

	a, err := svc.Issue(ctx, IssueRequest{MaterialID: mat.ID, ProjectID: id.New(), Quantity: types.NewQuantityFromInt(10)})
	if err != nil {
		t.Fatalf("Issue A: %v", err)
	}
	b, err := svc.Issue(ctx, IssueRequest{MaterialID: mat.ID, ProjectID: id.New(), Quantity: types.NewQuantityFromInt(5)})
	if err != nil {
		t.Fatalf("Issue B: %v", err)
	}

	if a.Issue.ID == b.Issue.ID {
		t.Error("issues to different projects share a record")
	}
	if len(issueRepo.issues) != 2 {
		t.Errorf("issuance records = %d, want 2", len(issueRepo.issues))
	}
	if got := b.Material.Quantity; got != types.NewQuantityFromInt(10) {
		t.Errorf("stock = %s, want 10.0000", got)
	}
}

func TestServiceIssueBillableFlag(t *testing.T) {
	ctx := context.Background()
	svc, _, _, mat := newTestService(25)
	projectID := id.New()

	res, err := svc.Issue(ctx, IssueRequest{MaterialID: mat.ID, ProjectID: projectID, Quantity: types.NewQuantityFromInt(5)})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if res.Issue.Billable {
		t.Error("issuance billable without an explicit request")
	}

	// A billable follow-up issue flips the open record and it stays set.
	res, err = svc.Issue(ctx, IssueRequest{MaterialID: mat.ID, ProjectID: projectID, Quantity: types.NewQuantityFromInt(5), Billable: true})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !res.Issue.Billable {
		t.Error("billable request did not mark the record")
	}

	res, err = svc.Issue(ctx, IssueRequest{MaterialID: mat.ID, ProjectID: projectID, Quantity: types.NewQuantityFromInt(5)})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !res.Issue.Billable {
		t.Error("billable flag reset by a later non-billable issue")
	}
}

func TestServiceIssueInsufficientStock(t *testing.T) {
	ctx := context.Background()
	svc, matRepo, issueRepo, mat := newTestService(25)

	_, err := svc.Issue(ctx, IssueRequest{MaterialID: mat.ID, ProjectID: id.New(), Quantity: types.NewQuantityFromInt(30)})
	if !apperror.IsCode(err, apperror.CodeInsufficientStock) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeInsufficientStock)
	}

	if got := matRepo.materials[mat.ID].Quantity; got != types.NewQuantityFromInt(25) {
		t.Errorf("stock changed on failed issue: %s", got)
	}
	if len(issueRepo.issues) != 0 {
		t.Errorf("issuance record created on failed issue")
	}
	if len(issueRepo.movements) != 0 {
		t.Errorf("movement written on failed issue")
	}
}

func TestServiceIssueInactiveMaterial(t *testing.T) {
	ctx := context.Background()
	svc, _, _, mat := newTestService(25)
	mat.IsActive = false

	_, err := svc.Issue(ctx, IssueRequest{MaterialID: mat.ID, ProjectID: id.New(), Quantity: types.NewQuantityFromInt(1)})
	if !apperror.IsCode(err, "MATERIAL_INACTIVE") {
		t.Errorf("error = %v, want MATERIAL_INACTIVE", err)
	}
}

func TestServiceIssueRejectsNonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	svc, _, _, mat := newTestService(25)

	for _, qty := range []types.Quantity{0, types.NewQuantityFromInt(-3)} {
		_, err := svc.Issue(ctx, IssueRequest{MaterialID: mat.ID, ProjectID: id.New(), Quantity: qty})
		if !apperror.IsCode(err, apperror.CodeValidation) {
			t.Errorf("qty %s: error = %v, want %s", qty, err, apperror.CodeValidation)
		}
	}
}

func TestServiceExcessReturn(t *testing.T) {
	ctx := context.Background()
	svc, matRepo, issueRepo, mat := newTestService(25)

	res, err := svc.Issue(ctx, IssueRequest{MaterialID: mat.ID, ProjectID: id.New(), Quantity: types.NewQuantityFromInt(10)})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = svc.Return(ctx, res.Issue.ID, types.NewQuantityFromInt(11), time.Time{})
	if !apperror.IsCode(err, apperror.CodeExcessReturn) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeExcessReturn)
	}

	if got := matRepo.materials[mat.ID].Quantity; got != types.NewQuantityFromInt(15) {
		t.Errorf("stock changed on failed return: %s", got)
	}
	if got := issueRepo.issues[res.Issue.ID].Quantity; got != types.NewQuantityFromInt(10) {
		t.Errorf("outstanding changed on failed return: %s", got)
	}
	if len(issueRepo.movements) != 1 {
		t.Errorf("movement written on failed return")
	}
}

func TestServiceRecordUnused(t *testing.T) {
	ctx := context.Background()
	svc, matRepo, issueRepo, mat := newTestService(25)

	res, err := svc.Issue(ctx, IssueRequest{MaterialID: mat.ID, ProjectID: id.New(), Quantity: types.NewQuantityFromInt(10)})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	updated, err := svc.RecordUnused(ctx, res.Issue.ID, types.NewQuantityFromInt(3))
	if err != nil {
		t.Fatalf("RecordUnused: %v", err)
	}
	if got := updated.UnusedQuantity; got != types.NewQuantityFromInt(3) {
		t.Errorf("UnusedQuantity = %s, want 3.0000", got)
	}
	// Reporting only: stock, outstanding quantity and the register stay put.
	if got := matRepo.materials[mat.ID].Quantity; got != types.NewQuantityFromInt(15) {
		t.Errorf("stock = %s, want 15.0000", got)
	}
	if got := updated.Quantity; got != types.NewQuantityFromInt(10) {
		t.Errorf("outstanding = %s, want 10.0000", got)
	}
	if len(issueRepo.movements) != 1 {
		t.Errorf("RecordUnused wrote a register row")
	}

	_, err = svc.RecordUnused(ctx, res.Issue.ID, types.NewQuantityFromInt(8))
	if !apperror.IsCode(err, apperror.CodeOutOfRange) {
		t.Errorf("error = %v, want %s", err, apperror.CodeOutOfRange)
	}
}
