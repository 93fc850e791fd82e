package billing

import (
	"context"
	"fmt"

	"prorab/internal/core/apperror"
	appctx "prorab/internal/core/context"
	"prorab/internal/core/id"
	"prorab/internal/core/numerator"
	"prorab/internal/core/tx"
	"prorab/internal/core/types"
	"prorab/internal/domain"
	"prorab/internal/domain/audit"
	"prorab/internal/domain/changeorders"
	"prorab/internal/domain/expenses"
	"prorab/internal/domain/inventory"
	"prorab/internal/domain/projects"
	"prorab/pkg/logger"
)

// ProjectReader resolves the project an invoice is assembled for.
type ProjectReader interface {
	GetByID(ctx context.Context, id id.ID) (*projects.Project, error)
}

// ExpenseSource is the slice of the expense domain billing needs.
type ExpenseSource interface {
	GetByID(ctx context.Context, id id.ID) (*expenses.Expense, error)
	ListByProject(ctx context.Context, projectID id.ID) ([]*expenses.Expense, error)
	MarkInvoiced(ctx context.Context, id id.ID) (bool, error)
}

// IssueSource is the slice of the inventory ledger billing needs.
type IssueSource interface {
	GetByID(ctx context.Context, id id.ID) (*inventory.MaterialIssue, error)
	ListByProject(ctx context.Context, projectID id.ID) ([]*inventory.MaterialIssue, error)
	MarkInvoiced(ctx context.Context, id id.ID) (bool, error)
}

// ChangeOrderSource is the slice of the change order domain billing needs.
type ChangeOrderSource interface {
	GetByID(ctx context.Context, id id.ID) (*changeorders.ChangeOrder, error)
	ListApprovedByProject(ctx context.Context, projectID id.ID) ([]*changeorders.ChangeOrder, error)
	MarkInvoiced(ctx context.Context, id id.ID) (bool, error)
}

// Service provides invoice assembly and lifecycle management.
type Service struct {
	repo         Repository
	projects     ProjectReader
	expenses     ExpenseSource
	issues       IssueSource
	changeOrders ChangeOrderSource
	txManager    tx.Manager
	numerator    numerator.Generator
	audit        audit.Recorder
}

// NewService creates a new billing service.
func NewService(
	repo Repository,
	projectReader ProjectReader,
	expenseSource ExpenseSource,
	issueSource IssueSource,
	changeOrderSource ChangeOrderSource,
	txManager tx.Manager,
	gen numerator.Generator,
	rec audit.Recorder,
) *Service {
	return &Service{
		repo:         repo,
		projects:     projectReader,
		expenses:     expenseSource,
		issues:       issueSource,
		changeOrders: changeOrderSource,
		txManager:    txManager,
		numerator:    gen,
		audit:        rec,
	}
}

// ListUnbilled returns everything chargeable for a project that no live
// invoice references yet. The guard set is rebuilt from all non-void
// invoices, so candidates stay correct even if a source flag lags behind.
func (s *Service) ListUnbilled(ctx context.Context, projectID id.ID) ([]BillableItem, error) {
	invoices, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	billed := NewBilledSet(invoices)

	var candidates []BillableItem

	expList, err := s.expenses.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, e := range expList {
		if e.Invoiced || e.DeletionMark {
			continue
		}
		total, err := e.Total()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, BillableItem{
			Ref:         SourceRef{Type: SourceExpense, ID: e.ID},
			Description: e.Description,
			Quantity:    e.Quantity,
			Unit:        e.Unit,
			Amount:      total,
		})
	}

	issueList, err := s.issues.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, mi := range issueList {
		if !mi.IsBillable() || mi.DeletionMark {
			continue
		}
		qty := mi.Quantity
		candidates = append(candidates, BillableItem{
			Ref:         SourceRef{Type: SourceMaterialIssue, ID: mi.ID},
			Description: mi.MaterialName,
			Quantity:    &qty,
			Unit:        mi.Unit,
			Amount:      mi.Cost(),
		})
	}

	coList, err := s.changeOrders.ListApprovedByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, co := range coList {
		if co.Invoiced || co.DeletionMark {
			continue
		}
		candidates = append(candidates, BillableItem{
			Ref:         SourceRef{Type: SourceChangeOrder, ID: co.ID},
			Description: co.Title,
			Amount:      co.Total,
		})
	}

	return SelectUnbilled(candidates, billed), nil
}

// CustomLine is a free-form invoice position.
type CustomLine struct {
	Description string           `json:"description"`
	Quantity    *types.Quantity  `json:"quantity,omitempty"`
	Unit        string           `json:"unit,omitempty"`
	Amount      types.MinorUnits `json:"amount"`
}

// CreateRequest describes one invoice assembly.
type CreateRequest struct {
	ProjectID   id.ID        `json:"projectId"`
	Sources     []SourceRef  `json:"sources"`
	CustomLines []CustomLine `json:"customLines"`
	TaxRate     types.Rate   `json:"taxRate"`
	Comment     string       `json:"comment"`
}

// Create assembles and persists an invoice in one transaction. Every
// referenced source is marked invoiced by a conditional update; a source
// already claimed by another invoice aborts the whole assembly, so two
// concurrent invoices can never both bill the same record.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Invoice, error) {
	var result *Invoice

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		project, err := s.projects.GetByID(ctx, req.ProjectID)
		if err != nil {
			return err
		}

		items := make([]BillableItem, 0, len(req.Sources)+len(req.CustomLines))
		for _, ref := range req.Sources {
			item, err := s.claimSource(ctx, req.ProjectID, ref)
			if err != nil {
				return err
			}
			items = append(items, *item)
		}
		for _, cl := range req.CustomLines {
			items = append(items, BillableItem{
				Ref:         SourceRef{Type: SourceCustom},
				Description: cl.Description,
				Quantity:    cl.Quantity,
				Unit:        cl.Unit,
				Amount:      cl.Amount,
			})
		}

		inv, err := Assemble(project, AssembleInput{
			Items:   items,
			TaxRate: req.TaxRate,
			Comment: req.Comment,
		})
		if err != nil {
			return err
		}

		if err := inv.Validate(ctx); err != nil {
			return err
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("INV"), nil, inv.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		inv.Number = number

		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		entry := audit.NewEntry("Invoice", inv.ID, audit.ActionInvoice, appctx.GetUserID(ctx), map[string]any{
			"number":  inv.Number,
			"sources": req.Sources,
			"total":   inv.Total,
		})
		if err := s.audit.Record(ctx, entry); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created",
		"id", result.ID, "number", result.Number,
		"project", req.ProjectID, "total", result.Total)
	return result, nil
}

// claimSource resolves a source ref to a billable item and marks the record
// invoiced. The switch is exhaustive over SourceType: unknown or custom
// refs are assembly errors, not silent skips. Eligibility is re-checked
// here rather than trusted from the request: the ref may have been built
// from a stale candidate list or handcrafted by the caller.
func (s *Service) claimSource(ctx context.Context, projectID id.ID, ref SourceRef) (*BillableItem, error) {
	switch ref.Type {
	case SourceExpense:
		e, err := s.expenses.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if e.ProjectID != projectID {
			return nil, sourceProjectMismatch(ref, e.ProjectID)
		}
		total, err := e.Total()
		if err != nil {
			return nil, err
		}
		ok, err := s.expenses.MarkInvoiced(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.NewAlreadyInvoiced(string(ref.Type), ref.ID.String())
		}
		return &BillableItem{
			Ref:         ref,
			Description: e.Description,
			Quantity:    e.Quantity,
			Unit:        e.Unit,
			Amount:      total,
		}, nil

	case SourceMaterialIssue:
		mi, err := s.issues.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if mi.ProjectID != projectID {
			return nil, sourceProjectMismatch(ref, mi.ProjectID)
		}
		if !mi.Invoiced && !mi.IsBillable() {
			return nil, apperror.NewValidation("material issue is not billable").
				WithDetail("sourceId", ref.ID.String())
		}
		ok, err := s.issues.MarkInvoiced(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.NewAlreadyInvoiced(string(ref.Type), ref.ID.String())
		}
		qty := mi.Quantity
		return &BillableItem{
			Ref:         ref,
			Description: mi.MaterialName,
			Quantity:    &qty,
			Unit:        mi.Unit,
			Amount:      mi.Cost(),
		}, nil

	case SourceChangeOrder:
		co, err := s.changeOrders.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if co.ProjectID != projectID {
			return nil, sourceProjectMismatch(ref, co.ProjectID)
		}
		if co.Status != changeorders.StatusApproved {
			return nil, apperror.NewNotApproved(co.ID.String(), string(co.Status))
		}
		ok, err := s.changeOrders.MarkInvoiced(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.NewAlreadyInvoiced(string(ref.Type), ref.ID.String())
		}
		return &BillableItem{
			Ref:         ref,
			Description: co.Title,
			Amount:      co.Total,
		}, nil

	case SourceCustom:
		return nil, apperror.NewValidation("custom lines carry no source reference").
			WithDetail("sourceType", string(ref.Type))

	default:
		return nil, apperror.NewValidation("unknown source type").
			WithDetail("sourceType", string(ref.Type))
	}
}

func sourceProjectMismatch(ref SourceRef, ownerID id.ID) *apperror.AppError {
	return apperror.NewValidation("source belongs to a different project").
		WithDetail("sourceType", string(ref.Type)).
		WithDetail("sourceId", ref.ID.String()).
		WithDetail("sourceProjectId", ownerID.String())
}

// SetStatus drives the invoice lifecycle under a row lock and returns the
// refreshed invoice. Voiding keeps the source flags set; see StatusVoid.
func (s *Service) SetStatus(ctx context.Context, invoiceID id.ID, to Status) (*Invoice, error) {
	var result *Invoice

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}

		from := inv.Status
		if err := inv.Transition(to); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		entry := audit.NewEntry("Invoice", inv.ID, audit.ActionStatusChange, appctx.GetUserID(ctx), map[string]any{
			"from": from,
			"to":   to,
		})
		if err := s.audit.Record(ctx, entry); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice status changed", "id", invoiceID, "status", to)
	return result, nil
}

// GetByID retrieves an invoice with its lines.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.repo.GetByID(ctx, invoiceID)
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}
