package expenses

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
	"prorab/pkg/logger"
)

// Service provides business logic for Expense documents.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
	audit     audit.Recorder
}

// NewService creates a new Expense service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator, rec audit.Recorder) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		numerator: gen,
		audit:     rec,
	}
}

// Create validates and persists a new expense.
func (s *Service) Create(ctx context.Context, e *Expense) error {
	if err := e.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if e.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("EXP"), nil, e.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			e.Number = number
		}

		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}

		logger.Info(ctx, "expense created",
			"id", e.ID, "number", e.Number, "project", e.ProjectID, "amount", e.Amount)
		return nil
	})
}

// GetByID retrieves an expense with its tax lines.
func (s *Service) GetByID(ctx context.Context, expenseID id.ID) (*Expense, error) {
	return s.repo.GetByID(ctx, expenseID)
}

// Update modifies an expense. Invoiced expenses are frozen: they already
// appear on a client invoice with the amounts captured at billing time.
func (s *Service) Update(ctx context.Context, e *Expense) error {
	current, err := s.repo.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	if current.Invoiced {
		return apperror.NewAlreadyInvoiced("expense", e.ID.String())
	}

	if err := e.Validate(ctx); err != nil {
		return err
	}

	e.Invoiced = current.Invoiced
	e.UnusedQuantity = current.UnusedQuantity
	return s.repo.Update(ctx, e)
}

// RecordUnused marks part of a countable expense as not consumed on site.
// It adjusts reporting only; the expense amount and any invoice that
// includes it are untouched. Returns the refreshed expense.
func (s *Service) RecordUnused(ctx context.Context, expenseID id.ID, qty types.Quantity) (*Expense, error) {
	var result *Expense

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetForUpdate(ctx, expenseID)
		if err != nil {
			return err
		}

		if err := e.RecordUnused(qty); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update expense: %w", err)
		}

		entry := audit.NewEntry("Expense", e.ID, audit.ActionUnused, appctx.GetUserID(ctx), map[string]any{
			"quantity":    qty,
			"unusedTotal": e.UnusedQuantity,
		})
		if err := s.audit.Record(ctx, entry); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "unused quantity recorded",
		"expense", expenseID, "quantity", qty, "unusedTotal", result.UnusedQuantity)
	return result, nil
}

// SetDeletionMark soft-deletes or restores an expense. Invoiced expenses
// keep their mark visible but remain referenced by the invoice lines.
func (s *Service) SetDeletionMark(ctx context.Context, expenseID id.ID, marked bool) error {
	return s.repo.SetDeletionMark(ctx, expenseID, marked)
}

// List retrieves expenses with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Expense], error) {
	return s.repo.List(ctx, filter)
}

// ProjectTotal sums Total() over all live expenses of a project.
func (s *Service) ProjectTotal(ctx context.Context, projectID id.ID) (types.MinorUnits, error) {
	list, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return 0, err
	}

	var sum types.MinorUnits
	for _, e := range list {
		t, err := e.Total()
		if err != nil {
			return 0, err
		}
		sum += t
	}
	return sum, nil
}
