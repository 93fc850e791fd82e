package changeorders

import (
	"context"
	"fmt"

	"prorab/internal/core/apperror"
	appctx "prorab/internal/core/context"
	"prorab/internal/core/id"
	"prorab/internal/core/numerator"
	"prorab/internal/core/tx"
	"prorab/internal/domain"
	"prorab/internal/domain/audit"
	"prorab/pkg/logger"
)

// Service provides business logic for ChangeOrder documents.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
	audit     audit.Recorder
}

// NewService creates a new ChangeOrder service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator, rec audit.Recorder) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		numerator: gen,
		audit:     rec,
	}
}

// Create validates and persists a draft change order.
func (s *Service) Create(ctx context.Context, co *ChangeOrder) error {
	co.Status = StatusDraft
	co.recalculateTotals()

	if err := co.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if co.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("CO"), nil, co.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			co.Number = number
		}

		if err := s.repo.Create(ctx, co); err != nil {
			return fmt.Errorf("create change order: %w", err)
		}

		logger.Info(ctx, "change order created",
			"id", co.ID, "number", co.Number, "project", co.ProjectID, "total", co.Total)
		return nil
	})
}

// GetByID retrieves a change order with its items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*ChangeOrder, error) {
	return s.repo.GetByID(ctx, orderID)
}

// Update modifies a draft change order. Sent and decided orders are frozen:
// the client approved (or rejected) the content as it was sent.
func (s *Service) Update(ctx context.Context, co *ChangeOrder) error {
	current, err := s.repo.GetByID(ctx, co.ID)
	if err != nil {
		return err
	}
	if !current.IsEditable() {
		return apperror.NewConflict("only draft change orders can be edited").
			WithDetail("status", string(current.Status))
	}

	co.Status = current.Status
	co.Invoiced = current.Invoiced
	co.recalculateTotals()

	if err := co.Validate(ctx); err != nil {
		return err
	}

	return s.repo.Update(ctx, co)
}

// SetStatus drives the approval state machine under a row lock and returns
// the refreshed order.
func (s *Service) SetStatus(ctx context.Context, orderID id.ID, to Status) (*ChangeOrder, error) {
	var result *ChangeOrder

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		co, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		from := co.Status
		if err := co.Transition(to); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, co); err != nil {
			return fmt.Errorf("update change order: %w", err)
		}

		entry := audit.NewEntry("ChangeOrder", co.ID, audit.ActionStatusChange, appctx.GetUserID(ctx), map[string]any{
			"from": from,
			"to":   to,
		})
		if err := s.audit.Record(ctx, entry); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		result = co
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "change order status changed", "id", orderID, "status", to)
	return result, nil
}

// SetDeletionMark soft-deletes or restores a change order.
func (s *Service) SetDeletionMark(ctx context.Context, orderID id.ID, marked bool) error {
	return s.repo.SetDeletionMark(ctx, orderID, marked)
}

// List retrieves change orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ChangeOrder], error) {
	return s.repo.List(ctx, filter)
}
