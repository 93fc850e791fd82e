package inventory

import (
	"context"
	"fmt"
	"time"

	"prorab/internal/core/apperror"
	appctx "prorab/internal/core/context"
	"prorab/internal/core/entity"
	"prorab/internal/core/id"
	"prorab/internal/core/numerator"
	"prorab/internal/core/tx"
	"prorab/internal/core/types"
	"prorab/internal/domain"
	"prorab/internal/domain/audit"
	"prorab/internal/domain/catalogs/material"
	"prorab/pkg/logger"
)

// MaterialRepository is the slice of the material catalog the ledger needs:
// locked reads and stock deltas on the workshop row.
type MaterialRepository interface {
	GetByID(ctx context.Context, id id.ID) (*material.WorkshopMaterial, error)
	GetForUpdate(ctx context.Context, id id.ID) (*material.WorkshopMaterial, error)
	AdjustStock(ctx context.Context, id id.ID, delta types.Quantity) error
}

// Service implements the inventory ledger operations. All stock mutations
// run inside a transaction with the workshop material row locked, so
// concurrent operations against the same material serialize and the
// conservation checks are race-free.
type Service struct {
	repo      Repository
	materials MaterialRepository
	txManager tx.Manager
	numerator numerator.Generator
	audit     audit.Recorder
}

// NewService creates a new inventory ledger service.
func NewService(repo Repository, materials MaterialRepository, txManager tx.Manager, gen numerator.Generator, rec audit.Recorder) *Service {
	return &Service{
		repo:      repo,
		materials: materials,
		txManager: txManager,
		numerator: gen,
		audit:     rec,
	}
}

// IssueRequest describes one issue operation.
type IssueRequest struct {
	MaterialID id.ID
	ProjectID  id.ID
	Quantity   types.Quantity
	Date       time.Time
	Comment    string

	// Billable marks the issued material as chargeable to the client.
	// Off by default; once set on a record it stays set.
	Billable bool
}

// Result carries the refreshed aggregates after a ledger mutation, so
// callers render the new state without a separate fetch.
type Result struct {
	Material *material.WorkshopMaterial `json:"material"`
	Issue    *MaterialIssue             `json:"issue"`
}

// Issue moves a quantity of a material from the workshop to a project site.
//
// Within one transaction: the material row is locked, availability is
// checked, workshop stock is decremented, the quantity is added to the live
// issuance record for the (material, project) pair (a new record is started
// when none is open), and a register row is appended. On insufficient stock
// nothing changes.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*Result, error) {
	if !req.Quantity.IsPositive() {
		return nil, apperror.NewValidation("issue quantity must be positive").
			WithDetail("field", "quantity")
	}
	if req.Date.IsZero() {
		req.Date = time.Now().UTC()
	}

	var result *Result

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		mat, err := s.materials.GetForUpdate(ctx, req.MaterialID)
		if err != nil {
			return err
		}

		if !mat.CanIssue() {
			return apperror.NewBusinessRule("MATERIAL_INACTIVE", "material is not available for issue").
				WithDetail("materialId", mat.ID)
		}

		if req.Quantity > mat.Quantity {
			return apperror.NewInsufficientStock(mat.ID.String(), req.Quantity.Float64(), mat.Quantity.Float64())
		}

		if err := s.materials.AdjustStock(ctx, mat.ID, req.Quantity.Neg()); err != nil {
			return fmt.Errorf("adjust stock: %w", err)
		}

		issue, err := s.repo.FindOpenForUpdate(ctx, req.MaterialID, req.ProjectID)
		switch {
		case err == nil:
			if err := issue.ApplyIssue(req.Quantity); err != nil {
				return err
			}
			if req.Comment != "" {
				issue.Comment = req.Comment
			}
			if req.Billable {
				issue.Billable = true
			}
			if err := s.repo.Update(ctx, issue); err != nil {
				return fmt.Errorf("update issuance: %w", err)
			}
		case apperror.IsNotFound(err):
			issue = NewMaterialIssue(req.ProjectID, mat.ID, mat.Name, mat.Unit, mat.CostPerUnit)
			issue.Date = req.Date
			issue.Comment = req.Comment
			issue.Billable = req.Billable
			if err := issue.ApplyIssue(req.Quantity); err != nil {
				return err
			}

			number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("ISS"), nil, req.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			issue.Number = number

			if err := s.repo.Create(ctx, issue); err != nil {
				return fmt.Errorf("create issuance: %w", err)
			}
		default:
			return err
		}

		if err := s.repo.AddMovement(ctx, issue.NewIssueMovement(req.Date, req.Quantity)); err != nil {
			return fmt.Errorf("add movement: %w", err)
		}

		entry := audit.NewEntry("MaterialIssue", issue.ID, audit.ActionIssue, appctx.GetUserID(ctx), map[string]any{
			"materialId": mat.ID,
			"projectId":  req.ProjectID,
			"quantity":   req.Quantity,
		})
		if err := s.audit.Record(ctx, entry); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		refreshed, err := s.materials.GetByID(ctx, mat.ID)
		if err != nil {
			return err
		}

		result = &Result{Material: refreshed, Issue: issue}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "material issued",
		"material", req.MaterialID, "project", req.ProjectID,
		"quantity", req.Quantity, "issue", result.Issue.ID)
	return result, nil
}

// Return moves a quantity of a previously issued material back to the
// workshop. The return is bounded by the outstanding quantity on site; on
// excess nothing changes.
func (s *Service) Return(ctx context.Context, issueID id.ID, qty types.Quantity, date time.Time) (*Result, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("return quantity must be positive").
			WithDetail("field", "quantity")
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	var result *Result

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Resolve the material without a lock, then acquire locks in the
		// same order as Issue (material row, then issuance row).
		peek, err := s.repo.GetByID(ctx, issueID)
		if err != nil {
			return err
		}
		if _, err := s.materials.GetForUpdate(ctx, peek.MaterialID); err != nil {
			return err
		}

		issue, err := s.repo.GetForUpdate(ctx, issueID)
		if err != nil {
			return err
		}

		if err := issue.ApplyReturn(qty); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, issue); err != nil {
			return fmt.Errorf("update issuance: %w", err)
		}

		if err := s.materials.AdjustStock(ctx, issue.MaterialID, qty); err != nil {
			return fmt.Errorf("adjust stock: %w", err)
		}

		if err := s.repo.AddMovement(ctx, issue.NewReturnMovement(date, qty)); err != nil {
			return fmt.Errorf("add movement: %w", err)
		}

		entry := audit.NewEntry("MaterialIssue", issue.ID, audit.ActionReturn, appctx.GetUserID(ctx), map[string]any{
			"quantity":    qty,
			"outstanding": issue.Quantity,
		})
		if err := s.audit.Record(ctx, entry); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		refreshed, err := s.materials.GetByID(ctx, issue.MaterialID)
		if err != nil {
			return err
		}

		result = &Result{Material: refreshed, Issue: issue}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "material returned",
		"issue", issueID, "quantity", qty, "outstanding", result.Issue.Quantity)
	return result, nil
}

// RecordUnused marks part of an issued quantity as not consumed on site.
// Reporting metadata only: workshop stock and the outstanding quantity are
// untouched, and no register row is written. Returning the material is a
// separate, explicit operation.
func (s *Service) RecordUnused(ctx context.Context, issueID id.ID, qty types.Quantity) (*MaterialIssue, error) {
	var result *MaterialIssue

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		issue, err := s.repo.GetForUpdate(ctx, issueID)
		if err != nil {
			return err
		}

		if err := issue.RecordUnused(qty); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, issue); err != nil {
			return fmt.Errorf("update issuance: %w", err)
		}

		entry := audit.NewEntry("MaterialIssue", issue.ID, audit.ActionUnused, appctx.GetUserID(ctx), map[string]any{
			"quantity":    qty,
			"unusedTotal": issue.UnusedQuantity,
		})
		if err := s.audit.Record(ctx, entry); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		result = issue
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "unused quantity recorded",
		"issue", issueID, "quantity", qty, "unusedTotal", result.UnusedQuantity)
	return result, nil
}

// GetByID retrieves an issuance.
func (s *Service) GetByID(ctx context.Context, issueID id.ID) (*MaterialIssue, error) {
	return s.repo.GetByID(ctx, issueID)
}

// List retrieves issuances with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*MaterialIssue], error) {
	return s.repo.List(ctx, filter)
}

// Movements returns register history for a material, project or issuance.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) ([]entity.InventoryMovement, error) {
	return s.repo.ListMovements(ctx, filter)
}
