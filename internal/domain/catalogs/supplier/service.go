package supplier

import (
	"context"
	"fmt"
	"time"

	"prorab/internal/core/id"
	"prorab/internal/core/numerator"
	"prorab/internal/domain"
	"prorab/pkg/logger"
)

// Service provides business logic for the supplier price list.
type Service struct {
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new supplier price-list service.
func NewService(repo Repository, gen numerator.Generator) *Service {
	return &Service{
		repo:      repo,
		numerator: gen,
	}
}

// Create validates and persists a new price-list entry.
func (s *Service) Create(ctx context.Context, m *Material) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	if m.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SUP"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		m.Code = code
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return fmt.Errorf("create price-list entry: %w", err)
	}

	logger.Info(ctx, "supplier material created", "id", m.ID, "code", m.Code)
	return nil
}

// GetByID retrieves a price-list entry.
func (s *Service) GetByID(ctx context.Context, entryID id.ID) (*Material, error) {
	return s.repo.GetByID(ctx, entryID)
}

// Update modifies a price-list entry.
func (s *Service) Update(ctx context.Context, m *Material) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, m)
}

// SetDeletionMark soft-deletes or restores an entry.
func (s *Service) SetDeletionMark(ctx context.Context, entryID id.ID, marked bool) error {
	return s.repo.SetDeletionMark(ctx, entryID, marked)
}

// List retrieves price-list entries with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Material], error) {
	return s.repo.List(ctx, filter)
}
