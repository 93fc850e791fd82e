package material

import (
	"context"
	"fmt"
	"time"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/core/numerator"
	"prorab/internal/domain"
	"prorab/pkg/logger"
)

// Service provides business logic for the WorkshopMaterial catalog.
type Service struct {
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new WorkshopMaterial service.
func NewService(repo Repository, gen numerator.Generator) *Service {
	return &Service{
		repo:      repo,
		numerator: gen,
	}
}

// Create validates and persists a new material record.
func (s *Service) Create(ctx context.Context, m *WorkshopMaterial) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	if m.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("MAT"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		m.Code = code
	}

	if existing, err := s.repo.GetByCode(ctx, m.Code); err == nil && existing != nil {
		return apperror.NewDuplicate("material", "code", m.Code)
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return fmt.Errorf("create material: %w", err)
	}

	logger.Info(ctx, "workshop material created", "id", m.ID, "code", m.Code)
	return nil
}

// GetByID retrieves a material.
func (s *Service) GetByID(ctx context.Context, materialID id.ID) (*WorkshopMaterial, error) {
	return s.repo.GetByID(ctx, materialID)
}

// Update modifies descriptive fields. Stock quantity is owned by the
// inventory ledger and is carried over from the stored record.
func (s *Service) Update(ctx context.Context, m *WorkshopMaterial) error {
	current, err := s.repo.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	m.Quantity = current.Quantity

	if err := m.Validate(ctx); err != nil {
		return err
	}

	return s.repo.Update(ctx, m)
}

// SetDeletionMark soft-deletes or restores a material.
func (s *Service) SetDeletionMark(ctx context.Context, materialID id.ID, marked bool) error {
	return s.repo.SetDeletionMark(ctx, materialID, marked)
}

// List retrieves materials with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*WorkshopMaterial], error) {
	return s.repo.List(ctx, filter)
}
