package projects

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

// Service provides business logic for the Project catalog.
type Service struct {
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Project service.
func NewService(repo Repository, gen numerator.Generator) *Service {
	return &Service{
		repo:      repo,
		numerator: gen,
	}
}

// Create validates and persists a new project.
func (s *Service) Create(ctx context.Context, p *Project) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PRJ"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}

	if existing, err := s.repo.GetByCode(ctx, p.Code); err == nil && existing != nil {
		return apperror.NewDuplicate("project", "code", p.Code)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	logger.Info(ctx, "project created", "id", p.ID, "code", p.Code, "budget", p.Budget)
	return nil
}

// GetByID retrieves a project.
func (s *Service) GetByID(ctx context.Context, projectID id.ID) (*Project, error) {
	return s.repo.GetByID(ctx, projectID)
}

// Update modifies a project. Budget changes here affect only the original
// contract amount; approved change orders are tracked separately.
func (s *Service) Update(ctx context.Context, p *Project) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// Archive hides a finished project from default listings.
func (s *Service) Archive(ctx context.Context, projectID id.ID, archived bool) error {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	p.IsArchived = archived
	return s.repo.Update(ctx, p)
}

// SetDeletionMark soft-deletes or restores a project.
func (s *Service) SetDeletionMark(ctx context.Context, projectID id.ID, marked bool) error {
	return s.repo.SetDeletionMark(ctx, projectID, marked)
}

// List retrieves projects with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Project], error) {
	return s.repo.List(ctx, filter)
}
