package dto

import (
	"prorab/internal/core/types"
	"prorab/internal/domain/projects"
)

// --- Request DTOs ---

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Code       string           `json:"code"`
	Name       string           `json:"name" binding:"required"`
	ClientName string           `json:"clientName"`
	Budget     types.MinorUnits `json:"budget"`
	FeeType    projects.FeeType `json:"feeType" binding:"required"`
	FeeValue   types.Rate       `json:"feeValue"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProjectRequest) ToEntity() *projects.Project {
	p := projects.NewProject(r.Code, r.Name, r.Budget, r.FeeType, r.FeeValue)
	p.ClientName = r.ClientName
	return p
}

// UpdateProjectRequest is the request body for updating a project.
type UpdateProjectRequest struct {
	Code       string           `json:"code"`
	Name       string           `json:"name" binding:"required"`
	ClientName string           `json:"clientName"`
	Budget     types.MinorUnits `json:"budget"`
	FeeType    projects.FeeType `json:"feeType" binding:"required"`
	FeeValue   types.Rate       `json:"feeValue"`
	IsArchived bool             `json:"isArchived"`
	Version    int              `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProjectRequest) ApplyTo(p *projects.Project) {
	p.Code = r.Code
	p.Name = r.Name
	p.ClientName = r.ClientName
	p.Budget = r.Budget
	p.FeeType = r.FeeType
	p.FeeValue = r.FeeValue
	p.IsArchived = r.IsArchived
	p.Version = r.Version
}

// SetArchivedRequest toggles project archiving.
type SetArchivedRequest struct {
	Archived bool `json:"archived"`
}

// --- Response DTOs ---

// ProjectResponse is the response body for a project.
type ProjectResponse struct {
	ID              string           `json:"id"`
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	ClientName      string           `json:"clientName"`
	Budget          types.MinorUnits `json:"budget"`
	BudgetFormatted string           `json:"budgetFormatted"`
	FeeType         projects.FeeType `json:"feeType"`
	FeeValue        types.Rate       `json:"feeValue"`
	IsArchived      bool             `json:"isArchived"`
	DeletionMark    bool             `json:"deletionMark"`
	Version         int              `json:"version"`
}

// ProjectLookupItem is a lightweight row for dashboard dropdowns.
type ProjectLookupItem struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// FromProjectLookup creates a lookup item from domain entity.
func FromProjectLookup(p *projects.Project) ProjectLookupItem {
	return ProjectLookupItem{
		ID:   p.ID.String(),
		Code: p.Code,
		Name: p.Name,
	}
}

// FromProject creates response DTO from domain entity.
func FromProject(p *projects.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:              p.ID.String(),
		Code:            p.Code,
		Name:            p.Name,
		ClientName:      p.ClientName,
		Budget:          p.Budget,
		BudgetFormatted: FormatAmount(p.Budget),
		FeeType:         p.FeeType,
		FeeValue:        p.FeeValue,
		IsArchived:      p.IsArchived,
		DeletionMark:    p.DeletionMark,
		Version:         p.Version,
	}
}
