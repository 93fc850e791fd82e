package dto

import (
	"prorab/internal/core/types"
	"prorab/internal/domain/catalogs/material"
)

// --- Request DTOs ---

// CreateMaterialRequest is the request body for creating a workshop material.
type CreateMaterialRequest struct {
	Code        string            `json:"code"`
	Name        string            `json:"name" binding:"required"`
	Unit        string            `json:"unit" binding:"required"`
	Quantity    types.Quantity    `json:"quantity"`
	CostPerUnit *types.MinorUnits `json:"costPerUnit"`
	IsActive    *bool             `json:"isActive"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateMaterialRequest) ToEntity() *material.WorkshopMaterial {
	m := material.NewWorkshopMaterial(r.Code, r.Name, r.Unit)
	m.Quantity = r.Quantity
	m.CostPerUnit = r.CostPerUnit
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	return m
}

// UpdateMaterialRequest is the request body for updating a workshop material.
// Stock quantity is owned by the inventory ledger and not updatable here.
type UpdateMaterialRequest struct {
	Code        string            `json:"code"`
	Name        string            `json:"name" binding:"required"`
	Unit        string            `json:"unit" binding:"required"`
	CostPerUnit *types.MinorUnits `json:"costPerUnit"`
	IsActive    bool              `json:"isActive"`
	Version     int               `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateMaterialRequest) ApplyTo(m *material.WorkshopMaterial) {
	m.Code = r.Code
	m.Name = r.Name
	m.Unit = r.Unit
	m.CostPerUnit = r.CostPerUnit
	m.IsActive = r.IsActive
	m.Version = r.Version
}

// --- Response DTOs ---

// MaterialResponse is the response body for a workshop material.
type MaterialResponse struct {
	ID                   string            `json:"id"`
	Code                 string            `json:"code"`
	Name                 string            `json:"name"`
	Unit                 string            `json:"unit"`
	Quantity             types.Quantity    `json:"quantity"`
	CostPerUnit          *types.MinorUnits `json:"costPerUnit,omitempty"`
	CostPerUnitFormatted string            `json:"costPerUnitFormatted,omitempty"`
	IsActive             bool              `json:"isActive"`
	DeletionMark         bool              `json:"deletionMark"`
	Version              int               `json:"version"`
}

// FromMaterial creates response DTO from domain entity.
func FromMaterial(m *material.WorkshopMaterial) *MaterialResponse {
	return &MaterialResponse{
		ID:                   m.ID.String(),
		Code:                 m.Code,
		Name:                 m.Name,
		Unit:                 m.Unit,
		Quantity:             m.Quantity,
		CostPerUnit:          m.CostPerUnit,
		CostPerUnitFormatted: FormatAmountPtr(m.CostPerUnit),
		IsActive:             m.IsActive,
		DeletionMark:         m.DeletionMark,
		Version:              m.Version,
	}
}
