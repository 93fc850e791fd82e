package dto

import (
	"prorab/internal/core/types"
	"prorab/internal/domain/catalogs/supplier"
)

// --- Request DTOs ---

// CreateSupplierMaterialRequest is the request body for creating a
// supplier price-list entry.
type CreateSupplierMaterialRequest struct {
	Code         string           `json:"code"`
	Name         string           `json:"name" binding:"required"`
	SupplierName string           `json:"supplierName" binding:"required"`
	Unit         string           `json:"unit" binding:"required"`
	UnitPrice    types.MinorUnits `json:"unitPrice"`
	Category     string           `json:"category"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateSupplierMaterialRequest) ToEntity() *supplier.Material {
	m := supplier.NewMaterial(r.Code, r.Name, r.Unit, r.UnitPrice)
	m.SupplierName = r.SupplierName
	m.Category = r.Category
	return m
}

// UpdateSupplierMaterialRequest is the request body for updating a
// price-list entry.
type UpdateSupplierMaterialRequest struct {
	Code         string           `json:"code"`
	Name         string           `json:"name" binding:"required"`
	SupplierName string           `json:"supplierName" binding:"required"`
	Unit         string           `json:"unit" binding:"required"`
	UnitPrice    types.MinorUnits `json:"unitPrice"`
	Category     string           `json:"category"`
	Version      int              `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateSupplierMaterialRequest) ApplyTo(m *supplier.Material) {
	m.Code = r.Code
	m.Name = r.Name
	m.SupplierName = r.SupplierName
	m.Unit = r.Unit
	m.UnitPrice = r.UnitPrice
	m.Category = r.Category
	m.Version = r.Version
}

// --- Response DTOs ---

// SupplierMaterialResponse is the response body for a price-list entry.
type SupplierMaterialResponse struct {
	ID                 string           `json:"id"`
	Code               string           `json:"code"`
	Name               string           `json:"name"`
	SupplierName       string           `json:"supplierName"`
	Unit               string           `json:"unit"`
	UnitPrice          types.MinorUnits `json:"unitPrice"`
	UnitPriceFormatted string           `json:"unitPriceFormatted"`
	Category           string           `json:"category,omitempty"`
	DeletionMark       bool             `json:"deletionMark"`
	Version            int              `json:"version"`
}

// FromSupplierMaterial creates response DTO from domain entity.
func FromSupplierMaterial(m *supplier.Material) *SupplierMaterialResponse {
	return &SupplierMaterialResponse{
		ID:                 m.ID.String(),
		Code:               m.Code,
		Name:               m.Name,
		SupplierName:       m.SupplierName,
		Unit:               m.Unit,
		UnitPrice:          m.UnitPrice,
		UnitPriceFormatted: FormatAmount(m.UnitPrice),
		Category:           m.Category,
		DeletionMark:       m.DeletionMark,
		Version:            m.Version,
	}
}
