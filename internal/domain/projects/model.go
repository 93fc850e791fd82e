// Package projects provides the Project catalog (Справочник "Объекты").
// A project is a construction site with a contract budget and a contractor
// fee arrangement; expenses, issuances, change orders and invoices all hang
// off a project.
package projects

import (
	"context"

	"prorab/internal/core/apperror"
	"prorab/internal/core/entity"
	"prorab/internal/core/types"
)

// FeeType defines how the contractor fee is derived.
type FeeType string

const (
	// FeeTypeFixed charges a flat amount regardless of base cost
	FeeTypeFixed FeeType = "fixed"
	// FeeTypePercentage charges a percentage of base cost
	FeeTypePercentage FeeType = "percentage"
)

// Project represents a construction project.
type Project struct {
	entity.Catalog

	// ClientName is the billing counterparty
	ClientName string `db:"client_name" json:"clientName"`

	// Budget is the original contract budget in minor units.
	// Approved change orders extend it (see financials.Calculate).
	Budget types.MinorUnits `db:"budget" json:"budget"`

	// FeeType selects fixed or percentage contractor fee
	FeeType FeeType `db:"fee_type" json:"feeType"`

	// FeeValue is the fee parameter: minor units for fixed fee,
	// percent for percentage fee. Stored as NUMERIC for both.
	FeeValue types.Rate `db:"fee_value" json:"feeValue"`

	// IsArchived hides finished projects from default listings
	IsArchived bool `db:"is_archived" json:"isArchived"`
}

// NewProject creates a new Project with required fields.
func NewProject(code, name string, budget types.MinorUnits, feeType FeeType, feeValue types.Rate) *Project {
	return &Project{
		Catalog:  entity.NewCatalog(code, name),
		Budget:   budget,
		FeeType:  feeType,
		FeeValue: feeValue,
	}
}

// Validate implements entity.Validatable interface.
func (p *Project) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidFeeType(p.FeeType) {
		return apperror.NewValidation("invalid fee type").
			WithDetail("field", "feeType").
			WithDetail("value", string(p.FeeType))
	}

	if p.FeeValue.IsNegative() {
		return apperror.NewValidation("fee value cannot be negative").
			WithDetail("field", "feeValue")
	}

	if p.Budget.IsNegative() {
		return apperror.NewValidation("budget cannot be negative").
			WithDetail("field", "budget")
	}

	return nil
}

func isValidFeeType(t FeeType) bool {
	switch t {
	case FeeTypeFixed, FeeTypePercentage:
		return true
	}
	return false
}
