// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"github.com/Rhymond/go-money"

	"prorab/internal/core/types"
)

// currencyCode is the display currency for formatted amounts.
// All stored amounts are minor units of this currency.
var currencyCode = money.USD

// SetCurrency sets the display currency for formatted amounts.
// Called once at startup; unknown codes keep the previous value.
func SetCurrency(code string) {
	if c := money.GetCurrency(code); c != nil {
		currencyCode = code
	}
}

// FormatAmount renders minor units as a human-readable money string
// ("$1,234.50") for dashboard display. Raw minor units travel alongside.
func FormatAmount(v types.MinorUnits) string {
	return money.New(int64(v), currencyCode).Display()
}

// FormatAmountPtr renders an optional amount, empty string for nil.
func FormatAmountPtr(v *types.MinorUnits) string {
	if v == nil {
		return ""
	}
	return FormatAmount(*v)
}

// IDResponse contains created entity ID.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic success response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// SetDeletionMarkRequest toggles the soft-delete mark.
type SetDeletionMarkRequest struct {
	DeletionMark bool `json:"deletionMark"`
}
