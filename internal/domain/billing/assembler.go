package billing

import (
	"time"

	"prorab/internal/core/apperror"
	"prorab/internal/core/entity"
	"prorab/internal/core/id"
	"prorab/internal/core/types"
	"prorab/internal/domain/projects"
)

// AssembleInput configures invoice assembly.
type AssembleInput struct {
	Items   []BillableItem
	TaxRate types.Rate
	Date    time.Time
	DueDate *time.Time
	Comment string
}

// Assemble builds a draft invoice for a project from selected billable
// items. An invoice with no lines is rejected: the caller should not be
// able to send an empty document to a client.
//
// Assembly is pure document construction. Source-state checks (approval,
// double billing) and the invoiced-flag writes happen when the invoice is
// persisted, inside one transaction.
func Assemble(project *projects.Project, in AssembleInput) (*Invoice, error) {
	if len(in.Items) == 0 {
		return nil, apperror.NewEmptyInvoice()
	}

	inv := &Invoice{
		Document:   entity.NewDocument(project.ID),
		Status:     StatusDraft,
		ClientName: project.ClientName,
		TaxRate:    in.TaxRate,
		DueDate:    in.DueDate,
	}
	if !in.Date.IsZero() {
		inv.Date = in.Date
	}
	inv.Comment = in.Comment

	for _, item := range in.Items {
		inv.Lines = append(inv.Lines, Line{
			LineID:      id.New(),
			Source:      item.Ref,
			Description: item.Description,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
			Amount:      item.Amount,
		})
	}
	inv.recalculateTotals()

	return inv, nil
}
