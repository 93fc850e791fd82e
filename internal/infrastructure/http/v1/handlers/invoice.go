package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/domain"
	"prorab/internal/domain/billing"
	"prorab/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler handles HTTP requests for invoice assembly and lifecycle.
type InvoiceHandler struct {
	*BaseHandler
	service *billing.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *billing.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := billing.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if projectID := c.Query("projectId"); projectID != "" {
		parsed, err := id.Parse(projectID)
		if err == nil {
			filter.ProjectID = &parsed
		}
	}

	if status := c.Query("status"); status != "" {
		s := billing.Status(status)
		filter.Status = &s
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromInvoice(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}

// ListUnbilled handles GET /projects/:id/unbilled - billable candidates
// for invoice assembly.
func (h *InvoiceHandler) ListUnbilled(c *gin.Context) {
	projectID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	items, err := h.service.ListUnbilled(c.Request.Context(), projectID)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := make([]dto.BillableItemResponse, len(items))
	for i, item := range items {
		resp[i] = dto.FromBillableItem(item)
	}

	h.OK(c, gin.H{"items": resp})
}

// Create handles POST /invoices - assembles an invoice from selected
// sources in one transaction.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	projectID, err := id.Parse(req.ProjectID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid project id").WithDetail("field", "projectId"))
		return
	}

	createReq := billing.CreateRequest{
		ProjectID: projectID,
		TaxRate:   req.TaxRate,
		Comment:   req.Comment,
	}

	for _, src := range req.Sources {
		ref := billing.SourceRef{Type: billing.SourceType(src.Type)}
		if src.ID != "" {
			sourceID, err := id.Parse(src.ID)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid source id").
					WithDetail("sourceType", src.Type).
					WithDetail("sourceId", src.ID))
				return
			}
			ref.ID = sourceID
		}
		createReq.Sources = append(createReq.Sources, ref)
	}

	for _, line := range req.CustomLines {
		createReq.CustomLines = append(createReq.CustomLines, billing.CustomLine{
			Description: line.Description,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
			Amount:      line.Amount,
		})
	}

	inv, err := h.service.Create(c.Request.Context(), createReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromInvoice(inv))
}

// SetStatus handles POST /invoices/:id/status
func (h *InvoiceHandler) SetStatus(c *gin.Context) {
	invoiceID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.SetStatus(c.Request.Context(), invoiceID, billing.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(updated))
}
