package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/domain"
	"prorab/internal/domain/changeorders"
	"prorab/internal/infrastructure/http/v1/dto"
)

// ChangeOrderHandler handles HTTP requests for change orders.
type ChangeOrderHandler struct {
	*BaseHandler
	service *changeorders.Service
}

// NewChangeOrderHandler creates a new change order handler.
func NewChangeOrderHandler(base *BaseHandler, service *changeorders.Service) *ChangeOrderHandler {
	return &ChangeOrderHandler{BaseHandler: base, service: service}
}

// List handles GET /change-orders
func (h *ChangeOrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := changeorders.ListFilter{ListFilter: domain.DefaultListFilter()}
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
		s := changeorders.Status(status)
		filter.Status = &s
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromChangeOrder(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /change-orders/:id
func (h *ChangeOrderHandler) Get(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	co, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromChangeOrder(co))
}

// Create handles POST /change-orders
func (h *ChangeOrderHandler) Create(c *gin.Context) {
	var req dto.CreateChangeOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	projectID, err := id.Parse(req.ProjectID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid project id").WithDetail("field", "projectId"))
		return
	}

	co := req.ToEntity(projectID)
	if err := h.service.Create(c.Request.Context(), co); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromChangeOrder(co))
}

// Update handles PUT /change-orders/:id
func (h *ChangeOrderHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateChangeOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(existing)

	if err := h.service.Update(ctx, existing); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromChangeOrder(existing))
}

// SetStatus handles POST /change-orders/:id/status
func (h *ChangeOrderHandler) SetStatus(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.SetStatus(c.Request.Context(), orderID, changeorders.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromChangeOrder(updated))
}

// SetDeletionMark handles POST /change-orders/:id/deletion-mark
func (h *ChangeOrderHandler) SetDeletionMark(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(c.Request.Context(), orderID, req.DeletionMark); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "deletion mark updated")
}
