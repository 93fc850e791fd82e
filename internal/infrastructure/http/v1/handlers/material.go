package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/domain"
	"prorab/internal/domain/catalogs/material"
	"prorab/internal/infrastructure/http/v1/dto"
)

// MaterialHandler handles HTTP requests for the workshop material catalog.
type MaterialHandler struct {
	*BaseHandler
	service *material.Service
}

// NewMaterialHandler creates a new material handler.
func NewMaterialHandler(base *BaseHandler, service *material.Service) *MaterialHandler {
	return &MaterialHandler{BaseHandler: base, service: service}
}

// List handles GET /materials
func (h *MaterialHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := material.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"
	filter.ActiveOnly = c.Query("activeOnly") == "true"
	filter.InStockOnly = c.Query("inStockOnly") == "true"

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromMaterial(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	materialID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMaterial(m))
}

// Create handles POST /materials
func (h *MaterialHandler) Create(c *gin.Context) {
	var req dto.CreateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromMaterial(m))
}

// Update handles PUT /materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	materialID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(existing)

	if err := h.service.Update(ctx, existing); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMaterial(existing))
}

// SetDeletionMark handles POST /materials/:id/deletion-mark
func (h *MaterialHandler) SetDeletionMark(c *gin.Context) {
	materialID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(c.Request.Context(), materialID, req.DeletionMark); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "deletion mark updated")
}
