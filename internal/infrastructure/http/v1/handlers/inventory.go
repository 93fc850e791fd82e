package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/domain"
	"prorab/internal/domain/inventory"
	"prorab/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles HTTP requests for the workshop inventory ledger.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service}
}

// List handles GET /issues
func (h *InventoryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := inventory.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"
	filter.UnbilledOnly = c.Query("unbilledOnly") == "true"

	if projectID := c.Query("projectId"); projectID != "" {
		parsed, err := id.Parse(projectID)
		if err == nil {
			filter.ProjectID = &parsed
		}
	}

	if materialID := c.Query("materialId"); materialID != "" {
		parsed, err := id.Parse(materialID)
		if err == nil {
			filter.MaterialID = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromMaterialIssue(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /issues/:id
func (h *InventoryHandler) Get(c *gin.Context) {
	issueID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	mi, err := h.service.GetByID(c.Request.Context(), issueID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMaterialIssue(mi))
}

// Issue handles POST /issues
func (h *InventoryHandler) Issue(c *gin.Context) {
	var req dto.IssueMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	materialID, err := id.Parse(req.MaterialID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid material id").WithDetail("field", "materialId"))
		return
	}

	projectID, err := id.Parse(req.ProjectID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid project id").WithDetail("field", "projectId"))
		return
	}

	issueReq := inventory.IssueRequest{
		MaterialID: materialID,
		ProjectID:  projectID,
		Quantity:   req.Quantity,
		Comment:    req.Comment,
		Billable:   req.Billable,
	}
	if req.Date != nil {
		issueReq.Date = *req.Date
	}

	result, err := h.service.Issue(c.Request.Context(), issueReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromLedgerResult(result))
}

// Return handles POST /issues/:id/return
func (h *InventoryHandler) Return(c *gin.Context) {
	issueID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ReturnMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	date := time.Now().UTC()
	if req.Date != nil {
		date = *req.Date
	}

	result, err := h.service.Return(c.Request.Context(), issueID, req.Quantity, date)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromLedgerResult(result))
}

// RecordUnused handles POST /issues/:id/unused
func (h *InventoryHandler) RecordUnused(c *gin.Context) {
	issueID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.RecordUnusedRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.RecordUnused(c.Request.Context(), issueID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMaterialIssue(updated))
}

// Movements handles GET /movements
func (h *InventoryHandler) Movements(c *gin.Context) {
	filter := inventory.MovementFilter{
		Limit: h.ParseIntQuery(c, "limit", 100),
	}

	if materialID := c.Query("materialId"); materialID != "" {
		parsed, err := id.Parse(materialID)
		if err == nil {
			filter.MaterialID = &parsed
		}
	}

	if projectID := c.Query("projectId"); projectID != "" {
		parsed, err := id.Parse(projectID)
		if err == nil {
			filter.ProjectID = &parsed
		}
	}

	if recorderID := c.Query("recorderId"); recorderID != "" {
		parsed, err := id.Parse(recorderID)
		if err == nil {
			filter.RecorderID = &parsed
		}
	}

	if from := c.Query("from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &parsed
		}
	}

	if to := c.Query("to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &parsed
		}
	}

	movements, err := h.service.Movements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.MovementResponse, len(movements))
	for i, m := range movements {
		items[i] = dto.FromMovement(m)
	}

	h.OK(c, gin.H{"items": items})
}
