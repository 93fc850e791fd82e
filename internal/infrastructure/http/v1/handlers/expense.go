package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prorab/internal/core/apperror"
	"prorab/internal/core/id"
	"prorab/internal/domain"
	"prorab/internal/domain/expenses"
	"prorab/internal/infrastructure/http/v1/dto"
)

// ExpenseHandler handles HTTP requests for taxed expenses.
type ExpenseHandler struct {
	*BaseHandler
	service *expenses.Service
}

// NewExpenseHandler creates a new expense handler.
func NewExpenseHandler(base *BaseHandler, service *expenses.Service) *ExpenseHandler {
	return &ExpenseHandler{BaseHandler: base, service: service}
}

// List handles GET /expenses
func (h *ExpenseHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := expenses.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"
	filter.Category = c.Query("category")
	filter.UnbilledOnly = c.Query("unbilledOnly") == "true"

	if projectID := c.Query("projectId"); projectID != "" {
		parsed, err := id.Parse(projectID)
		if err == nil {
			filter.ProjectID = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromExpense(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /expenses/:id
func (h *ExpenseHandler) Get(c *gin.Context) {
	expenseID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), expenseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromExpense(e))
}

// Create handles POST /expenses
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req dto.CreateExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	projectID, err := id.Parse(req.ProjectID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid project id").WithDetail("field", "projectId"))
		return
	}

	e := req.ToEntity(projectID)
	if err := h.service.Create(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromExpense(e))
}

// Update handles PUT /expenses/:id
func (h *ExpenseHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	expenseID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, expenseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(existing)

	if err := h.service.Update(ctx, existing); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromExpense(existing))
}

// RecordUnused handles POST /expenses/:id/unused
func (h *ExpenseHandler) RecordUnused(c *gin.Context) {
	expenseID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.RecordUnusedRequest
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.RecordUnused(c.Request.Context(), expenseID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromExpense(updated))
}

// SetDeletionMark handles POST /expenses/:id/deletion-mark
func (h *ExpenseHandler) SetDeletionMark(c *gin.Context) {
	expenseID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(c.Request.Context(), expenseID, req.DeletionMark); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "deletion mark updated")
}
