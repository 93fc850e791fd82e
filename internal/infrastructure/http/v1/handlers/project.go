package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"prorab/internal/core/apperror"
	"prorab/internal/core/appstate"
	"prorab/internal/core/id"
	"prorab/internal/domain"
	"prorab/internal/domain/financials"
	"prorab/internal/domain/projects"
	"prorab/internal/infrastructure/http/v1/dto"
)

const projectLookupKey = "projects:lookup"

// ProjectHandler handles HTTP requests for projects, including the
// per-project financial summary.
type ProjectHandler struct {
	*BaseHandler
	service    *projects.Service
	financials *financials.Service

	// state caches the lookup snapshot between requests; every project
	// mutation in this handler invalidates it.
	state *appstate.State
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(base *BaseHandler, service *projects.Service, fin *financials.Service, state *appstate.State) *ProjectHandler {
	return &ProjectHandler{BaseHandler: base, service: service, financials: fin, state: state}
}

// List handles GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := projects.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"
	filter.IncludeArchived = c.Query("includeArchived") == "true"

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromProject(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Lookup handles GET /projects/lookup - a cached id/code/name snapshot
// for dashboard dropdowns.
func (h *ProjectHandler) Lookup(c *gin.Context) {
	items, err := h.state.Get(c.Request.Context(), projectLookupKey, func(ctx context.Context) (any, error) {
		filter := projects.ListFilter{ListFilter: domain.DefaultListFilter()}
		filter.Limit = 1000

		result, err := h.service.List(ctx, filter)
		if err != nil {
			return nil, err
		}

		lookup := make([]dto.ProjectLookupItem, len(result.Items))
		for i, p := range result.Items {
			lookup[i] = dto.FromProjectLookup(p)
		}
		return lookup, nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items})
}

// Get handles GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), projectID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProject(p))
}

// Create handles POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.state.Invalidate(projectLookupKey)

	c.JSON(http.StatusCreated, dto.FromProject(p))
}

// Update handles PUT /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateProjectRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, projectID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(existing)

	if err := h.service.Update(ctx, existing); err != nil {
		h.Error(c, err)
		return
	}
	h.state.Invalidate(projectLookupKey)

	h.OK(c, dto.FromProject(existing))
}

// SetArchived handles POST /projects/:id/archive
func (h *ProjectHandler) SetArchived(c *gin.Context) {
	projectID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetArchivedRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Archive(c.Request.Context(), projectID, req.Archived); err != nil {
		h.Error(c, err)
		return
	}
	h.state.Invalidate(projectLookupKey)

	h.Success(c, "archive flag updated")
}

// SetDeletionMark handles POST /projects/:id/deletion-mark
func (h *ProjectHandler) SetDeletionMark(c *gin.Context) {
	projectID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(c.Request.Context(), projectID, req.DeletionMark); err != nil {
		h.Error(c, err)
		return
	}
	h.state.Invalidate(projectLookupKey)

	h.Success(c, "deletion mark updated")
}

// Financials handles GET /projects/:id/financials
func (h *ProjectHandler) Financials(c *gin.Context) {
	projectID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	summary, err := h.financials.Summarize(c.Request.Context(), projectID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSummary(summary))
}
