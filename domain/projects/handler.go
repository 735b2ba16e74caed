package projects

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Cloutiere/mermaid/internal/server"
	"github.com/Cloutiere/mermaid/pkg/apperror"
)

// Handler handles HTTP requests for projects
type Handler struct {
	svc *Service
}

// NewHandler creates a new project handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List returns projects ordered by title
// GET /api/projects
// Query params: limit (1-500, default 100)
func (h *Handler) List(c echo.Context) error {
	limit := DefaultLimit
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	projects, err := h.svc.List(c.Request().Context(), limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, projects)
}

// Get returns a single project by ID
// GET /api/projects/:id
func (h *Handler) Get(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}

	project, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, project)
}

// Create creates a new project
// POST /api/projects
func (h *Handler) Create(c echo.Context) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	project, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, project)
}

// Update renames a project
// PATCH /api/projects/:id
func (h *Handler) Update(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	project, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, project)
}

// Delete deletes a project by ID
// DELETE /api/projects/:id
func (h *Handler) Delete(c echo.Context) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}
