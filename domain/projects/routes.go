package projects

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers project routes
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api/projects")

	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
