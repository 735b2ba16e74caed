package health

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers health, stats and Prometheus routes
func RegisterRoutes(e *echo.Echo, h *Handler, s *StatsHandler) {
	e.GET("/health", h.Health)
	e.GET("/healthz", h.Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/api/stats", s.Stats)
}
