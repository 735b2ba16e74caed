package health

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/Cloutiere/mermaid/internal/version"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles health check requests
type Handler struct {
	db      Pinger
	startAt time.Time
}

// NewHandler creates a new health handler
func NewHandler(db Pinger) *Handler {
	return &Handler{
		db:      db,
		startAt: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health returns the overall service health
// GET /health
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	db := Check{Status: "healthy"}
	if err := h.db.Ping(ctx); err != nil {
		db = Check{Status: "unhealthy", Message: err.Error()}
	}

	statusCode := http.StatusOK
	if db.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, HealthResponse{
		Status:    db.Status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startAt).String(),
		Version:   version.String(),
		Checks:    map[string]Check{"database": db},
	})
}

// Healthz returns a simple liveness answer
// GET /healthz
func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// StatsHandler reports how much narrative data the service holds.
type StatsHandler struct {
	db bun.IDB
}

func NewStatsHandler(db bun.IDB) *StatsHandler {
	return &StatsHandler{db: db}
}

// Stats is the row count per narrative table.
type Stats struct {
	Projects  int64 `json:"projects" bun:"projects"`
	Graphs    int64 `json:"graphs" bun:"graphs"`
	Nodes     int64 `json:"nodes" bun:"nodes"`
	Edges     int64 `json:"edges" bun:"edges"`
	Subgraphs int64 `json:"subgraphs" bun:"subgraphs"`
	Styles    int64 `json:"styles" bun:"styles"`
}

// Stats returns row counts for the narrative schema
// GET /api/stats
func (h *StatsHandler) Stats(c echo.Context) error {
	var stats Stats
	err := h.db.NewRaw(`
		SELECT
			(SELECT COUNT(*) FROM narrative.projects)   AS projects,
			(SELECT COUNT(*) FROM narrative.graphs)     AS graphs,
			(SELECT COUNT(*) FROM narrative.nodes)      AS nodes,
			(SELECT COUNT(*) FROM narrative.edges)      AS edges,
			(SELECT COUNT(*) FROM narrative.subgraphs)  AS subgraphs,
			(SELECT COUNT(*) FROM narrative.style_defs) AS styles
	`).Scan(c.Request().Context(), &stats)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
