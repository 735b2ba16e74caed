package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Cloutiere/mermaid/internal/config"
	"github.com/Cloutiere/mermaid/pkg/apperror"
)

func newTestEcho() *echo.Echo {
	cfg := &config.Config{
		CORSOrigins: []string{"*"},
		Diagram:     config.DiagramConfig{MaxSourceBytes: 64},
	}
	return NewEcho(EchoParams{Config: cfg, Log: slog.Default()})
}

func TestNewEcho_ErrorEnvelope(t *testing.T) {
	e := newTestEcho()
	e.GET("/api/graphs/:id", func(c echo.Context) error {
		return apperror.ErrGraphNotFound
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/graphs/7/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"graph_not_found","message":"Graph not found"}}`, rec.Body.String())
}

func TestNewEcho_BodyLimit(t *testing.T) {
	e := newTestEcho()
	e.PUT("/api/graphs/:id/diagram", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	small := httptest.NewRequest(http.MethodPut, "/api/graphs/1/diagram", strings.NewReader(`{"code":"graph TD"}`))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, small)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	large := httptest.NewRequest(http.MethodPut, "/api/graphs/1/diagram", strings.NewReader(strings.Repeat("x", 128)))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, large)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestNewEcho_RecoversPanics(t *testing.T) {
	e := newTestEcho()
	e.GET("/boom", func(c echo.Context) error {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestNewEcho_Tracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	cfg := &config.Config{
		CORSOrigins: []string{"*"},
		Diagram:     config.DiagramConfig{MaxSourceBytes: 64},
		Otel:        config.OtelConfig{ExporterEndpoint: "http://localhost:4318", ServiceName: "narrative-test"},
	}
	e := NewEcho(EchoParams{Config: cfg, Log: slog.Default()})
	e.GET("/api/graphs/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, rec.Ended(), "health checks are not traced")

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/graphs/3", nil))
	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Name(), "/api/graphs/:id")
}

func TestNewEcho_TracingDisabled(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	e := newTestEcho()
	e.GET("/api/graphs/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/graphs/3", nil))
	assert.Empty(t, rec.Ended())
}
