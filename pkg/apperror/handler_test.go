package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, method string, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	e := echo.New()
	handler := HTTPErrorHandler(slog.Default())

	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler(err, c)

	if rec.Body.Len() == 0 {
		return rec, nil
	}
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	errObj, ok := resp["error"].(map[string]any)
	require.True(t, ok, "response must carry an error object")
	return rec, errObj
}

func TestHTTPErrorHandler_AppError(t *testing.T) {
	rec, errObj := serve(t, http.MethodGet, NewBadRequest("invalid input"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", errObj["code"])
	assert.Equal(t, "invalid input", errObj["message"])
	assert.NotContains(t, errObj, "details")
}

func TestHTTPErrorHandler_SyncErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		wantCode string
	}{
		{"parse error", ErrParse.WithInternal(errors.New("line 1")), http.StatusBadRequest, "parse_error"},
		{"integrity", ErrIntegrity, http.StatusConflict, "integrity_conflict"},
		{"internal consistency", ErrInternalConsistency, http.StatusInternalServerError, "internal_consistency"},
		{"wrapped app error", fmt.Errorf("sync: %w", ErrGraphNotFound), http.StatusNotFound, "graph_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, errObj := serve(t, http.MethodPut, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.wantCode, errObj["code"])
		})
	}
}

func TestHTTPErrorHandler_Details(t *testing.T) {
	err := ErrParse.WithDetails(map[string]any{"line": 1})
	rec, errObj := serve(t, http.MethodPut, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	details, ok := errObj["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), details["line"])
}

func TestHTTPErrorHandler_EchoError_AllStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode string
	}{
		{"not_found", http.StatusNotFound, "not_found"},
		{"method_not_allowed", http.StatusMethodNotAllowed, "method_not_allowed"},
		{"bad_request", http.StatusBadRequest, "bad_request"},
		{"conflict", http.StatusConflict, "conflict"},
		{"unsupported_media_type", http.StatusUnsupportedMediaType, "unsupported_media_type"},
		{"unprocessable_entity", http.StatusUnprocessableEntity, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, errObj := serve(t, http.MethodGet, echo.NewHTTPError(tt.status, "test message"))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.wantCode, errObj["code"])
			assert.Equal(t, "test message", errObj["message"])
		})
	}
}

func TestHTTPErrorHandler_StructuredMessage(t *testing.T) {
	_, body := ToHTTPError(ErrConflict.WithMessage("style 'hot' already exists"))
	rec, errObj := serve(t, http.MethodPost, echo.NewHTTPError(http.StatusConflict, body))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errObj["code"])
	assert.Equal(t, "style 'hot' already exists", errObj["message"])
}

func TestHTTPErrorHandler_UnknownError(t *testing.T) {
	rec, errObj := serve(t, http.MethodGet, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", errObj["code"])
	assert.Equal(t, "An internal error occurred", errObj["message"])
}

func TestHTTPErrorHandler_HeadRequest(t *testing.T) {
	rec, errObj := serve(t, http.MethodHead, NewNotFound("graph", "123"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, errObj)
	assert.Zero(t, rec.Body.Len())
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	handler := HTTPErrorHandler(slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	c.Response().WriteHeader(http.StatusOK)
	_, _ = c.Response().Write([]byte("already written"))

	handler(NewBadRequest("should not appear"), c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already written", rec.Body.String())
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(ErrIntegrity, "integrity_conflict"))
	assert.True(t, IsCode(fmt.Errorf("wrap: %w", ErrParse.WithMessage("x")), "parse_error"))
	assert.False(t, IsCode(ErrIntegrity, "parse_error"))
	assert.False(t, IsCode(errors.New("plain"), "parse_error"))
	assert.False(t, IsCode(nil, "parse_error"))
}

func TestError_Copies(t *testing.T) {
	inner := errors.New("duplicate key value violates unique constraint")
	err := ErrIntegrity.WithDetails(map[string]any{"graph_id": 3}).WithInternal(inner)

	assert.Equal(t, "integrity_conflict", err.Code)
	assert.Equal(t, map[string]any{"graph_id": 3}, err.Details)
	assert.ErrorIs(t, err, inner)
	assert.Nil(t, ErrIntegrity.Internal, "the shared sentinel must not be mutated")
	assert.Contains(t, err.Error(), "integrity_conflict: Diagram conflicts with existing data")
}
