package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Cloutiere/mermaid/pkg/sdk/graphs"
)

// APIError is the error body returned by the server.
type APIError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	if line, ok := e.Details["line"]; ok {
		msg += fmt.Sprintf(" [line %v]", line)
	}
	return msg
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// Client talks to the graph endpoints of a narrative server.
type Client struct {
	http *resty.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	r := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: r}
}

// Export fetches the diagram code generated for a graph.
func (c *Client) Export(ctx context.Context, graphID int64) (string, error) {
	var apiErr errorEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(graphID, 10)).
		SetError(&apiErr).
		Get("/api/graphs/{id}/export")
	if err != nil {
		return "", fmt.Errorf("export request failed: %w", err)
	}
	if resp.IsError() {
		return "", responseError(resp, &apiErr)
	}
	return resp.String(), nil
}

// Sync replaces the graph's content with the given diagram code.
func (c *Client) Sync(ctx context.Context, graphID int64, code string) (*graphs.SyncResult, error) {
	var result graphs.SyncResult
	var apiErr errorEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(graphID, 10)).
		SetBody(graphs.DiagramRequest{Code: code}).
		SetResult(&result).
		SetError(&apiErr).
		Put("/api/graphs/{id}/diagram")
	if err != nil {
		return nil, fmt.Errorf("sync request failed: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp, &apiErr)
	}
	return &result, nil
}

func responseError(resp *resty.Response, env *errorEnvelope) error {
	e := env.Error
	e.Status = resp.StatusCode()
	if e.Code == "" {
		e.Code = "http_error"
		e.Message = strings.TrimSpace(resp.String())
	}
	return &e
}
