// Package gateway provides an HTTP client for the tasker gateway.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running tasker gateway.
type Client struct {
	baseURL string
	http    *http.Client
}

// Response is a raw gateway reply.
type Response struct {
	Status int
	RunID  string
	Body   []byte
}

// OK reports whether the gateway answered with a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Error is the gateway's failure body.
type Error struct {
	Message string `json:"error"`
	Kind    string `json:"kind"`
	State   string `json:"state,omitempty"`
}

// Decode parses the body as a gateway error. It returns nil for 2xx replies.
func (r *Response) Decode() *Error {
	if r.OK() {
		return nil
	}
	var e Error
	if err := json.Unmarshal(r.Body, &e); err != nil || e.Message == "" {
		return &Error{Message: strings.TrimSpace(string(r.Body)), Kind: http.StatusText(r.Status)}
	}
	return &e
}

// New creates a client for baseURL (e.g. http://127.0.0.1:8000).
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Run submits a task to POST /run.
func (c *Client) Run(ctx context.Context, task string) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/run", url.Values{"task": {task}})
}

// Read fetches a file through GET /read.
func (c *Client) Read(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/read", url.Values{"path": {path}})
}

// Health probes GET /api/health.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("gateway unhealthy: status %d", resp.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values) (*Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read response: %w", err)
	}
	return &Response{
		Status: resp.StatusCode,
		RunID:  resp.Header.Get("X-Run-ID"),
		Body:   body,
	}, nil
}
