// Package client implements the HTTP persistence gateway consumed by the
// schedule editor. It is a thin boundary: two calls, no retries, no caching.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/tracksync/tracksync/internal/pkg/logs"
	"github.com/tracksync/tracksync/internal/schedule"
)

const (
	defaultTimeout = 30 * time.Second
	schedulePath   = "/api/v1/schedule/"
	userAgent      = "tracksync/1.0"
	maxBodyMiB     = 1
)

// Client talks to the schedule service over HTTP.
type Client struct {
	baseURL string
	token   string
	hc      *http.Client
}

var _ schedule.Gateway = (*Client)(nil)

// New creates a gateway client for the given base URL. The token, when
// non-empty, is sent as a bearer credential.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		hc:      &http.Client{Timeout: defaultTimeout},
	}
}

// FetchSchedule performs the idempotent read of the current schedule.
func (c *Client) FetchSchedule(ctx context.Context) (*schedule.Config, error) {
	return c.do(ctx, http.MethodGet, nil)
}

// UpdateSchedule replaces the schedule as a whole object and returns the
// server's canonical persisted view (with recomputed next_runs).
func (c *Client) UpdateSchedule(ctx context.Context, upd schedule.Update) (*schedule.Config, error) {
	body, err := sonic.Marshal(upd)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule update: %w", err)
	}
	return c.do(ctx, http.MethodPut, body)
}

func (c *Client) do(ctx context.Context, method string, body []byte) (*schedule.Config, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+schedulePath, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schedule request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyMiB*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	logs.CtxDebug(ctx, "[client] %s %s -> %d", method, schedulePath, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(method, resp.StatusCode, respBody)
	}

	var cfg schedule.Config
	if err := sonic.Unmarshal(respBody, &cfg); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	return &cfg, nil
}

// apiError prefers the server-supplied message and falls back to a generic
// one so the editor always has something presentable.
func apiError(method string, status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := sonic.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("%s", payload.Error)
	}
	if method == http.MethodPut {
		return fmt.Errorf("failed to update schedule (status %d)", status)
	}
	return fmt.Errorf("failed to fetch schedule (status %d)", status)
}
