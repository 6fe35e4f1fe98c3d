package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"alforqan/internal/queue"
)

// Client talks to a running daemon over its HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the daemon listening at addr. The address may
// be a bare host:port pair or a full URL.
func NewClient(addr, token string) *Client {
	base := strings.TrimSpace(addr)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Ping reports whether the daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var status DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) QueueList(ctx context.Context, statuses []string) ([]QueueJob, error) {
	path := "/api/queue"
	if len(statuses) > 0 {
		path += "?status=" + url.QueryEscape(strings.Join(statuses, ","))
	}
	var resp QueueListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (c *Client) QueueAdd(ctx context.Context, request AddJobRequest) (*QueueJob, error) {
	var resp QueueJobResponse
	if err := c.do(ctx, http.MethodPost, "/api/queue", request, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// QueueDescribe returns nil without error when the job does not exist.
func (c *Client) QueueDescribe(ctx context.Context, id int64) (*QueueJob, error) {
	var resp QueueJobResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/queue/%d", id), nil, &resp)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &resp.Job, nil
}

func (c *Client) QueueRemove(ctx context.Context, id int64) (bool, error) {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/queue/%d", id), nil, nil)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// QueueRetry resets one failed job. It returns 0 when the job exists but is
// not in a retryable state.
func (c *Client) QueueRetry(ctx context.Context, id int64) (int64, error) {
	var resp struct {
		Retried int64 `json:"retried"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/queue/%d/retry", id), nil, &resp)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return 0, nil
		}
		return 0, err
	}
	return resp.Retried, nil
}

func (c *Client) QueueRetryAll(ctx context.Context) (int64, error) {
	var resp struct {
		Retried int64 `json:"retried"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/queue/retry", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Retried, nil
}

func (c *Client) QueueClear(ctx context.Context, mode ClearMode) (int64, error) {
	var resp struct {
		Removed int64 `json:"removed"`
	}
	path := "/api/queue?mode=" + url.QueryEscape(string(mode))
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (c *Client) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	var resp struct {
		Total      int `json:"total"`
		Pending    int `json:"pending"`
		Processing int `json:"processing"`
		Failed     int `json:"failed"`
		Completed  int `json:"completed"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/queue/health", nil, &resp); err != nil {
		return queue.HealthSummary{}, err
	}
	return queue.HealthSummary{
		Total:      resp.Total,
		Pending:    resp.Pending,
		Processing: resp.Processing,
		Failed:     resp.Failed,
		Completed:  resp.Completed,
	}, nil
}

func (c *Client) Reciters(ctx context.Context, search string) ([]ReciterEntry, error) {
	path := "/api/reciters"
	if term := strings.TrimSpace(search); term != "" {
		path += "?search=" + url.QueryEscape(term)
	}
	var resp struct {
		Reciters []ReciterEntry `json:"reciters"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reciters, nil
}

func (c *Client) Gallery(ctx context.Context) ([]GalleryEntry, error) {
	var resp struct {
		Gallery []GalleryEntry `json:"gallery"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/gallery", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Gallery, nil
}

// Error carries the HTTP status and server-reported message of a failed call.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("daemon api: %s (HTTP %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("daemon api: HTTP %d", e.StatusCode)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("daemon api: no address configured")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return &Error{StatusCode: resp.StatusCode, Message: failure.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
