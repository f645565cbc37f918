package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/a7medmo7amady/trello/internal/models"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Client is an HTTP implementation of Store talking to a trello-sync server.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

var _ Store = (*Client)(nil)

// NewClient creates a client with a 30s request timeout.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck verifies server reachability.
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, "GET", "/healthz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// pushRequest is the body for POST /v1/board/changes.
type pushRequest struct {
	Changes []models.SyncQueueEntry `json:"changes"`
}

// PullSnapshot fetches the remote board from GET /v1/board/snapshot.
func (c *Client) PullSnapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.do(ctx, "GET", "/v1/board/snapshot", nil, &snap); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// PushChanges replays a batch of queue entries on the server.
func (c *Client) PushChanges(ctx context.Context, batch []models.SyncQueueEntry) (PushResult, error) {
	var result PushResult
	if err := c.do(ctx, "POST", "/v1/board/changes", pushRequest{Changes: batch}, &result); err != nil {
		return PushResult{}, err
	}
	return result, nil
}

// PushSnapshot overwrites the remote board wholesale via PUT /v1/board/snapshot.
func (c *Client) PushSnapshot(ctx context.Context, snap models.Snapshot) error {
	return c.do(ctx, "PUT", "/v1/board/snapshot", snap, nil)
}

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code != "" {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
			case http.StatusNotFound:
				return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
			default:
				return &apiErr
			}
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
