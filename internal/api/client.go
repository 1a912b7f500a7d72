package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/westapp/estatehub-core/internal/auth"
	"github.com/westapp/estatehub-core/internal/infrastructure/logging"
)

// SessionState is the slice of the session manager the client needs:
// the current token, and the forced-teardown hook for 401 responses.
type SessionState interface {
	AuthToken() string
	Invalidate(ctx context.Context) error
}

// Client issues authenticated JSON requests against the API gateway.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions SessionState
	logger   *logging.Logger
}

// NewClient creates an API client bound to a session manager.
func NewClient(baseURL string, timeout time.Duration, sessions SessionState, logger *logging.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		sessions: sessions,
		logger:   logger.With("component", "api"),
	}
}

// Get fetches path and decodes the JSON response into out (may be nil).
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the response into out (may be nil).
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON and decodes the response into out (may be nil).
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE and decodes the response into out (may be nil).
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.sessions.AuthToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusUnauthorized {
		// The token is dead for every endpoint, not just this one.
		// Tear the session down before the caller sees the error.
		c.logger.Warn("request rejected as unauthorised",
			"method", method, "path", path, "request_id", requestID)
		if err := c.sessions.Invalidate(ctx); err != nil {
			c.logger.Error("forced teardown failed", "error", err)
		}
		return auth.ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// readError extracts the message field from a failure body, if any.
func readError(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)) //nolint:errcheck
	_ = json.Unmarshal(body, &payload)                     //nolint:errcheck // message is best-effort
	return &Error{Status: resp.StatusCode, Message: payload.Message}
}
