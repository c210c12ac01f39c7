// Package client is the plain-HTTP side of the engine API: health
// checks, listings, info lookups, edits, and file pulls. The
// streaming operations live in internal/stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// Client calls the engine's HTTP endpoints. All methods are safe for
// concurrent use.
type Client struct {
	BaseURL string
	APIKey  string
	Version string

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// New builds a client for the given engine.
func New(baseURL, apiKey, version string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Version: version,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError carries the server's message for a non-200 response.
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("engine returned status %d", e.StatusCode)
}

// do issues one request and decodes the JSON response into out (which
// may be nil). Non-200 responses become errors carrying the server's
// message when it sent one.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("X-Client-Type", "cli")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Message string `json:"message"`
		}
		// A malformed error body still surfaces as a status error.
		_ = json.Unmarshal(data, &envelope)
		return &apiError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("malformed response from server (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// messageOnly is the common envelope for endpoints that answer with a
// preformatted display string.
type messageOnly struct {
	Message string `json:"message"`
}

// HealthCheck verifies the engine is reachable and that this build is
// still acceptable. The returned message is shown either way.
func (c *Client) HealthCheck(ctx context.Context) (string, error) {
	payload := map[string]string{
		"package_version": c.Version,
		"os":              runtime.GOOS,
		"arch":            runtime.GOARCH,
	}
	var out messageOnly
	if err := c.do(ctx, http.MethodPost, "/health", nil, payload, &out); err != nil {
		var connErr *url.Error
		if errors.As(err, &connErr) {
			return "", fmt.Errorf("cannot reach the engine, check your internet connection: %w", err)
		}
		return "", err
	}
	return out.Message, nil
}

// Me fetches the current user's account summary.
func (c *Client) Me(ctx context.Context) (string, error) {
	var out messageOnly
	if err := c.do(ctx, http.MethodGet, "/me", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Dashboard returns the URL of the web dashboard, formatted for the
// caller's timezone.
func (c *Client) Dashboard(ctx context.Context) (string, error) {
	payload := map[string]string{
		"timezone": time.Now().Format("-0700"),
	}
	var out messageOnly
	if err := c.do(ctx, http.MethodPost, "/dashboard", nil, payload, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func orgQuery(org bool) url.Values {
	if !org {
		return nil
	}
	return url.Values{"org": []string{"true"}}
}
