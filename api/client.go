package api

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

const (
	defaultTimeout = 30 * time.Second
	defaultAPIPath = "/w/api.php"
	userAgent      = "wtx (+https://github.com/openwikitools/wtx)"
)

// Client is a MediaWiki Action API client.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the given wiki server, e.g.
// "https://en.wikipedia.org". A URL already ending in "api.php" is
// used as the endpoint unchanged.
func NewClient(serverURL string) *Client {
	endpoint := strings.TrimSuffix(serverURL, "/")
	if !strings.HasSuffix(endpoint, "api.php") {
		endpoint += defaultAPIPath
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// get executes an API request and returns the response body. The
// format parameters are added here; callers supply only the action
// parameters.
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	// the API reports errors in the body with status 200
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return nil, envelope.Error
	}

	return body, nil
}
