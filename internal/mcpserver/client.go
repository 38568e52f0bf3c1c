package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

// Config holds the configuration for connecting to the xScout dashboard.
type Config struct {
	APIURL      string // Base URL, e.g. "http://localhost:8080"
	AdminSecret string // Optional, unlocks the roster admin tools
}

// DashboardClient is a pure HTTP client for the xScout dashboard API.
type DashboardClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewDashboardClient creates a new client for the dashboard.
func NewDashboardClient(cfg Config) *DashboardClient {
	return &DashboardClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the dashboard.
type apiError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the dashboard and returns the response body.
func (c *DashboardClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.cfg.AdminSecret != "" {
		req.Header.Set("X-Admin-Secret", c.cfg.AdminSecret)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// sampleEnvelope is the {"status","data"} wrapper the read endpoints use.
type sampleEnvelope struct {
	Status string              `json:"status"`
	Data   []*telemetry.Sample `json:"data"`
}

// LatestSamples returns every student's newest sample.
func (c *DashboardClient) LatestSamples(ctx context.Context) ([]*telemetry.Sample, error) {
	raw, err := c.doRequest(ctx, http.MethodGet, "/api/telemetry", nil, nil)
	if err != nil {
		return nil, err
	}

	var env sampleEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode telemetry: %w", err)
	}
	return env.Data, nil
}

// History returns one student's series, oldest first.
func (c *DashboardClient) History(ctx context.Context, user string, limit int) ([]*telemetry.Sample, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	raw, err := c.doRequest(ctx, http.MethodGet, "/api/history/"+url.PathEscape(user), q, nil)
	if err != nil {
		return nil, err
	}

	var env sampleEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return env.Data, nil
}

// Verify checks a student id against the roster.
func (c *DashboardClient) Verify(ctx context.Context, studentID string) (bool, string, error) {
	raw, err := c.doRequest(ctx, http.MethodPost, "/auth/verify", nil, map[string]string{
		"student_id": studentID,
	})
	if err != nil {
		return false, "", err
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return false, "", fmt.Errorf("decode verify response: %w", err)
	}
	return resp.Success, resp.Message, nil
}

// AddStudent puts an id on the roster. Requires the admin secret.
func (c *DashboardClient) AddStudent(ctx context.Context, id, name string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, "/api/admin/students", nil, map[string]string{
		"id":   id,
		"name": name,
	})
}
