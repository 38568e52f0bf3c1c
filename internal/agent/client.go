// Package agent runs the monitoring session on a student machine.
//
// A session verifies its student id against the dashboard, then assembles a
// telemetry sample on a fixed cadence from the behavior classifier, the
// forensic collector, the project scanner and the tech stack detector, and
// submits it fire-and-forget so a slow network never stalls collection.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xscout-labs/xscout/internal/retry"
	"github.com/xscout-labs/xscout/internal/telemetry"
)

// Transient failures (connection refused, timeouts, 5xx) are retried briefly.
// A 4xx is the dashboard's verdict and is never retried.
const (
	maxAttempts = 3
	baseDelay   = 200 * time.Millisecond
)

// Client is a pure HTTP client for the dashboard API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a dashboard client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// doRequest posts JSON to the dashboard and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var raw json.RawMessage
	err := retry.Do(ctx, maxAttempts, baseDelay, func() error {
		var reqBody io.Reader
		if data != nil {
			reqBody = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return retry.Permanent(fmt.Errorf("create request: %w", err))
		}
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			var apiErr struct {
				Message string `json:"message"`
			}
			err := fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
				err = fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
			}
			if resp.StatusCode < 500 {
				return retry.Permanent(err)
			}
			return err
		}

		raw = json.RawMessage(respBody)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Verify checks the student id at session start. A denial is not an error;
// the message explains the outcome either way.
func (c *Client) Verify(ctx context.Context, studentID string) (bool, string, error) {
	raw, err := c.doRequest(ctx, http.MethodPost, "/auth/verify", map[string]string{
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

// SubmitSample posts one telemetry sample.
func (c *Client) SubmitSample(ctx context.Context, sample *telemetry.Sample) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/telemetry", sample)
	return err
}
