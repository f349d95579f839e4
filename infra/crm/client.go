package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"

	"github.com/scrambledgregs/fleet-sub001/infra/logger"
)

// Config holds connection settings for the CRM/scheduling backend.
type Config struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	// TimeoutMS bounds each request; RetryCount retries transient failures.
	TimeoutMS  int `json:"timeout_ms"`
	RetryCount int `json:"retry_count"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 10000
	}
	if c.RetryCount < 0 {
		c.RetryCount = 0
	}
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("crm: base url is required")
	}
	return nil
}

// Client performs booking writes against the CRM HTTP API. It implements
// dispatch.BookingClient. Writes are not transactional on the CRM side, so
// each call is surfaced individually and the caller decides how to react to
// partial failures.
type Client struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
	log     logger.Logger
}

// NewClient creates a CRM client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	cli := httpclient.NewClient(
		httpclient.WithHTTPTimeout(timeout),
		httpclient.WithRetryCount(cfg.RetryCount),
		httpclient.WithRetrier(heimdall.NewRetrier(heimdall.NewConstantBackoff(100*time.Millisecond, 500*time.Millisecond))),
	)
	return &Client{client: cli, baseURL: cfg.BaseURL, apiKey: cfg.APIKey, log: logger.New("crm")}, nil
}

type assignRequest struct {
	TechID string `json:"tech_id"`
}

type windowRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type noteRequest struct {
	Text string `json:"text"`
}

// AssignTechnician sets the assigned technician on a job.
func (c *Client) AssignTechnician(ctx context.Context, jobID, techID string) error {
	return c.post(ctx, fmt.Sprintf("/v1/jobs/%s/assignment", jobID), assignRequest{TechID: techID})
}

// ConfirmWindow confirms the scheduled window on a job.
func (c *Client) ConfirmWindow(ctx context.Context, jobID string, start, end time.Time) error {
	return c.post(ctx, fmt.Sprintf("/v1/jobs/%s/window", jobID), windowRequest{Start: start, End: end})
}

// AppendNote attaches a free-form note to a job.
func (c *Client) AppendNote(ctx context.Context, jobID, text string) error {
	return c.post(ctx, fmt.Sprintf("/v1/jobs/%s/notes", jobID), noteRequest{Text: text})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("crm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("crm: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Errorf("crm write %s returned %d", path, resp.StatusCode)
		return fmt.Errorf("crm: %s returned %d: %s", path, resp.StatusCode, string(b))
	}
	return nil
}
