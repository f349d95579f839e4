package eta

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

	"github.com/scrambledgregs/fleet-sub001/core/model"
)

// Config holds HTTP ETA provider settings.
type Config struct {
	// BaseURL of the routing service; empty selects the offline haversine
	// estimator instead.
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	// TimeoutMS bounds each request; RetryCount retries transient failures.
	TimeoutMS  int `json:"timeout_ms"`
	RetryCount int `json:"retry_count"`
	// SpeedKmh tunes the haversine fallback.
	SpeedKmh float64 `json:"speed_kmh"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 5000
	}
	if c.RetryCount < 0 {
		c.RetryCount = 0
	}
	if c.SpeedKmh <= 0 {
		c.SpeedKmh = DefaultSpeedKmh
	}
}

// HTTPProvider queries a routing service for point-to-point travel time.
// Transient failures are retried with constant backoff by the underlying
// client; what still fails is surfaced to the engine, which excludes the
// affected positions rather than treating them as free travel.
type HTTPProvider struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
}

type travelTimeRequest struct {
	From model.GeoPoint `json:"from"`
	To   model.GeoPoint `json:"to"`
}

type travelTimeResponse struct {
	Minutes float64 `json:"minutes"`
}

// NewHTTPProvider creates a provider for the given service.
func NewHTTPProvider(cfg Config) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("eta: base url is required")
	}
	cfg.SetDefaults()
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(timeout),
		httpclient.WithRetryCount(cfg.RetryCount),
		httpclient.WithRetrier(heimdall.NewRetrier(heimdall.NewConstantBackoff(100*time.Millisecond, 500*time.Millisecond))),
	)
	return &HTTPProvider{client: client, baseURL: cfg.BaseURL, apiKey: cfg.APIKey}, nil
}

// EstimateTravelMinutes implements eta.Provider.
func (p *HTTPProvider) EstimateTravelMinutes(ctx context.Context, from, to model.GeoPoint) (float64, error) {
	body, err := json.Marshal(travelTimeRequest{From: from, To: to})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/travel-time", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("eta: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", p.apiKey)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("eta: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("eta: service returned %d: %s", resp.StatusCode, string(b))
	}
	var out travelTimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("eta: decode response: %w", err)
	}
	if out.Minutes < 0 {
		return 0, fmt.Errorf("eta: negative travel time %f", out.Minutes)
	}
	return out.Minutes, nil
}
