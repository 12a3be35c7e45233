// Package salary estimates compensation for postings that do not list one,
// by calling an external prediction service.
package salary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/im-caveman/yagaami/internal/jobs"
)

// Config points the client at the prediction service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the salary prediction service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New validates the config and constructs a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("salary.base_url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type predictRequest struct {
	Title    string `json:"title"`
	Location string `json:"location"`
}

// Predict posts the title and location and returns the estimated range. The
// service owns the model; the payload it returns is decoded as-is.
func (c *Client) Predict(ctx context.Context, title, location string) (jobs.Estimate, error) {
	body, err := json.Marshal(predictRequest{Title: title, Location: location})
	if err != nil {
		return jobs.Estimate{}, fmt.Errorf("marshal predict request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return jobs.Estimate{}, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return jobs.Estimate{}, fmt.Errorf("call salary predictor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return jobs.Estimate{}, fmt.Errorf("salary predictor returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return jobs.Estimate{}, fmt.Errorf("read predict response: %w", err)
	}
	var estimate jobs.Estimate
	if err := json.Unmarshal(data, &estimate); err != nil {
		return jobs.Estimate{}, fmt.Errorf("decode predict response: %w", err)
	}
	return estimate, nil
}
