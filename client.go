package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIURL     = "https://monitoringapi.solaredge.com"
	defaultAPITimeout = 30 * time.Second

	// apiTimeLayout is the YYYY-MM-DD HH:MM:SS format the monitoring API expects
	apiTimeLayout = "2006-01-02 15:04:05"

	maxResponseBytes = 4 << 20
)

// Fetcher retrieves raw inverter telemetry for a time window
type Fetcher interface {
	FetchInverterData(ctx context.Context, siteID, inverterID string, start, end time.Time) ([]byte, error)
}

// MonitoringClient talks to the SolarEdge Monitoring API
type MonitoringClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewMonitoringClient creates a client for the given API base URL.
// An empty baseURL selects the public monitoring API.
func NewMonitoringClient(baseURL, apiKey string, timeout time.Duration) *MonitoringClient {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	return &MonitoringClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchInverterData retrieves the equipment data of one inverter between start and end
func (c *MonitoringClient) FetchInverterData(ctx context.Context, siteID, inverterID string, start, end time.Time) ([]byte, error) {
	query := url.Values{}
	query.Set("startTime", start.Format(apiTimeLayout))
	query.Set("endTime", end.Format(apiTimeLayout))
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}

	endpoint := fmt.Sprintf("%s/equipment/%s/%s/data?%s",
		c.baseURL, url.PathEscape(siteID), url.PathEscape(inverterID), query.Encode())
	return c.fetch(ctx, endpoint)
}

// fetch performs an HTTP GET request and returns the response body
func (c *MonitoringClient) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// the URL carries the API key, keep it out of the error
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL.Path, unwrapURLError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, req.URL.Path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", req.URL.Path, err)
	}
	return body, nil
}

func unwrapURLError(err error) error {
	if urlErr, ok := err.(*url.Error); ok {
		return urlErr.Err
	}
	return err
}
