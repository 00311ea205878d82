// Package noaa fetches historical daily weather summaries from the NCEI
// access data service.
package noaa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultBaseURL = "https://www.ncei.noaa.gov/access/services/data/v1"
	DailySummaries = "daily-summaries"
)

// ErrMissingToken is returned before any request is made when no API token is configured.
var ErrMissingToken = errors.New("NOAA token not configured, set NOAA_TOKEN")

// Record is one row of the service response. Values are usually strings.
type Record map[string]any

// Client talks to the NCEI data service. Requests are not retried.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchDailySummaries returns the daily summaries of one station between
// start and end (YYYY-MM-DD, inclusive).
func (c *Client) FetchDailySummaries(ctx context.Context, station, start, end string) ([]Record, error) {
	return c.Fetch(ctx, DailySummaries, station, start, end)
}

// Fetch queries an arbitrary dataset for one station.
func (c *Client) Fetch(ctx context.Context, dataset, station, start, end string) ([]Record, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}

	params := url.Values{}
	params.Set("dataset", dataset)
	params.Set("stations", station)
	params.Set("startDate", start)
	params.Set("endDate", end)
	params.Set("format", "json")
	params.Set("includeAttributes", "false")
	params.Set("includeStationName", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch NOAA data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read NOAA response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode NOAA response: %w", err)
	}

	c.logger.Info("fetched NOAA data", "dataset", dataset, "station", station, "start", start, "end", end, "rows", len(records))
	return records, nil
}

// StatusError is a non-2xx response from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("NOAA service returned %d: %s", e.Code, e.Body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
