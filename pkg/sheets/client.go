// Package sheets fetches published Google-Sheets tabs as CSV and parses
// them into row maps.
package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leads-cli/internal/resilience"
)

// Client fetches sheet tabs by name.
type Client interface {
	// FetchTable downloads a tab via the gviz CSV export and parses it.
	FetchTable(ctx context.Context, sheetName string) (Table, error)
}

// Option configures the sheets client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithRateLimit caps fetches at n per second. The gviz endpoint throttles
// aggressively, so the default stays well under its quota.
func WithRateLimit(n float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(n), 1)
	}
}

type httpClient struct {
	sheetID string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a client for one spreadsheet.
func NewClient(sheetID string, opts ...Option) Client {
	c := &httpClient{
		sheetID: sheetID,
		baseURL: "https://docs.google.com/spreadsheets/d",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) FetchTable(ctx context.Context, sheetName string) (Table, error) {
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Table{}, eris.Wrap(err, "sheets: rate limit wait")
	}

	reqURL := fmt.Sprintf("%s/%s/gviz/tq?tqx=out:csv&sheet=%s",
		c.baseURL, c.sheetID, url.QueryEscape(sheetName))

	var body []byte
	err := resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return eris.Wrap(err, "sheets: create request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrapf(err, "sheets: fetch tab %s", sheetName)
		}
		defer resp.Body.Close() //nolint:errcheck

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "sheets: read response body")
		}

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(
				eris.Errorf("sheets: status %d fetching tab %s", resp.StatusCode, sheetName),
				resp.StatusCode,
			)
		}
		if resp.StatusCode != http.StatusOK {
			return eris.Errorf("sheets: unexpected status %d fetching tab %s", resp.StatusCode, sheetName)
		}

		body = data
		return nil
	})
	if err != nil {
		return Table{}, err
	}

	return ParseCSV(string(body)), nil
}
