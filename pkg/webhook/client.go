// Package webhook dispatches search and duplicate-deletion requests to the
// automation endpoints (n8n / Apps Script) that front the lead sheet.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leads-cli/internal/resilience"
)

// Client talks to the search and deletion webhooks.
type Client interface {
	// Search posts a query and returns whatever row shape the endpoint
	// responded with, normalized into a SearchResult.
	Search(ctx context.Context, query, email string) (*SearchResult, error)
	// DeleteDuplicates asks the deletion endpoint to remove the given sheet
	// rows and returns the human-readable status it echoed back.
	DeleteDuplicates(ctx context.Context, req DeleteDuplicatesRequest) (string, error)
}

// SearchResult carries the endpoint's response in exactly one of three
// forms: structured leads plus rows, bare rows, or raw CSV text.
type SearchResult struct {
	Leads []map[string]any
	Rows  []map[string]any
	CSV   string
}

// DeleteDuplicatesRequest identifies the sheet rows to delete remotely.
type DeleteDuplicatesRequest struct {
	SheetID    string           `json:"sheetId"`
	SheetName  string           `json:"sheetName"`
	Duplicates []map[string]any `json:"duplicates"`
}

// Option configures the webhook client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithDeleteURL sets the duplicate-deletion endpoint. Leaving it unset
// disables DeleteDuplicates.
func WithDeleteURL(u string) Option {
	return func(c *httpClient) {
		c.deleteURL = u
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	searchURL string
	deleteURL string
	http      *http.Client
	retry     resilience.RetryConfig
}

// NewClient creates a webhook client for the given search endpoint.
func NewClient(searchURL string, opts ...Option) Client {
	c := &httpClient{
		searchURL: searchURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query, email string) (*SearchResult, error) {
	payload := map[string]string{"query": query, "email": email}
	body, err := c.post(ctx, c.searchURL, payload)
	if err != nil {
		return nil, eris.Wrap(err, "webhook: search dispatch")
	}
	return decodeSearchBody(body), nil
}

// decodeSearchBody accepts the four response shapes the automation backends
// produce: {leads, sheetData}, {sheetRows}, a bare array, or raw CSV text.
func decodeSearchBody(body []byte) *SearchResult {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &SearchResult{}
	}

	switch trimmed[0] {
	case '{':
		var obj struct {
			Leads     []map[string]any `json:"leads"`
			SheetData []map[string]any `json:"sheetData"`
			SheetRows []map[string]any `json:"sheetRows"`
		}
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			rows := obj.SheetData
			if rows == nil {
				rows = obj.SheetRows
			}
			return &SearchResult{Leads: obj.Leads, Rows: rows}
		}
	case '[':
		var rows []map[string]any
		if err := json.Unmarshal(trimmed, &rows); err == nil {
			return &SearchResult{Rows: rows}
		}
	}

	// Not JSON: treat as delimited text for the caller to parse.
	return &SearchResult{CSV: string(body)}
}

func (c *httpClient) DeleteDuplicates(ctx context.Context, req DeleteDuplicatesRequest) (string, error) {
	if c.deleteURL == "" {
		return "", eris.New("webhook: no duplicate-deletion URL configured")
	}

	body, err := c.post(ctx, c.deleteURL, req)
	if err != nil {
		return "", eris.Wrap(err, "webhook: delete duplicates")
	}

	var res struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &res); err != nil {
		return "", nil
	}
	if res.Message != "" {
		return res.Message, nil
	}
	return res.Status, nil
}

// post dispatches a JSON payload. Dispatches are not idempotent (a search
// appends rows, a deletion removes them), so only connect-level failures
// where the request never reached the endpoint are retried; any HTTP
// response, success or not, settles the attempt.
func (c *httpClient) post(ctx context.Context, url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "webhook: marshal payload")
	}

	var body []byte
	err = resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return eris.Wrap(err, "webhook: create request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "webhook: post")
		}
		defer resp.Body.Close() //nolint:errcheck

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "webhook: read response body")
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return eris.Errorf("webhook: status %d: %s", resp.StatusCode, string(b))
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
