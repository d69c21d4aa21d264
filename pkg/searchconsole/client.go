// Package searchconsole is a minimal client for a Search Console style
// search-performance query API.
package searchconsole

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://searchanalytics.googleapis.com/v1"

// MaxRowLimit is the largest row count the API returns per request.
const MaxRowLimit = 25000

// Client performs search-performance query API operations.
type Client interface {
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)
}

// QueryRequest describes one paginated query against the performance API.
// Dates are inclusive YYYY-MM-DD. Keys in each response row follow the
// order of Dimensions.
type QueryRequest struct {
	SiteURL    string   `json:"siteUrl"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	SearchType string   `json:"searchType,omitempty"`
	RowLimit   int      `json:"rowLimit"`
	StartRow   int      `json:"startRow"`
}

// Row is one performance record. Clicks and impressions arrive as floats
// on the wire even though they are counts.
type Row struct {
	Keys        []string `json:"keys"`
	Clicks      float64  `json:"clicks"`
	Impressions float64  `json:"impressions"`
	Ctr         float64  `json:"ctr"`
	Position    float64  `json:"position"`
}

// QueryResponse is the response payload for a performance query.
type QueryResponse struct {
	Rows []Row `json:"rows"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithQPS caps the request rate. Pagination is strictly sequential, so a
// per-request limiter is enough to stay inside the API quota.
func WithQPS(qps float64) Option {
	return func(c *httpClient) {
		if qps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(qps), 1)
		}
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a query API client authenticated with a bearer token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Query(ctx context.Context, qr QueryRequest) (*QueryResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "searchconsole: rate limit wait")
	}

	body, err := json.Marshal(qr)
	if err != nil {
		return nil, eris.Wrap(err, "searchconsole: marshal request")
	}

	endpoint := c.baseURL + "/sites/" + url.PathEscape(qr.SiteURL) + "/searchAnalytics/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "searchconsole: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "searchconsole: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "searchconsole: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("searchconsole: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result QueryResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "searchconsole: unmarshal response")
	}

	return &result, nil
}
