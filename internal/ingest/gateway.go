// Package ingest pulls search-performance rows from the query API and
// lands them in the raw-event store.
package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/model"
	"github.com/seopulse/seopulse/internal/resilience"
	"github.com/seopulse/seopulse/internal/store"
	"github.com/seopulse/seopulse/pkg/searchconsole"
)

const dateLayout = "2006-01-02"

// defaultBatchSize keeps write batches under the store's hard cap.
const defaultBatchSize = 480

var fullDimensions = []string{"date", "query", "page", "device", "country"}

// Gateway paginates the search-performance query API for a date range and
// writes normalized rows to the raw-event store in bounded batches.
type Gateway struct {
	api       searchconsole.Client
	store     store.Store
	rowLimit  int
	batchSize int
	retry     resilience.RetryConfig
}

// Option configures the gateway.
type Option func(*Gateway)

// WithRowLimit overrides the per-request row limit (tests only).
func WithRowLimit(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.rowLimit = n
		}
	}
}

// WithBatchSize overrides the write batch size.
func WithBatchSize(n int) Option {
	return func(g *Gateway) {
		if n > 0 && n <= store.MaxBatchSize {
			g.batchSize = n
		}
	}
}

// WithRetry overrides the retry policy for API calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(g *Gateway) {
		g.retry = cfg
	}
}

// New creates an ingestion gateway.
func New(api searchconsole.Client, st store.Store, opts ...Option) *Gateway {
	g := &Gateway{
		api:       api,
		store:     st,
		rowLimit:  searchconsole.MaxRowLimit,
		batchSize: defaultBatchSize,
		retry:     resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Report summarizes one ingestion run. On success RowsWritten plus
// SkippedRows equals RowsFetched: nothing is dropped silently, and
// SkippedRows is zero unless the API returned malformed rows.
type Report struct {
	Site        string `json:"site"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	RowsFetched int    `json:"rows_fetched"`
	RowsWritten int    `json:"rows_written"`
	Batches     int    `json:"batches"`
	APIPages    int    `json:"api_pages"`
	SkippedRows int    `json:"skipped_rows"`
	DurationMs  int64  `json:"duration_ms"`
}

// Run ingests the inclusive [startDate, endDate] range for site. A
// non-empty searchType filters the query and adds the searchAppearance
// dimension. Batches are not atomic across each other: a failure after N
// of M batches leaves N batches durably written.
func (g *Gateway) Run(ctx context.Context, site, startDate, endDate, searchType string) (*Report, error) {
	if err := validateRange(site, startDate, endDate); err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("site", site),
		zap.String("start", startDate),
		zap.String("end", endDate),
	)
	log.Info("ingest: starting run")
	start := time.Now()

	dims := fullDimensions
	if searchType != "" {
		dims = append(append([]string{}, fullDimensions...), "searchAppearance")
	}

	retry := g.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("searchconsole", "query")
	}

	report := &Report{Site: site, StartDate: startDate, EndDate: endDate}
	buffer := make([]model.RawAnalyticsEvent, 0, g.batchSize)

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		if err := g.store.InsertRawEvents(ctx, buffer); err != nil {
			return eris.Wrap(err, "ingest: flush batch")
		}
		report.RowsWritten += len(buffer)
		report.Batches++
		buffer = buffer[:0]
		return nil
	}

	for startRow := 0; ; startRow += g.rowLimit {
		req := searchconsole.QueryRequest{
			SiteURL:    site,
			StartDate:  startDate,
			EndDate:    endDate,
			Dimensions: dims,
			SearchType: searchType,
			RowLimit:   g.rowLimit,
			StartRow:   startRow,
		}

		resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*searchconsole.QueryResponse, error) {
			return g.api.Query(ctx, req)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: query page at row %d", startRow)
		}
		report.APIPages++

		for _, row := range resp.Rows {
			ev, err := eventFromRow(site, row, dims)
			if err != nil {
				// Malformed rows are counted, logged, and dropped from the
				// write path; they still count as fetched.
				report.SkippedRows++
				log.Warn("ingest: skipping malformed row", zap.Error(err))
				continue
			}
			buffer = append(buffer, ev)
			if len(buffer) >= g.batchSize {
				if err := flush(); err != nil {
					return nil, err
				}
			}
		}
		report.RowsFetched += len(resp.Rows)

		// Pagination terminates on a short or empty page.
		if len(resp.Rows) < g.rowLimit {
			break
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	report.DurationMs = time.Since(start).Milliseconds()
	log.Info("ingest: run complete",
		zap.Int("rows_fetched", report.RowsFetched),
		zap.Int("rows_written", report.RowsWritten),
		zap.Int("batches", report.Batches),
		zap.Int("api_pages", report.APIPages),
		zap.Int64("duration_ms", report.DurationMs),
	)

	return report, nil
}

// eventFromRow maps an API row onto a raw event, normalizing the page URL.
// Key order matches the requested dimensions.
func eventFromRow(site string, row searchconsole.Row, dims []string) (model.RawAnalyticsEvent, error) {
	if len(row.Keys) < len(dims) {
		return model.RawAnalyticsEvent{}, eris.Errorf("ingest: row has %d keys, want %d", len(row.Keys), len(dims))
	}

	ev := model.RawAnalyticsEvent{
		Site:        site,
		Clicks:      int(row.Clicks),
		Impressions: int(row.Impressions),
		Position:    row.Position,
	}
	for i, dim := range dims {
		switch dim {
		case "date":
			ev.Date = row.Keys[i]
		case "query":
			ev.Query = row.Keys[i]
		case "page":
			normalized, err := NormalizeURL(row.Keys[i])
			if err != nil {
				return model.RawAnalyticsEvent{}, err
			}
			ev.Page = normalized
		case "device":
			ev.Device = row.Keys[i]
		case "country":
			ev.Country = row.Keys[i]
		case "searchAppearance":
			ev.SearchAppearance = row.Keys[i]
		}
	}
	return ev, nil
}

// validateRange fails fast on data-shape errors before any remote call.
func validateRange(site, startDate, endDate string) error {
	if site == "" {
		return eris.New("ingest: site is required")
	}
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return eris.Wrapf(err, "ingest: invalid start date %q", startDate)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return eris.Wrapf(err, "ingest: invalid end date %q", endDate)
	}
	if end.Before(start) {
		return eris.Errorf("ingest: end date %s before start date %s", endDate, startDate)
	}
	return nil
}
