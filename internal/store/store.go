// Package store persists raw events, daily aggregates, page records, and
// the tiering summary behind a driver-neutral interface.
package store

import (
	"context"

	"github.com/seopulse/seopulse/internal/model"
)

// MaxBatchSize is the hard cap on documents per batched write. Callers of
// InsertRawEvents must respect it; UpsertPages chunks internally.
const MaxBatchSize = 450

// Store is the persistence interface for the analytics pipeline. Document
// identity is deterministic — aggregates are keyed (site, date), pages
// (site, normalized URL), tiering stats by site — so re-runs overwrite
// rather than duplicate.
type Store interface {
	// Raw events (append-only)
	InsertRawEvents(ctx context.Context, events []model.RawAnalyticsEvent) error
	ListRawEvents(ctx context.Context, site, date string) ([]model.RawAnalyticsEvent, error)
	ListPageEvents(ctx context.Context, site, pageID, startDate, endDate string) ([]model.RawAnalyticsEvent, error)

	// Daily aggregates (overwrite by (site, date))
	UpsertDailyAggregate(ctx context.Context, agg *model.DailyAggregate) error
	GetDailyAggregate(ctx context.Context, site, date string) (*model.DailyAggregate, error)
	ListDailyAggregates(ctx context.Context, site, startDate, endDate string) ([]model.DailyAggregate, error)

	// Pages (update by (site, normalized URL))
	ListPages(ctx context.Context, site string) ([]model.PageRecord, error)
	UpsertPages(ctx context.Context, pages []model.PageRecord) error

	// Tiering summary (singleton per site)
	SaveTieringStats(ctx context.Context, stats *model.TieringStats) error
	GetTieringStats(ctx context.Context, site string) (*model.TieringStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// chunk splits items into slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = MaxBatchSize
	}
	var out [][]T
	for len(items) > 0 {
		n := size
		if len(items) < n {
			n = len(items)
		}
		out = append(out, items[:n])
		items = items[n:]
	}
	return out
}
