// Package aggregate rolls raw events up into per-day site summaries.
package aggregate

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/model"
	"github.com/seopulse/seopulse/internal/store"
)

// Engine reads one date's raw events and writes a DailyAggregate with
// site-wide totals plus per-country and per-device breakdowns. Output
// identity is (site, date), so repeated runs overwrite rather than
// duplicate.
type Engine struct {
	store store.Store
}

// New creates an aggregation engine.
func New(st store.Store) *Engine {
	return &Engine{store: st}
}

// Run aggregates the given date in a single pass. When no events exist
// for the date, prior state is left untouched and a nil aggregate is
// returned; that is an intentional no-op, not an error.
func (e *Engine) Run(ctx context.Context, site, date string) (*model.DailyAggregate, error) {
	if site == "" {
		return nil, eris.New("aggregate: site is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, eris.Wrapf(err, "aggregate: invalid date %q", date)
	}

	events, err := e.store.ListRawEvents(ctx, site, date)
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: read events for %s", date)
	}
	if len(events) == 0 {
		zap.L().Debug("aggregate: no events for date, skipping write",
			zap.String("site", site),
			zap.String("date", date),
		)
		return nil, nil
	}

	var total accumulator
	byCountry := make(map[string]*accumulator)
	byDevice := make(map[string]*accumulator)

	for _, ev := range events {
		total.add(ev)
		accFor(byCountry, ev.Country).add(ev)
		accFor(byDevice, ev.Device).add(ev)
	}

	agg := &model.DailyAggregate{
		Site:                site,
		Date:                date,
		MetricsSummary:      total.summary(),
		AggregatesByCountry: summarize(byCountry),
		AggregatesByDevice:  summarize(byDevice),
		UpdatedAt:           time.Now().UTC(),
	}

	if err := e.store.UpsertDailyAggregate(ctx, agg); err != nil {
		return nil, eris.Wrapf(err, "aggregate: write aggregate for %s", date)
	}

	zap.L().Info("aggregate: date complete",
		zap.String("site", site),
		zap.String("date", date),
		zap.Int("events", len(events)),
		zap.Int("clicks", agg.TotalClicks),
		zap.Int("impressions", agg.TotalImpressions),
	)
	return agg, nil
}

// accumulator tracks running sums for one traffic slice. Position is
// impression-weighted.
type accumulator struct {
	clicks      int
	impressions int
	posWeight   float64
}

func (a *accumulator) add(ev model.RawAnalyticsEvent) {
	a.clicks += ev.Clicks
	a.impressions += ev.Impressions
	a.posWeight += ev.Position * float64(ev.Impressions)
}

func (a *accumulator) summary() model.MetricsSummary {
	denom := float64(a.impressions)
	if denom < 1 {
		denom = 1
	}
	return model.MetricsSummary{
		TotalClicks:      a.clicks,
		TotalImpressions: a.impressions,
		AverageCtr:       float64(a.clicks) / denom,
		AveragePosition:  a.posWeight / denom,
	}
}

func accFor(m map[string]*accumulator, k string) *accumulator {
	acc, ok := m[k]
	if !ok {
		acc = &accumulator{}
		m[k] = acc
	}
	return acc
}

func summarize(m map[string]*accumulator) map[string]model.MetricsSummary {
	out := make(map[string]model.MetricsSummary, len(m))
	for k, acc := range m {
		out[k] = acc.summary()
	}
	return out
}
