package tiering

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seopulse/seopulse/internal/analysis"
	"github.com/seopulse/seopulse/internal/model"
	"github.com/seopulse/seopulse/internal/store"
)

// Engine runs the per-page tier analysis. Pages are analyzed by a
// bounded worker pool; a failure on one page is recorded and skipped
// without aborting the run.
type Engine struct {
	store store.Store
	cfg   AnalysisConfig
	now   func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the engine's notion of now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a tiering engine with the given analysis configuration.
func New(st store.Store, cfg AnalysisConfig, opts ...Option) *Engine {
	e := &Engine{
		store: st,
		cfg:   cfg.normalized(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run classifies every tracked page for the site and persists the
// updated records plus a TieringStats summary. Per-page failures are
// collected into the report; only failures outside the page loop (page
// listing, final writes) fail the run.
func (e *Engine) Run(ctx context.Context, site string) (*RunReport, error) {
	if site == "" {
		return nil, eris.New("tiering: site is required")
	}

	started := e.now()
	pages, err := e.store.ListPages(ctx, site)
	if err != nil {
		return nil, eris.Wrapf(err, "tiering: list pages for %s", site)
	}

	recent, baseline := e.cfg.windows(started)
	zap.L().Info("tiering: run started",
		zap.String("site", site),
		zap.Int("pages", len(pages)),
		zap.String("recent", recent.period()),
		zap.String("baseline", baseline.period()),
	)

	var mu sync.Mutex
	updated := make([]model.PageRecord, 0, len(pages))
	var skipped []SkippedPage

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for _, page := range pages {
		g.Go(func() error {
			rec, err := e.analyzePage(gctx, page, recent, baseline, started)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				zap.L().Warn("tiering: page skipped",
					zap.String("site", site),
					zap.String("url", page.URL),
					zap.Error(err),
				)
				skipped = append(skipped, SkippedPage{URL: page.URL, Reason: err.Error()})
				return nil
			}
			updated = append(updated, *rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "tiering: worker pool")
	}

	if len(updated) > 0 {
		if err := e.store.UpsertPages(ctx, updated); err != nil {
			return nil, eris.Wrapf(err, "tiering: write %d page records", len(updated))
		}
	}

	distribution := make(map[model.Tier]int)
	for _, rec := range updated {
		distribution[rec.PerformanceTier]++
	}

	stats := &model.TieringStats{
		Site:                site,
		LastRun:             started,
		TotalPagesProcessed: len(updated),
		TierDistribution:    distribution,
		AnalysisConfig:      e.cfg,
	}
	if err := e.store.SaveTieringStats(ctx, stats); err != nil {
		return nil, eris.Wrapf(err, "tiering: write stats for %s", site)
	}

	report := &RunReport{
		Site:         site,
		StartedAt:    started,
		DurationMs:   e.now().Sub(started).Milliseconds(),
		Processed:    len(updated),
		Skipped:      skipped,
		Distribution: distribution,
	}
	zap.L().Info("tiering: run complete",
		zap.String("site", site),
		zap.Int("processed", report.Processed),
		zap.Int("skipped", len(skipped)),
		zap.Int64("durationMs", report.DurationMs),
	)
	return report, nil
}

// analyzePage computes both windows, fits the trend, scores, and
// classifies a single page. It returns an updated copy of the record.
func (e *Engine) analyzePage(ctx context.Context, page model.PageRecord, recent, baseline dateRange, runAt time.Time) (*model.PageRecord, error) {
	recentEvents, err := e.store.ListPageEvents(ctx, page.Site, page.NormalizedID, recent.startDate(), recent.endDate())
	if err != nil {
		return nil, eris.Wrap(err, "recent window query")
	}
	baselineEvents, err := e.store.ListPageEvents(ctx, page.Site, page.NormalizedID, baseline.startDate(), baseline.endDate())
	if err != nil {
		return nil, eris.Wrap(err, "baseline window query")
	}

	recentMetrics := buildMetrics(recentEvents, recent)
	baselineMetrics := buildMetrics(baselineEvents, baseline)

	series := make([]float64, len(recentMetrics.DataPoints))
	for i, v := range recentMetrics.DataPoints {
		series[i] = float64(v)
	}
	trend := analysis.Trend(series)

	metrics := &model.PageMetrics{
		Recent:   recentMetrics,
		Baseline: baselineMetrics,
		KPIs:     computeKPIs(recentMetrics, baselineMetrics, trend.RSquared),
	}

	score := performanceScore(recentMetrics, metrics.KPIs, trend, e.cfg.Benchmarks)
	verdict := classify(score, metrics, trend, e.cfg.Benchmarks)

	page.PerformanceTier = verdict.Tier
	page.PerformanceScore = score
	page.PerformancePriority = verdict.Priority
	page.Reasoning = verdict.Reasoning
	page.MarketingAction = verdict.MarketingAction
	page.TechnicalAction = verdict.TechnicalAction
	page.ExpectedImpact = verdict.ExpectedImpact
	page.Timeframe = verdict.Timeframe
	page.Confidence = verdict.Confidence
	page.Metrics = metrics
	page.LastTieringRun = runAt
	return &page, nil
}
