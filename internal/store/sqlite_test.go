package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seopulse/seopulse/internal/model"
)

const testSite = "sc-domain:acme.com"

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testEvent(date, page string, clicks int) model.RawAnalyticsEvent {
	return model.RawAnalyticsEvent{
		Site:        testSite,
		Date:        date,
		Query:       "widgets",
		Page:        page,
		Device:      "MOBILE",
		Country:     "usa",
		Clicks:      clicks,
		Impressions: clicks * 20,
		Position:    7.5,
	}
}

func TestSQLite_RawEventsRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.InsertRawEvents(ctx, []model.RawAnalyticsEvent{
		testEvent("2026-08-01", "https://acme.com/a/", 10),
		testEvent("2026-08-01", "https://acme.com/b/", 20),
		testEvent("2026-08-02", "https://acme.com/a/", 30),
	}))

	events, err := s.ListRawEvents(ctx, testSite, "2026-08-01")
	require.NoError(t, err)
	require.Len(t, events, 2)
	// IDs are generated when absent.
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, "MOBILE", events[0].Device)
	assert.InDelta(t, 7.5, events[0].Position, 1e-9)

	// Other sites stay invisible.
	events, err = s.ListRawEvents(ctx, "sc-domain:other.com", "2026-08-01")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSQLite_ListPageEventsRangeAndOrder(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.InsertRawEvents(ctx, []model.RawAnalyticsEvent{
		testEvent("2026-08-03", "https://acme.com/a/", 3),
		testEvent("2026-08-01", "https://acme.com/a/", 1),
		testEvent("2026-08-02", "https://acme.com/a/", 2),
		testEvent("2026-08-02", "https://acme.com/b/", 99),
		testEvent("2026-07-31", "https://acme.com/a/", 99),
	}))

	events, err := s.ListPageEvents(ctx, testSite, "https://acme.com/a/", "2026-08-01", "2026-08-03")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "2026-08-01", events[0].Date)
	assert.Equal(t, "2026-08-03", events[2].Date)
}

func TestSQLite_InsertRawEventsBatchCap(t *testing.T) {
	s := newTestSQLite(t)
	oversized := make([]model.RawAnalyticsEvent, MaxBatchSize+1)
	for i := range oversized {
		oversized[i] = testEvent("2026-08-01", "https://acme.com/a/", 1)
	}
	err := s.InsertRawEvents(context.Background(), oversized)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max batch size")
}

func TestSQLite_DailyAggregateUpsertIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	agg := &model.DailyAggregate{
		Site: testSite,
		Date: "2026-08-01",
		MetricsSummary: model.MetricsSummary{
			TotalClicks: 30, TotalImpressions: 300, AverageCtr: 0.1, AveragePosition: 8.33,
		},
		AggregatesByCountry: map[string]model.MetricsSummary{"usa": {TotalClicks: 30}},
	}
	require.NoError(t, s.UpsertDailyAggregate(ctx, agg))

	agg.TotalClicks = 31
	require.NoError(t, s.UpsertDailyAggregate(ctx, agg))

	got, err := s.GetDailyAggregate(ctx, testSite, "2026-08-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 31, got.TotalClicks)
	assert.Equal(t, 30, got.AggregatesByCountry["usa"].TotalClicks)

	aggs, err := s.ListDailyAggregates(ctx, testSite, "2026-08-01", "2026-08-31")
	require.NoError(t, err)
	assert.Len(t, aggs, 1)
}

func TestSQLite_GetDailyAggregateMissing(t *testing.T) {
	s := newTestSQLite(t)
	got, err := s.GetDailyAggregate(context.Background(), testSite, "2026-01-01")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_PagesUpsertAndList(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	pages := []model.PageRecord{
		{Site: testSite, URL: "https://acme.com/b/", NormalizedID: "https://acme.com/b/", PerformanceTier: model.TierQuickWins},
		{Site: testSite, URL: "https://acme.com/a/", NormalizedID: "https://acme.com/a/", PerformanceTier: model.TierChampions},
	}
	require.NoError(t, s.UpsertPages(ctx, pages))

	// Re-upserting the same IDs overwrites instead of duplicating.
	pages[0].PerformanceTier = model.TierAtRisk
	require.NoError(t, s.UpsertPages(ctx, pages))

	got, err := s.ListPages(ctx, testSite)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://acme.com/a/", got[0].NormalizedID)
	assert.Equal(t, model.TierAtRisk, got[1].PerformanceTier)
}

func TestSQLite_UpsertPagesChunksLargeSets(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	pages := make([]model.PageRecord, MaxBatchSize+10)
	for i := range pages {
		id := fmt.Sprintf("https://acme.com/p/%d/", i)
		pages[i] = model.PageRecord{Site: testSite, URL: id, NormalizedID: id}
	}
	require.NoError(t, s.UpsertPages(ctx, pages))

	got, err := s.ListPages(ctx, testSite)
	require.NoError(t, err)
	assert.Len(t, got, MaxBatchSize+10)
}

func TestSQLite_TieringStatsRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	missing, err := s.GetTieringStats(ctx, testSite)
	require.NoError(t, err)
	assert.Nil(t, missing)

	stats := &model.TieringStats{
		Site:                testSite,
		LastRun:             time.Date(2026, 8, 28, 4, 0, 0, 0, time.UTC),
		TotalPagesProcessed: 7,
		TierDistribution:    map[model.Tier]int{model.TierCashCows: 7},
	}
	require.NoError(t, s.SaveTieringStats(ctx, stats))

	got, err := s.GetTieringStats(ctx, testSite)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.TotalPagesProcessed)
	assert.Equal(t, 7, got.TierDistribution[model.TierCashCows])
}
