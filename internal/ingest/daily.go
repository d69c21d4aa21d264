package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/model"
	"github.com/seopulse/seopulse/internal/resilience"
	"github.com/seopulse/seopulse/pkg/searchconsole"
)

// DailySummary issues a single date-dimension query for one date and
// writes the resulting site-wide totals as a DailyAggregate. When the API
// has no rows for the date, a zero-valued aggregate is written anyway so
// downstream readers never see a missing document for a processed date.
func (g *Gateway) DailySummary(ctx context.Context, site, date string) (*model.DailyAggregate, error) {
	if err := validateRange(site, date, date); err != nil {
		return nil, err
	}

	retry := g.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("searchconsole", "daily_summary")
	}

	req := searchRequestForDate(site, date, g.rowLimit)
	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*querySummary, error) {
		r, err := g.api.Query(ctx, req)
		if err != nil {
			return nil, err
		}
		return summarize(r.Rows), nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: daily summary query for %s", date)
	}

	agg := &model.DailyAggregate{
		Site:      site,
		Date:      date,
		UpdatedAt: time.Now().UTC(),
	}
	if resp.rows == 0 {
		zap.L().Info("ingest: no rows for date, writing zero aggregate",
			zap.String("site", site),
			zap.String("date", date),
		)
	} else {
		agg.TotalClicks = resp.clicks
		agg.TotalImpressions = resp.impressions
		if resp.impressions > 0 {
			agg.AverageCtr = float64(resp.clicks) / float64(resp.impressions)
		}
		agg.AveragePosition = resp.position
	}

	if err := g.store.UpsertDailyAggregate(ctx, agg); err != nil {
		return nil, eris.Wrapf(err, "ingest: write daily summary for %s", date)
	}
	return agg, nil
}

type querySummary struct {
	rows        int
	clicks      int
	impressions int
	position    float64
}

// summarize folds date-dimension rows into totals. The API usually
// returns exactly one row per date; position is impression-weighted in
// case it splits.
func summarize(rows []searchconsole.Row) *querySummary {
	s := &querySummary{rows: len(rows)}
	var posWeight float64
	for _, row := range rows {
		s.clicks += int(row.Clicks)
		s.impressions += int(row.Impressions)
		posWeight += row.Position * row.Impressions
	}
	if s.impressions > 0 {
		s.position = posWeight / float64(s.impressions)
	}
	return s
}

func searchRequestForDate(site, date string, rowLimit int) searchconsole.QueryRequest {
	return searchconsole.QueryRequest{
		SiteURL:    site,
		StartDate:  date,
		EndDate:    date,
		Dimensions: []string{"date"},
		RowLimit:   rowLimit,
	}
}
