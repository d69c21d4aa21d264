package tiering

import (
	"time"

	"github.com/seopulse/seopulse/internal/model"
)

const dateLayout = "2006-01-02"

// dateRange is a closed window of calendar days.
type dateRange struct {
	start time.Time
	end   time.Time
}

func (r dateRange) startDate() string { return r.start.Format(dateLayout) }
func (r dateRange) endDate() string   { return r.end.Format(dateLayout) }

func (r dateRange) period() string {
	return r.startDate() + ".." + r.endDate()
}

func (r dateRange) days() int {
	return int(r.end.Sub(r.start).Hours()/24) + 1
}

// windows derives the recent and baseline ranges for a run. Recent is
// RecentWindowDays ending LagDays before now; baseline is the
// BaselineWindowDays immediately preceding it. The two never overlap.
func (c AnalysisConfig) windows(now time.Time) (recent, baseline dateRange) {
	day := now.UTC().Truncate(24 * time.Hour)
	recent.end = day.AddDate(0, 0, -c.LagDays)
	recent.start = recent.end.AddDate(0, 0, -(c.RecentWindowDays - 1))
	baseline.end = recent.start.AddDate(0, 0, -1)
	baseline.start = baseline.end.AddDate(0, 0, -(c.BaselineWindowDays - 1))
	return recent, baseline
}

// buildMetrics folds a page's raw events into window metrics. The daily
// click series is zero-filled across the whole range so gaps read as
// zero-traffic days rather than vanishing from the trend fit.
func buildMetrics(events []model.RawAnalyticsEvent, r dateRange) model.PerformanceMetrics {
	clicksByDate := make(map[string]int)
	var clicks, impressions int
	var posWeight float64
	for _, ev := range events {
		clicksByDate[ev.Date] += ev.Clicks
		clicks += ev.Clicks
		impressions += ev.Impressions
		posWeight += ev.Position * float64(ev.Impressions)
	}

	series := make([]int, 0, r.days())
	for d := r.start; !d.After(r.end); d = d.AddDate(0, 0, 1) {
		series = append(series, clicksByDate[d.Format(dateLayout)])
	}

	denom := float64(impressions)
	if denom < 1 {
		denom = 1
	}
	return model.PerformanceMetrics{
		TotalClicks:      clicks,
		TotalImpressions: impressions,
		AverageCtr:       float64(clicks) / denom,
		AveragePosition:  posWeight / denom,
		DataPoints:       series,
		Period:           r.period(),
	}
}

// computeKPIs derives relative deltas between windows. Each change is
// (recent - baseline) / baseline, and 0 when the baseline is 0.
func computeKPIs(recent, baseline model.PerformanceMetrics, trendStrength float64) model.KPISet {
	return model.KPISet{
		ClicksChange:      relChange(float64(recent.TotalClicks), float64(baseline.TotalClicks)),
		ImpressionsChange: relChange(float64(recent.TotalImpressions), float64(baseline.TotalImpressions)),
		CtrChange:         relChange(recent.AverageCtr, baseline.AverageCtr),
		PositionChange:    relChange(recent.AveragePosition, baseline.AveragePosition),
		TrendStrength:     trendStrength,
	}
}

func relChange(recent, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (recent - baseline) / baseline
}
