package analysis

import "github.com/seopulse/seopulse/internal/model"

// SiteOverview bundles the site-wide analyses computed from daily
// aggregate history: click trend, latest-day anomaly check, and the
// health score when enough history exists.
type SiteOverview struct {
	Days    int          `json:"days"`
	Trend   TrendResult  `json:"trend"`
	Anomaly AnomalyCheck `json:"anomaly"`
	Health  *HealthScore `json:"health,omitempty"`
}

// Overview analyzes a site's daily aggregates, ordered oldest first. The
// anomaly check compares the most recent day against the days before it.
func Overview(days []model.DailyAggregate) SiteOverview {
	series := make([]float64, len(days))
	for i, d := range days {
		series[i] = float64(d.TotalClicks)
	}

	var latest float64
	var window []float64
	if n := len(series); n > 0 {
		latest = series[n-1]
		window = series[:n-1]
	}

	return SiteOverview{
		Days:    len(days),
		Trend:   Trend(series),
		Anomaly: CheckAnomaly(latest, window),
		Health:  ComputeHealth(days),
	}
}
