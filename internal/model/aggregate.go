package model

import "time"

// MetricsSummary holds the four core performance metrics for one slice of
// traffic. AverageCtr and AveragePosition are always derived from the
// totals, never taken from input directly.
type MetricsSummary struct {
	TotalClicks      int     `json:"totalClicks"`
	TotalImpressions int     `json:"totalImpressions"`
	AverageCtr       float64 `json:"averageCtr"`
	AveragePosition  float64 `json:"averagePosition"`
}

// DailyAggregate is the per-day site-wide rollup of raw events, with one
// breakdown per distinct country and device seen that day. Keyed by
// (site, date); re-runs of the aggregation engine overwrite in place.
type DailyAggregate struct {
	Site string `json:"site"`
	Date string `json:"date"`
	MetricsSummary

	AggregatesByCountry map[string]MetricsSummary `json:"aggregatesByCountry,omitempty"`
	AggregatesByDevice  map[string]MetricsSummary `json:"aggregatesByDevice,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}
