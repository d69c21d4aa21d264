package model

// RawAnalyticsEvent is one search-performance record as returned by the
// query API: a single (date, query, page, device, country) combination.
// Events are immutable once written; re-ingesting a date supersedes the
// previous rows rather than mutating them.
type RawAnalyticsEvent struct {
	ID               string  `json:"id"`
	Site             string  `json:"site"`
	Date             string  `json:"date"` // YYYY-MM-DD
	Query            string  `json:"query"`
	Page             string  `json:"page"` // normalized URL
	Device           string  `json:"device"`
	Country          string  `json:"country"`
	SearchAppearance string  `json:"search_appearance,omitempty"`
	Clicks           int     `json:"clicks"`
	Impressions      int     `json:"impressions"`
	Position         float64 `json:"position"`
}
