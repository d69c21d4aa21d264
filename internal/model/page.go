package model

import "time"

// Tier is one of the nine mutually exclusive page-performance
// classifications produced by the tiering engine.
type Tier string

const (
	TierNewLowData  Tier = "new_low_data"
	TierChampions   Tier = "champions"
	TierRisingStars Tier = "rising_stars"
	TierAtRisk      Tier = "at_risk"
	TierQuickWins   Tier = "quick_wins"
	TierHiddenGems  Tier = "hidden_gems"
	TierCashCows    Tier = "cash_cows"
	TierProblem     Tier = "problem_pages"
	TierDeclining   Tier = "declining"
)

// AllTiers lists every tier in rule-priority order.
var AllTiers = []Tier{
	TierNewLowData,
	TierChampions,
	TierRisingStars,
	TierAtRisk,
	TierQuickWins,
	TierHiddenGems,
	TierCashCows,
	TierProblem,
	TierDeclining,
}

// Priority ranks how urgently a page needs attention.
type Priority string

const (
	PriorityMonitor  Priority = "monitor"
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// PerformanceMetrics is a value object describing one aggregate window for
// a page. DataPoints is the ordered daily click series, oldest first.
// Derived fresh on each tiering run; never persisted on its own.
type PerformanceMetrics struct {
	TotalClicks      int     `json:"totalClicks"`
	TotalImpressions int     `json:"totalImpressions"`
	AverageCtr       float64 `json:"averageCtr"`
	AveragePosition  float64 `json:"averagePosition"`
	DataPoints       []int   `json:"dataPoints"`
	Period           string  `json:"period"`
}

// KPISet holds relative deltas between the recent and baseline windows.
// Each change is (recent - baseline) / baseline, 0 when the baseline is 0.
type KPISet struct {
	ClicksChange      float64 `json:"clicksChange"`
	ImpressionsChange float64 `json:"impressionsChange"`
	CtrChange         float64 `json:"ctrChange"`
	PositionChange    float64 `json:"positionChange"`
	TrendStrength     float64 `json:"trendStrength"`
}

// PageMetrics bundles the window metrics and KPI deltas stored on a page.
type PageMetrics struct {
	Recent   PerformanceMetrics `json:"recent"`
	Baseline PerformanceMetrics `json:"baseline"`
	KPIs     KPISet             `json:"kpis"`
}

// PageRecord is one tracked page. Created on first discovery and mutated in
// place by every tiering run; the pipeline never deletes pages.
type PageRecord struct {
	URL          string `json:"url"`
	NormalizedID string `json:"normalized_id"`
	Site         string `json:"site"`
	Title        string `json:"title,omitempty"`

	PerformanceTier     Tier     `json:"performance_tier,omitempty"`
	PerformanceScore    int      `json:"performance_score"`
	PerformancePriority Priority `json:"performance_priority,omitempty"`
	Reasoning           string   `json:"reasoning,omitempty"`
	MarketingAction     string   `json:"marketing_action,omitempty"`
	TechnicalAction     string   `json:"technical_action,omitempty"`
	ExpectedImpact      string   `json:"expected_impact,omitempty"`
	Timeframe           string   `json:"timeframe,omitempty"`
	Confidence          float64  `json:"confidence"`

	Metrics *PageMetrics `json:"metrics,omitempty"`

	LastTieringRun time.Time `json:"last_tiering_run"`
}

// TieringStats is the singleton summary written after each tiering run.
// TierDistribution counts always sum to TotalPagesProcessed.
type TieringStats struct {
	Site                string       `json:"site"`
	LastRun             time.Time    `json:"lastRun"`
	TotalPagesProcessed int          `json:"totalPagesProcessed"`
	TierDistribution    map[Tier]int `json:"tierDistribution"`
	AnalysisConfig      any          `json:"analysisConfig,omitempty"`
}
