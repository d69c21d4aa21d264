package tiering

import (
	"fmt"

	"github.com/seopulse/seopulse/internal/analysis"
	"github.com/seopulse/seopulse/internal/model"
)

// classification is the full verdict for one page: tier, urgency, the
// human-readable rationale, and recommended actions.
type classification struct {
	Tier            model.Tier
	Priority        model.Priority
	Reasoning       string
	MarketingAction string
	TechnicalAction string
	ExpectedImpact  string
	Timeframe       string
	Confidence      float64
}

// classify applies the tier rules in fixed priority order; the first
// matching rule wins. Trend-driven tiers carry the fit's R-squared as
// their confidence, the rest use fixed per-rule values.
func classify(score int, m *model.PageMetrics, trend analysis.TrendResult, b Benchmarks) classification {
	recent := m.Recent
	kpis := m.KPIs
	ctrPct := recent.AverageCtr * 100

	switch {
	case recent.TotalImpressions < 100:
		return classification{
			Tier:            model.TierNewLowData,
			Priority:        model.PriorityMonitor,
			Reasoning:       fmt.Sprintf("Only %d impressions in the recent window, too little data for a reliable classification.", recent.TotalImpressions),
			MarketingAction: "Build internal links and promote the page to grow its search footprint.",
			TechnicalAction: "Verify the page is indexed and included in the sitemap.",
			ExpectedImpact:  "Enough data for classification within one to two windows.",
			Timeframe:       "4-8 weeks",
			Confidence:      0.2,
		}

	case score >= 80 && recent.TotalClicks > 500 && recent.AverageCtr > b.CtrGood:
		return classification{
			Tier:            model.TierChampions,
			Priority:        model.PriorityMonitor,
			Reasoning:       fmt.Sprintf("Score %d with %d clicks and %.1f%% CTR, well above the good benchmark.", score, recent.TotalClicks, ctrPct),
			MarketingAction: "Use this page as a template for new content and link from it to weaker pages.",
			TechnicalAction: "Keep Core Web Vitals and structured data healthy; avoid risky changes.",
			ExpectedImpact:  "Sustained top performance.",
			Timeframe:       "ongoing",
			Confidence:      0.9,
		}

	case trend.Trend == analysis.TrendUp && trend.RSquared > 0.4 && kpis.ClicksChange > 0.25:
		return classification{
			Tier:            model.TierRisingStars,
			Priority:        model.PriorityMedium,
			Reasoning:       fmt.Sprintf("Clicks up %.0f%% vs baseline on a consistent upward trend (R²=%.2f).", kpis.ClicksChange*100, trend.RSquared),
			MarketingAction: "Invest now: expand the content and push it through owned channels while momentum lasts.",
			TechnicalAction: "Add internal links from high-authority pages to accelerate the climb.",
			ExpectedImpact:  fmt.Sprintf("Potential to reach the next position band from %.1f.", recent.AveragePosition),
			Timeframe:       "2-4 weeks",
			Confidence:      trend.RSquared,
		}

	case trend.Trend == analysis.TrendDown && trend.RSquared > 0.4 && kpis.ClicksChange < -0.25:
		return classification{
			Tier:            model.TierAtRisk,
			Priority:        model.PriorityCritical,
			Reasoning:       fmt.Sprintf("Clicks down %.0f%% vs baseline on a consistent downward trend (R²=%.2f).", -kpis.ClicksChange*100, trend.RSquared),
			MarketingAction: "Refresh the content and re-validate search intent before traffic collapses.",
			TechnicalAction: "Audit for crawl errors, lost backlinks, cannibalization, and SERP feature changes.",
			ExpectedImpact:  "Recovery of the lost clicks if the decline cause is addressed.",
			Timeframe:       "1-2 weeks",
			Confidence:      trend.RSquared,
		}

	case recent.TotalImpressions > 1000 && recent.AverageCtr < b.CtrAverage:
		return classification{
			Tier:            model.TierQuickWins,
			Priority:        model.PriorityHigh,
			Reasoning:       fmt.Sprintf("%d impressions but only %.1f%% CTR, below the %.1f%% industry average.", recent.TotalImpressions, ctrPct, b.CtrAverage*100),
			MarketingAction: "Rewrite the title and meta description to match the dominant search intent.",
			TechnicalAction: "Add structured data to earn rich results and more SERP real estate.",
			ExpectedImpact:  fmt.Sprintf("Roughly %.0f extra clicks per window at average CTR.", float64(recent.TotalImpressions)*(b.CtrAverage-recent.AverageCtr)),
			Timeframe:       "1-2 weeks",
			Confidence:      0.8,
		}

	case recent.AveragePosition <= 10 && recent.AverageCtr < b.CtrAverage && recent.TotalImpressions > 500:
		return classification{
			Tier:            model.TierHiddenGems,
			Priority:        model.PriorityHigh,
			Reasoning:       fmt.Sprintf("Page ranks at position %.1f yet converts only %.1f%% of %d impressions.", recent.AveragePosition, ctrPct, recent.TotalImpressions),
			MarketingAction: "Sharpen the snippet: the ranking is earned but the listing is not winning the click.",
			TechnicalAction: "Test title variants and add FAQ or review markup.",
			ExpectedImpact:  "CTR uplift toward the benchmark without any ranking work.",
			Timeframe:       "2-3 weeks",
			Confidence:      0.75,
		}

	case recent.TotalClicks > 300 && abs(kpis.ClicksChange) < 0.15 && recent.AverageCtr >= b.CtrAverage:
		return classification{
			Tier:            model.TierCashCows,
			Priority:        model.PriorityLow,
			Reasoning:       fmt.Sprintf("Stable performer: %d clicks, %.1f%% CTR, clicks within ±15%% of baseline.", recent.TotalClicks, ctrPct),
			MarketingAction: "Maintain freshness with periodic light updates; no major investment needed.",
			TechnicalAction: "Monitor for regressions; keep page speed stable.",
			ExpectedImpact:  "Continued steady traffic.",
			Timeframe:       "quarterly review",
			Confidence:      0.85,
		}

	case score < 30 || (recent.AveragePosition > 50 && recent.TotalClicks < 50):
		return classification{
			Tier:            model.TierProblem,
			Priority:        model.PriorityCritical,
			Reasoning:       fmt.Sprintf("Score %d with position %.1f and %d clicks; the page is not earning its keep.", score, recent.AveragePosition, recent.TotalClicks),
			MarketingAction: "Decide: rewrite for a better-fit query, consolidate into a stronger page, or retire.",
			TechnicalAction: "Check indexation, thin-content signals, and duplicate targeting.",
			ExpectedImpact:  "Freed crawl budget or a recovered ranking, depending on the decision.",
			Timeframe:       "2-4 weeks",
			Confidence:      0.7,
		}

	case kpis.ClicksChange < -0.15:
		return classification{
			Tier:            model.TierDeclining,
			Priority:        model.PriorityHigh,
			Reasoning:       fmt.Sprintf("Clicks down %.0f%% vs baseline without a confirmed trend yet.", -kpis.ClicksChange*100),
			MarketingAction: "Refresh the content and compare against newly ranking competitors.",
			TechnicalAction: "Review recent site changes that could have affected this page.",
			ExpectedImpact:  "Halt of the decline before it becomes an at-risk trend.",
			Timeframe:       "2-3 weeks",
			Confidence:      0.6,
		}

	default:
		return classification{
			Tier:            model.TierCashCows,
			Priority:        model.PriorityLow,
			Reasoning:       fmt.Sprintf("No dominant signal: score %d, %d clicks, %.1f%% CTR; treated as a steady performer.", score, recent.TotalClicks, ctrPct),
			MarketingAction: "No action required; revisit next run.",
			TechnicalAction: "None.",
			ExpectedImpact:  "Unchanged.",
			Timeframe:       "next run",
			Confidence:      0.5,
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
