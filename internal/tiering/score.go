package tiering

import (
	"math"

	"github.com/seopulse/seopulse/internal/analysis"
	"github.com/seopulse/seopulse/internal/model"
)

// performanceScore produces the 0-100 score behind tier assignment. The
// rubric is additive from a neutral 50: click volume, CTR against the
// industry benchmarks, position band, trend strength, and the clicks
// delta against baseline each contribute a bounded adjustment.
func performanceScore(recent model.PerformanceMetrics, kpis model.KPISet, trend analysis.TrendResult, b Benchmarks) int {
	score := 50.0

	switch {
	case recent.TotalClicks > 1000:
		score += 15
	case recent.TotalClicks > 500:
		score += 10
	case recent.TotalClicks > 100:
		score += 5
	}

	switch {
	case recent.AverageCtr >= b.CtrExcellent:
		score += 12
	case recent.AverageCtr >= b.CtrGood:
		score += 8
	case recent.AverageCtr >= b.CtrAverage:
		score += 4
	case recent.AverageCtr >= b.CtrAverage/2:
		score -= 6
	default:
		score -= 12
	}

	switch {
	case recent.AveragePosition <= 3:
		score += 10
	case recent.AveragePosition <= 10:
		score += 5
	case recent.AveragePosition <= 20:
		// neutral band
	default:
		score -= 5
	}

	strength := math.Min(12, trend.RSquared*15)
	switch trend.Trend {
	case analysis.TrendUp:
		score += strength
	case analysis.TrendDown:
		score -= strength
	}

	if kpis.ClicksChange > 0.20 {
		score += 8
	} else if kpis.ClicksChange < -0.20 {
		score -= 8
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}
