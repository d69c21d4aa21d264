package analysis

import (
	"math"

	"github.com/seopulse/seopulse/internal/model"
)

// minHealthHistoryDays gates the health score: with fewer daily
// aggregates the component scores swing too hard on noise.
const minHealthHistoryDays = 14

// Health score component weights. Authority is a fixed placeholder
// until off-site signals are wired in.
const (
	technicalWeight  = 0.30
	contentWeight    = 0.30
	experienceWeight = 0.25
	authorityWeight  = 0.15

	authorityScore = 75
)

// HealthScore is the composite site health assessment built from the
// recent daily aggregates.
type HealthScore struct {
	Overall        int `json:"overall"`
	TechnicalSEO   int `json:"technicalSeo"`
	ContentQuality int `json:"contentQuality"`
	UserExperience int `json:"userExperience"`
	Authority      int `json:"authority"`
}

// ComputeHealth scores a site from its daily aggregates, oldest first.
// It returns nil when fewer than fourteen days of history exist.
func ComputeHealth(days []model.DailyAggregate) *HealthScore {
	if len(days) < minHealthHistoryDays {
		return nil
	}

	var clicks, impressions int
	var posWeight float64
	for _, d := range days {
		clicks += d.TotalClicks
		impressions += d.TotalImpressions
		posWeight += d.AveragePosition * float64(d.TotalImpressions)
	}
	denom := float64(impressions)
	if denom < 1 {
		denom = 1
	}
	avgPosition := posWeight / denom
	avgCtr := float64(clicks) / denom

	technical := positionScore(avgPosition)
	content := ctrScore(avgCtr)
	// User experience uses the same CTR curve as content quality: CTR is
	// the only behavioural signal available from search analytics alone.
	experience := ctrScore(avgCtr)

	overall := int(math.Round(
		technicalWeight*float64(technical) +
			contentWeight*float64(content) +
			experienceWeight*float64(experience) +
			authorityWeight*float64(authorityScore)))

	return &HealthScore{
		Overall:        overall,
		TechnicalSEO:   technical,
		ContentQuality: content,
		UserExperience: experience,
		Authority:      authorityScore,
	}
}

func positionScore(pos float64) int {
	switch {
	case pos <= 3:
		return 100
	case pos <= 5:
		return 90
	case pos <= 10:
		return 75
	case pos <= 20:
		return 55
	case pos <= 30:
		return 40
	case pos <= 50:
		return 25
	default:
		return 10
	}
}

func ctrScore(ctr float64) int {
	switch {
	case ctr >= 0.08:
		return 100
	case ctr >= 0.06:
		return 85
	case ctr >= 0.045:
		return 70
	case ctr >= 0.03:
		return 55
	case ctr >= 0.02:
		return 40
	case ctr >= 0.01:
		return 25
	default:
		return 10
	}
}
