package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seopulse/seopulse/internal/model"
)

func dailyHistory(n, clicks, impressions int, position float64) []model.DailyAggregate {
	days := make([]model.DailyAggregate, n)
	for i := range days {
		days[i] = model.DailyAggregate{
			Site: "sc-domain:acme.com",
			MetricsSummary: model.MetricsSummary{
				TotalClicks:      clicks,
				TotalImpressions: impressions,
				AveragePosition:  position,
			},
		}
	}
	return days
}

func TestComputeHealth_RequiresFourteenDays(t *testing.T) {
	assert.Nil(t, ComputeHealth(dailyHistory(13, 100, 1000, 5)))
	assert.NotNil(t, ComputeHealth(dailyHistory(14, 100, 1000, 5)))
}

func TestComputeHealth_StrongSite(t *testing.T) {
	// CTR 0.1, position 2.5: top band on every curve.
	h := ComputeHealth(dailyHistory(20, 100, 1000, 2.5))
	require.NotNil(t, h)

	assert.Equal(t, 100, h.TechnicalSEO)
	assert.Equal(t, 100, h.ContentQuality)
	assert.Equal(t, 100, h.UserExperience)
	assert.Equal(t, 75, h.Authority)
	// 0.30*100 + 0.30*100 + 0.25*100 + 0.15*75 = 96.25 -> 96
	assert.Equal(t, 96, h.Overall)
}

func TestComputeHealth_WeakSite(t *testing.T) {
	// CTR 0.005, position 60: bottom band on every curve.
	h := ComputeHealth(dailyHistory(14, 5, 1000, 60))
	require.NotNil(t, h)

	assert.Equal(t, 10, h.TechnicalSEO)
	assert.Equal(t, 10, h.ContentQuality)
	assert.Equal(t, 10, h.UserExperience)
	// 0.85*10 + 0.15*75 = 19.75 -> 20
	assert.Equal(t, 20, h.Overall)
}

func TestComputeHealth_PositionIsImpressionWeighted(t *testing.T) {
	days := dailyHistory(7, 10, 100, 2)
	days = append(days, dailyHistory(7, 10, 900, 12)...)
	h := ComputeHealth(days)
	require.NotNil(t, h)

	// (2*100*7 + 12*900*7) / (1000*7) = 11 -> "<=20" band.
	assert.Equal(t, 55, h.TechnicalSEO)
}

func TestComputeHealth_ZeroImpressions(t *testing.T) {
	h := ComputeHealth(dailyHistory(14, 0, 0, 0))
	require.NotNil(t, h)
	assert.Equal(t, 100, h.TechnicalSEO) // position 0 falls in the top band
	assert.Equal(t, 10, h.ContentQuality)
}
