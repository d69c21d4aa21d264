package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seopulse/seopulse/internal/model"
)

func TestOverview_Empty(t *testing.T) {
	o := Overview(nil)
	assert.Zero(t, o.Days)
	assert.Equal(t, TrendStable, o.Trend.Trend)
	assert.False(t, o.Anomaly.Anomalous)
	assert.Nil(t, o.Health)
}

func TestOverview_FullHistory(t *testing.T) {
	var days []model.DailyAggregate
	for i := 0; i < 20; i++ {
		days = append(days, model.DailyAggregate{
			Site: "sc-domain:acme.com",
			MetricsSummary: model.MetricsSummary{
				TotalClicks:      100 + i*10,
				TotalImpressions: 2000,
				AveragePosition:  4,
			},
		})
	}

	o := Overview(days)
	assert.Equal(t, 20, o.Days)
	assert.Equal(t, TrendUp, o.Trend.Trend)
	require.NotNil(t, o.Health)
	// A steadily climbing series stays inside two sigmas of its own window.
	assert.False(t, o.Anomaly.Anomalous)
}
