package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func steadyWindow(n int, v float64) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = v
	}
	return w
}

func TestCheckAnomaly_ShortWindow(t *testing.T) {
	c := CheckAnomaly(500, []float64{10, 10, 10, 10, 10, 10})
	assert.False(t, c.Anomalous)
	assert.Contains(t, c.Message, "insufficient data")
}

func TestCheckAnomaly_SpikeFlagged(t *testing.T) {
	// mean 100, population stddev 10; 125 is 2.5 sigma out.
	window := []float64{90, 110, 90, 110, 90, 110, 90, 110, 90, 110}
	c := CheckAnomaly(125, window)
	assert.True(t, c.Anomalous)
	assert.InDelta(t, 2.5, c.ZScore, 1e-9)
	assert.Contains(t, c.Message, "deviates")
}

func TestCheckAnomaly_WithinBandNotFlagged(t *testing.T) {
	window := []float64{90, 110, 90, 110, 90, 110, 90, 110, 90, 110}
	c := CheckAnomaly(115, window)
	assert.False(t, c.Anomalous)
	assert.InDelta(t, 1.5, c.ZScore, 1e-9)
	assert.Contains(t, c.Message, "within")
}

func TestCheckAnomaly_ZeroVarianceNeverAnomalous(t *testing.T) {
	c := CheckAnomaly(9999, steadyWindow(14, 50))
	assert.False(t, c.Anomalous)
	assert.Zero(t, c.StdDev)
	assert.Zero(t, c.ZScore)
}

func TestCheckAnomaly_DropFlagged(t *testing.T) {
	window := []float64{90, 110, 90, 110, 90, 110, 90, 110, 90, 110}
	c := CheckAnomaly(60, window)
	assert.True(t, c.Anomalous)
	assert.Less(t, c.ZScore, 0.0)
}
