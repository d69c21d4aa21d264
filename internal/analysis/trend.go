// Package analysis provides the statistical building blocks of the
// pipeline: linear trend fitting, rolling-window anomaly detection, and
// the site health score.
package analysis

// Direction is the discretized slope of a fitted trend.
type Direction string

const (
	TrendUp     Direction = "up"
	TrendDown   Direction = "down"
	TrendStable Direction = "stable"
)

// relativeThresholdFactor scales the direction cutoff with the series
// magnitude. Click and impression counts vary by orders of magnitude
// across pages, so a fixed absolute cutoff would misclassify either the
// small or the large ones.
const relativeThresholdFactor = 0.001

// TrendResult is an ordinary least-squares fit of a series against its
// index, plus a discretized direction.
type TrendResult struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	RSquared  float64   `json:"rSquared"`
	Trend     Direction `json:"trend"`
}

// Trend fits value against index (0..n-1) for a series ordered oldest
// first. Degenerate series are stable by definition: n=0 yields
// {0,0,1,stable} and n=1 yields {0,v,1,stable}. R² is clamped to [0,1]
// and defined as 1 for a constant series.
func Trend(series []float64) TrendResult {
	n := len(series)
	switch n {
	case 0:
		return TrendResult{RSquared: 1, Trend: TrendStable}
	case 1:
		return TrendResult{Intercept: series[0], RSquared: 1, Trend: TrendStable}
	}

	fn := float64(n)
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	slope := (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	mean := sumY / fn
	var ssRes, ssTot float64
	for i, y := range series {
		fit := slope*float64(i) + intercept
		ssRes += (y - fit) * (y - fit)
		ssTot += (y - mean) * (y - mean)
	}

	rSquared := 1.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
		if rSquared < 0 {
			rSquared = 0
		}
	}

	threshold := mean * relativeThresholdFactor
	trend := TrendStable
	switch {
	case slope > threshold:
		trend = TrendUp
	case slope < -threshold:
		trend = TrendDown
	}

	return TrendResult{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  rSquared,
		Trend:     trend,
	}
}
