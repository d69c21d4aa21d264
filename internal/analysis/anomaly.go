package analysis

import (
	"fmt"
	"math"
)

// minAnomalyWindow is the shortest historical window the z-score test
// accepts; anything less reports "insufficient data".
const minAnomalyWindow = 7

// anomalySigma is the z-score threshold for flagging a point.
const anomalySigma = 2.0

// AnomalyCheck is the outcome of a rolling-window z-score test on the
// latest data point.
type AnomalyCheck struct {
	Anomalous bool    `json:"anomalous"`
	ZScore    float64 `json:"zScore"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"stdDev"`
	Message   string  `json:"message"`
}

// CheckAnomaly flags latest as anomalous when it sits more than two
// population standard deviations from the window mean. A window shorter
// than seven points always reports not anomalous.
func CheckAnomaly(latest float64, window []float64) AnomalyCheck {
	if len(window) < minAnomalyWindow {
		return AnomalyCheck{
			Message: fmt.Sprintf("insufficient data: need at least %d historical points, have %d", minAnomalyWindow, len(window)),
		}
	}

	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(len(window))

	var variance float64
	for _, v := range window {
		variance += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(window)))

	var z float64
	if stdDev > 0 {
		z = (latest - mean) / stdDev
	}

	check := AnomalyCheck{
		ZScore: z,
		Mean:   mean,
		StdDev: stdDev,
	}
	if stdDev > 0 && math.Abs(latest-mean) > anomalySigma*stdDev {
		check.Anomalous = true
		check.Message = fmt.Sprintf("value %.1f deviates %.1f standard deviations from the %d-point mean %.1f", latest, math.Abs(z), len(window), mean)
	} else {
		check.Message = fmt.Sprintf("value %.1f is within %.0f standard deviations of the %d-point mean %.1f (z=%.2f)", latest, anomalySigma, len(window), mean, z)
	}
	return check
}
