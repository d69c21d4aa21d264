package tiering

import (
	"fmt"
	"time"

	"github.com/seopulse/seopulse/internal/model"
)

// SkippedPage records one page the run could not classify and why. The
// page keeps its previous tier.
type SkippedPage struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// RunReport summarizes one tiering run. Processed counts only pages
// that were classified and written; Skipped lists the rest.
type RunReport struct {
	Site         string             `json:"site"`
	StartedAt    time.Time          `json:"startedAt"`
	DurationMs   int64              `json:"durationMs"`
	Processed    int                `json:"processed"`
	Skipped      []SkippedPage      `json:"skipped,omitempty"`
	Distribution map[model.Tier]int `json:"distribution"`
}

// Recommendations turns the tier distribution into short operator-facing
// callouts, most urgent first.
func (r *RunReport) Recommendations() []string {
	var recs []string
	if n := r.Distribution[model.TierAtRisk]; n > 0 {
		recs = append(recs, fmt.Sprintf("%d pages at risk: investigate declining trends this week", n))
	}
	if n := r.Distribution[model.TierProblem]; n > 0 {
		recs = append(recs, fmt.Sprintf("%d problem pages: decide whether to rewrite, consolidate, or retire", n))
	}
	if n := r.Distribution[model.TierQuickWins]; n > 0 {
		recs = append(recs, fmt.Sprintf("%d quick wins: title and snippet rewrites with high expected return", n))
	}
	if n := r.Distribution[model.TierHiddenGems]; n > 0 {
		recs = append(recs, fmt.Sprintf("%d hidden gems: strong rankings losing the click", n))
	}
	if n := r.Distribution[model.TierRisingStars]; n > 0 {
		recs = append(recs, fmt.Sprintf("%d rising stars: invest while momentum lasts", n))
	}
	if len(r.Skipped) > 0 {
		recs = append(recs, fmt.Sprintf("%d pages skipped due to errors, will retry next run", len(r.Skipped)))
	}
	return recs
}
