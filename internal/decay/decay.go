// Package decay evaluates already-published pages for content decay over a
// trailing window, producing keep/update/consolidate/kill recommendations.
package decay

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
)

const (
	epsilon = 1e-9

	weightTraffic  = 0.40
	weightPosition = 0.30
	weightCTR      = 0.20
	weightAge      = 0.10

	ageSaturationMonths = 24
	expandDepthRatio    = 1.5
)

// Severity band boundaries on the aggregate decay score.
const (
	criticalMin = 0.5
	majorMin    = 0.3
	lightMin    = 0.1
)

// Assess scores a single page window. Pure; the same window always yields
// the same assessment for a given time.
func Assess(w model.PageWindow, now time.Time) model.DecayAssessment {
	components := model.DecayComponents{
		Traffic:  relativeDrop(w.TrafficPeak, w.TrafficCurrent),
		Position: positionDrop(w.PositionBest, w.PositionCurrent),
		CTR:      relativeDrop(w.CTRPeak, w.CTRCurrent),
		Age:      math.Min(1, w.MonthsSinceUpdate/ageSaturationMonths),
	}

	score := weightTraffic*components.Traffic +
		weightPosition*components.Position +
		weightCTR*components.CTR +
		weightAge*components.Age

	severity := bandFor(score)
	return model.DecayAssessment{
		PageURL:    w.PageURL,
		Cluster:    w.Cluster,
		Components: components,
		Score:      score,
		Severity:   severity,
		Action:     actionFor(severity, w),
		AssessedAt: now,
	}
}

// AssessAll scores every page and applies the cluster-overlap consolidation
// override: two decaying pages in the same cluster targeting overlapping
// terms both get a consolidate recommendation.
func AssessAll(windows []model.PageWindow, now time.Time) []model.DecayAssessment {
	out := make([]model.DecayAssessment, len(windows))
	for i, w := range windows {
		out[i] = Assess(w, now)
	}
	applyConsolidation(windows, out)

	zap.L().Info("decay assessment complete", zap.Int("pages", len(out)))
	return out
}

// relativeDrop is (peak - current) / max(peak, epsilon), clamped to [0,1].
func relativeDrop(peak, current float64) float64 {
	drop := (peak - current) / math.Max(peak, epsilon)
	return clamp01(drop)
}

// positionDrop treats position inversely: a slide from best position 3 to
// current 12 is a drop of (12-3)/12 of the way down.
func positionDrop(best, current float64) float64 {
	if best <= 0 || current <= 0 || current <= best {
		return 0
	}
	return clamp01((current - best) / math.Max(current, epsilon))
}

func bandFor(score float64) model.Severity {
	switch {
	case score > criticalMin:
		return model.SeverityCritical
	case score >= majorMin:
		return model.SeverityMajor
	case score >= lightMin:
		return model.SeverityLight
	default:
		return model.SeverityMonitor
	}
}

// actionFor maps severity to the KUCK action. Critical/major decay calls for
// an update, or an expansion when a competitor's ranking page is judged
// substantially deeper.
func actionFor(severity model.Severity, w model.PageWindow) model.DecayAction {
	switch severity {
	case model.SeverityCritical, model.SeverityMajor:
		if w.CompetitorDepthRatio > expandDepthRatio {
			return model.ActionExpand
		}
		return model.ActionUpdate
	case model.SeverityLight:
		return model.ActionRefresh
	default:
		return model.ActionKeep
	}
}

// applyConsolidation overrides individual actions with consolidate when two
// pages in the same cluster are both decaying and target overlapping terms.
func applyConsolidation(windows []model.PageWindow, assessments []model.DecayAssessment) {
	decaying := func(i int) bool {
		return assessments[i].Severity != model.SeverityMonitor
	}

	for i := range windows {
		if !decaying(i) || windows[i].Cluster == "" {
			continue
		}
		for j := i + 1; j < len(windows); j++ {
			if !decaying(j) || windows[j].Cluster != windows[i].Cluster {
				continue
			}
			if termsOverlap(windows[i].Terms, windows[j].Terms) {
				assessments[i].Action = model.ActionConsolidate
				assessments[j].Action = model.ActionConsolidate
			}
		}
	}
}

func termsOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
