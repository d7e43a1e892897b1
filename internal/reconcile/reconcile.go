// Package reconcile combines same-quantity estimates from independent data
// providers into a single confidence-rated value.
package reconcile

import (
	"fmt"
	"math"
	"time"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
)

// Variance thresholds for confidence tiering.
const (
	HighConfidenceMax     = 0.20
	ModerateConfidenceMax = 0.50
)

// Options controls per-quantity reconciliation behavior.
type Options struct {
	// Weights is the fixed per-quantity source-weight table. Missing sources
	// weigh 1.0.
	Weights map[string]float64

	// Primary is the designated primary source whose raw value is chosen
	// when variance exceeds the moderate threshold. Falls back to the first
	// estimate's source when empty or absent.
	Primary string

	// FirstParty names a ground-truth source (target domain only). When an
	// estimate from it is present it overrides reconciliation entirely.
	FirstParty string
}

// Reconcile is a pure function producing a ReconciledValue from provider
// estimates. Zero estimates yield a nil value at low confidence, never an
// error. The chosen value is never a silent blend when sources disagree past
// the moderate threshold: the primary source's raw value wins and the
// condition is surfaced as a warning, with all source values retained.
func Reconcile(quantity string, estimates []model.SourceEstimate, opts Options) model.ReconciledValue {
	rv := model.ReconciledValue{
		Quantity:   quantity,
		Sources:    make(map[string]float64, len(estimates)),
		Confidence: model.ConfidenceLow,
	}

	if len(estimates) == 0 {
		return rv
	}

	var latest *time.Time
	for _, e := range estimates {
		rv.Sources[e.Source] = e.Value
		if e.AsOf != nil && (latest == nil || e.AsOf.After(*latest)) {
			t := *e.AsOf
			latest = &t
		}
	}
	rv.AsOf = latest

	// First-party ground truth short-circuits third-party variance.
	if opts.FirstParty != "" {
		for _, e := range estimates {
			if e.Source == opts.FirstParty {
				v := e.Value
				rv.Value = &v
				rv.Confidence = model.ConfidenceHigh
				rv.ChosenSource = e.Source
				rv.FirstParty = true
				return rv
			}
		}
	}

	mean := 0.0
	for _, e := range estimates {
		mean += e.Value
	}
	mean /= float64(len(estimates))

	if mean == 0 {
		rv.VarianceRatio = 0
		rv.Confidence = model.ConfidenceLow
		v := primaryValue(estimates, opts.Primary, &rv)
		rv.Value = &v
		return rv
	}

	maxDev := 0.0
	for _, e := range estimates {
		if d := math.Abs(e.Value - mean); d > maxDev {
			maxDev = d
		}
	}
	rv.VarianceRatio = maxDev / math.Abs(mean)

	switch {
	case rv.VarianceRatio < HighConfidenceMax:
		rv.Confidence = model.ConfidenceHigh
	case rv.VarianceRatio < ModerateConfidenceMax:
		rv.Confidence = model.ConfidenceModerate
	default:
		rv.Confidence = model.ConfidenceLow
	}

	if rv.Confidence == model.ConfidenceLow {
		v := primaryValue(estimates, opts.Primary, &rv)
		rv.Value = &v
		rv.Warning = fmt.Sprintf(
			"high variance (%.0f%%) reconciling %s; using %s raw value",
			rv.VarianceRatio*100, quantity, rv.ChosenSource,
		)
		return rv
	}

	v := weightedAverage(estimates, opts.Weights)
	rv.Value = &v
	return rv
}

// primaryValue returns the designated primary source's raw value, falling
// back to the first estimate when the primary is absent. Sets ChosenSource.
func primaryValue(estimates []model.SourceEstimate, primary string, rv *model.ReconciledValue) float64 {
	if primary != "" {
		for _, e := range estimates {
			if e.Source == primary {
				rv.ChosenSource = e.Source
				return e.Value
			}
		}
	}
	rv.ChosenSource = estimates[0].Source
	return estimates[0].Value
}

func weightedAverage(estimates []model.SourceEstimate, weights map[string]float64) float64 {
	var sum, wsum float64
	for _, e := range estimates {
		w := 1.0
		if weights != nil {
			if ww, ok := weights[e.Source]; ok && ww > 0 {
				w = ww
			}
		}
		sum += e.Value * w
		wsum += w
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}
