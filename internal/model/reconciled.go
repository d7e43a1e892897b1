package model

import "time"

// Confidence is the tier assigned to a reconciled quantity.
type Confidence string

const (
	ConfidenceHigh     Confidence = "high"
	ConfidenceModerate Confidence = "moderate"
	ConfidenceLow      Confidence = "low"
)

// IsValid reports whether c is a known confidence tier.
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceModerate, ConfidenceLow:
		return true
	}
	return false
}

// Rank orders tiers for worst-of aggregation: low < moderate < high.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceModerate:
		return 1
	default:
		return 0
	}
}

// WorstConfidence returns the lowest-ranked tier among the given tiers.
// Defaults to low when none are supplied.
func WorstConfidence(tiers ...Confidence) Confidence {
	if len(tiers) == 0 {
		return ConfidenceLow
	}
	worst := tiers[0]
	for _, t := range tiers[1:] {
		if t.Rank() < worst.Rank() {
			worst = t
		}
	}
	return worst
}

// SourceEstimate is a single provider's estimate of a quantity.
type SourceEstimate struct {
	Source string     `json:"source"`
	Value  float64    `json:"value"`
	AsOf   *time.Time `json:"as_of,omitempty"`
}

// ReconciledValue is a quantity reconciled from one or more provider
// estimates. All contributing estimates are retained for display; Value is
// nil only when no sources were supplied. Instances are created once per
// quantity per run and never mutated.
type ReconciledValue struct {
	Quantity      string             `json:"quantity"`
	Sources       map[string]float64 `json:"sources"`
	Value         *float64           `json:"value"`
	VarianceRatio float64            `json:"variance_ratio"`
	Confidence    Confidence         `json:"confidence"`
	// ChosenSource is set when high variance forced the primary source's raw
	// value instead of a blend, or when a first-party override applied.
	ChosenSource string     `json:"chosen_source,omitempty"`
	FirstParty   bool       `json:"first_party,omitempty"`
	Warning      string     `json:"warning,omitempty"`
	AsOf         *time.Time `json:"as_of,omitempty"`
}

// ValueOr returns the reconciled value or the given fallback when nil.
func (rv ReconciledValue) ValueOr(fallback float64) float64 {
	if rv.Value == nil {
		return fallback
	}
	return *rv.Value
}
