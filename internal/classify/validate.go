package classify

import (
	"fmt"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/resilience"
)

// ValidationReport is the set-level validation outcome. Errors block roadmap
// generation; warnings do not.
type ValidationReport struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// OK reports whether the set may proceed to roadmap generation.
func (r ValidationReport) OK() bool { return len(r.Errors) == 0 }

// Err returns a SetImbalanceError when validation errors exist, else nil.
func (r ValidationReport) Err() error {
	if r.OK() {
		return nil
	}
	return &resilience.SetImbalanceError{Problems: r.Errors}
}

// Validate runs the set-level balance checks over the non-removed,
// non-excluded competitor set. It runs after initial classification and again
// after every curation pass.
func Validate(set []model.Competitor, targetAuthority float64) ValidationReport {
	var report ValidationReport

	active := model.ActiveCompetitors(set)
	counts := make(map[model.PurposeCategory]int)
	var authoritySum float64
	for _, c := range active {
		counts[c.Purpose]++
		authoritySum += c.AuthorityOr(0)
	}

	if counts[model.PurposeBenchmarkPeer] < 2 {
		report.Errors = append(report.Errors, fmt.Sprintf(
			"need at least 2 benchmark_peer competitors for a realistic difficulty assessment, have %d",
			counts[model.PurposeBenchmarkPeer],
		))
	}
	if counts[model.PurposeKeywordSource] < 2 {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"fewer than 2 keyword_source competitors (%d); keyword universe may be thin",
			counts[model.PurposeKeywordSource],
		))
	}
	if len(active) > 0 && counts[model.PurposeAspirational]*2 > len(active) {
		report.Errors = append(report.Errors, fmt.Sprintf(
			"aspirational competitors (%d) exceed half the set (%d)",
			counts[model.PurposeAspirational], len(active),
		))
	}
	if len(active) > 0 && targetAuthority > 0 {
		mean := authoritySum / float64(len(active))
		if mean > 3*targetAuthority {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"mean set authority %.0f exceeds 3x target authority %.0f",
				mean, targetAuthority,
			))
		}
	}

	return report
}

// Curation is a human curation pass against a classified candidate set.
type Curation struct {
	Removals  []string                         `json:"removals,omitempty" yaml:"removals"`
	Additions []model.Competitor               `json:"additions,omitempty" yaml:"additions"`
	Overrides map[string]model.PurposeCategory `json:"overrides,omitempty" yaml:"overrides"`
}

// Curate applies removals, additions and purpose overrides, then re-runs the
// set-level validation. The input set is not mutated.
func Curate(set []model.Competitor, cur Curation, targetAuthority float64) ([]model.Competitor, ValidationReport, error) {
	removed := make(map[string]bool, len(cur.Removals))
	for _, d := range cur.Removals {
		removed[d] = true
	}

	out := make([]model.Competitor, 0, len(set)+len(cur.Additions))
	for _, c := range set {
		if removed[c.Domain] {
			c.Removed = true
			c.UserCurated = true
		}
		if p, ok := cur.Overrides[c.Domain]; ok {
			if !p.IsValid() {
				return nil, ValidationReport{}, fmt.Errorf("classify: invalid purpose override %q for %s", p, c.Domain)
			}
			c.Purpose = p
			c.UserCurated = true
		}
		out = append(out, c)
	}

	for _, add := range cur.Additions {
		add.DiscoverySource = model.SourceUserProvided
		add.UserCurated = true
		if add.Purpose == "" {
			add.Purpose = model.PurposeBenchmarkPeer
		}
		out = append(out, add)
	}

	report := Validate(out, targetAuthority)
	return out, report, nil
}
