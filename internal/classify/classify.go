// Package classify assigns each competitor candidate a purpose category and
// validates the balance of the resulting set.
package classify

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/discovery"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
)

// Authority-ratio boundaries for peer and aspirational classification.
const (
	peerRatioMin         = 0.5
	peerRatioMax         = 2.0
	aspirationalWarnMult = 2.0
)

// Config controls classification and set validation.
type Config struct {
	// OverlapThreshold is the SERP-overlap count above which a domain is a
	// keyword_source regardless of authority ratio.
	OverlapThreshold int `yaml:"overlap_threshold" mapstructure:"overlap_threshold"`
	// SecondaryBlocklist catches platform/content sites the discovery-time
	// filter missed.
	SecondaryBlocklist []string `yaml:"secondary_blocklist" mapstructure:"secondary_blocklist"`
}

// DefaultConfig returns the stage defaults.
func DefaultConfig() Config {
	return Config{OverlapThreshold: 15}
}

// Classifier assigns purpose categories against a target authority.
type Classifier struct {
	cfg       Config
	secondary *discovery.Blocklist
}

// New creates a classifier. The secondary blocklist always includes the
// defaults plus any configured additions.
func New(cfg Config) *Classifier {
	if cfg.OverlapThreshold <= 0 {
		cfg.OverlapThreshold = 15
	}
	bl := discovery.DefaultBlocklist()
	bl.Add(cfg.SecondaryBlocklist...)
	return &Classifier{cfg: cfg, secondary: bl}
}

// Classify assigns a purpose to every candidate, first match wins:
// not_competitor (secondary blocklist) -> benchmark_peer (0.5-2.0 authority
// ratio) -> keyword_source (overlap above threshold, any authority) ->
// aspirational (ratio above 2.0, retained with a warning) -> content_model.
// The input slice is not mutated; a classified copy is returned.
func (cl *Classifier) Classify(candidates []model.Competitor, targetAuthority float64) []model.Competitor {
	out := make([]model.Competitor, len(candidates))
	for i, c := range candidates {
		out[i] = cl.classifyOne(c, targetAuthority)
	}
	logSet(out)
	return out
}

func (cl *Classifier) classifyOne(c model.Competitor, targetAuthority float64) model.Competitor {
	if cl.secondary.Blocked(c.Domain) {
		c.Purpose = model.PurposeNotCompetitor
		c.Validation = model.ValidationValid
		return c
	}

	authority := c.AuthorityOr(0)
	ratio := 0.0
	if targetAuthority > 0 {
		ratio = authority / targetAuthority
	}

	switch {
	case ratio >= peerRatioMin && ratio <= peerRatioMax:
		c.Purpose = model.PurposeBenchmarkPeer
	case c.SERPOccurrences > cl.cfg.OverlapThreshold:
		c.Purpose = model.PurposeKeywordSource
	case ratio > peerRatioMax:
		c.Purpose = model.PurposeAspirational
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"authority %.0f is %.1fx the target's; retained for market sizing and vision, not a near-term rival",
			authority, ratio,
		))
	default:
		c.Purpose = model.PurposeContentModel
	}

	c.Validation = model.ValidationValid
	if len(c.Warnings) > 0 {
		c.Validation = model.ValidationWarning
	}
	return c
}

// RelevanceScores fills in a 0-100 relevance score from SERP occurrence and
// purpose, used for display ordering only.
func RelevanceScores(set []model.Competitor, seedCount int) []model.Competitor {
	out := make([]model.Competitor, len(set))
	for i, c := range set {
		score := 0.0
		if seedCount > 0 {
			score = 70 * float64(c.SERPOccurrences) / float64(seedCount)
		}
		switch c.Purpose {
		case model.PurposeBenchmarkPeer:
			score += 30
		case model.PurposeKeywordSource:
			score += 20
		case model.PurposeContentModel:
			score += 10
		}
		if score > 100 {
			score = 100
		}
		c.RelevanceScore = score
		out[i] = c
	}
	return out
}

// logSet emits a one-line summary of the classified set.
func logSet(set []model.Competitor) {
	counts := make(map[model.PurposeCategory]int)
	for _, c := range set {
		counts[c.Purpose]++
	}
	zap.L().Info("classification complete",
		zap.Int("peers", counts[model.PurposeBenchmarkPeer]),
		zap.Int("keyword_sources", counts[model.PurposeKeywordSource]),
		zap.Int("aspirational", counts[model.PurposeAspirational]),
		zap.Int("content_models", counts[model.PurposeContentModel]),
		zap.Int("excluded", counts[model.PurposeNotCompetitor]),
	)
}
