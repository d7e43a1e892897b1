// Package winnability scores each keyword candidate's realistic rankability
// for the target domain.
package winnability

import (
	"math"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
)

const (
	maxAuthorityAdvantage = 0.5
	maxTopicalBonus       = 0.3
	neutralKD             = 50.0
)

// Weights is the industry-specific component weight table. Weights operate
// on 0-100 component scores and should sum to 1.
type Weights struct {
	AuthorityGap      float64 `yaml:"authority_gap" mapstructure:"authority_gap"`
	DifficultyInverse float64 `yaml:"difficulty_inverse" mapstructure:"difficulty_inverse"`
	WeakSignal        float64 `yaml:"weak_signal" mapstructure:"weak_signal"`
	AIOverview        float64 `yaml:"ai_overview" mapstructure:"ai_overview"`
}

// DefaultWeights returns the default weight table.
func DefaultWeights() Weights {
	return Weights{
		AuthorityGap:      0.5,
		DifficultyInverse: 0.3,
		WeakSignal:        0.1,
		AIOverview:        0.1,
	}
}

// Sum returns the weight total.
func (w Weights) Sum() float64 {
	return w.AuthorityGap + w.DifficultyInverse + w.WeakSignal + w.AIOverview
}

// Config controls scoring.
type Config struct {
	Weights Weights `yaml:"weights" mapstructure:"weights"`
	// AIOverviewPresent is the component score when an AI answer box is on
	// the SERP: a penalty by default. Industries that gain more from
	// structured content than they lose to answer-box diversion override it.
	AIOverviewPresent float64 `yaml:"ai_overview_present" mapstructure:"ai_overview_present"`
	// AIOverviewByIndustry overrides AIOverviewPresent per industry.
	AIOverviewByIndustry map[string]float64 `yaml:"ai_overview_by_industry" mapstructure:"ai_overview_by_industry"`
	Concurrency          int                `yaml:"concurrency" mapstructure:"concurrency"`
}

// DefaultConfig returns the scoring defaults.
func DefaultConfig() Config {
	return Config{
		Weights:           DefaultWeights(),
		AIOverviewPresent: 20,
	}
}

// Target describes the domain being scored for.
type Target struct {
	Authority float64
	// RankedByCategory feeds the topical authority bonus: keywords the
	// target already ranks for, grouped by topical category. Pluggable;
	// greenfield runs typically supply nothing.
	RankedByCategory map[string]int
	Industry         string
}

// Scorer computes winnability for keyword candidates.
type Scorer struct {
	cfg Config
}

// New creates a scorer, applying defaults for zero-valued config.
func New(cfg Config) *Scorer {
	if cfg.Weights.Sum() == 0 {
		cfg.Weights = DefaultWeights()
	}
	if cfg.AIOverviewPresent == 0 {
		cfg.AIOverviewPresent = 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	return &Scorer{cfg: cfg}
}

// ScoreAll scores every candidate in parallel. Scoring is a pure function of
// already-fetched inputs, so workers share nothing and ordering is free.
// Candidates without SERP data are retained with nil winnability and
// data_incomplete set; downstream selection excludes them but market sizing
// still counts them.
func (s *Scorer) ScoreAll(candidates []model.KeywordCandidate, target Target) []model.KeywordCandidate {
	out := make([]model.KeywordCandidate, len(candidates))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			out[i] = s.Score(c, target)
			return nil
		})
	}
	_ = g.Wait()

	scored := 0
	for i := range out {
		if out[i].Scored() {
			scored++
		}
	}
	zap.L().Info("winnability scoring complete",
		zap.Int("terms", len(out)),
		zap.Int("scored", scored),
		zap.Int("incomplete", len(out)-scored),
	)
	return out
}

// Score computes one candidate's winnability and component breakdown.
func (s *Scorer) Score(c model.KeywordCandidate, target Target) model.KeywordCandidate {
	if c.SERP == nil {
		c.Winnability = nil
		c.DataIncomplete = true
		c.DataCompleteness = model.CompletenessPartial
		return c
	}

	required := 3 // A_avg, A_min, KD
	present := 0
	if c.SERP.AverageAuthority != nil {
		present++
	}
	if c.SERP.MinAuthority != nil {
		present++
	}
	if c.Difficulty != nil {
		present++
	}
	if present == required {
		c.DataCompleteness = model.CompletenessFull
	} else {
		c.DataCompleteness = model.CompletenessPartial
	}

	avgAuth := deref(c.SERP.AverageAuthority, target.Authority)
	minAuth := deref(c.SERP.MinAuthority, avgAuth)
	kd := deref(c.Difficulty, neutralKD)

	advantage := authorityAdvantage(target, avgAuth, c.Category)
	pkd := math.Round(kd * (1 - advantage))
	c.PersonalizedKD = &pkd

	components := model.WinnabilityComponents{
		AuthorityGap:      authorityGapScore(target.Authority, avgAuth, minAuth),
		DifficultyInverse: 100 - pkd,
		WeakSignal:        weakSignalScore(c.SERP),
		AIOverview:        s.aiOverviewScore(c.SERP, target.Industry),
	}
	c.Components = &components

	w := s.cfg.Weights
	score := w.AuthorityGap*components.AuthorityGap +
		w.DifficultyInverse*components.DifficultyInverse +
		w.WeakSignal*components.WeakSignal +
		w.AIOverview*components.AIOverview
	if sum := w.Sum(); sum > 0 {
		score /= sum
	}
	score = clamp(score, 0, 100)
	c.Winnability = &score

	return c
}

// authorityAdvantage = clamp(0, 0.5, (T - A_avg)/100 + topicalBonus) where
// topicalBonus = min(0.3, ranked_keywords_in_same_category/100).
func authorityAdvantage(target Target, avgAuth float64, category string) float64 {
	bonus := 0.0
	if category != "" && target.RankedByCategory != nil {
		bonus = math.Min(maxTopicalBonus, float64(target.RankedByCategory[category])/100)
	}
	return clamp((target.Authority-avgAuth)/100+bonus, 0, maxAuthorityAdvantage)
}

// authorityGapScore is higher the closer the target's authority sits to (or
// above) the SERP's average and minimum. Monotonically non-decreasing in the
// target authority.
func authorityGapScore(targetAuth, avgAuth, minAuth float64) float64 {
	score := 50 + (targetAuth - avgAuth)
	if targetAuth >= minAuth {
		score += 20
	}
	return clamp(score, 0, 100)
}

// weakSignalScore grants a bonus when ranked pages show thin or outdated
// content, or when a low-authority domain already ranks.
func weakSignalScore(serp *model.SERPSnapshot) float64 {
	score := 0.0
	if len(serp.WeakContentSignals) > 0 {
		score += 60
	}
	if serp.HasLowAuthRanker {
		score += 40
	}
	return clamp(score, 0, 100)
}

func (s *Scorer) aiOverviewScore(serp *model.SERPSnapshot, industry string) float64 {
	if !serp.HasAIAnswerBox {
		return 100
	}
	if v, ok := s.cfg.AIOverviewByIndustry[industry]; ok {
		return clamp(v, 0, 100)
	}
	return clamp(s.cfg.AIOverviewPresent, 0, 100)
}

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
