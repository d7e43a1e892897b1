// Package market aggregates the scored keyword universe into
// addressable-market figures (TAM/SAM/SOM).
package market

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
)

// Config controls market sizing.
type Config struct {
	// ObtainableThreshold is the minimum winnability for SOM membership.
	ObtainableThreshold float64 `yaml:"obtainable_threshold" mapstructure:"obtainable_threshold"`
	// Opportunity score weights over the SOM/TAM ratio and SOM winnability.
	RatioWeight       float64 `yaml:"ratio_weight" mapstructure:"ratio_weight"`
	WinnabilityWeight float64 `yaml:"winnability_weight" mapstructure:"winnability_weight"`
	// Competition intensity weights over competitor count and authority.
	CountWeight     float64 `yaml:"count_weight" mapstructure:"count_weight"`
	AuthorityWeight float64 `yaml:"authority_weight" mapstructure:"authority_weight"`
}

// DefaultConfig returns the sizing defaults.
func DefaultConfig() Config {
	return Config{
		ObtainableThreshold: 50,
		RatioWeight:         0.6,
		WinnabilityWeight:   0.4,
		CountWeight:         0.4,
		AuthorityWeight:     0.6,
	}
}

// Size produces the MarketOpportunity for a run from the final scored
// universe. TAM counts every term including null-winnability ones; SAM
// restricts to the declared vertical; SOM restricts to terms at or above the
// obtainable threshold. Each figure carries the worst confidence tier among
// its constituent reconciled volumes.
func Size(universe []model.KeywordCandidate, competitors []model.Competitor, vertical string, cfg Config) *model.MarketOpportunity {
	if cfg.ObtainableThreshold <= 0 {
		cfg.ObtainableThreshold = 50
	}
	if cfg.RatioWeight == 0 && cfg.WinnabilityWeight == 0 {
		cfg.RatioWeight, cfg.WinnabilityWeight = 0.6, 0.4
	}
	if cfg.CountWeight == 0 && cfg.AuthorityWeight == 0 {
		cfg.CountWeight, cfg.AuthorityWeight = 0.4, 0.6
	}

	tam := figure(universe, func(model.KeywordCandidate) bool { return true })
	sam := figure(universe, verticalFilter(vertical))
	som := figure(universe, func(k model.KeywordCandidate) bool {
		return k.Scored() && *k.Winnability >= cfg.ObtainableThreshold
	})

	mo := &model.MarketOpportunity{
		TAM:       tam,
		SAM:       sam,
		SOM:       som,
		Landscape: landscape(competitors),
	}
	mo.OpportunityScore = opportunityScore(universe, tam, som, cfg)
	mo.CompetitionIntensity = intensity(mo.Landscape, cfg)

	zap.L().Info("market sized",
		zap.Float64("tam", tam.Volume),
		zap.Float64("sam", sam.Volume),
		zap.Float64("som", som.Volume),
		zap.Float64("opportunity", mo.OpportunityScore),
		zap.Float64("intensity", mo.CompetitionIntensity),
	)
	return mo
}

func figure(universe []model.KeywordCandidate, include func(model.KeywordCandidate) bool) model.MarketFigure {
	f := model.MarketFigure{Confidence: model.ConfidenceLow}
	var tiers []model.Confidence
	for _, k := range universe {
		if !include(k) {
			continue
		}
		f.KeywordCount++
		f.Volume += k.Volume.ValueOr(0)
		tiers = append(tiers, k.Volume.Confidence)
	}
	if len(tiers) > 0 {
		f.Confidence = model.WorstConfidence(tiers...)
	}
	return f
}

// verticalFilter matches terms whose category equals the declared vertical or
// whose text mentions it. An empty vertical keeps everything (SAM = TAM).
func verticalFilter(vertical string) func(model.KeywordCandidate) bool {
	v := strings.ToLower(strings.TrimSpace(vertical))
	if v == "" {
		return func(model.KeywordCandidate) bool { return true }
	}
	return func(k model.KeywordCandidate) bool {
		if strings.EqualFold(k.Category, v) {
			return true
		}
		return strings.Contains(strings.ToLower(k.Term), v)
	}
}

func landscape(competitors []model.Competitor) model.CompetitorLandscape {
	active := model.ActiveCompetitors(competitors)
	ls := model.CompetitorLandscape{Count: len(active)}
	if len(active) == 0 {
		return ls
	}

	var sum, totalTraffic float64
	ls.MinAuthority = active[0].AuthorityOr(0)
	for _, c := range active {
		a := c.AuthorityOr(0)
		sum += a
		if a < ls.MinAuthority {
			ls.MinAuthority = a
		}
		if a > ls.MaxAuthority {
			ls.MaxAuthority = a
		}
		totalTraffic += c.Traffic.ValueOr(0)
	}
	ls.MeanAuthority = sum / float64(len(active))

	if totalTraffic > 0 {
		ls.TrafficShare = make(map[string]float64, len(active))
		for _, c := range active {
			ls.TrafficShare[c.Domain] = c.Traffic.ValueOr(0) / totalTraffic
		}
	}
	return ls
}

// opportunityScore blends the obtainable share of the market with the mean
// winnability of the obtainable terms, on a 0-100 scale.
func opportunityScore(universe []model.KeywordCandidate, tam, som model.MarketFigure, cfg Config) float64 {
	ratio := 0.0
	if tam.Volume > 0 {
		ratio = som.Volume / tam.Volume
	}

	var winSum float64
	var winCount int
	for _, k := range universe {
		if k.Scored() && *k.Winnability >= cfg.ObtainableThreshold {
			winSum += *k.Winnability
			winCount++
		}
	}
	avgWin := 0.0
	if winCount > 0 {
		avgWin = winSum / float64(winCount)
	}

	score := cfg.RatioWeight*ratio*100 + cfg.WinnabilityWeight*avgWin
	return clamp(score, 0, 100)
}

// intensity weighs competitor count (saturating at 20) against mean authority.
func intensity(ls model.CompetitorLandscape, cfg Config) float64 {
	countTerm := float64(ls.Count) / 20
	if countTerm > 1 {
		countTerm = 1
	}
	score := cfg.CountWeight*countTerm*100 + cfg.AuthorityWeight*ls.MeanAuthority
	return clamp(score, 0, 100)
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
