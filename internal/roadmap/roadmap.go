// Package roadmap selects beachhead keywords and partitions the scored
// universe into growth phases.
package roadmap

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
)

// CTRAssumption is a conservative/aggressive click-through pair for a phase.
type CTRAssumption struct {
	Conservative float64 `yaml:"conservative" mapstructure:"conservative"`
	Aggressive   float64 `yaml:"aggressive" mapstructure:"aggressive"`
}

// Config controls beachhead selection and phase partitioning.
type Config struct {
	MinBeachheadWinnability float64 `yaml:"min_beachhead_winnability" mapstructure:"min_beachhead_winnability"`
	MaxBeachheads           int     `yaml:"max_beachheads" mapstructure:"max_beachheads"`
	// DiversityCap is the maximum fraction of beachheads one topical
	// category may contribute.
	DiversityCap float64 `yaml:"diversity_cap" mapstructure:"diversity_cap"`
	// PhaseTermCaps limit the listed terms per phase in the output document.
	PhaseTermCaps map[model.GrowthPhase]int           `yaml:"-" mapstructure:"-"`
	CTR           map[model.GrowthPhase]CTRAssumption `yaml:"-" mapstructure:"-"`
}

// DefaultConfig returns the roadmap defaults. CTR assumptions rise in later
// phases to reflect accumulated authority.
func DefaultConfig() Config {
	return Config{
		MinBeachheadWinnability: 60,
		MaxBeachheads:           20,
		DiversityCap:            0.4,
		PhaseTermCaps: map[model.GrowthPhase]int{
			model.PhaseFoundation:  10,
			model.PhaseTraction:    25,
			model.PhaseGrowth:      30,
			model.PhaseCompetitive: 20,
		},
		CTR: map[model.GrowthPhase]CTRAssumption{
			model.PhaseFoundation:  {Conservative: 0.05, Aggressive: 0.12},
			model.PhaseTraction:    {Conservative: 0.08, Aggressive: 0.18},
			model.PhaseGrowth:      {Conservative: 0.12, Aggressive: 0.25},
			model.PhaseCompetitive: {Conservative: 0.15, Aggressive: 0.30},
		},
	}
}

// Winnability band boundaries for the Traction/Growth/Competitive split.
const (
	tractionMin = 60.0
	growthMin   = 40.0
)

// Generate selects beachheads and assigns every scored candidate a growth
// phase. The returned universe carries the phase assignments (an exhaustive,
// non-overlapping partition of the scored terms; null-winnability terms get
// no phase), alongside the phase summaries for the output document.
func Generate(universe []model.KeywordCandidate, cfg Config) ([]model.KeywordCandidate, *model.Roadmap) {
	cfg = withDefaults(cfg)

	out := make([]model.KeywordCandidate, len(universe))
	copy(out, universe)

	selected := selectBeachheads(out, cfg)
	beachheadTerms := make(map[string]int, len(selected)) // term -> priority
	for i, idx := range selected {
		beachheadTerms[out[idx].Term] = i + 1
	}

	// Phase assignment: exhaustive over scored terms, no overlap.
	for i := range out {
		k := &out[i]
		if !k.Scored() {
			k.Phase = nil
			continue
		}
		var phase model.GrowthPhase
		if prio, ok := beachheadTerms[k.Term]; ok {
			phase = model.PhaseFoundation
			k.Beachhead = true
			p := prio
			k.BeachheadPriority = &p
		} else {
			switch w := *k.Winnability; {
			case w >= tractionMin:
				phase = model.PhaseTraction
			case w >= growthMin:
				phase = model.PhaseGrowth
			default:
				phase = model.PhaseCompetitive
			}
		}
		k.Phase = &phase
	}

	rm := buildRoadmap(out, cfg)
	zap.L().Info("roadmap generated",
		zap.Int("beachheads", len(selected)),
		zap.Int("phases", len(rm.Phases)),
	)
	return out, rm
}

// selectBeachheads ranks qualifying terms by winnability descending and
// greedily selects up to MaxBeachheads, capping any single topical category
// at DiversityCap of the selection and backfilling from other categories.
// Returns indexes into the universe in priority order.
func selectBeachheads(universe []model.KeywordCandidate, cfg Config) []int {
	var qualified []int
	for i, k := range universe {
		if k.Scored() && *k.Winnability >= cfg.MinBeachheadWinnability {
			qualified = append(qualified, i)
		}
	}

	sort.SliceStable(qualified, func(a, b int) bool {
		ka, kb := universe[qualified[a]], universe[qualified[b]]
		if *ka.Winnability != *kb.Winnability {
			return *ka.Winnability > *kb.Winnability
		}
		return ka.Volume.ValueOr(0) > kb.Volume.ValueOr(0)
	})

	categoryCap := int(cfg.DiversityCap * float64(cfg.MaxBeachheads))
	if categoryCap < 1 {
		categoryCap = 1
	}

	var selected []int
	perCategory := make(map[string]int)
	for _, idx := range qualified {
		if len(selected) >= cfg.MaxBeachheads {
			break
		}
		cat := universe[idx].Category
		if perCategory[cat] >= categoryCap {
			continue
		}
		perCategory[cat]++
		selected = append(selected, idx)
	}
	return selected
}

func buildRoadmap(universe []model.KeywordCandidate, cfg Config) *model.Roadmap {
	byPhase := make(map[model.GrowthPhase][]model.KeywordCandidate)
	var beachheadKws []model.KeywordCandidate
	for _, k := range universe {
		if k.Phase == nil {
			continue
		}
		byPhase[*k.Phase] = append(byPhase[*k.Phase], k)
		if k.Beachhead {
			beachheadKws = append(beachheadKws, k)
		}
	}
	sort.SliceStable(beachheadKws, func(i, j int) bool {
		return *beachheadKws[i].BeachheadPriority < *beachheadKws[j].BeachheadPriority
	})
	beachheads := make([]string, 0, len(beachheadKws))
	for _, k := range beachheadKws {
		beachheads = append(beachheads, k.Term)
	}

	rm := &model.Roadmap{Beachheads: beachheads}
	for _, phase := range []model.GrowthPhase{
		model.PhaseFoundation, model.PhaseTraction, model.PhaseGrowth, model.PhaseCompetitive,
	} {
		members := byPhase[phase]
		sortPhase(phase, members)

		terms := make([]string, 0, len(members))
		for _, k := range members {
			terms = append(terms, k.Term)
		}
		if limit := cfg.PhaseTermCaps[phase]; limit > 0 && len(terms) > limit {
			terms = terms[:limit]
		}

		ctr := cfg.CTR[phase]
		var low, high float64
		for _, k := range members {
			v := k.Volume.ValueOr(0)
			low += v * ctr.Conservative
			high += v * ctr.Aggressive
		}

		rm.Phases = append(rm.Phases, model.RoadmapPhase{
			Phase:        phase,
			Name:         phase.String(),
			KeywordCount: len(members),
			Terms:        terms,
			EstTraffic:   model.TrafficRange{Low: low, High: high},
			Priority:     int(phase),
		})
	}

	if len(beachheads) == 0 {
		rm.Warnings = append(rm.Warnings, fmt.Sprintf(
			"no terms met the beachhead threshold (winnability >= %.0f)", cfg.MinBeachheadWinnability,
		))
	}
	return rm
}

// sortPhase orders Foundation by beachhead priority, other phases by
// winnability descending.
func sortPhase(phase model.GrowthPhase, members []model.KeywordCandidate) {
	if phase == model.PhaseFoundation {
		sort.SliceStable(members, func(i, j int) bool {
			pi, pj := 0, 0
			if members[i].BeachheadPriority != nil {
				pi = *members[i].BeachheadPriority
			}
			if members[j].BeachheadPriority != nil {
				pj = *members[j].BeachheadPriority
			}
			return pi < pj
		})
		return
	}
	sort.SliceStable(members, func(i, j int) bool {
		return *members[i].Winnability > *members[j].Winnability
	})
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.MinBeachheadWinnability <= 0 {
		cfg.MinBeachheadWinnability = def.MinBeachheadWinnability
	}
	if cfg.MaxBeachheads <= 0 {
		cfg.MaxBeachheads = def.MaxBeachheads
	}
	if cfg.DiversityCap <= 0 || cfg.DiversityCap > 1 {
		cfg.DiversityCap = def.DiversityCap
	}
	if cfg.PhaseTermCaps == nil {
		cfg.PhaseTermCaps = def.PhaseTermCaps
	}
	if cfg.CTR == nil {
		cfg.CTR = def.CTR
	}
	return cfg
}
