package roadmap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
)

func scored(term, category string, winnability, volume float64) model.KeywordCandidate {
	w, v := winnability, volume
	return model.KeywordCandidate{
		Term:        term,
		Category:    category,
		Winnability: &w,
		Volume:      model.ReconciledValue{Quantity: "volume", Value: &v, Confidence: model.ConfidenceHigh},
	}
}

func TestGenerate_ExhaustivePartition(t *testing.T) {
	universe := []model.KeywordCandidate{
		scored("easy win", "a", 85, 100),
		scored("strong", "b", 65, 200),
		scored("medium", "c", 50, 300),
		scored("hard", "d", 20, 400),
		{Term: "unscored"},
	}

	out, rm := Generate(universe, DefaultConfig())

	require.NotNil(t, rm)
	phaseCount := 0
	for _, k := range out {
		if k.Scored() {
			require.NotNil(t, k.Phase, "scored term %q must carry a phase", k.Term)
			phaseCount++
		} else {
			assert.Nil(t, k.Phase, "unscored term %q must not be phased", k.Term)
		}
	}
	assert.Equal(t, 4, phaseCount)

	total := 0
	for _, p := range rm.Phases {
		total += p.KeywordCount
	}
	assert.Equal(t, 4, total)
}

func TestGenerate_PhaseBands(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBeachheads = 1

	universe := []model.KeywordCandidate{
		scored("beachhead", "a", 90, 100),
		scored("traction", "b", 65, 100),
		scored("growth", "c", 50, 100),
		scored("competitive", "d", 20, 100),
	}

	out, _ := Generate(universe, cfg)

	phases := map[string]model.GrowthPhase{}
	for _, k := range out {
		if k.Phase != nil {
			phases[k.Term] = *k.Phase
		}
	}
	assert.Equal(t, model.PhaseFoundation, phases["beachhead"])
	assert.Equal(t, model.PhaseTraction, phases["traction"])
	assert.Equal(t, model.PhaseGrowth, phases["growth"])
	assert.Equal(t, model.PhaseCompetitive, phases["competitive"])
}

func TestSelectBeachheads_DiversityCap(t *testing.T) {
	// 15 of the top 20 winnable terms share one category; the cap holds one
	// category to 40% of the beachhead list with backfill from the rest.
	var universe []model.KeywordCandidate
	for i := 0; i < 15; i++ {
		universe = append(universe, scored(fmt.Sprintf("crm term %d", i), "crm", 95-float64(i), 1000))
	}
	for i := 0; i < 10; i++ {
		universe = append(universe, scored(fmt.Sprintf("other term %d", i), fmt.Sprintf("cat%d", i), 70-float64(i), 500))
	}

	cfg := DefaultConfig() // MaxBeachheads 20, DiversityCap 0.4

	_, rm := Generate(universe, cfg)

	require.NotNil(t, rm)
	assert.Len(t, rm.Beachheads, 18) // 8 crm + 10 others

	perCategory := map[string]int{}
	byTerm := map[string]model.KeywordCandidate{}
	for _, k := range universe {
		byTerm[k.Term] = k
	}
	for _, b := range rm.Beachheads {
		perCategory[byTerm[b].Category]++
	}
	assert.Equal(t, 8, perCategory["crm"])
}

func TestSelectBeachheads_ThresholdAndPriority(t *testing.T) {
	universe := []model.KeywordCandidate{
		scored("second", "a", 75, 100),
		scored("first", "b", 90, 100),
		scored("below", "c", 59, 9000),
	}

	out, rm := Generate(universe, DefaultConfig())

	require.Len(t, rm.Beachheads, 2)
	assert.Equal(t, []string{"first", "second"}, rm.Beachheads)

	for _, k := range out {
		switch k.Term {
		case "first":
			require.NotNil(t, k.BeachheadPriority)
			assert.Equal(t, 1, *k.BeachheadPriority)
			assert.True(t, k.Beachhead)
		case "below":
			assert.False(t, k.Beachhead)
		}
	}
}

func TestGenerate_NoQualifyingBeachheads(t *testing.T) {
	universe := []model.KeywordCandidate{
		scored("hard a", "a", 30, 100),
		scored("hard b", "b", 25, 100),
	}

	_, rm := Generate(universe, DefaultConfig())

	assert.Empty(t, rm.Beachheads)
	assert.NotEmpty(t, rm.Warnings)
}

func TestGenerate_TrafficRangeUsesCTR(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBeachheads = 1

	universe := []model.KeywordCandidate{
		scored("beachhead", "a", 90, 1000),
	}

	_, rm := Generate(universe, cfg)

	var foundation *model.RoadmapPhase
	for i := range rm.Phases {
		if rm.Phases[i].Phase == model.PhaseFoundation {
			foundation = &rm.Phases[i]
		}
	}
	require.NotNil(t, foundation)
	assert.InDelta(t, 50, foundation.EstTraffic.Low, 1e-9)   // 1000 * 0.05
	assert.InDelta(t, 120, foundation.EstTraffic.High, 1e-9) // 1000 * 0.12
}

func TestGenerate_PhaseTermListCapped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBeachheads = 1
	cfg.PhaseTermCaps = map[model.GrowthPhase]int{model.PhaseTraction: 2}

	var universe []model.KeywordCandidate
	universe = append(universe, scored("beachhead", "bh", 95, 100))
	for i := 0; i < 5; i++ {
		universe = append(universe, scored(fmt.Sprintf("traction %d", i), "t", 70, 100))
	}

	_, rm := Generate(universe, cfg)

	for _, p := range rm.Phases {
		if p.Phase == model.PhaseTraction {
			assert.Len(t, p.Terms, 2)
			// Full membership still counted even when the display list is capped.
			assert.Equal(t, 5, p.KeywordCount)
		}
	}
}

func TestGenerate_InputNotMutated(t *testing.T) {
	universe := []model.KeywordCandidate{scored("a", "x", 90, 100)}

	_, _ = Generate(universe, DefaultConfig())

	assert.Nil(t, universe[0].Phase)
	assert.False(t, universe[0].Beachhead)
}
