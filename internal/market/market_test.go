package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
)

func term(name, category string, volume float64, confidence model.Confidence, winnability *float64) model.KeywordCandidate {
	v := volume
	return model.KeywordCandidate{
		Term:        name,
		Category:    category,
		Volume:      model.ReconciledValue{Quantity: "volume", Value: &v, Confidence: confidence},
		Winnability: winnability,
	}
}

func win(v float64) *float64 { return &v }

func TestSize_TAMIncludesUnscored(t *testing.T) {
	universe := []model.KeywordCandidate{
		term("a", "crm", 1000, model.ConfidenceHigh, win(70)),
		term("b", "crm", 500, model.ConfidenceHigh, win(30)),
		term("c", "crm", 200, model.ConfidenceHigh, nil), // unscored, still in TAM
	}

	mo := Size(universe, nil, "", DefaultConfig())

	assert.Equal(t, 1700.0, mo.TAM.Volume)
	assert.Equal(t, 3, mo.TAM.KeywordCount)
	// SOM keeps only terms at or above the obtainable threshold.
	assert.Equal(t, 1000.0, mo.SOM.Volume)
	assert.Equal(t, 1, mo.SOM.KeywordCount)
}

func TestSize_NestedFigures(t *testing.T) {
	universe := []model.KeywordCandidate{
		term("crm pricing", "crm", 1000, model.ConfidenceHigh, win(80)),
		term("spreadsheets", "office", 4000, model.ConfidenceHigh, win(90)),
	}

	mo := Size(universe, nil, "crm", DefaultConfig())

	assert.Equal(t, 5000.0, mo.TAM.Volume)
	assert.Equal(t, 1000.0, mo.SAM.Volume)
	assert.GreaterOrEqual(t, mo.TAM.Volume, mo.SAM.Volume)
	assert.GreaterOrEqual(t, mo.SOM.Volume, 0.0)
}

func TestSize_WorstConfidencePropagates(t *testing.T) {
	universe := []model.KeywordCandidate{
		term("a", "crm", 1000, model.ConfidenceHigh, win(70)),
		term("b", "crm", 500, model.ConfidenceLow, win(70)),
	}

	mo := Size(universe, nil, "", DefaultConfig())

	assert.Equal(t, model.ConfidenceLow, mo.TAM.Confidence)
	assert.Equal(t, model.ConfidenceLow, mo.SOM.Confidence)
}

func TestSize_EmptyUniverse(t *testing.T) {
	mo := Size(nil, nil, "", DefaultConfig())

	assert.Zero(t, mo.TAM.Volume)
	assert.Equal(t, model.ConfidenceLow, mo.TAM.Confidence)
	assert.Zero(t, mo.OpportunityScore)
}

func TestLandscape(t *testing.T) {
	a30, a50, a70 := 30.0, 50.0, 70.0
	t1, t2 := 600.0, 400.0
	competitors := []model.Competitor{
		{Domain: "a.com", Purpose: model.PurposeBenchmarkPeer,
			Authority: model.ReconciledValue{Value: &a30},
			Traffic:   model.ReconciledValue{Value: &t1}},
		{Domain: "b.com", Purpose: model.PurposeKeywordSource,
			Authority: model.ReconciledValue{Value: &a50},
			Traffic:   model.ReconciledValue{Value: &t2}},
		{Domain: "c.com", Purpose: model.PurposeAspirational,
			Authority: model.ReconciledValue{Value: &a70}},
		{Domain: "gone.com", Purpose: model.PurposeBenchmarkPeer, Removed: true},
	}

	ls := landscape(competitors)

	assert.Equal(t, 3, ls.Count)
	assert.Equal(t, 30.0, ls.MinAuthority)
	assert.Equal(t, 70.0, ls.MaxAuthority)
	assert.InDelta(t, 50, ls.MeanAuthority, 1e-9)
	require.NotNil(t, ls.TrafficShare)
	assert.InDelta(t, 0.6, ls.TrafficShare["a.com"], 1e-9)
	assert.InDelta(t, 0.4, ls.TrafficShare["b.com"], 1e-9)
}

func TestOpportunityScoreBounds(t *testing.T) {
	universe := []model.KeywordCandidate{
		term("a", "crm", 1000, model.ConfidenceHigh, win(90)),
	}

	mo := Size(universe, nil, "", DefaultConfig())

	// All volume obtainable at winnability 90: 0.6*100 + 0.4*90 = 96.
	assert.InDelta(t, 96, mo.OpportunityScore, 1e-9)
}

func TestIntensitySaturates(t *testing.T) {
	cfg := DefaultConfig()

	low := intensity(model.CompetitorLandscape{Count: 2, MeanAuthority: 20}, cfg)
	high := intensity(model.CompetitorLandscape{Count: 40, MeanAuthority: 80}, cfg)

	assert.Less(t, low, high)
	// Count saturates at 20: 0.4*100 + 0.6*80 = 88.
	assert.InDelta(t, 88, high, 1e-9)
	assert.LessOrEqual(t, high, 100.0)
}
