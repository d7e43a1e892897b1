package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
)

func est(source string, value float64) model.SourceEstimate {
	return model.SourceEstimate{Source: source, Value: value}
}

func TestReconcile_AgreementIsHighConfidence(t *testing.T) {
	rv := Reconcile("traffic", []model.SourceEstimate{
		est("alpha", 1000), est("beta", 1050), est("gamma", 980),
	}, Options{Primary: "alpha"})

	assert.Equal(t, model.ConfidenceHigh, rv.Confidence)
	require.NotNil(t, rv.Value)
	assert.InDelta(t, 1010, *rv.Value, 0.01)
	assert.Less(t, rv.VarianceRatio, HighConfidenceMax)
	assert.Empty(t, rv.Warning)
	assert.Len(t, rv.Sources, 3)
}

func TestReconcile_DisagreementUsesPrimaryRaw(t *testing.T) {
	rv := Reconcile("traffic", []model.SourceEstimate{
		est("alpha", 500), est("beta", 1800),
	}, Options{Primary: "alpha"})

	assert.Equal(t, model.ConfidenceLow, rv.Confidence)
	require.NotNil(t, rv.Value)
	// Never a blend: the primary's raw value wins.
	assert.Equal(t, 500.0, *rv.Value)
	assert.Equal(t, "alpha", rv.ChosenSource)
	assert.Contains(t, rv.Warning, "high variance")
	assert.Contains(t, rv.Warning, "traffic")
	// Both source values stay visible for the provenance trail.
	assert.Equal(t, 1800.0, rv.Sources["beta"])
}

func TestReconcile_ModerateBand(t *testing.T) {
	// Mean 1150, max deviation 350: ratio ~0.304.
	rv := Reconcile("volume", []model.SourceEstimate{
		est("alpha", 800), est("beta", 1500),
	}, Options{Primary: "alpha"})

	assert.Equal(t, model.ConfidenceModerate, rv.Confidence)
	require.NotNil(t, rv.Value)
	assert.InDelta(t, 1150, *rv.Value, 0.01)
	assert.Empty(t, rv.Warning)
}

func TestReconcile_FirstPartyOverridesVariance(t *testing.T) {
	rv := Reconcile("authority", []model.SourceEstimate{
		est("alpha", 500), est("owner", 1800),
	}, Options{Primary: "alpha", FirstParty: "owner"})

	assert.Equal(t, model.ConfidenceHigh, rv.Confidence)
	require.NotNil(t, rv.Value)
	assert.Equal(t, 1800.0, *rv.Value)
	assert.True(t, rv.FirstParty)
	assert.Equal(t, "owner", rv.ChosenSource)
}

func TestReconcile_NoEstimates(t *testing.T) {
	rv := Reconcile("authority", nil, Options{})

	assert.Nil(t, rv.Value)
	assert.Equal(t, model.ConfidenceLow, rv.Confidence)
}

func TestReconcile_SingleSourceIsHigh(t *testing.T) {
	rv := Reconcile("authority", []model.SourceEstimate{est("alpha", 42)}, Options{Primary: "alpha"})

	assert.Equal(t, model.ConfidenceHigh, rv.Confidence)
	require.NotNil(t, rv.Value)
	assert.Equal(t, 42.0, *rv.Value)
	assert.Zero(t, rv.VarianceRatio)
}

func TestReconcile_ZeroMean(t *testing.T) {
	rv := Reconcile("traffic", []model.SourceEstimate{
		est("alpha", 0), est("beta", 0),
	}, Options{Primary: "beta"})

	assert.Equal(t, model.ConfidenceLow, rv.Confidence)
	require.NotNil(t, rv.Value)
	assert.Equal(t, 0.0, *rv.Value)
	assert.Equal(t, "beta", rv.ChosenSource)
}

func TestReconcile_WeightedAverage(t *testing.T) {
	rv := Reconcile("volume", []model.SourceEstimate{
		est("alpha", 100), est("beta", 110),
	}, Options{
		Primary: "alpha",
		Weights: map[string]float64{"alpha": 3, "beta": 1},
	})

	require.NotNil(t, rv.Value)
	assert.InDelta(t, 102.5, *rv.Value, 0.01)
}

func TestReconcile_PrimaryAbsentFallsBackToFirst(t *testing.T) {
	rv := Reconcile("traffic", []model.SourceEstimate{
		est("beta", 500), est("gamma", 1800),
	}, Options{Primary: "alpha"})

	assert.Equal(t, "beta", rv.ChosenSource)
	require.NotNil(t, rv.Value)
	assert.Equal(t, 500.0, *rv.Value)
}

func TestReconcile_KeepsLatestAsOf(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	rv := Reconcile("authority", []model.SourceEstimate{
		{Source: "alpha", Value: 50, AsOf: &older},
		{Source: "beta", Value: 52, AsOf: &newer},
	}, Options{Primary: "alpha"})

	require.NotNil(t, rv.AsOf)
	assert.True(t, rv.AsOf.Equal(newer))
}
