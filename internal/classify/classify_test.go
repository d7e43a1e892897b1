package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/resilience"
)

func withAuthority(domain string, authority float64, occurrences int) model.Competitor {
	v := authority
	return model.Competitor{
		Domain:          domain,
		DiscoverySource: model.SourceSERP,
		SERPOccurrences: occurrences,
		Authority:       model.ReconciledValue{Quantity: "authority", Value: &v, Confidence: model.ConfidenceHigh},
	}
}

func TestClassify_LowAuthorityTargetScenario(t *testing.T) {
	// A brand-new site at authority 15 against an 18, a 52 with heavy SERP
	// overlap, and a 91.
	cl := New(DefaultConfig())

	out := cl.Classify([]model.Competitor{
		withAuthority("peer.com", 18, 5),
		withAuthority("bigsource.com", 52, 18),
		withAuthority("giant.com", 91, 3),
	}, 15)

	require.Len(t, out, 3)
	assert.Equal(t, model.PurposeBenchmarkPeer, out[0].Purpose)
	assert.Equal(t, model.PurposeKeywordSource, out[1].Purpose)
	assert.Equal(t, model.PurposeAspirational, out[2].Purpose)

	// The aspirational giant is retained, not dropped, and carries a warning.
	assert.False(t, out[2].Removed)
	require.NotEmpty(t, out[2].Warnings)
	assert.Equal(t, model.ValidationWarning, out[2].Validation)
}

func TestClassify_SecondaryBlocklist(t *testing.T) {
	cl := New(Config{SecondaryBlocklist: []string{"coupons.example"}})

	out := cl.Classify([]model.Competitor{
		withAuthority("en.wikipedia.org", 95, 20),
		withAuthority("deals.coupons.example", 40, 8),
		withAuthority("peer.com", 20, 4),
	}, 15)

	assert.Equal(t, model.PurposeNotCompetitor, out[0].Purpose)
	assert.Equal(t, model.PurposeNotCompetitor, out[1].Purpose)
	assert.Equal(t, model.PurposeBenchmarkPeer, out[2].Purpose)
}

func TestClassify_PeerBoundaries(t *testing.T) {
	cl := New(DefaultConfig())

	tests := []struct {
		authority float64
		want      model.PurposeCategory
	}{
		{50, model.PurposeBenchmarkPeer},  // exactly 0.5x
		{200, model.PurposeBenchmarkPeer}, // exactly 2.0x
		{201, model.PurposeAspirational},
		{30, model.PurposeContentModel}, // 0.3x, low overlap
	}
	for _, tt := range tests {
		out := cl.Classify([]model.Competitor{withAuthority("d.com", tt.authority, 1)}, 100)
		assert.Equal(t, tt.want, out[0].Purpose, "authority %.0f", tt.authority)
	}
}

func TestClassify_ZeroTargetAuthority(t *testing.T) {
	cl := New(DefaultConfig())

	out := cl.Classify([]model.Competitor{withAuthority("d.com", 40, 20)}, 0)
	assert.Equal(t, model.PurposeKeywordSource, out[0].Purpose)
}

func TestRelevanceScores(t *testing.T) {
	set := []model.Competitor{
		{Domain: "a.com", SERPOccurrences: 10, Purpose: model.PurposeBenchmarkPeer},
		{Domain: "b.com", SERPOccurrences: 0, Purpose: model.PurposeContentModel},
	}

	out := RelevanceScores(set, 10)
	assert.Equal(t, 100.0, out[0].RelevanceScore)
	assert.Equal(t, 10.0, out[1].RelevanceScore)
}

func TestValidate_TooFewPeers(t *testing.T) {
	report := Validate([]model.Competitor{
		withPurpose("a.com", model.PurposeBenchmarkPeer, 20),
		withPurpose("b.com", model.PurposeKeywordSource, 50),
		withPurpose("c.com", model.PurposeKeywordSource, 60),
	}, 15)

	assert.False(t, report.OK())
	require.Error(t, report.Err())
	assert.True(t, resilience.IsSetImbalance(report.Err()))
}

func TestValidate_AspirationalMajority(t *testing.T) {
	report := Validate([]model.Competitor{
		withPurpose("a.com", model.PurposeBenchmarkPeer, 20),
		withPurpose("b.com", model.PurposeBenchmarkPeer, 25),
		withPurpose("c.com", model.PurposeAspirational, 90),
		withPurpose("d.com", model.PurposeAspirational, 95),
		withPurpose("e.com", model.PurposeAspirational, 99),
	}, 15)

	assert.False(t, report.OK())
}

func TestValidate_BalancedSet(t *testing.T) {
	report := Validate([]model.Competitor{
		withPurpose("a.com", model.PurposeBenchmarkPeer, 18),
		withPurpose("b.com", model.PurposeBenchmarkPeer, 22),
		withPurpose("c.com", model.PurposeKeywordSource, 30),
		withPurpose("d.com", model.PurposeKeywordSource, 28),
	}, 15)

	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
}

func TestCurate_UnblocksImbalancedSet(t *testing.T) {
	set := []model.Competitor{
		withPurpose("a.com", model.PurposeBenchmarkPeer, 20),
		withPurpose("b.com", model.PurposeKeywordSource, 25),
		withPurpose("c.com", model.PurposeKeywordSource, 60),
	}
	require.False(t, Validate(set, 15).OK())

	curated, report, err := Curate(set, Curation{
		Overrides: map[string]model.PurposeCategory{"b.com": model.PurposeBenchmarkPeer},
	}, 15)

	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.True(t, curated[1].UserCurated)
	assert.Equal(t, model.PurposeBenchmarkPeer, curated[1].Purpose)
	// Input set is untouched.
	assert.Equal(t, model.PurposeKeywordSource, set[1].Purpose)
}

func TestCurate_RemovalAndAddition(t *testing.T) {
	set := []model.Competitor{
		withPurpose("a.com", model.PurposeBenchmarkPeer, 20),
		withPurpose("b.com", model.PurposeBenchmarkPeer, 25),
		withPurpose("junk.com", model.PurposeKeywordSource, 60),
	}

	curated, _, err := Curate(set, Curation{
		Removals:  []string{"junk.com"},
		Additions: []model.Competitor{withPurpose("new.com", model.PurposeKeywordSource, 40)},
	}, 15)

	require.NoError(t, err)
	require.Len(t, curated, 4)
	assert.True(t, curated[2].Removed)
	assert.Equal(t, model.SourceUserProvided, curated[3].DiscoverySource)
	assert.True(t, curated[3].UserCurated)
}

func TestCurate_InvalidOverrideRejected(t *testing.T) {
	_, _, err := Curate([]model.Competitor{withPurpose("a.com", model.PurposeBenchmarkPeer, 20)}, Curation{
		Overrides: map[string]model.PurposeCategory{"a.com": "archrival"},
	}, 15)

	assert.Error(t, err)
}

func withPurpose(domain string, purpose model.PurposeCategory, authority float64) model.Competitor {
	c := withAuthority(domain, authority, 1)
	c.Purpose = purpose
	return c
}
