package universe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/provider"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/resilience"
)

type fakeProvider struct {
	name     string
	keywords map[string][]provider.DomainKeyword
	err      error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) GetDomainMetrics(ctx context.Context, domain string) (*provider.DomainMetrics, error) {
	return nil, errors.New("unused")
}

func (f *fakeProvider) GetSERP(ctx context.Context, keyword string, depth int) ([]provider.SERPEntry, error) {
	return nil, errors.New("unused")
}

func (f *fakeProvider) GetKeywordsForDomain(ctx context.Context, domain string, limit int) ([]provider.DomainKeyword, error) {
	if f.err != nil {
		return nil, f.err
	}
	kws, ok := f.keywords[domain]
	if !ok {
		return nil, errors.New("not found")
	}
	if limit > 0 && len(kws) > limit {
		kws = kws[:limit]
	}
	return kws, nil
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond}
}

func peer(domain string) model.Competitor {
	return model.Competitor{Domain: domain, Purpose: model.PurposeBenchmarkPeer}
}

func TestBuild_MergesByNormalizedTerm(t *testing.T) {
	fake := &fakeProvider{
		name: "fake",
		keywords: map[string][]provider.DomainKeyword{
			"a.com": {
				{Term: "CRM Software", Volume: 1000, Difficulty: 40, Position: 8},
			},
			"b.com": {
				{Term: "crm   software", Volume: 1000, Difficulty: 42, Position: 3},
				{Term: "crm pricing", Volume: 300, Difficulty: 25, Position: 5},
			},
		},
	}
	reg := provider.NewRegistry("fake")
	reg.Register(fake)
	b := New(reg, DefaultConfig(), fastRetry())

	res, err := b.Build(context.Background(), []model.Competitor{peer("a.com"), peer("b.com")})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)

	merged := res.Candidates[0]
	assert.Equal(t, "crm software", merged.Term)
	// Best (lowest) position wins the source slot.
	assert.Equal(t, "b.com", merged.SourceCompetitor)
	assert.Equal(t, 3, merged.SourcePosition)
	assert.Len(t, merged.Contributors, 2)
	// Agreeing volumes reconcile to high confidence.
	assert.Equal(t, model.ConfidenceHigh, merged.Volume.Confidence)
	assert.Equal(t, 1000.0, merged.Volume.ValueOr(0))
}

func TestBuild_VolumeDisagreementGoesThroughReconciler(t *testing.T) {
	fake := &fakeProvider{
		name: "fake",
		keywords: map[string][]provider.DomainKeyword{
			"a.com": {{Term: "crm", Volume: 500, Position: 2}},
			"b.com": {{Term: "crm", Volume: 1800, Position: 6}},
		},
	}
	reg := provider.NewRegistry("fake")
	reg.Register(fake)
	b := New(reg, DefaultConfig(), fastRetry())

	res, err := b.Build(context.Background(), []model.Competitor{peer("a.com"), peer("b.com")})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)

	vol := res.Candidates[0].Volume
	assert.Equal(t, model.ConfidenceLow, vol.Confidence)
	assert.NotEmpty(t, vol.Warning)
	// Primary pull's raw value, never a blend.
	assert.Equal(t, 500.0, vol.ValueOr(0))
	assert.Len(t, vol.Sources, 2)
}

func TestBuild_SkipsRemovedAndExcluded(t *testing.T) {
	fake := &fakeProvider{
		name: "fake",
		keywords: map[string][]provider.DomainKeyword{
			"a.com":    {{Term: "crm", Volume: 100, Position: 1}},
			"gone.com": {{Term: "other", Volume: 100, Position: 1}},
		},
	}
	reg := provider.NewRegistry("fake")
	reg.Register(fake)
	b := New(reg, DefaultConfig(), fastRetry())

	removed := peer("gone.com")
	removed.Removed = true
	excluded := model.Competitor{Domain: "wiki.org", Purpose: model.PurposeNotCompetitor}

	res, err := b.Build(context.Background(), []model.Competitor{peer("a.com"), removed, excluded})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "crm", res.Candidates[0].Term)
}

func TestBuild_FailedPullIsIsolated(t *testing.T) {
	fake := &fakeProvider{
		name: "fake",
		keywords: map[string][]provider.DomainKeyword{
			"a.com": {{Term: "crm", Volume: 100, Position: 1}},
		},
	}
	reg := provider.NewRegistry("fake")
	reg.Register(fake)
	b := New(reg, DefaultConfig(), fastRetry())

	res, err := b.Build(context.Background(), []model.Competitor{peer("a.com"), peer("down.com")})
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 1)
	assert.Len(t, res.Errors, 1)
}

func TestBuild_SortsByVolume(t *testing.T) {
	fake := &fakeProvider{
		name: "fake",
		keywords: map[string][]provider.DomainKeyword{
			"a.com": {
				{Term: "small", Volume: 10, Position: 1},
				{Term: "large", Volume: 9000, Position: 2},
				{Term: "mid", Volume: 400, Position: 3},
			},
		},
	}
	reg := provider.NewRegistry("fake")
	reg.Register(fake)
	b := New(reg, DefaultConfig(), fastRetry())

	res, err := b.Build(context.Background(), []model.Competitor{peer("a.com")})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 3)
	assert.Equal(t, "large", res.Candidates[0].Term)
	assert.Equal(t, "mid", res.Candidates[1].Term)
	assert.Equal(t, "small", res.Candidates[2].Term)
}

func TestBuild_UnknownIntentDefaulted(t *testing.T) {
	fake := &fakeProvider{
		name: "fake",
		keywords: map[string][]provider.DomainKeyword{
			"a.com": {{Term: "crm", Volume: 100, Position: 1}},
		},
	}
	reg := provider.NewRegistry("fake")
	reg.Register(fake)
	b := New(reg, DefaultConfig(), fastRetry())

	res, err := b.Build(context.Background(), []model.Competitor{peer("a.com")})
	require.NoError(t, err)
	assert.Equal(t, model.IntentUnknown, res.Candidates[0].Intent)
}

func TestPrioritize(t *testing.T) {
	set := []model.Competitor{
		{Domain: "asp.com", Purpose: model.PurposeAspirational},
		{Domain: "content.com", Purpose: model.PurposeContentModel},
		{Domain: "peer.com", Purpose: model.PurposeBenchmarkPeer},
		{Domain: "source.com", Purpose: model.PurposeKeywordSource},
	}

	ordered := prioritize(set)
	assert.Equal(t, "peer.com", ordered[0].Domain)
	assert.Equal(t, "source.com", ordered[1].Domain)
	assert.Equal(t, "content.com", ordered[2].Domain)
	assert.Equal(t, "asp.com", ordered[3].Domain)
}
