package staticprovider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/resilience"
)

const fixtureYAML = `
name: semdata
first_party: false
as_of: 2026-07-01T00:00:00Z
domains:
  rival.com:
    authority: 42
    traffic: 12000
    keyword_count: 900
serps:
  crm software:
    - domain: rival.com
      authority: 42
      has_answer_box: true
      content_signals: [thin]
    - domain: big.com
      authority: 80
    - domain: small.com
      authority: 15
keywords:
  rival.com:
    - term: crm software
      volume: 5400
      difficulty: 48
      position: 4
      intent: commercial
      category: crm
    - term: crm pricing
      volume: 900
      difficulty: 30
      position: 7
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	p, err := Load(writeFixture(t, "semdata.yaml", fixtureYAML))
	require.NoError(t, err)

	assert.Equal(t, "semdata", p.Name())
	assert.False(t, p.FirstParty())
}

func TestLoad_NameDefaultsToFilename(t *testing.T) {
	p, err := Load(writeFixture(t, "console.yaml", "domains: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, "console", p.Name())
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("domains: {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("domains: {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	providers, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, providers, 2)
}

func TestLoadDir_EmptyIsError(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fixtures")
}

func TestGetDomainMetrics(t *testing.T) {
	p, err := Load(writeFixture(t, "semdata.yaml", fixtureYAML))
	require.NoError(t, err)

	m, err := p.GetDomainMetrics(context.Background(), "Rival.COM")
	require.NoError(t, err)
	assert.Equal(t, 42.0, m.Authority)
	assert.Equal(t, 12000.0, m.Traffic)
	assert.Equal(t, "semdata", m.Source)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), m.AsOf)
}

func TestGetDomainMetrics_Unknown(t *testing.T) {
	p, err := Load(writeFixture(t, "semdata.yaml", fixtureYAML))
	require.NoError(t, err)

	_, err = p.GetDomainMetrics(context.Background(), "unknown.com")
	require.Error(t, err)
	assert.True(t, resilience.IsProviderUnavailable(err))
}

func TestGetSERP_DepthTruncates(t *testing.T) {
	p, err := Load(writeFixture(t, "semdata.yaml", fixtureYAML))
	require.NoError(t, err)

	entries, err := p.GetSERP(context.Background(), "crm software", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "rival.com", entries[0].Domain)
	assert.True(t, entries[0].HasAnswerBox)
	assert.Equal(t, []string{"thin"}, entries[0].ContentSignals)
}

func TestGetKeywordsForDomain(t *testing.T) {
	p, err := Load(writeFixture(t, "semdata.yaml", fixtureYAML))
	require.NoError(t, err)

	kws, err := p.GetKeywordsForDomain(context.Background(), "rival.com", 0)
	require.NoError(t, err)
	require.Len(t, kws, 2)
	assert.Equal(t, "crm software", kws[0].Term)
	assert.Equal(t, 5400.0, kws[0].Volume)
	assert.Equal(t, 4, kws[0].Position)

	limited, err := p.GetKeywordsForDomain(context.Background(), "rival.com", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestContextCancellation(t *testing.T) {
	p, err := Load(writeFixture(t, "semdata.yaml", fixtureYAML))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.GetDomainMetrics(ctx, "rival.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_FirstParty(t *testing.T) {
	p := New(Fixture{
		Name:       "search-console",
		FirstParty: true,
		Domains:    map[string]DomainEntry{"mine.com": {Authority: 17}},
	})

	assert.True(t, p.FirstParty())

	m, err := p.GetDomainMetrics(context.Background(), "mine.com")
	require.NoError(t, err)
	assert.Equal(t, 17.0, m.Authority)
	assert.False(t, m.AsOf.IsZero())
}
