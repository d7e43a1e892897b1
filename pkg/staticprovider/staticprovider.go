// Package staticprovider implements the metrics-provider contract over YAML
// fixture files, for offline analysis runs and tests.
package staticprovider

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/provider"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/resilience"
)

// Fixture is the on-disk shape of one provider's dataset.
type Fixture struct {
	Name       string                  `yaml:"name"`
	FirstParty bool                    `yaml:"first_party"`
	AsOf       time.Time               `yaml:"as_of"`
	Domains    map[string]DomainEntry  `yaml:"domains"`
	SERPs      map[string][]SERPRow    `yaml:"serps"`
	Keywords   map[string][]KeywordRow `yaml:"keywords"`
}

// DomainEntry is one domain's metrics in a fixture.
type DomainEntry struct {
	Authority    float64 `yaml:"authority"`
	Traffic      float64 `yaml:"traffic"`
	KeywordCount float64 `yaml:"keyword_count"`
}

// SERPRow is one SERP result in a fixture.
type SERPRow struct {
	Domain         string   `yaml:"domain"`
	Authority      float64  `yaml:"authority"`
	HasAnswerBox   bool     `yaml:"has_answer_box"`
	ContentSignals []string `yaml:"content_signals"`
}

// KeywordRow is one domain keyword in a fixture.
type KeywordRow struct {
	Term       string  `yaml:"term"`
	Volume     float64 `yaml:"volume"`
	Difficulty float64 `yaml:"difficulty"`
	Position   int     `yaml:"position"`
	Intent     string  `yaml:"intent"`
	Category   string  `yaml:"category"`
}

// Provider serves fixture data. It satisfies provider.FirstPartyProvider so a
// fixture flagged first_party overrides reconciliation for the target domain.
type Provider struct {
	fixture Fixture
}

// Load reads a single fixture file.
func Load(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "staticprovider: read %s", path)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "staticprovider: parse %s", path)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if f.AsOf.IsZero() {
		f.AsOf = time.Now().UTC()
	}
	return &Provider{fixture: f}, nil
}

// LoadDir loads every .yaml/.yml file in dir as one provider each.
func LoadDir(dir string) ([]*Provider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "staticprovider: read dir %s", dir)
	}

	var providers []*Provider
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		p, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, eris.Errorf("staticprovider: no fixtures in %s", dir)
	}
	return providers, nil
}

// New builds a provider directly from a fixture, used by tests.
func New(f Fixture) *Provider {
	if f.AsOf.IsZero() {
		f.AsOf = time.Now().UTC()
	}
	return &Provider{fixture: f}
}

func (p *Provider) Name() string     { return p.fixture.Name }
func (p *Provider) FirstParty() bool { return p.fixture.FirstParty }

func (p *Provider) GetDomainMetrics(ctx context.Context, domain string) (*provider.DomainMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, ok := p.fixture.Domains[strings.ToLower(domain)]
	if !ok {
		return nil, &resilience.ProviderUnavailableError{
			Provider:  p.fixture.Name,
			Operation: "domain_metrics",
			Entity:    domain,
			Err:       eris.New("no fixture data"),
		}
	}
	return &provider.DomainMetrics{
		Domain:       domain,
		Authority:    entry.Authority,
		Traffic:      entry.Traffic,
		KeywordCount: entry.KeywordCount,
		Source:       p.fixture.Name,
		AsOf:         p.fixture.AsOf,
	}, nil
}

func (p *Provider) GetSERP(ctx context.Context, keyword string, depth int) ([]provider.SERPEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, ok := p.fixture.SERPs[strings.ToLower(keyword)]
	if !ok {
		return nil, &resilience.ProviderUnavailableError{
			Provider:  p.fixture.Name,
			Operation: "serp",
			Entity:    keyword,
			Err:       eris.New("no fixture data"),
		}
	}
	if depth > 0 && len(rows) > depth {
		rows = rows[:depth]
	}
	out := make([]provider.SERPEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, provider.SERPEntry{
			Domain:         r.Domain,
			Authority:      r.Authority,
			HasAnswerBox:   r.HasAnswerBox,
			ContentSignals: r.ContentSignals,
		})
	}
	return out, nil
}

func (p *Provider) GetKeywordsForDomain(ctx context.Context, domain string, limit int) ([]provider.DomainKeyword, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, ok := p.fixture.Keywords[strings.ToLower(domain)]
	if !ok {
		return nil, &resilience.ProviderUnavailableError{
			Provider:  p.fixture.Name,
			Operation: "domain_keywords",
			Entity:    domain,
			Err:       eris.New("no fixture data"),
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]provider.DomainKeyword, 0, len(rows))
	for _, r := range rows {
		out = append(out, provider.DomainKeyword{
			Term:       r.Term,
			Volume:     r.Volume,
			Difficulty: r.Difficulty,
			Position:   r.Position,
			Intent:     model.Intent(r.Intent),
			Category:   r.Category,
		})
	}
	return out, nil
}
