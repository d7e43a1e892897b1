// Package universe extracts and merges keyword candidates from the validated
// competitor set.
package universe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/time/rate"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/provider"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/reconcile"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/resilience"
)

// Config controls keyword extraction.
type Config struct {
	// DepthPerCompetitor caps keywords pulled per competitor, set by the
	// analysis depth tier.
	DepthPerCompetitor int     `yaml:"depth_per_competitor" mapstructure:"depth_per_competitor"`
	Concurrency        int     `yaml:"concurrency" mapstructure:"concurrency"`
	RatePerSec         float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// DefaultConfig returns the stage defaults.
func DefaultConfig() Config {
	return Config{DepthPerCompetitor: 500, Concurrency: 5, RatePerSec: 8}
}

// Result is the unscored keyword universe plus the per-competitor error list.
type Result struct {
	Candidates []model.KeywordCandidate `json:"candidates"`
	Errors     []string                 `json:"errors,omitempty"`
}

// Builder extracts keywords from competitors through the provider registry.
type Builder struct {
	reg     *provider.Registry
	cfg     Config
	retry   resilience.RetryConfig
	limiter *rate.Limiter
	folder  cases.Caser
}

// New creates a universe builder.
func New(reg *provider.Registry, cfg Config, retry resilience.RetryConfig) *Builder {
	if cfg.DepthPerCompetitor <= 0 {
		cfg.DepthPerCompetitor = 500
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 8
	}
	return &Builder{
		reg:     reg,
		cfg:     cfg,
		retry:   retry,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		folder:  cases.Fold(),
	}
}

// pull is one competitor's keyword list, tagged for provenance.
type pull struct {
	competitor model.Competitor
	providerID string
	keywords   []provider.DomainKeyword
}

// Build pulls keywords for every non-removed competitor in purpose priority
// order and merges them by normalized term. All competitors are attempted
// (successes and failures both recorded) before the merged universe is
// returned, because dedup needs the full candidate set.
func (b *Builder) Build(ctx context.Context, competitors []model.Competitor) (*Result, error) {
	ordered := prioritize(model.ActiveCompetitors(competitors))

	pulls := make([]*pull, len(ordered))
	var mu sync.Mutex
	var errs []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)

	for i, comp := range ordered {
		i, comp := i, comp
		g.Go(func() error {
			p, err := b.fetch(gctx, comp)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err.Error())
				return nil // isolate the failure, keep the batch going
			}
			pulls[i] = p
			return nil
		})
	}
	_ = g.Wait()

	merged := b.merge(pulls)
	zap.L().Info("keyword universe built",
		zap.Int("competitors", len(ordered)),
		zap.Int("terms", len(merged)),
		zap.Int("errors", len(errs)),
	)
	return &Result{Candidates: merged, Errors: errs}, nil
}

func (b *Builder) fetch(ctx context.Context, comp model.Competitor) (*pull, error) {
	p := b.reg.Get(b.reg.Primary())
	if p == nil {
		all := b.reg.All()
		if len(all) == 0 {
			return nil, &resilience.ProviderUnavailableError{
				Operation: "keywords_for_domain", Entity: comp.Domain,
				Err: fmt.Errorf("no providers registered"),
			}
		}
		p = all[0]
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	kws, err := resilience.BreakVal(ctx, b.reg.Breaker(p.Name()), func(ctx context.Context) ([]provider.DomainKeyword, error) {
		return resilience.DoVal(ctx, b.retry, func(ctx context.Context) ([]provider.DomainKeyword, error) {
			return p.GetKeywordsForDomain(ctx, comp.Domain, b.cfg.DepthPerCompetitor)
		})
	})
	if err != nil {
		return nil, &resilience.ProviderUnavailableError{
			Provider: p.Name(), Operation: "keywords_for_domain", Entity: comp.Domain, Err: err,
		}
	}
	return &pull{competitor: comp, providerID: p.Name(), keywords: kws}, nil
}

// merge combines pulls by normalized term, keeping the occurrence with the
// best (lowest) competitor position and aggregating all contributors. Volume
// disagreements between pulls are routed through the reconciler rather than
// picking one arbitrarily.
func (b *Builder) merge(pulls []*pull) []model.KeywordCandidate {
	type entry struct {
		candidate model.KeywordCandidate
		estimates []model.SourceEstimate
	}
	byTerm := make(map[string]*entry)
	var order []string

	for _, p := range pulls {
		if p == nil {
			continue
		}
		for _, kw := range p.keywords {
			term := b.normalizeTerm(kw.Term)
			if term == "" {
				continue
			}
			est := model.SourceEstimate{
				// Tag the estimate with the pull it came from so disagreeing
				// volumes from different competitor pulls stay distinguishable.
				Source: p.providerID + ":" + p.competitor.Domain,
				Value:  kw.Volume,
			}

			e, ok := byTerm[term]
			if !ok {
				diff := kw.Difficulty
				pos := kw.Position
				intent := kw.Intent
				if intent == "" {
					intent = model.IntentUnknown
				}
				byTerm[term] = &entry{
					candidate: model.KeywordCandidate{
						Term:             term,
						Difficulty:       &diff,
						Position:         nil,
						Intent:           intent,
						Category:         kw.Category,
						SourceCompetitor: p.competitor.Domain,
						SourcePosition:   pos,
						Contributors: []model.KeywordProvenance{
							{Domain: p.competitor.Domain, Position: pos},
						},
					},
					estimates: []model.SourceEstimate{est},
				}
				order = append(order, term)
				continue
			}

			e.estimates = append(e.estimates, est)
			e.candidate.Contributors = append(e.candidate.Contributors, model.KeywordProvenance{
				Domain: p.competitor.Domain, Position: kw.Position,
			})
			if kw.Position > 0 && (e.candidate.SourcePosition <= 0 || kw.Position < e.candidate.SourcePosition) {
				e.candidate.SourceCompetitor = p.competitor.Domain
				e.candidate.SourcePosition = kw.Position
			}
			if e.candidate.Category == "" && kw.Category != "" {
				e.candidate.Category = kw.Category
			}
		}
	}

	primary := b.reg.Primary()
	out := make([]model.KeywordCandidate, 0, len(byTerm))
	for _, term := range order {
		e := byTerm[term]
		e.candidate.Volume = reconcile.Reconcile("volume", e.estimates, reconcile.Options{
			Primary: primarySourceFor(e.estimates, primary),
		})
		out = append(out, e.candidate)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Volume.ValueOr(0) > out[j].Volume.ValueOr(0)
	})
	return out
}

// primarySourceFor maps the registry's primary provider to the composite
// source key used for pull estimates, defaulting to the first estimate.
func primarySourceFor(estimates []model.SourceEstimate, primary string) string {
	for _, e := range estimates {
		if strings.HasPrefix(e.Source, primary+":") {
			return e.Source
		}
	}
	if len(estimates) > 0 {
		return estimates[0].Source
	}
	return ""
}

// normalizeTerm lowercases via Unicode case folding and collapses whitespace.
func (b *Builder) normalizeTerm(term string) string {
	folded := b.folder.String(strings.TrimSpace(term))
	return strings.Join(strings.Fields(folded), " ")
}

// prioritize orders competitors benchmark_peer -> keyword_source ->
// content_model -> aspirational, preserving relative order within a purpose.
func prioritize(set []model.Competitor) []model.Competitor {
	rank := map[model.PurposeCategory]int{
		model.PurposeBenchmarkPeer: 0,
		model.PurposeKeywordSource: 1,
		model.PurposeContentModel:  2,
		model.PurposeAspirational:  3,
	}
	out := make([]model.Competitor, len(set))
	copy(out, set)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iOK := rank[out[i].Purpose]
		rj, jOK := rank[out[j].Purpose]
		if !iOK {
			ri = 4
		}
		if !jOK {
			rj = 4
		}
		return ri < rj
	})
	return out
}
