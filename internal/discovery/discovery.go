// Package discovery aggregates candidate competitor domains from SERP
// appearances, user input and traffic-share signals.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/provider"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/reconcile"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/resilience"
)

// Config controls the discovery stage.
type Config struct {
	SERPDepth     int     `yaml:"serp_depth" mapstructure:"serp_depth"`
	MaxCandidates int     `yaml:"max_candidates" mapstructure:"max_candidates"`
	Concurrency   int     `yaml:"concurrency" mapstructure:"concurrency"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// DefaultConfig returns the stage defaults.
func DefaultConfig() Config {
	return Config{
		SERPDepth:     10,
		MaxCandidates: 20,
		Concurrency:   5,
		RatePerSec:    8,
	}
}

// Result is the discovery output: candidates plus the per-domain error list
// for fetches that failed. A single failed lookup never aborts the batch.
type Result struct {
	Candidates []model.Competitor `json:"candidates"`
	Errors     []string           `json:"errors,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// Engine discovers competitor candidates for a target domain.
type Engine struct {
	reg       *provider.Registry
	blocklist *Blocklist
	cfg       Config
	retry     resilience.RetryConfig
	limiter   *rate.Limiter
}

// New creates a discovery engine. A nil blocklist uses the default.
func New(reg *provider.Registry, blocklist *Blocklist, cfg Config, retry resilience.RetryConfig) *Engine {
	if blocklist == nil {
		blocklist = DefaultBlocklist()
	}
	if cfg.SERPDepth <= 0 {
		cfg.SERPDepth = 10
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 8
	}
	return &Engine{
		reg:       reg,
		blocklist: blocklist,
		cfg:       cfg,
		retry:     retry,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
	}
}

// Discover runs the full discovery pass for the request. It fails fast with
// InsufficientContextError when no seed keywords are supplied; individual
// provider failures are isolated into Result.Errors.
func (e *Engine) Discover(ctx context.Context, req model.AnalysisRequest) (*Result, error) {
	if len(req.SeedKeywords) == 0 {
		return nil, &resilience.InsufficientContextError{Reason: "at least one seed keyword is required"}
	}
	if req.TargetDomain == "" {
		return nil, &resilience.InsufficientContextError{Reason: "target domain is required"}
	}
	if e.reg.Len() == 0 {
		return nil, &resilience.InsufficientContextError{Reason: "no metrics providers registered"}
	}

	log := zap.L().With(zap.String("target", req.TargetDomain))
	result := &Result{}

	occurrences, serpErrs := e.tallySERPs(ctx, req)
	result.Errors = append(result.Errors, serpErrs...)

	// User-provided domains are always included, even with zero SERP presence.
	userProvided := make(map[string]bool, len(req.UserCompetitors))
	for _, d := range req.UserCompetitors {
		d = normalizeDomain(d)
		if d == "" || strings.EqualFold(d, req.TargetDomain) {
			continue
		}
		userProvided[d] = true
		if _, ok := occurrences[d]; !ok {
			occurrences[d] = 0
		}
	}

	if len(occurrences) == 0 {
		result.Warnings = append(result.Warnings, "no competitor candidates found in seed SERPs")
		return result, nil
	}

	candidates, fetchErrs := e.enrich(ctx, occurrences, userProvided)
	result.Errors = append(result.Errors, fetchErrs...)
	markTrafficShare(candidates)

	// Occurrence dominates traffic: appearing across many seed SERPs is a
	// stronger relevance signal than raw traffic volume.
	sort.SliceStable(candidates, func(i, j int) bool {
		return rankScore(candidates[i]) > rankScore(candidates[j])
	})

	if len(candidates) > e.cfg.MaxCandidates {
		kept := candidates[:e.cfg.MaxCandidates:e.cfg.MaxCandidates]
		// Re-admit user-provided domains pushed past the cap.
		for _, c := range candidates[e.cfg.MaxCandidates:] {
			if c.DiscoverySource == model.SourceUserProvided {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	result.Candidates = candidates
	log.Info("discovery complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// tallySERPs fetches top-N SERP entries per seed keyword from the primary
// provider and tallies domain occurrences, excluding blocklisted domains and
// the target itself.
func (e *Engine) tallySERPs(ctx context.Context, req model.AnalysisRequest) (map[string]int, []string) {
	occurrences := make(map[string]int)
	var errs []string

	p := e.reg.Get(e.reg.Primary())
	if p == nil {
		// Primary absent for this run; degrade to any available provider.
		all := e.reg.All()
		if len(all) == 0 {
			return occurrences, []string{"no providers available for SERP fetch"}
		}
		p = all[0]
	}

	for _, seed := range req.SeedKeywords {
		if err := e.limiter.Wait(ctx); err != nil {
			errs = append(errs, fmt.Sprintf("serp %q: %v", seed, err))
			break
		}
		entries, err := resilience.BreakVal(ctx, e.reg.Breaker(p.Name()), func(ctx context.Context) ([]provider.SERPEntry, error) {
			return resilience.DoVal(ctx, e.retry, func(ctx context.Context) ([]provider.SERPEntry, error) {
				return p.GetSERP(ctx, seed, e.cfg.SERPDepth)
			})
		})
		if err != nil {
			errs = append(errs, (&resilience.ProviderUnavailableError{
				Provider: p.Name(), Operation: "serp", Entity: seed, Err: err,
			}).Error())
			continue
		}
		seen := make(map[string]bool, len(entries))
		for _, entry := range entries {
			d := normalizeDomain(entry.Domain)
			if d == "" || seen[d] || e.blocklist.Blocked(d) || strings.EqualFold(d, req.TargetDomain) {
				continue
			}
			seen[d] = true
			occurrences[d]++
		}
	}
	return occurrences, errs
}

// enrich fetches domain metrics from every registered provider with bounded
// concurrency and reconciles them per quantity.
func (e *Engine) enrich(ctx context.Context, occurrences map[string]int, userProvided map[string]bool) ([]model.Competitor, []string) {
	var mu sync.Mutex
	var candidates []model.Competitor
	var errs []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for domain, count := range occurrences {
		domain, count := domain, count
		g.Go(func() error {
			c, domainErrs := e.enrichDomain(gctx, domain, count, userProvided[domain])
			mu.Lock()
			candidates = append(candidates, c)
			errs = append(errs, domainErrs...)
			mu.Unlock()
			return nil // failures are recorded, never abort the batch
		})
	}
	_ = g.Wait()

	return candidates, errs
}

func (e *Engine) enrichDomain(ctx context.Context, domain string, occurrences int, fromUser bool) (model.Competitor, []string) {
	var errs []string
	var authority, traffic, keywords []model.SourceEstimate

	for _, p := range e.reg.All() {
		if err := e.limiter.Wait(ctx); err != nil {
			errs = append(errs, fmt.Sprintf("metrics %s: %v", domain, err))
			break
		}
		dm, err := resilience.BreakVal(ctx, e.reg.Breaker(p.Name()), func(ctx context.Context) (*provider.DomainMetrics, error) {
			return resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*provider.DomainMetrics, error) {
				return p.GetDomainMetrics(ctx, domain)
			})
		})
		if err != nil {
			errs = append(errs, (&resilience.ProviderUnavailableError{
				Provider: p.Name(), Operation: "domain_metrics", Entity: domain, Err: err,
			}).Error())
			continue
		}
		asOf := dm.AsOf
		authority = append(authority, model.SourceEstimate{Source: dm.Source, Value: dm.Authority, AsOf: &asOf})
		traffic = append(traffic, model.SourceEstimate{Source: dm.Source, Value: dm.Traffic, AsOf: &asOf})
		keywords = append(keywords, model.SourceEstimate{Source: dm.Source, Value: dm.KeywordCount, AsOf: &asOf})
	}

	opts := reconcile.Options{Primary: e.reg.Primary()}
	source := model.SourceSERP
	if fromUser {
		source = model.SourceUserProvided
	}

	return model.Competitor{
		Domain:          domain,
		DiscoverySource: source,
		SERPOccurrences: occurrences,
		Authority:       reconcile.Reconcile("authority", authority, opts),
		Traffic:         reconcile.Reconcile("traffic", traffic, opts),
		KeywordCount:    reconcile.Reconcile("keyword_count", keywords, opts),
	}, errs
}

// trafficShareThreshold is the fraction of total candidate traffic at which
// a marginal SERP presence is relabeled as traffic-discovered.
const trafficShareThreshold = 0.15

// markTrafficShare relabels candidates with a single SERP appearance whose
// share of total candidate traffic is large enough to matter on its own.
func markTrafficShare(candidates []model.Competitor) {
	var total float64
	for _, c := range candidates {
		total += c.Traffic.ValueOr(0)
	}
	if total <= 0 {
		return
	}
	for i := range candidates {
		c := &candidates[i]
		if c.DiscoverySource != model.SourceSERP || c.SERPOccurrences > 1 {
			continue
		}
		if c.Traffic.ValueOr(0)/total >= trafficShareThreshold {
			c.DiscoverySource = model.SourceTrafficShare
		}
	}
}

func rankScore(c model.Competitor) float64 {
	return float64(c.SERPOccurrences)*1000 + c.Traffic.ValueOr(0)
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return d
}

// FetchTargetAuthority resolves the target domain's authority, preferring a
// first-party provider when one is registered.
func FetchTargetAuthority(ctx context.Context, reg *provider.Registry, retry resilience.RetryConfig, domain string) (model.ReconciledValue, error) {
	var estimates []model.SourceEstimate
	firstParty := ""

	for _, p := range reg.All() {
		dm, err := resilience.BreakVal(ctx, reg.Breaker(p.Name()), func(ctx context.Context) (*provider.DomainMetrics, error) {
			return resilience.DoVal(ctx, retry, func(ctx context.Context) (*provider.DomainMetrics, error) {
				return p.GetDomainMetrics(ctx, domain)
			})
		})
		if err != nil {
			zap.L().Warn("target authority fetch failed",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}
		asOf := dm.AsOf
		estimates = append(estimates, model.SourceEstimate{Source: dm.Source, Value: dm.Authority, AsOf: &asOf})
		if fp, ok := p.(provider.FirstPartyProvider); ok && fp.FirstParty() {
			firstParty = p.Name()
		}
	}

	if len(estimates) == 0 {
		return model.ReconciledValue{}, eris.Errorf("discovery: no provider returned authority for %s", domain)
	}

	return reconcile.Reconcile("authority", estimates, reconcile.Options{
		Primary:    reg.Primary(),
		FirstParty: firstParty,
	}), nil
}
