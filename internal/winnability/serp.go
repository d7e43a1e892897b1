package winnability

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/provider"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/resilience"
)

// lowAuthThreshold marks a ranked domain as a weak-signal low-authority
// ranker.
const lowAuthThreshold = 30.0

// SamplerConfig controls SERP sampling ahead of scoring.
type SamplerConfig struct {
	Depth       int     `yaml:"depth" mapstructure:"depth"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Sampler fetches per-keyword SERP snapshots through the provider registry.
type Sampler struct {
	reg     *provider.Registry
	cfg     SamplerConfig
	retry   resilience.RetryConfig
	limiter *rate.Limiter
}

// NewSampler creates a SERP sampler.
func NewSampler(reg *provider.Registry, cfg SamplerConfig, retry resilience.RetryConfig) *Sampler {
	if cfg.Depth <= 0 {
		cfg.Depth = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 8
	}
	return &Sampler{
		reg:     reg,
		cfg:     cfg,
		retry:   retry,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
	}
}

// Sample attaches a SERP snapshot to each candidate. A failed fetch leaves
// the candidate's snapshot nil; the scorer then marks it data-incomplete
// instead of the batch aborting.
func (s *Sampler) Sample(ctx context.Context, candidates []model.KeywordCandidate) ([]model.KeywordCandidate, []string) {
	out := make([]model.KeywordCandidate, len(candidates))
	copy(out, candidates)

	p := s.reg.Get(s.reg.Primary())
	if p == nil {
		all := s.reg.All()
		if len(all) == 0 {
			return out, []string{"no providers available for SERP sampling"}
		}
		p = all[0]
	}

	var mu sync.Mutex
	var errs []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i := range out {
		i := i
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return nil
			}
			entries, err := resilience.BreakVal(gctx, s.reg.Breaker(p.Name()), func(ctx context.Context) ([]provider.SERPEntry, error) {
				return resilience.DoVal(ctx, s.retry, func(ctx context.Context) ([]provider.SERPEntry, error) {
					return p.GetSERP(ctx, out[i].Term, s.cfg.Depth)
				})
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, (&resilience.ProviderUnavailableError{
					Provider: p.Name(), Operation: "serp", Entity: out[i].Term, Err: err,
				}).Error())
				mu.Unlock()
				return nil
			}
			out[i].SERP = snapshot(entries)
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("serp sampling complete",
		zap.Int("terms", len(out)),
		zap.Int("errors", len(errs)),
	)
	return out, errs
}

// snapshot condenses raw SERP entries into the scorer's inputs.
func snapshot(entries []provider.SERPEntry) *model.SERPSnapshot {
	if len(entries) == 0 {
		return nil
	}

	snap := &model.SERPSnapshot{ResultsSampled: len(entries)}
	var sum float64
	min := entries[0].Authority
	signals := make(map[string]bool)

	for _, e := range entries {
		sum += e.Authority
		if e.Authority < min {
			min = e.Authority
		}
		if e.Authority < lowAuthThreshold {
			snap.HasLowAuthRanker = true
		}
		if e.HasAnswerBox {
			snap.HasAIAnswerBox = true
		}
		for _, sig := range e.ContentSignals {
			if !signals[sig] {
				signals[sig] = true
				snap.WeakContentSignals = append(snap.WeakContentSignals, sig)
			}
		}
	}

	avg := sum / float64(len(entries))
	snap.AverageAuthority = &avg
	snap.MinAuthority = &min
	return snap
}
