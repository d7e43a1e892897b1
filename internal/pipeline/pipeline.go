// Package pipeline orchestrates the analysis stages from discovery through
// roadmap generation.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/classify"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/config"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/discovery"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/market"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/provider"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/resilience"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/roadmap"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/store"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/universe"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/winnability"
)

// Pipeline runs the full analysis for one request.
type Pipeline struct {
	cfg   *config.Config
	store store.Store
	reg   *provider.Registry
	retry resilience.RetryConfig
}

// New creates a pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, reg *provider.Registry) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		store: st,
		reg:   reg,
		retry: cfg.Retry.Resilience(),
	}
}

// Run executes discovery, classification, universe building, scoring, market
// sizing and roadmap generation for the request. Stage failures that exhaust
// retries fail the run; a set-imbalance after classification blocks roadmap
// generation but still produces the partial output document.
func (p *Pipeline) Run(ctx context.Context, req model.AnalysisRequest) (*model.OutputDocument, error) {
	log := zap.L().With(zap.String("target", req.TargetDomain))
	log.Info("analysis starting", zap.Int("seeds", len(req.SeedKeywords)))

	run, err := p.store.CreateRun(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	doc := &model.OutputDocument{
		RunID:        run.ID,
		TargetDomain: req.TargetDomain,
		GeneratedAt:  time.Now().UTC(),
	}

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("status update failed", zap.Error(statusErr))
		}
	}

	trackStage := func(name string, status model.RunStatus, fn func() error) error {
		setStatus(status)
		start := time.Now()
		fnErr := fn()

		result := model.StageResult{
			Name:     name,
			Status:   model.StageStatusComplete,
			Duration: time.Since(start).Milliseconds(),
		}
		if fnErr != nil {
			result.Status = model.StageStatusFailed
			result.Error = fnErr.Error()
			log.Error("stage failed", zap.String("stage", name), zap.Error(fnErr))
		} else {
			log.Info("stage complete",
				zap.String("stage", name),
				zap.Int64("duration_ms", result.Duration),
			)
		}
		doc.Stages = append(doc.Stages, result)
		return fnErr
	}

	skipStage := func(name, reason string) {
		doc.Stages = append(doc.Stages, model.StageResult{
			Name:   name,
			Status: model.StageStatusSkipped,
			Error:  reason,
		})
	}

	fail := func(stageErr error) (*model.OutputDocument, error) {
		doc.Errors = append(doc.Errors, stageErr.Error())
		setStatus(model.RunStatusFailed)
		if saveErr := p.store.SaveOutput(ctx, doc); saveErr != nil {
			log.Warn("output save failed", zap.Error(saveErr))
		}
		return doc, stageErr
	}

	// Discovery.
	var discovered *discovery.Result
	var targetAuthority model.ReconciledValue
	err = trackStage("discovery", model.RunStatusDiscovering, func() error {
		engine := discovery.New(p.reg, nil, p.cfg.Discovery, p.retry)
		res, stageErr := engine.Discover(ctx, req)
		if stageErr != nil {
			return stageErr
		}
		discovered = res

		targetAuthority, stageErr = p.resolveTargetAuthority(ctx, req)
		return stageErr
	})
	if err != nil {
		return fail(err)
	}
	doc.Errors = append(doc.Errors, discovered.Errors...)
	doc.Warnings = append(doc.Warnings, discovered.Warnings...)
	doc.Warnings = appendValueWarning(doc.Warnings, targetAuthority)
	doc.TargetAuthority = targetAuthority

	// Classification and set validation.
	var competitors []model.Competitor
	var report classify.ValidationReport
	err = trackStage("classification", model.RunStatusClassifying, func() error {
		cl := classify.New(p.cfg.Classify)
		competitors = cl.Classify(discovered.Candidates, targetAuthority.ValueOr(0))
		competitors = classify.RelevanceScores(competitors, len(req.SeedKeywords))
		report = classify.Validate(competitors, targetAuthority.ValueOr(0))
		return nil
	})
	if err != nil {
		return fail(err)
	}
	doc.Competitors = competitors
	doc.Warnings = append(doc.Warnings, report.Warnings...)
	blocked := !report.OK()
	if blocked {
		doc.Errors = append(doc.Errors, report.Err().Error())
	}
	for _, c := range competitors {
		doc.Warnings = append(doc.Warnings, c.Warnings...)
	}

	// Keyword universe.
	var built *universe.Result
	err = trackStage("universe", model.RunStatusBuilding, func() error {
		b := universe.New(p.reg, p.cfg.Universe, p.retry)
		res, stageErr := b.Build(ctx, competitors)
		if stageErr != nil {
			return stageErr
		}
		built = res
		return nil
	})
	if err != nil {
		return fail(err)
	}
	doc.Errors = append(doc.Errors, built.Errors...)

	// Winnability scoring over sampled SERPs.
	var scored []model.KeywordCandidate
	err = trackStage("scoring", model.RunStatusScoring, func() error {
		sampler := winnability.NewSampler(p.reg, winnability.SamplerConfig{
			Depth:       p.cfg.Discovery.SERPDepth,
			Concurrency: p.cfg.Winnability.Concurrency,
		}, p.retry)
		sampled, sampleErrs := sampler.Sample(ctx, built.Candidates)
		doc.Errors = append(doc.Errors, sampleErrs...)

		scorer := winnability.New(p.cfg.Winnability)
		scored = scorer.ScoreAll(sampled, winnability.Target{
			Authority: targetAuthority.ValueOr(0),
			Industry:  req.Industry,
		})
		return nil
	})
	if err != nil {
		return fail(err)
	}

	// Market sizing.
	err = trackStage("market", model.RunStatusSizing, func() error {
		doc.Market = market.Size(scored, competitors, req.Vertical, p.cfg.Market)
		return nil
	})
	if err != nil {
		return fail(err)
	}

	// Roadmap, withheld when the competitor set is imbalanced.
	if blocked {
		skipStage("roadmap", "competitor set imbalanced; curate and re-run")
		doc.Universe = scored
	} else {
		err = trackStage("roadmap", model.RunStatusRoadmap, func() error {
			phased, rm := roadmap.Generate(scored, p.cfg.Roadmap)
			doc.Universe = phased
			doc.Roadmap = rm
			doc.Warnings = append(doc.Warnings, rm.Warnings...)
			return nil
		})
		if err != nil {
			return fail(err)
		}
	}

	if blocked {
		setStatus(model.RunStatusBlocked)
	} else {
		setStatus(model.RunStatusComplete)
	}
	if saveErr := p.store.SaveOutput(ctx, doc); saveErr != nil {
		log.Warn("output save failed", zap.Error(saveErr))
	}

	log.Info("analysis finished",
		zap.String("run_id", run.ID),
		zap.Bool("blocked", blocked),
		zap.Int("competitors", len(doc.Competitors)),
		zap.Int("terms", len(doc.Universe)),
	)
	return doc, nil
}

// resolveTargetAuthority prefers a user-declared authority, treated as
// first-party ground truth, over provider reconciliation.
func (p *Pipeline) resolveTargetAuthority(ctx context.Context, req model.AnalysisRequest) (model.ReconciledValue, error) {
	if req.TargetAuthority != nil {
		v := *req.TargetAuthority
		return model.ReconciledValue{
			Quantity:     "authority",
			Value:        &v,
			Confidence:   model.ConfidenceHigh,
			ChosenSource: "user",
			FirstParty:   true,
		}, nil
	}
	return discovery.FetchTargetAuthority(ctx, p.reg, p.retry, req.TargetDomain)
}

func appendValueWarning(warnings []string, rv model.ReconciledValue) []string {
	if rv.Warning != "" {
		warnings = append(warnings, rv.Warning)
	}
	return warnings
}
