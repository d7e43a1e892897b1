package model

import "time"

// RunStatus tracks an analysis run through the pipeline stages.
type RunStatus string

const (
	RunStatusPending     RunStatus = "pending"
	RunStatusDiscovering RunStatus = "discovering"
	RunStatusClassifying RunStatus = "classifying"
	RunStatusBuilding    RunStatus = "building_universe"
	RunStatusScoring     RunStatus = "scoring"
	RunStatusSizing      RunStatus = "sizing"
	RunStatusRoadmap     RunStatus = "roadmap"
	RunStatusBlocked     RunStatus = "blocked"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// StageStatus is the outcome of one pipeline stage.
type StageStatus string

const (
	StageStatusComplete StageStatus = "complete"
	StageStatusFailed   StageStatus = "failed"
	StageStatusSkipped  StageStatus = "skipped"
)

// StageResult records one stage's execution for the run audit trail.
type StageResult struct {
	Name     string         `json:"name"`
	Status   StageStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AnalysisRequest is the input to a greenfield analysis run.
type AnalysisRequest struct {
	TargetDomain    string   `json:"target_domain"`
	TargetAuthority *float64 `json:"target_authority,omitempty"`
	SeedKeywords    []string `json:"seed_keywords"`
	UserCompetitors []string `json:"user_competitors,omitempty"`
	Vertical        string   `json:"vertical,omitempty"`
	Industry        string   `json:"industry,omitempty"`
}

// Run is one analysis run. Runs are append-only: a re-run creates a new row.
type Run struct {
	ID        string          `json:"id"`
	Request   AnalysisRequest `json:"request"`
	Status    RunStatus       `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OutputDocument is the pipeline's final product, consumed by external
// report/dashboard rendering. Every numeric field inside carries its source,
// pulled-at timestamp and confidence tier.
type OutputDocument struct {
	RunID           string             `json:"run_id"`
	TargetDomain    string             `json:"target_domain"`
	TargetAuthority ReconciledValue    `json:"target_authority"`
	GeneratedAt     time.Time          `json:"generated_at"`
	Competitors     []Competitor       `json:"competitors"`
	Universe        []KeywordCandidate `json:"universe"`
	Market          *MarketOpportunity `json:"market,omitempty"`
	Roadmap         *Roadmap           `json:"roadmap,omitempty"`
	Stages          []StageResult      `json:"stages"`
	// Warnings are "we proceeded with lower confidence"; Errors are
	// "we could not proceed" conditions that stopped or blocked the run.
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}
