// Package store persists analysis runs, output documents and decay
// assessments behind a driver-agnostic interface.
package store

import (
	"context"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus `json:"status,omitempty"`
	TargetDomain string          `json:"target_domain,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the analysis pipeline.
// Runs are append-only: a re-run creates a new run rather than mutating an
// earlier one.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, req model.AnalysisRequest) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Output documents
	SaveOutput(ctx context.Context, doc *model.OutputDocument) error
	GetOutput(ctx context.Context, runID string) (*model.OutputDocument, error)

	// Decay assessments
	SaveAssessments(ctx context.Context, domain string, assessments []model.DecayAssessment) error
	ListAssessments(ctx context.Context, domain string) ([]model.DecayAssessment, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
