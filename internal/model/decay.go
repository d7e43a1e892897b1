package model

import "time"

// Severity bands a page's aggregate decay score.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityLight    Severity = "light"
	SeverityMonitor  Severity = "monitor"
)

// IsValid reports whether s is a known severity band.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityLight, SeverityMonitor:
		return true
	}
	return false
}

// DecayAction is the recommended content action (keep/update/consolidate/kill).
type DecayAction string

const (
	ActionKeep        DecayAction = "keep"
	ActionUpdate      DecayAction = "update"
	ActionExpand      DecayAction = "expand"
	ActionRefresh     DecayAction = "refresh"
	ActionConsolidate DecayAction = "consolidate"
	ActionKill        DecayAction = "kill"
)

// IsValid reports whether a is a known decay action.
func (a DecayAction) IsValid() bool {
	switch a {
	case ActionKeep, ActionUpdate, ActionExpand, ActionRefresh,
		ActionConsolidate, ActionKill:
		return true
	}
	return false
}

// PageWindow holds trailing-window metrics for a published page.
type PageWindow struct {
	PageURL string `json:"page_url"`
	Cluster string `json:"cluster,omitempty"`
	// Terms the page targets, used for cluster-overlap consolidation.
	Terms []string `json:"terms,omitempty"`

	TrafficPeak     float64 `json:"traffic_peak"`
	TrafficCurrent  float64 `json:"traffic_current"`
	PositionBest    float64 `json:"position_best"`
	PositionCurrent float64 `json:"position_current"`
	CTRPeak         float64 `json:"ctr_peak"`
	CTRCurrent      float64 `json:"ctr_current"`

	MonthsSinceUpdate float64 `json:"months_since_update"`
	// CompetitorDepthRatio compares the best-ranking competitor page's depth
	// to this page's; >1.5 turns an update recommendation into expand.
	CompetitorDepthRatio float64 `json:"competitor_depth_ratio,omitempty"`
}

// DecayComponents is the per-component contribution breakdown.
type DecayComponents struct {
	Traffic  float64 `json:"traffic"`
	Position float64 `json:"position"`
	CTR      float64 `json:"ctr"`
	Age      float64 `json:"age"`
}

// DecayAssessment is one scheduled evaluation of a published page.
// Historical assessments are retained, never overwritten.
type DecayAssessment struct {
	PageURL    string          `json:"page_url"`
	Cluster    string          `json:"cluster,omitempty"`
	Components DecayComponents `json:"components"`
	Score      float64         `json:"score"`
	Severity   Severity        `json:"severity"`
	Action     DecayAction     `json:"action"`
	AssessedAt time.Time       `json:"assessed_at"`
}
