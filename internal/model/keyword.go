package model

// Intent is the search intent of a keyword.
type Intent string

const (
	IntentInformational Intent = "informational"
	IntentCommercial    Intent = "commercial"
	IntentTransactional Intent = "transactional"
	IntentNavigational  Intent = "navigational"
	IntentUnknown       Intent = "unknown"
)

// IsValid reports whether i is a known intent.
func (i Intent) IsValid() bool {
	switch i {
	case IntentInformational, IntentCommercial, IntentTransactional,
		IntentNavigational, IntentUnknown:
		return true
	}
	return false
}

// DataCompleteness reports how many required scoring inputs were present.
type DataCompleteness string

const (
	CompletenessFull    DataCompleteness = "full"
	CompletenessPartial DataCompleteness = "partial"
)

// SERPSnapshot summarizes the ranked pages observed for a term.
type SERPSnapshot struct {
	AverageAuthority   *float64 `json:"average_authority"`
	MinAuthority       *float64 `json:"min_authority"`
	HasLowAuthRanker   bool     `json:"has_low_auth_ranker"`
	WeakContentSignals []string `json:"weak_content_signals,omitempty"`
	HasAIAnswerBox     bool     `json:"has_ai_answer_box"`
	ResultsSampled     int      `json:"results_sampled"`
}

// WinnabilityComponents is the fixed component breakdown of a winnability
// score. Each component is on a 0-100 scale before weighting.
type WinnabilityComponents struct {
	AuthorityGap      float64 `json:"authority_gap"`
	DifficultyInverse float64 `json:"difficulty_inverse"`
	WeakSignal        float64 `json:"weak_signal"`
	AIOverview        float64 `json:"ai_overview"`
}

// KeywordProvenance records a contributing competitor and their position.
type KeywordProvenance struct {
	Domain   string `json:"domain"`
	Position int    `json:"position"`
}

// KeywordCandidate is a single term in the keyword universe.
type KeywordCandidate struct {
	Term           string          `json:"term"`
	Volume         ReconciledValue `json:"volume"`
	Difficulty     *float64        `json:"difficulty"`
	PersonalizedKD *float64        `json:"personalized_kd,omitempty"`
	Position       *int            `json:"position,omitempty"`
	Intent         Intent          `json:"intent"`
	Category       string          `json:"category,omitempty"`

	// Provenance: the best-positioned source competitor plus all contributors.
	SourceCompetitor string              `json:"source_competitor"`
	SourcePosition   int                 `json:"source_position"`
	Contributors     []KeywordProvenance `json:"contributors,omitempty"`

	SERP *SERPSnapshot `json:"serp,omitempty"`

	Winnability      *float64               `json:"winnability"`
	Components       *WinnabilityComponents `json:"components,omitempty"`
	DataCompleteness DataCompleteness       `json:"data_completeness,omitempty"`
	DataIncomplete   bool                   `json:"data_incomplete,omitempty"`

	Beachhead         bool         `json:"beachhead,omitempty"`
	BeachheadPriority *int         `json:"beachhead_priority,omitempty"`
	Phase             *GrowthPhase `json:"phase,omitempty"`
}

// Scored reports whether the candidate carries a winnability score.
func (k KeywordCandidate) Scored() bool {
	return k.Winnability != nil
}
