package model

// GrowthPhase is one of the four roadmap phases. Assignments partition the
// scored universe exhaustively and without overlap once the roadmap exists.
type GrowthPhase int

const (
	PhaseFoundation  GrowthPhase = 1
	PhaseTraction    GrowthPhase = 2
	PhaseGrowth      GrowthPhase = 3
	PhaseCompetitive GrowthPhase = 4
)

// IsValid reports whether p is a known growth phase.
func (p GrowthPhase) IsValid() bool {
	return p >= PhaseFoundation && p <= PhaseCompetitive
}

// String returns the phase name.
func (p GrowthPhase) String() string {
	switch p {
	case PhaseFoundation:
		return "foundation"
	case PhaseTraction:
		return "traction"
	case PhaseGrowth:
		return "growth"
	case PhaseCompetitive:
		return "competitive"
	}
	return "unknown"
}

// TrafficRange is an estimated monthly traffic band for a phase.
type TrafficRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// RoadmapPhase is one ordered slice of the keyword-universe partition.
type RoadmapPhase struct {
	Phase        GrowthPhase  `json:"phase"`
	Name         string       `json:"name"`
	KeywordCount int          `json:"keyword_count"`
	Terms        []string     `json:"terms"`
	EstTraffic   TrafficRange `json:"est_traffic"`
	Priority     int          `json:"priority"`
}

// Roadmap is the ordered, exhaustive phase partition plus selection metadata.
type Roadmap struct {
	Phases     []RoadmapPhase `json:"phases"`
	Beachheads []string       `json:"beachheads"`
	Warnings   []string       `json:"warnings,omitempty"`
}
