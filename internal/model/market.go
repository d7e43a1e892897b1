package model

// MarketFigure is one addressable-market band (TAM, SAM or SOM).
type MarketFigure struct {
	Volume       float64    `json:"volume"`
	KeywordCount int        `json:"keyword_count"`
	Confidence   Confidence `json:"confidence"`
}

// CompetitorLandscape summarizes the final competitor set.
type CompetitorLandscape struct {
	Count         int     `json:"count"`
	MinAuthority  float64 `json:"min_authority"`
	MaxAuthority  float64 `json:"max_authority"`
	MeanAuthority float64 `json:"mean_authority"`
	// TrafficShare maps domain to its share of the set's total traffic.
	TrafficShare map[string]float64 `json:"traffic_share,omitempty"`
}

// MarketOpportunity is the addressable-market sizing for a run. Created once
// from the final scored universe; immutable.
type MarketOpportunity struct {
	TAM MarketFigure `json:"tam"`
	SAM MarketFigure `json:"sam"`
	SOM MarketFigure `json:"som"`

	Landscape CompetitorLandscape `json:"landscape"`

	OpportunityScore     float64 `json:"opportunity_score"`
	CompetitionIntensity float64 `json:"competition_intensity"`
}
