package model

// DiscoverySource tags how a competitor candidate entered the set.
type DiscoverySource string

const (
	SourceSERP         DiscoverySource = "serp"
	SourceUserProvided DiscoverySource = "user_provided"
	SourceTrafficShare DiscoverySource = "traffic_share"
)

// IsValid reports whether s is a known discovery source.
func (s DiscoverySource) IsValid() bool {
	switch s {
	case SourceSERP, SourceUserProvided, SourceTrafficShare:
		return true
	}
	return false
}

// PurposeCategory is the role a competitor plays in the analysis.
type PurposeCategory string

const (
	PurposeBenchmarkPeer PurposeCategory = "benchmark_peer"
	PurposeKeywordSource PurposeCategory = "keyword_source"
	PurposeContentModel  PurposeCategory = "content_model"
	PurposeAspirational  PurposeCategory = "aspirational"
	PurposeLinkSource    PurposeCategory = "link_source"
	PurposeNotCompetitor PurposeCategory = "not_competitor"
)

// IsValid reports whether p is a known purpose category.
func (p PurposeCategory) IsValid() bool {
	switch p {
	case PurposeBenchmarkPeer, PurposeKeywordSource, PurposeContentModel,
		PurposeAspirational, PurposeLinkSource, PurposeNotCompetitor:
		return true
	}
	return false
}

// ValidationStatus records the outcome of set-level validation for a competitor.
type ValidationStatus string

const (
	ValidationValid    ValidationStatus = "valid"
	ValidationWarning  ValidationStatus = "warning"
	ValidationReplaced ValidationStatus = "replaced"
)

// Competitor is a candidate comparison domain. Created during discovery,
// enriched and classified afterwards, optionally removed during curation.
// Once a roadmap has been generated from a set, the set is immutable; a
// re-run produces a new version.
type Competitor struct {
	Domain          string           `json:"domain"`
	DiscoverySource DiscoverySource  `json:"discovery_source"`
	SERPOccurrences int              `json:"serp_occurrences"`
	Authority       ReconciledValue  `json:"authority"`
	Traffic         ReconciledValue  `json:"traffic"`
	KeywordCount    ReconciledValue  `json:"keyword_count"`
	Purpose         PurposeCategory  `json:"purpose,omitempty"`
	RelevanceScore  float64          `json:"relevance_score"`
	Validation      ValidationStatus `json:"validation,omitempty"`
	Warnings        []string         `json:"warnings,omitempty"`
	Removed         bool             `json:"removed,omitempty"`
	UserCurated     bool             `json:"user_curated,omitempty"`
}

// AuthorityOr returns the competitor's reconciled authority or fallback.
func (c Competitor) AuthorityOr(fallback float64) float64 {
	return c.Authority.ValueOr(fallback)
}

// ActiveCompetitors filters out removed and not_competitor entries.
func ActiveCompetitors(set []Competitor) []Competitor {
	var out []Competitor
	for _, c := range set {
		if c.Removed || c.Purpose == PurposeNotCompetitor {
			continue
		}
		out = append(out, c)
	}
	return out
}
