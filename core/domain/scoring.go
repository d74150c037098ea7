package domain

import "time"

// =============================================================================
// Scoring Factors
// =============================================================================

// Factor names recognized by the scoring engine. The breakdown of every score
// contains exactly this set, in this order.
const (
	FactorUrgency     = "urgency"
	FactorBudget      = "budget"
	FactorCompanySize = "company_size"
	FactorPainPoint   = "pain_point"
	FactorJobTitle    = "job_title"
	FactorIndustry    = "industry"
	FactorSource      = "source"
)

// FactorOrder is the canonical ordering of score breakdown entries.
var FactorOrder = []string{
	FactorUrgency,
	FactorBudget,
	FactorCompanySize,
	FactorPainPoint,
	FactorJobTitle,
	FactorIndustry,
	FactorSource,
}

// FactorScore is one line of a score breakdown: points awarded for a factor
// out of that factor's configured weight.
type FactorScore struct {
	Factor string  `json:"factor"`
	Points float64 `json:"points"`
	Max    float64 `json:"max"`
}

// ScoreResult is the full output of one scoring engine invocation.
type ScoreResult struct {
	Value     int
	Label     ScoreLabel
	Rationale string
	Breakdown []FactorScore
	LLMUsed   bool
}

// =============================================================================
// Scoring Config
// =============================================================================

// Weight bounds enforced on every write, manual or learned.
const (
	WeightMin = 0.0
	WeightMax = 10.0
)

// Thresholds are the integer cut points for score labels. Hot must be
// strictly greater than Warm.
type Thresholds struct {
	Hot  int `json:"hot"`
	Warm int `json:"warm"`
}

// ScoringConfig is the singleton-per-tenant weight table read by every
// scoring engine invocation. Last write wins; UpdatedAt is the only version.
type ScoringConfig struct {
	TenantID  string
	Weights   map[string]float64
	Threshold Thresholds
	UpdatedBy string
	UpdatedAt time.Time
}

// DefaultScoringConfig returns the factory weight table.
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		TenantID: "default",
		Weights: map[string]float64{
			FactorUrgency:     10,
			FactorBudget:      8,
			FactorCompanySize: 8,
			FactorPainPoint:   8,
			FactorJobTitle:    8,
			FactorIndustry:    4,
			FactorSource:      4,
		},
		Threshold: Thresholds{Hot: 35, Warm: 20},
		UpdatedBy: "system",
	}
}

// ClampWeight bounds a weight to [WeightMin, WeightMax].
func ClampWeight(w float64) float64 {
	if w < WeightMin {
		return WeightMin
	}
	if w > WeightMax {
		return WeightMax
	}
	return w
}

// LabelFor buckets a score value against the thresholds.
func (t Thresholds) LabelFor(score int) ScoreLabel {
	switch {
	case score >= t.Hot:
		return LabelHot
	case score >= t.Warm:
		return LabelWarm
	default:
		return LabelCold
	}
}
