package out

import (
	"context"

	"leadflow/core/domain"
)

// =============================================================================
// Structured Model Port
// =============================================================================

// ModelScore is the schema-validated output of a model scoring call.
type ModelScore struct {
	ScoreValue int                  `json:"score_value"`
	ScoreLabel string               `json:"score_label"`
	Rationale  string               `json:"rationale"`
	Breakdown  []domain.FactorScore `json:"breakdown"`
}

// ModelDraft is the schema-validated output of a model drafting call.
type ModelDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ModelReply is the schema-validated output of a model reply-classification
// call.
type ModelReply struct {
	Classification string   `json:"classification"`
	Confidence     float64  `json:"confidence"`
	Reasoning      string   `json:"reasoning"`
	ExtractedDates []string `json:"extracted_dates"`
	IsAutoReply    bool     `json:"is_auto_reply"`
}

// StructuredModel is the optional external model capability. Implementations
// enforce a hard JSON schema per call type and a per-call timeout; every
// caller has a deterministic fallback and treats errors as a signal to use it.
type StructuredModel interface {
	ScoreLead(ctx context.Context, lead *domain.Lead, enrichment *domain.Enrichment, cfg *domain.ScoringConfig) (*ModelScore, error)
	DraftEmail(ctx context.Context, lead *domain.Lead, action domain.ActionType, variant domain.EmailVariant, missingFields []string) (*ModelDraft, error)
	ClassifyReply(ctx context.Context, lead *domain.Lead, replyBody string) (*ModelReply, error)
}
