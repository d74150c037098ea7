// Package out defines the outbound ports the core depends on. Adapters under
// adapter/out implement them.
package out

import (
	"context"
	"time"

	"leadflow/core/domain"

	"github.com/google/uuid"
)

// LeadRepository reads and writes lead records. The denormalized
// current_outcome_stage pointer is owned by OutcomeStageRepository.Transition
// and is never written through this interface.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Lead, error)
	UpdateProcessingStatus(ctx context.Context, id uuid.UUID, status domain.ProcessingStatus) error
	UpdateScore(ctx context.Context, id uuid.UUID, score *domain.ScoreResult, action domain.ActionType, status domain.LeadStatus) error
	Archive(ctx context.Context, id uuid.UUID) error
}

// PipelineRunRepository persists pipeline run records. Runs are immutable
// once terminal; Complete is the single terminal write.
type PipelineRunRepository interface {
	Create(ctx context.Context, run *domain.PipelineRun) error
	Complete(ctx context.Context, run *domain.PipelineRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PipelineRun, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]*domain.PipelineRun, error)
}

// ActivityWriter appends entries to the audit trail. There is deliberately no
// update or delete.
type ActivityWriter interface {
	Append(ctx context.Context, leadID uuid.UUID, activityType domain.ActivityType, payload map[string]any) error
	ListByLead(ctx context.Context, leadID uuid.UUID, limit int) ([]*domain.ActivityEntry, error)
}

// EmailDraftRepository persists generated drafts. Re-running the pipeline
// appends; approval and send status are explicit mutations.
type EmailDraftRepository interface {
	Create(ctx context.Context, draft *domain.EmailDraft) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.EmailDraft, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]*domain.EmailDraft, error)
	MarkApproved(ctx context.Context, id uuid.UUID) error
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

// OutcomeStageRepository maintains the append-only stage history. Transition
// must, in one atomic unit: re-validate the record's PreviousStage against the
// stored open record, close that record, insert the new one, and move the
// lead's current-stage pointer — so that exactly one record per lead has a nil
// ExitedAt at all times. A caller whose view of the current stage is stale
// (a concurrent transition committed first) gets INVALID_TRANSITION and no
// mutation.
type OutcomeStageRepository interface {
	Transition(ctx context.Context, record *domain.OutcomeStageRecord) error
	Current(ctx context.Context, leadID uuid.UUID) (*domain.OutcomeStageRecord, error)
	History(ctx context.Context, leadID uuid.UUID) ([]*domain.OutcomeStageRecord, error)
	StaleEmailSent(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error)
}

// ReplyClassificationRepository persists reply classifications. Override may
// succeed at most once per record.
type ReplyClassificationRepository interface {
	Create(ctx context.Context, rc *domain.ReplyClassification) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReplyClassification, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]*domain.ReplyClassification, error)
	Override(ctx context.Context, id uuid.UUID, newClass domain.ReplyClass, overriddenBy string) (*domain.ReplyClassification, error)
}

// ScoringConfigRepository stores the per-tenant weight table. Get must return
// defaults when no row exists; Put is last-write-wins.
type ScoringConfigRepository interface {
	Get(ctx context.Context, tenantID string) (*domain.ScoringConfig, error)
	Put(ctx context.Context, cfg *domain.ScoringConfig) error
}

// RunGuard serializes pipeline runs per lead id. TryAcquire returns false
// when a run is already in flight; callers reject, never queue.
type RunGuard interface {
	TryAcquire(ctx context.Context, leadID uuid.UUID) (bool, error)
	Release(ctx context.Context, leadID uuid.UUID) error
}
