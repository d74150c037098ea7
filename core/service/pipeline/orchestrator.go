// Package pipeline orchestrates the per-lead node sequence:
// normalize -> enrich -> score -> decide -> (draft ->) record.
// Each invocation produces one PipelineRun with a per-node trace. Runs are
// serialized per lead id by the run guard; a duplicate request is rejected,
// never queued.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"leadflow/core/domain"
	"leadflow/core/port/out"
	"leadflow/core/service/decision"
	draftsvc "leadflow/core/service/draft"
	"leadflow/core/service/enrich"
	"leadflow/core/service/scoring"
	"leadflow/pkg/apperr"
	"leadflow/pkg/logger"

	"github.com/google/uuid"
)

// Node names as they appear in run traces.
const (
	nodeNormalize = "normalize"
	nodeEnrich    = "enrich"
	nodeScore     = "score"
	nodeDecide    = "decide"
	nodeDraft     = "draft"
	nodeRecord    = "record"
)

// nextAfterDecide is the dispatch table for the one conditional branch in the
// graph: which nodes follow the decide node for each action.
var nextAfterDecide = map[domain.ActionType][]string{
	domain.ActionSendEmail:   {nodeDraft, nodeRecord},
	domain.ActionAskQuestion: {nodeDraft, nodeRecord},
	domain.ActionDisqualify:  {nodeRecord},
	domain.ActionHold:        {nodeRecord},
}

// Options tune orchestrator behavior. Zero values pick the defaults.
type Options struct {
	BulkBatchSize   int
	TraceMaxTextLen int
}

// Orchestrator executes pipeline runs.
type Orchestrator struct {
	leads      out.LeadRepository
	runs       out.PipelineRunRepository
	drafts     out.EmailDraftRepository
	activities out.ActivityWriter
	configs    out.ScoringConfigRepository
	guard      out.RunGuard
	scorer     *scoring.Engine
	generator  *draftsvc.Generator
	opts       Options
	log        *logger.Logger
}

func NewOrchestrator(
	leads out.LeadRepository,
	runs out.PipelineRunRepository,
	drafts out.EmailDraftRepository,
	activities out.ActivityWriter,
	configs out.ScoringConfigRepository,
	guard out.RunGuard,
	scorer *scoring.Engine,
	generator *draftsvc.Generator,
	opts Options,
) *Orchestrator {
	if opts.BulkBatchSize <= 0 {
		opts.BulkBatchSize = 100
	}
	if opts.TraceMaxTextLen <= 0 {
		opts.TraceMaxTextLen = 200
	}
	return &Orchestrator{
		leads:      leads,
		runs:       runs,
		drafts:     drafts,
		activities: activities,
		configs:    configs,
		guard:      guard,
		scorer:     scorer,
		generator:  generator,
		opts:       opts,
		log:        logger.WithField("component", "pipeline"),
	}
}

// runState carries node outputs through one invocation.
type runState struct {
	lead       *domain.Lead
	enrichment *domain.Enrichment
	score      *domain.ScoreResult
	decision   decision.Decision
	draft      *domain.EmailDraft
}

// Run executes the full node sequence for one lead. A failed run leaves the
// lead's prior score and decision untouched; the failure reason lands on the
// run record and in the activity log. The returned run may have status FAILED
// without err being set: err is reserved for the lead not existing or the
// single-flight guard rejecting a duplicate request.
func (o *Orchestrator) Run(ctx context.Context, leadID uuid.UUID) (*domain.PipelineRun, error) {
	acquired, err := o.guard.TryAcquire(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, apperr.DuplicateRun(leadID.String())
	}
	defer func() {
		if err := o.guard.Release(context.WithoutCancel(ctx), leadID); err != nil {
			o.log.WithError(err).WithField("lead_id", leadID.String()).
				Warn("Failed to release run guard")
		}
	}()

	lead, err := o.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	run := &domain.PipelineRun{
		ID:        uuid.New(),
		LeadID:    leadID,
		Status:    domain.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := o.runs.Create(ctx, run); err != nil {
		return nil, err
	}
	if err := o.leads.UpdateProcessingStatus(ctx, leadID, domain.ProcessingRunning); err != nil {
		return nil, err
	}

	state := &runState{lead: lead}

	// normalize: the only node whose error fails the run outright.
	if err := o.traceNode(run, nodeNormalize, "email_hash="+hashEmail(lead.Email), func() (string, error) {
		if err := normalize(state.lead); err != nil {
			return "", err
		}
		return "ok", nil
	}); err != nil {
		return o.fail(ctx, run, err), nil
	}

	// enrich: degrades, never fails.
	_ = o.traceNode(run, nodeEnrich, "", func() (string, error) {
		state.enrichment = enrich.Enrich(state.lead)
		return fmt.Sprintf("size=%s urgency=%s seniority=%s",
			state.enrichment.CompanySizeCategory,
			state.enrichment.UrgencyLevel,
			state.enrichment.Seniority), nil
	})

	// score: the engine falls back internally and never errors.
	_ = o.traceNode(run, nodeScore, "", func() (string, error) {
		cfg, err := o.configs.Get(ctx, "default")
		if err != nil {
			o.log.WithError(err).Warn("Scoring config load failed, using defaults")
			cfg = domain.DefaultScoringConfig()
		}
		state.score = o.scorer.Score(ctx, state.lead, state.enrichment, cfg)
		return fmt.Sprintf("value=%d label=%s llm=%t",
			state.score.Value, state.score.Label, state.score.LLMUsed), nil
	})

	// decide: pure function, then dispatch on the action.
	_ = o.traceNode(run, nodeDecide, "", func() (string, error) {
		state.decision = decision.Decide(state.lead, state.score)
		return fmt.Sprintf("action=%s reason=%s",
			state.decision.Action, truncateText(state.decision.Reason, o.opts.TraceMaxTextLen)), nil
	})

	for _, node := range nextAfterDecide[state.decision.Action] {
		var nodeErr error
		switch node {
		case nodeDraft:
			nodeErr = o.traceNode(run, nodeDraft, "", func() (string, error) {
				return o.runDraft(ctx, state)
			})
		case nodeRecord:
			nodeErr = o.traceNode(run, nodeRecord, "", func() (string, error) {
				return o.runRecord(ctx, state)
			})
		}
		if nodeErr != nil {
			return o.fail(ctx, run, nodeErr), nil
		}
	}

	run.Status = domain.RunSucceeded
	now := time.Now().UTC()
	run.CompletedAt = &now
	if err := o.runs.Complete(ctx, run); err != nil {
		return nil, err
	}

	o.log.WithFields(map[string]any{
		"lead_id": leadID.String(),
		"run_id":  run.ID.String(),
		"action":  string(state.decision.Action),
		"score":   state.score.Value,
	}).Info("Pipeline run succeeded")

	return run, nil
}

// runDraft generates and stores a new EmailDraft. Prior drafts are retained.
func (o *Orchestrator) runDraft(ctx context.Context, state *runState) (string, error) {
	variant := draftsvc.VariantFor(state.decision.Action)
	content := o.generator.Generate(ctx, state.lead, state.decision.Action, variant, state.decision.MissingFields)

	d := &domain.EmailDraft{
		ID:             uuid.New(),
		LeadID:         state.lead.ID,
		Subject:        content.Subject,
		Body:           content.Body,
		Variant:        variant,
		DeliveryStatus: domain.DeliveryPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := o.drafts.Create(ctx, d); err != nil {
		return "", err
	}
	state.draft = d

	if err := o.activities.Append(ctx, state.lead.ID, domain.ActivityEmailDrafted, map[string]any{
		"draft_id": d.ID.String(),
		"variant":  string(d.Variant),
		"subject":  truncateText(d.Subject, o.opts.TraceMaxTextLen),
	}); err != nil {
		o.log.WithError(err).Warn("Failed to append draft activity")
	}

	return fmt.Sprintf("draft_id=%s variant=%s", d.ID, variant), nil
}

// runRecord persists score and decision onto the lead and appends the audit
// entries. This is the node that makes the run's results visible.
func (o *Orchestrator) runRecord(ctx context.Context, state *runState) (string, error) {
	status := decision.StatusFor(state.decision.Action)
	if err := o.leads.UpdateScore(ctx, state.lead.ID, state.score, state.decision.Action, status); err != nil {
		return "", err
	}

	if err := o.activities.Append(ctx, state.lead.ID, domain.ActivityScored, map[string]any{
		"score_value": state.score.Value,
		"score_label": string(state.score.Label),
		"llm_used":    state.score.LLMUsed,
	}); err != nil {
		o.log.WithError(err).Warn("Failed to append scored activity")
	}
	if err := o.activities.Append(ctx, state.lead.ID, domain.ActivityDecisionMade, map[string]any{
		"action": string(state.decision.Action),
		"reason": truncateText(state.decision.Reason, o.opts.TraceMaxTextLen),
	}); err != nil {
		o.log.WithError(err).Warn("Failed to append decision activity")
	}

	return fmt.Sprintf("status=%s action=%s", status, state.decision.Action), nil
}

// traceNode times fn and appends a trace entry. The entry is recorded for
// failures too, with the error as the output.
func (o *Orchestrator) traceNode(run *domain.PipelineRun, node, input string, fn func() (string, error)) error {
	start := time.Now()
	output, err := fn()
	entry := domain.NodeTrace{
		Node:       node,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Input:      truncateText(input, o.opts.TraceMaxTextLen),
	}
	if err != nil {
		entry.Output = "error: " + truncateText(err.Error(), o.opts.TraceMaxTextLen)
	} else {
		entry.Output = truncateText(output, o.opts.TraceMaxTextLen)
	}
	run.Trace = append(run.Trace, entry)
	return err
}

// fail marks the run FAILED, records the reason, and resets the lead's
// processing status. The lead's prior score and decision are untouched.
func (o *Orchestrator) fail(ctx context.Context, run *domain.PipelineRun, cause error) *domain.PipelineRun {
	run.Status = domain.RunFailed
	run.ErrorMessage = cause.Error()
	now := time.Now().UTC()
	run.CompletedAt = &now

	if err := o.runs.Complete(ctx, run); err != nil {
		o.log.WithError(err).Error("Failed to persist failed run")
	}
	if err := o.leads.UpdateProcessingStatus(ctx, run.LeadID, domain.ProcessingFailed); err != nil {
		o.log.WithError(err).Warn("Failed to update processing status")
	}
	if err := o.activities.Append(ctx, run.LeadID, domain.ActivityError, map[string]any{
		"run_id": run.ID.String(),
		"error":  truncateText(cause.Error(), o.opts.TraceMaxTextLen),
	}); err != nil {
		o.log.WithError(err).Warn("Failed to append error activity")
	}

	o.log.WithError(cause).WithFields(map[string]any{
		"lead_id": run.LeadID.String(),
		"run_id":  run.ID.String(),
	}).Warn("Pipeline run failed")

	return run
}
