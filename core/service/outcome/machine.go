// Package outcome implements the post-send lifecycle state machine. Stage
// history is append-only; the current stage is the single open record.
package outcome

import (
	"context"
	"time"

	"leadflow/core/domain"
	"leadflow/core/port/out"
	"leadflow/pkg/apperr"
	"leadflow/pkg/logger"

	"github.com/google/uuid"
)

// Learner receives terminal outcomes. Implemented by the scoring config
// learner.
type Learner interface {
	Apply(ctx context.Context, lead *domain.Lead, outcome domain.OutcomeStage) (*domain.ScoringConfig, error)
}

// Machine validates and records outcome stage transitions.
type Machine struct {
	leads      out.LeadRepository
	stages     out.OutcomeStageRepository
	activities out.ActivityWriter
	learner    Learner
	log        *logger.Logger
}

func NewMachine(leads out.LeadRepository, stages out.OutcomeStageRepository, activities out.ActivityWriter, learner Learner) *Machine {
	return &Machine{
		leads:      leads,
		stages:     stages,
		activities: activities,
		learner:    learner,
		log:        logger.WithField("component", "outcome"),
	}
}

// Transition moves a lead to target. The edge must exist in the transition
// graph from the lead's current stage; transitions from terminal stages and
// edges not in the graph are rejected with no mutation. A terminal target
// feeds the learner after the transition commits.
func (m *Machine) Transition(ctx context.Context, leadID uuid.UUID, target domain.OutcomeStage, reason domain.TransitionReason, triggeredBy, notes string) (*domain.OutcomeStageRecord, error) {
	lead, err := m.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	// Fast rejection against the loaded lead; the repository re-validates
	// the edge under lock when the record is written.
	current := lead.CurrentOutcomeStage
	if current == nil {
		// The only entry point into the machine is the first sent email.
		if target != domain.StageEmailSent {
			return nil, apperr.InvalidTransition("none", string(target))
		}
	} else {
		if !current.CanTransitionTo(target) {
			return nil, apperr.InvalidTransition(string(*current), string(target))
		}
	}

	record, err := m.commit(ctx, lead, target, reason, triggeredBy, notes)
	if err != nil {
		return nil, err
	}

	if target.Terminal() && m.learner != nil {
		if _, err := m.learner.Apply(ctx, lead, target); err != nil {
			m.log.WithError(err).WithField("lead_id", leadID.String()).
				Warn("Learning update failed after terminal outcome")
		}
	}

	return record, nil
}

// EnterEmailSent puts a lead into EMAIL_SENT when a draft is approved or
// sent. Idempotent: a lead already in EMAIL_SENT keeps its open record.
func (m *Machine) EnterEmailSent(ctx context.Context, leadID uuid.UUID, triggeredBy string) (*domain.OutcomeStageRecord, error) {
	lead, err := m.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.CurrentOutcomeStage != nil {
		if *lead.CurrentOutcomeStage == domain.StageEmailSent {
			return m.stages.Current(ctx, leadID)
		}
		return nil, apperr.InvalidTransition(string(*lead.CurrentOutcomeStage), string(domain.StageEmailSent))
	}
	return m.commit(ctx, lead, domain.StageEmailSent, domain.ReasonManual, triggeredBy, "")
}

// NextStages returns the allowed targets from the lead's current stage. A
// lead not yet in the machine can only enter EMAIL_SENT.
func (m *Machine) NextStages(ctx context.Context, leadID uuid.UUID) ([]domain.OutcomeStage, error) {
	lead, err := m.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.CurrentOutcomeStage == nil {
		return []domain.OutcomeStage{domain.StageEmailSent}, nil
	}
	next := domain.StageTransitions[*lead.CurrentOutcomeStage]
	return append([]domain.OutcomeStage{}, next...), nil
}

// AutoTransitionFor maps a reply classification to the automatic stage move
// it implies, or nil for no move. UNSUBSCRIBE forces CLOSED_LOST directly;
// OUT_OF_OFFICE never moves the stage; everything else lands on RESPONDED.
func AutoTransitionFor(class domain.ReplyClass) *domain.OutcomeStage {
	switch class {
	case domain.ReplyOutOfOffice:
		return nil
	case domain.ReplyUnsubscribe:
		s := domain.StageClosedLost
		return &s
	default:
		s := domain.StageResponded
		return &s
	}
}

// ApplyReply performs the automatic transition implied by a classification.
// A missing or invalid edge (lead not in the machine, already responded,
// terminal stage) is not an error: the reply is recorded, the stage stays.
func (m *Machine) ApplyReply(ctx context.Context, leadID uuid.UUID, class domain.ReplyClass) (*domain.OutcomeStageRecord, error) {
	target := AutoTransitionFor(class)
	if target == nil {
		return nil, nil
	}

	lead, err := m.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.CurrentOutcomeStage == nil || !lead.CurrentOutcomeStage.CanTransitionTo(*target) {
		return nil, nil
	}

	record, err := m.commit(ctx, lead, *target, domain.ReasonAutomatic, "reply-classifier", "classified as "+string(class))
	if err != nil {
		return nil, err
	}

	if target.Terminal() && m.learner != nil {
		if _, err := m.learner.Apply(ctx, lead, *target); err != nil {
			m.log.WithError(err).WithField("lead_id", leadID.String()).
				Warn("Learning update failed after terminal outcome")
		}
	}

	return record, nil
}

// History returns the lead's full stage history, newest first.
func (m *Machine) History(ctx context.Context, leadID uuid.UUID) ([]*domain.OutcomeStageRecord, error) {
	return m.stages.History(ctx, leadID)
}

// CheckNoResponse sweeps leads sitting in EMAIL_SENT for longer than the
// given window into NO_RESPONSE. Returns the ids of the leads moved.
func (m *Machine) CheckNoResponse(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	leadIDs, err := m.stages.StaleEmailSent(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	var moved []uuid.UUID
	for _, id := range leadIDs {
		if _, err := m.Transition(ctx, id, domain.StageNoResponse, domain.ReasonAutomatic, "no-response-sweep", ""); err != nil {
			m.log.WithError(err).WithField("lead_id", id.String()).
				Warn("No-response sweep transition failed")
			continue
		}
		moved = append(moved, id)
	}
	return moved, nil
}

// commit writes the stage record and appends the audit entry. The repository
// transition is a single atomic unit: it re-validates the record's previous
// stage against the stored open record under lock, closes it, inserts the
// new record, and moves the lead's current-stage pointer. A concurrent
// transition that commits first leaves this one with INVALID_TRANSITION
// instead of a second open record or a diverged pointer.
func (m *Machine) commit(ctx context.Context, lead *domain.Lead, target domain.OutcomeStage, reason domain.TransitionReason, triggeredBy, notes string) (*domain.OutcomeStageRecord, error) {
	now := time.Now().UTC()
	record := &domain.OutcomeStageRecord{
		ID:            uuid.New(),
		LeadID:        lead.ID,
		Stage:         target,
		PreviousStage: lead.CurrentOutcomeStage,
		Reason:        reason,
		TriggeredBy:   triggeredBy,
		Notes:         notes,
		EnteredAt:     now,
	}

	if err := m.stages.Transition(ctx, record); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"stage":        string(target),
		"reason":       string(reason),
		"triggered_by": triggeredBy,
	}
	if lead.CurrentOutcomeStage != nil {
		payload["previous_stage"] = string(*lead.CurrentOutcomeStage)
	}
	if err := m.activities.Append(ctx, lead.ID, domain.ActivityStatusChanged, payload); err != nil {
		m.log.WithError(err).Warn("Failed to append stage-change activity")
	}

	from := "none"
	if lead.CurrentOutcomeStage != nil {
		from = string(*lead.CurrentOutcomeStage)
	}
	m.log.WithFields(map[string]any{
		"lead_id": lead.ID.String(),
		"from":    from,
		"to":      string(target),
		"reason":  string(reason),
	}).Info("Outcome stage transition")

	return record, nil
}
