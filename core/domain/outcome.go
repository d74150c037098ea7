package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Outcome Stages
// =============================================================================

// OutcomeStage is a lead's position in the post-contact lifecycle, distinct
// from its pipeline status.
type OutcomeStage string

const (
	StageEmailSent    OutcomeStage = "EMAIL_SENT"
	StageResponded    OutcomeStage = "RESPONDED"
	StageNoResponse   OutcomeStage = "NO_RESPONSE"
	StageBookedDemo   OutcomeStage = "BOOKED_DEMO"
	StageClosedWon    OutcomeStage = "CLOSED_WON"
	StageClosedLost   OutcomeStage = "CLOSED_LOST"
	StageDisqualified OutcomeStage = "DISQUALIFIED"
)

// StageTransitions is the directed graph of allowed transitions. Automatic
// transitions driven by reply classification use a subset of these edges.
// Terminal stages have no outgoing edges.
var StageTransitions = map[OutcomeStage][]OutcomeStage{
	StageEmailSent:    {StageResponded, StageNoResponse, StageClosedLost, StageDisqualified},
	StageResponded:    {StageBookedDemo, StageClosedWon, StageClosedLost},
	StageBookedDemo:   {StageClosedWon, StageClosedLost},
	StageNoResponse:   {StageResponded, StageClosedLost},
	StageClosedWon:    {},
	StageClosedLost:   {},
	StageDisqualified: {},
}

// Terminal reports whether the stage has no outgoing transitions.
func (s OutcomeStage) Terminal() bool {
	return len(StageTransitions[s]) == 0
}

// CanTransitionTo reports whether target is an allowed edge from s.
func (s OutcomeStage) CanTransitionTo(target OutcomeStage) bool {
	for _, next := range StageTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// TransitionReason distinguishes operator-driven from classifier-driven moves.
type TransitionReason string

const (
	ReasonManual    TransitionReason = "MANUAL"
	ReasonAutomatic TransitionReason = "AUTOMATIC"
)

// OutcomeStageRecord is one entry of a lead's append-only stage history.
// Exactly one record per lead has ExitedAt == nil: the current stage.
type OutcomeStageRecord struct {
	ID            uuid.UUID
	LeadID        uuid.UUID
	Stage         OutcomeStage
	PreviousStage *OutcomeStage
	Reason        TransitionReason
	TriggeredBy   string
	Notes         string
	EnteredAt     time.Time
	ExitedAt      *time.Time
}
