// Package domain contains the core entities of the lead decision pipeline.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Lead Enums
// =============================================================================

// LeadStatus is the coarse lifecycle status of a lead.
type LeadStatus string

const (
	LeadStatusNew           LeadStatus = "NEW"
	LeadStatusQualified     LeadStatus = "QUALIFIED"
	LeadStatusNeedsInfo     LeadStatus = "NEEDS_INFO"
	LeadStatusDisqualified  LeadStatus = "DISQUALIFIED"
	LeadStatusContacted     LeadStatus = "CONTACTED"
	LeadStatusMeetingBooked LeadStatus = "MEETING_BOOKED"
	LeadStatusClosedWon     LeadStatus = "CLOSED_WON"
	LeadStatusClosedLost    LeadStatus = "CLOSED_LOST"
)

// ScoreLabel buckets a score value against the configured thresholds.
type ScoreLabel string

const (
	LabelHot  ScoreLabel = "HOT"
	LabelWarm ScoreLabel = "WARM"
	LabelCold ScoreLabel = "COLD"
)

// ActionType is the recommended next action produced by the decision engine.
type ActionType string

const (
	ActionSendEmail   ActionType = "SEND_EMAIL"
	ActionAskQuestion ActionType = "ASK_QUESTION"
	ActionDisqualify  ActionType = "DISQUALIFY"
	ActionHold        ActionType = "HOLD"
)

// ProcessingStatus tracks whether a pipeline run is in flight for a lead.
type ProcessingStatus string

const (
	ProcessingIdle    ProcessingStatus = "IDLE"
	ProcessingRunning ProcessingStatus = "PROCESSING"
	ProcessingFailed  ProcessingStatus = "FAILED"
)

// SourceDarkWeb is the one source value that disqualifies a lead outright.
const SourceDarkWeb = "dark_web"

// =============================================================================
// Lead Entity
// =============================================================================

// Lead is a prospective customer record flowing through the pipeline.
// Identity fields come from intake; pipeline and outcome fields are mutated
// only by the orchestrator and the outcome stage machine.
type Lead struct {
	ID uuid.UUID

	// Identity
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	CompanyName string
	JobTitle    string
	Industry    string
	CompanySize string
	Country     string
	Source      string
	BudgetRange string
	PainPoint   string
	Urgency     string
	LeadMessage string

	// Pipeline results
	Status            LeadStatus
	ScoreValue        *int
	ScoreLabel        *ScoreLabel
	ScoreRationale    *string
	ScoreBreakdown    []FactorScore
	RecommendedAction *ActionType
	ProcessingStatus  ProcessingStatus

	// Outcome tracking
	CurrentOutcomeStage   *OutcomeStage
	OutcomeStageEnteredAt *time.Time

	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasScore reports whether a previous pipeline run scored this lead.
func (l *Lead) HasScore() bool {
	return l.ScoreValue != nil
}

// Enrichment holds heuristic attributes derived from intake data. It is
// recomputed on every run and never persisted as authoritative lead data.
type Enrichment struct {
	EmailDomain         string `json:"email_domain,omitempty"`
	IsFreeEmail         bool   `json:"is_free_email"`
	CompanySizeCategory string `json:"company_size_category"`
	IsTechIndustry      bool   `json:"is_tech_industry"`
	HasBudget           bool   `json:"has_budget"`
	HasPainPoint        bool   `json:"has_pain_point"`
	UrgencyLevel        string `json:"urgency_level"`
	Seniority           string `json:"seniority"`
}
