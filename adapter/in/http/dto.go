// Package http contains the Fiber handlers for the lead pipeline API.
package http

import (
	"time"

	"leadflow/core/domain"
)

// =============================================================================
// Response DTOs
// =============================================================================

type leadResponse struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`
	Industry    string `json:"industry,omitempty"`
	CompanySize string `json:"company_size,omitempty"`
	Country     string `json:"country,omitempty"`
	Source      string `json:"source,omitempty"`
	BudgetRange string `json:"budget_range,omitempty"`
	PainPoint   string `json:"pain_point,omitempty"`
	Urgency     string `json:"urgency,omitempty"`
	LeadMessage string `json:"lead_message,omitempty"`

	Status            string               `json:"status"`
	ScoreValue        *int                 `json:"score_value,omitempty"`
	ScoreLabel        *string              `json:"score_label,omitempty"`
	ScoreRationale    *string              `json:"score_rationale,omitempty"`
	ScoreBreakdown    []domain.FactorScore `json:"score_breakdown,omitempty"`
	RecommendedAction *string              `json:"recommended_action,omitempty"`
	ProcessingStatus  string               `json:"processing_status"`

	CurrentOutcomeStage   *string    `json:"current_outcome_stage,omitempty"`
	OutcomeStageEnteredAt *time.Time `json:"outcome_stage_entered_at,omitempty"`

	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toLeadResponse(l *domain.Lead) *leadResponse {
	resp := &leadResponse{
		ID:               l.ID.String(),
		FirstName:        l.FirstName,
		LastName:         l.LastName,
		Email:            l.Email,
		Phone:            l.Phone,
		CompanyName:      l.CompanyName,
		JobTitle:         l.JobTitle,
		Industry:         l.Industry,
		CompanySize:      l.CompanySize,
		Country:          l.Country,
		Source:           l.Source,
		BudgetRange:      l.BudgetRange,
		PainPoint:        l.PainPoint,
		Urgency:          l.Urgency,
		LeadMessage:      l.LeadMessage,
		Status:           string(l.Status),
		ScoreValue:       l.ScoreValue,
		ScoreRationale:   l.ScoreRationale,
		ScoreBreakdown:   l.ScoreBreakdown,
		ProcessingStatus: string(l.ProcessingStatus),

		OutcomeStageEnteredAt: l.OutcomeStageEnteredAt,

		Archived:  l.Archived,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	if l.ScoreLabel != nil {
		s := string(*l.ScoreLabel)
		resp.ScoreLabel = &s
	}
	if l.RecommendedAction != nil {
		s := string(*l.RecommendedAction)
		resp.RecommendedAction = &s
	}
	if l.CurrentOutcomeStage != nil {
		s := string(*l.CurrentOutcomeStage)
		resp.CurrentOutcomeStage = &s
	}
	return resp
}

func toLeadResponses(leads []*domain.Lead) []*leadResponse {
	out := make([]*leadResponse, len(leads))
	for i, l := range leads {
		out[i] = toLeadResponse(l)
	}
	return out
}

type runResponse struct {
	ID           string             `json:"id"`
	LeadID       string             `json:"lead_id"`
	Status       string             `json:"status"`
	Trace        []domain.NodeTrace `json:"trace"`
	ErrorMessage string             `json:"error_message,omitempty"`
	StartedAt    time.Time          `json:"started_at"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
}

func toRunResponse(r *domain.PipelineRun) *runResponse {
	return &runResponse{
		ID:           r.ID.String(),
		LeadID:       r.LeadID.String(),
		Status:       string(r.Status),
		Trace:        r.Trace,
		ErrorMessage: r.ErrorMessage,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
	}
}

type bulkResultResponse struct {
	LeadID string       `json:"lead_id"`
	Run    *runResponse `json:"run,omitempty"`
	Error  string       `json:"error,omitempty"`
}

func toBulkResultResponses(results []domain.PipelineResult) []bulkResultResponse {
	out := make([]bulkResultResponse, len(results))
	for i, r := range results {
		out[i] = bulkResultResponse{LeadID: r.LeadID.String(), Error: r.Error}
		if r.Run != nil {
			out[i].Run = toRunResponse(r.Run)
		}
	}
	return out
}

type draftResponse struct {
	ID             string     `json:"id"`
	LeadID         string     `json:"lead_id"`
	Subject        string     `json:"subject"`
	Body           string     `json:"body"`
	Variant        string     `json:"variant"`
	Approved       bool       `json:"approved"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	DeliveryStatus string     `json:"delivery_status"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toDraftResponse(d *domain.EmailDraft) *draftResponse {
	return &draftResponse{
		ID:             d.ID.String(),
		LeadID:         d.LeadID.String(),
		Subject:        d.Subject,
		Body:           d.Body,
		Variant:        string(d.Variant),
		Approved:       d.Approved,
		SentAt:         d.SentAt,
		DeliveryStatus: string(d.DeliveryStatus),
		CreatedAt:      d.CreatedAt,
	}
}

func toDraftResponses(drafts []*domain.EmailDraft) []*draftResponse {
	out := make([]*draftResponse, len(drafts))
	for i, d := range drafts {
		out[i] = toDraftResponse(d)
	}
	return out
}

type stageRecordResponse struct {
	ID            string     `json:"id"`
	LeadID        string     `json:"lead_id"`
	Stage         string     `json:"stage"`
	PreviousStage *string    `json:"previous_stage,omitempty"`
	Reason        string     `json:"reason"`
	TriggeredBy   string     `json:"triggered_by,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	EnteredAt     time.Time  `json:"entered_at"`
	ExitedAt      *time.Time `json:"exited_at,omitempty"`
}

func toStageRecordResponse(r *domain.OutcomeStageRecord) *stageRecordResponse {
	resp := &stageRecordResponse{
		ID:          r.ID.String(),
		LeadID:      r.LeadID.String(),
		Stage:       string(r.Stage),
		Reason:      string(r.Reason),
		TriggeredBy: r.TriggeredBy,
		Notes:       r.Notes,
		EnteredAt:   r.EnteredAt,
		ExitedAt:    r.ExitedAt,
	}
	if r.PreviousStage != nil {
		s := string(*r.PreviousStage)
		resp.PreviousStage = &s
	}
	return resp
}

func toStageRecordResponses(records []*domain.OutcomeStageRecord) []*stageRecordResponse {
	out := make([]*stageRecordResponse, len(records))
	for i, r := range records {
		out[i] = toStageRecordResponse(r)
	}
	return out
}

type classificationResponse struct {
	ID             string   `json:"id"`
	LeadID         string   `json:"lead_id"`
	ReplyBody      string   `json:"reply_body"`
	Classification string   `json:"classification"`
	Confidence     float64  `json:"confidence"`
	Reasoning      string   `json:"reasoning,omitempty"`
	ExtractedDates []string `json:"extracted_dates,omitempty"`
	IsAutoReply    bool     `json:"is_auto_reply"`

	OverriddenClassification *string    `json:"overridden_classification,omitempty"`
	OverriddenBy             *string    `json:"overridden_by,omitempty"`
	OverriddenAt             *time.Time `json:"overridden_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func toClassificationResponse(rc *domain.ReplyClassification) *classificationResponse {
	resp := &classificationResponse{
		ID:             rc.ID.String(),
		LeadID:         rc.LeadID.String(),
		ReplyBody:      rc.ReplyBody,
		Classification: string(rc.Classification),
		Confidence:     rc.Confidence,
		Reasoning:      rc.Reasoning,
		ExtractedDates: rc.ExtractedDates,
		IsAutoReply:    rc.IsAutoReply,
		OverriddenBy:   rc.OverriddenBy,
		OverriddenAt:   rc.OverriddenAt,
		CreatedAt:      rc.CreatedAt,
	}
	if rc.OverriddenClassification != nil {
		s := string(*rc.OverriddenClassification)
		resp.OverriddenClassification = &s
	}
	return resp
}

func toClassificationResponses(records []*domain.ReplyClassification) []*classificationResponse {
	out := make([]*classificationResponse, len(records))
	for i, rc := range records {
		out[i] = toClassificationResponse(rc)
	}
	return out
}

type activityResponse struct {
	ID        string         `json:"id"`
	LeadID    string         `json:"lead_id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func toActivityResponses(entries []*domain.ActivityEntry) []activityResponse {
	out := make([]activityResponse, len(entries))
	for i, e := range entries {
		out[i] = activityResponse{
			ID:        e.ID.String(),
			LeadID:    e.LeadID.String(),
			Type:      string(e.Type),
			Payload:   e.Payload,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}
