package reply

import (
	"context"
	"strings"
	"time"

	"leadflow/core/domain"
	"leadflow/core/port/out"
	"leadflow/core/service/outcome"
	"leadflow/pkg/logger"

	"github.com/google/uuid"
)

const maxStoredBodyLen = 2000

// Result is the single combined response of recording a reply: the stored
// classification plus the stage transition it triggered, if any.
type Result struct {
	Classification *domain.ReplyClassification
	StageChange    *domain.OutcomeStageRecord
}

// Service records and classifies inbound replies. The model is optional;
// the regex rule sets are the fallback path.
type Service struct {
	leads           out.LeadRepository
	classifications out.ReplyClassificationRepository
	activities      out.ActivityWriter
	machine         *outcome.Machine
	model           out.StructuredModel
	confidenceFloor float64
	log             *logger.Logger
}

func NewService(leads out.LeadRepository, classifications out.ReplyClassificationRepository, activities out.ActivityWriter, machine *outcome.Machine, model out.StructuredModel, confidenceFloor float64) *Service {
	return &Service{
		leads:           leads,
		classifications: classifications,
		activities:      activities,
		machine:         machine,
		model:           model,
		confidenceFloor: confidenceFloor,
		log:             logger.WithField("component", "reply"),
	}
}

// RecordReply classifies the reply text, persists the classification, and
// applies the automatic stage transition it implies. The classification is
// always stored, even when no stage change results.
func (s *Service) RecordReply(ctx context.Context, leadID uuid.UUID, replyBody string) (*Result, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	result := s.classify(ctx, lead, replyBody)

	// Low confidence is treated as no classification at all.
	if result.Confidence < s.confidenceFloor {
		result = ruleResult{
			Class:      domain.ReplyUnclear,
			Confidence: 0,
			Reasoning:  "Confidence below floor, treated as unclear",
		}
	}

	body := replyBody
	if len(body) > maxStoredBodyLen {
		body = body[:maxStoredBodyLen]
	}
	rc := &domain.ReplyClassification{
		ID:             uuid.New(),
		LeadID:         leadID,
		ReplyBody:      body,
		Classification: result.Class,
		Confidence:     result.Confidence,
		Reasoning:      result.Reasoning,
		ExtractedDates: result.ExtractedDates,
		IsAutoReply:    result.IsAutoReply,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.classifications.Create(ctx, rc); err != nil {
		return nil, err
	}

	if err := s.activities.Append(ctx, leadID, domain.ActivityReplyClass, map[string]any{
		"classification_id": rc.ID.String(),
		"classification":    string(rc.Classification),
		"confidence":        rc.Confidence,
		"is_auto_reply":     rc.IsAutoReply,
	}); err != nil {
		s.log.WithError(err).Warn("Failed to append reply-classified activity")
	}

	stageChange, err := s.machine.ApplyReply(ctx, leadID, rc.Classification)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]any{
		"lead_id":        leadID.String(),
		"classification": string(rc.Classification),
		"confidence":     rc.Confidence,
		"stage_changed":  stageChange != nil,
	}).Info("Reply recorded")

	return &Result{Classification: rc, StageChange: stageChange}, nil
}

// Override corrects a stored classification once. It does not undo any stage
// transition already taken; the correction exists for audit purposes.
func (s *Service) Override(ctx context.Context, classificationID uuid.UUID, newClass domain.ReplyClass, overriddenBy string) (*domain.ReplyClassification, error) {
	rc, err := s.classifications.Override(ctx, classificationID, newClass, overriddenBy)
	if err != nil {
		return nil, err
	}

	if err := s.activities.Append(ctx, rc.LeadID, domain.ActivityOverridden, map[string]any{
		"classification_id":       classificationID.String(),
		"original_classification": string(rc.Classification),
		"new_classification":      string(newClass),
		"overridden_by":           overriddenBy,
	}); err != nil {
		s.log.WithError(err).Warn("Failed to append override activity")
	}

	return rc, nil
}

// ListByLead returns all classifications recorded for a lead.
func (s *Service) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*domain.ReplyClassification, error) {
	return s.classifications.ListByLead(ctx, leadID)
}

// classify runs the model when configured and falls back to the rule sets on
// any failure or when the reply is blank.
func (s *Service) classify(ctx context.Context, lead *domain.Lead, body string) ruleResult {
	if strings.TrimSpace(body) == "" {
		return ruleResult{
			Class:      domain.ReplyUnclear,
			Confidence: 0,
			Reasoning:  "Empty reply body",
		}
	}

	if s.model != nil {
		modelResult, err := s.model.ClassifyReply(ctx, lead, body)
		if err == nil {
			return ruleResult{
				Class:          domain.ReplyClass(modelResult.Classification),
				Confidence:     modelResult.Confidence,
				Reasoning:      modelResult.Reasoning,
				ExtractedDates: modelResult.ExtractedDates,
				IsAutoReply:    modelResult.IsAutoReply,
			}
		}
		s.log.WithError(err).Warn("Model classification failed, falling back to rules")
	}

	return classifyByRules(body)
}
