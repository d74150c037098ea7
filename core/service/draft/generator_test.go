package draft

import (
	"context"
	"strings"
	"testing"

	"leadflow/core/domain"
)

func TestTemplateFallbackConstraints(t *testing.T) {
	gen := NewGenerator(nil)
	lead := &domain.Lead{
		FirstName:   "Dana",
		CompanyName: "FastGrow",
		PainPoint:   "Manual routing loses deals",
	}

	variants := []domain.EmailVariant{
		domain.VariantFirstTouch,
		domain.VariantFollowUp1,
		domain.VariantFollowUp2,
		domain.VariantBreakup,
		domain.VariantQuestionResponse,
		domain.VariantDemoConfirmation,
		domain.VariantNurture,
		domain.VariantReEngagement,
	}

	for _, variant := range variants {
		t.Run(string(variant), func(t *testing.T) {
			d := gen.Generate(context.Background(), lead, domain.ActionSendEmail, variant, nil)
			if len(d.Subject) < domain.SubjectMinLen || len(d.Subject) > domain.SubjectMaxLen {
				t.Errorf("subject length %d out of bounds: %q", len(d.Subject), d.Subject)
			}
			if len(d.Body) < domain.BodyMinLen {
				t.Errorf("body length %d below minimum", len(d.Body))
			}
			if strings.Contains(d.Subject, "{") || strings.Contains(d.Body, "{") {
				t.Error("unreplaced placeholder in rendered template")
			}
		})
	}
}

func TestTemplatePersonalization(t *testing.T) {
	gen := NewGenerator(nil)
	lead := &domain.Lead{FirstName: "Dana", CompanyName: "FastGrow", PainPoint: "slow reporting"}

	d := gen.Generate(context.Background(), lead, domain.ActionSendEmail, domain.VariantFirstTouch, nil)
	if !strings.Contains(d.Body, "Dana") {
		t.Error("body does not mention first name")
	}
	if !strings.Contains(d.Subject, "FastGrow") {
		t.Error("subject does not mention company")
	}
	if !strings.Contains(d.Body, "slow reporting") {
		t.Error("body does not reference the pain point")
	}
}

func TestTemplateDefaultsForEmptyFields(t *testing.T) {
	gen := NewGenerator(nil)
	d := gen.Generate(context.Background(), &domain.Lead{}, domain.ActionSendEmail, domain.VariantFirstTouch, nil)

	if !strings.Contains(d.Body, "Hi there") {
		t.Error("expected generic greeting for missing first name")
	}
	if !strings.Contains(d.Subject, "your company") {
		t.Error("expected generic company placeholder")
	}
}

func TestQuestionTemplateListsMissingFields(t *testing.T) {
	gen := NewGenerator(nil)
	lead := &domain.Lead{FirstName: "Dana", CompanyName: "FastGrow"}

	d := gen.Generate(context.Background(), lead, domain.ActionAskQuestion, domain.VariantQuestionResponse,
		[]string{"job_title", "pain_point", "budget_range", "company_size"})

	if !strings.Contains(d.Body, "Your job title") {
		t.Error("body does not ask for job title")
	}
	if !strings.Contains(d.Body, "Your pain point") {
		t.Error("body does not ask for pain point")
	}
	if strings.Contains(d.Body, "company size") {
		t.Error("only the first three missing fields should be listed")
	}
}

func TestUnknownVariantFallsBackToFirstTouch(t *testing.T) {
	gen := NewGenerator(nil)
	lead := &domain.Lead{FirstName: "Dana", CompanyName: "FastGrow"}

	d := gen.Generate(context.Background(), lead, domain.ActionSendEmail, domain.EmailVariant("bogus"), nil)
	if !strings.Contains(d.Subject, "FastGrow") {
		t.Errorf("fallback subject missing company: %q", d.Subject)
	}
}

func TestVariantFor(t *testing.T) {
	if VariantFor(domain.ActionAskQuestion) != domain.VariantQuestionResponse {
		t.Error("ASK_QUESTION should map to question_response")
	}
	if VariantFor(domain.ActionSendEmail) != domain.VariantFirstTouch {
		t.Error("SEND_EMAIL should map to first_touch")
	}
}
