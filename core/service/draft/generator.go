// Package draft produces outreach email content for a lead and action. The
// structured model is preferred when configured; a deterministic template
// substitution is the fallback, so drafting never fails the surrounding run.
package draft

import (
	"context"

	"leadflow/core/domain"
	"leadflow/core/port/out"
	"leadflow/pkg/logger"
)

// Generator renders email drafts. model may be nil.
type Generator struct {
	model out.StructuredModel
	log   *logger.Logger
}

func NewGenerator(model out.StructuredModel) *Generator {
	return &Generator{
		model: model,
		log:   logger.WithField("component", "draft"),
	}
}

// Generate produces subject and body for the given action and variant. The
// caller chooses the variant from outcome-stage context. missingFields feeds
// the ASK_QUESTION prompt and template. Generate never returns an error.
func (g *Generator) Generate(ctx context.Context, lead *domain.Lead, action domain.ActionType, variant domain.EmailVariant, missingFields []string) *out.ModelDraft {
	if g.model != nil {
		result, err := g.model.DraftEmail(ctx, lead, action, variant, missingFields)
		if err == nil {
			return result
		}
		g.log.WithError(err).Warn("Model drafting failed, falling back to template")
	}

	subject, body := renderTemplate(lead, variant, missingFields)
	return &out.ModelDraft{Subject: subject, Body: body}
}

// VariantFor picks the default variant for an action when the caller has no
// outcome-stage context to choose from.
func VariantFor(action domain.ActionType) domain.EmailVariant {
	if action == domain.ActionAskQuestion {
		return domain.VariantQuestionResponse
	}
	return domain.VariantFirstTouch
}
