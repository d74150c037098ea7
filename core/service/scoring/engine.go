// Package scoring computes a 0-100 fit score for a lead, via the structured
// model when one is configured and via a deterministic rule table otherwise.
package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"leadflow/core/domain"
	"leadflow/core/port/out"
	"leadflow/pkg/logger"
)

// factorRule maps an enriched lead to a fraction of the factor's weight.
// Returned fractions are in [0, 1]; missing data yields 0, never an error.
type factorRule func(lead *domain.Lead, e *domain.Enrichment) float64

var ruleTable = map[string]factorRule{
	domain.FactorUrgency: func(_ *domain.Lead, e *domain.Enrichment) float64 {
		switch e.UrgencyLevel {
		case "high":
			return 1.0
		case "medium":
			return 0.6
		default:
			return 0.2
		}
	},
	domain.FactorBudget: func(_ *domain.Lead, e *domain.Enrichment) float64 {
		if e.HasBudget {
			return 1.0
		}
		return 0
	},
	domain.FactorCompanySize: func(_ *domain.Lead, e *domain.Enrichment) float64 {
		switch e.CompanySizeCategory {
		case "enterprise":
			return 1.0
		case "mid-market":
			return 0.75
		case "small":
			return 0.5
		default:
			return 0
		}
	},
	domain.FactorPainPoint: func(_ *domain.Lead, e *domain.Enrichment) float64 {
		if e.HasPainPoint {
			return 1.0
		}
		return 0
	},
	domain.FactorJobTitle: func(_ *domain.Lead, e *domain.Enrichment) float64 {
		switch e.Seniority {
		case "senior":
			return 1.0
		case "mid":
			return 0.5
		default:
			return 0
		}
	},
	domain.FactorIndustry: func(_ *domain.Lead, e *domain.Enrichment) float64 {
		if e.IsTechIndustry {
			return 1.0
		}
		return 0
	},
	domain.FactorSource: func(lead *domain.Lead, _ *domain.Enrichment) float64 {
		switch strings.ToLower(lead.Source) {
		case "referral":
			return 1.0
		case "event", "partner":
			return 0.8
		case "web_form":
			return 0.6
		case "outbound":
			return 0.4
		default:
			return 0
		}
	},
}

// Engine scores leads. The model is optional; when nil or failing, the rule
// table is the authoritative path.
type Engine struct {
	model out.StructuredModel
	log   *logger.Logger
}

func NewEngine(model out.StructuredModel) *Engine {
	return &Engine{
		model: model,
		log:   logger.WithField("component", "scoring"),
	}
}

// Score computes the score for an enriched lead against the current config.
// It never returns an error: model failures fall back to the rule table, and
// a nil enrichment degrades to an all-zero one.
func (s *Engine) Score(ctx context.Context, lead *domain.Lead, enrichment *domain.Enrichment, cfg *domain.ScoringConfig) *domain.ScoreResult {
	if enrichment == nil {
		enrichment = &domain.Enrichment{}
	}
	if cfg == nil {
		cfg = domain.DefaultScoringConfig()
	}

	if s.model != nil {
		if result, err := s.model.ScoreLead(ctx, lead, enrichment, cfg); err == nil {
			return &domain.ScoreResult{
				Value:     result.ScoreValue,
				Label:     domain.ScoreLabel(result.ScoreLabel),
				Rationale: result.Rationale,
				Breakdown: result.Breakdown,
				LLMUsed:   true,
			}
		} else {
			s.log.WithError(err).Warn("Model scoring failed, falling back to rule table")
		}
	}

	return s.scoreByRules(lead, enrichment, cfg)
}

// scoreByRules runs the deterministic path: every recognized factor gets a
// breakdown entry, total is the sum of points clamped to [0, 100].
func (s *Engine) scoreByRules(lead *domain.Lead, e *domain.Enrichment, cfg *domain.ScoringConfig) *domain.ScoreResult {
	breakdown := make([]domain.FactorScore, 0, len(domain.FactorOrder))
	total := 0.0
	var notes []string

	for _, factor := range domain.FactorOrder {
		weight := domain.ClampWeight(cfg.Weights[factor])
		points := math.Round(ruleTable[factor](lead, e)*weight*100) / 100
		total += points
		breakdown = append(breakdown, domain.FactorScore{
			Factor: factor,
			Points: points,
			Max:    weight,
		})
		if points > 0 {
			notes = append(notes, fmt.Sprintf("%s(+%.3g)", factor, points))
		}
	}

	value := int(math.Round(total))
	if value > 100 {
		value = 100
	}
	if value < 0 {
		value = 0
	}

	return &domain.ScoreResult{
		Value:     value,
		Label:     cfg.Threshold.LabelFor(value),
		Rationale: "Rule-based score: " + strings.Join(notes, ", "),
		Breakdown: breakdown,
		LLMUsed:   false,
	}
}
