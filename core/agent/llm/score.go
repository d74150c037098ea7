package llm

import (
	"context"
	"fmt"

	"leadflow/core/domain"
	"leadflow/core/port/out"

	"github.com/goccy/go-json"
)

// ScoreLead asks the model for a 0-100 fit score and validates the response
// against the scoring schema: value range, label enum, and breakdown factor
// names matching the recognized set exactly. Any mismatch is an error so the
// caller falls back to the rule table.
func (c *Client) ScoreLead(ctx context.Context, lead *domain.Lead, enrichment *domain.Enrichment, cfg *domain.ScoringConfig) (*out.ModelScore, error) {
	systemPrompt := fmt.Sprintf(`You score B2B sales leads from 0-100 on fit and likelihood to convert.

Score each of these factors, awarding points up to the factor's max:
- urgency (max %.0f)
- budget (max %.0f)
- company_size (max %.0f)
- pain_point (max %.0f)
- job_title (max %.0f)
- industry (max %.0f)
- source (max %.0f)

The total score is the sum of factor points. Label: HOT if >= %d, WARM if >= %d, else COLD.

Respond with this exact JSON format:
{
  "score_value": 0-100,
  "score_label": "HOT|WARM|COLD",
  "rationale": "2-3 sentence explanation",
  "breakdown": [{"factor": "urgency", "points": 0, "max": 0}, ...]
}
The breakdown must contain exactly the seven factors above, in that order.`,
		cfg.Weights[domain.FactorUrgency],
		cfg.Weights[domain.FactorBudget],
		cfg.Weights[domain.FactorCompanySize],
		cfg.Weights[domain.FactorPainPoint],
		cfg.Weights[domain.FactorJobTitle],
		cfg.Weights[domain.FactorIndustry],
		cfg.Weights[domain.FactorSource],
		cfg.Threshold.Hot, cfg.Threshold.Warm)

	userPrompt := fmt.Sprintf(`Lead:
- Name: %s %s
- Company: %s
- Job Title: %s
- Industry: %s
- Company Size: %s
- Country: %s
- Source: %s
- Budget Range: %s
- Pain Point: %s
- Urgency: %s
- Message: %s

Enrichment:
- Email Domain: %s
- Free Email: %t
- Company Size Category: %s
- Tech Industry: %t
- Has Budget: %t
- Has Pain Point: %t
- Urgency Level: %s
- Seniority: %s`,
		lead.FirstName, lead.LastName,
		orNA(lead.CompanyName), orNA(lead.JobTitle), orNA(lead.Industry),
		orNA(lead.CompanySize), orNA(lead.Country), orNA(lead.Source),
		orNA(lead.BudgetRange), orNA(lead.PainPoint), orNA(lead.Urgency),
		truncate(orNA(lead.LeadMessage), 1000),
		orNA(enrichment.EmailDomain), enrichment.IsFreeEmail,
		enrichment.CompanySizeCategory, enrichment.IsTechIndustry,
		enrichment.HasBudget, enrichment.HasPainPoint,
		enrichment.UrgencyLevel, enrichment.Seniority)

	resp, err := c.completeJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	var result out.ModelScore
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		return nil, fmt.Errorf("llm: failed to parse score response: %w", err)
	}
	if err := validateScore(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// validateScore enforces the scoring schema contract.
func validateScore(s *out.ModelScore) error {
	if s.ScoreValue < 0 || s.ScoreValue > 100 {
		return fmt.Errorf("llm: score_value %d out of range", s.ScoreValue)
	}
	switch domain.ScoreLabel(s.ScoreLabel) {
	case domain.LabelHot, domain.LabelWarm, domain.LabelCold:
	default:
		return fmt.Errorf("llm: invalid score_label %q", s.ScoreLabel)
	}
	if len(s.Breakdown) != len(domain.FactorOrder) {
		return fmt.Errorf("llm: breakdown has %d factors, want %d", len(s.Breakdown), len(domain.FactorOrder))
	}
	for i, want := range domain.FactorOrder {
		if s.Breakdown[i].Factor != want {
			return fmt.Errorf("llm: breakdown factor %d is %q, want %q", i, s.Breakdown[i].Factor, want)
		}
	}
	return nil
}
