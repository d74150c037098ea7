package llm

import (
	"context"
	"fmt"
	"strings"

	"leadflow/core/domain"
	"leadflow/core/port/out"

	"github.com/goccy/go-json"
)

// DraftEmail asks the model for an outreach email and validates subject and
// body length constraints before accepting the result.
func (c *Client) DraftEmail(ctx context.Context, lead *domain.Lead, action domain.ActionType, variant domain.EmailVariant, missingFields []string) (*out.ModelDraft, error) {
	systemPrompt := `You draft professional B2B outreach emails.

Guidelines:
- Keep it concise (3-4 short paragraphs)
- Personalize based on the lead's company and role
- Reference their pain point if provided
- Include a clear call-to-action
- Professional but conversational tone

Respond with this exact JSON format:
{
  "subject": "email subject line (5-200 characters)",
  "body": "email body text (at least 50 characters)"
}`

	var extra string
	if action == domain.ActionAskQuestion && len(missingFields) > 0 {
		extra = fmt.Sprintf("\nThe goal of this email is to gather missing information: %s", strings.Join(missingFields, ", "))
	}

	userPrompt := fmt.Sprintf(`Lead:
- Name: %s %s
- Company: %s
- Job Title: %s
- Industry: %s
- Pain Point: %s
- Message: %s

Action: %s
Variant: %s%s`,
		lead.FirstName, lead.LastName,
		orNA(lead.CompanyName), orNA(lead.JobTitle), orNA(lead.Industry),
		orNA(lead.PainPoint), truncate(orNA(lead.LeadMessage), 1000),
		action, variant, extra)

	resp, err := c.completeJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	var result out.ModelDraft
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		return nil, fmt.Errorf("llm: failed to parse draft response: %w", err)
	}
	if err := validateDraft(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// validateDraft enforces the draft schema contract.
func validateDraft(d *out.ModelDraft) error {
	subject := strings.TrimSpace(d.Subject)
	body := strings.TrimSpace(d.Body)

	if len(subject) < domain.SubjectMinLen || len(subject) > domain.SubjectMaxLen {
		return fmt.Errorf("llm: subject length %d out of bounds", len(subject))
	}
	if len(body) < domain.BodyMinLen {
		return fmt.Errorf("llm: body length %d below minimum", len(body))
	}

	d.Subject = subject
	d.Body = body
	return nil
}
