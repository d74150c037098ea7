package llm

import (
	"context"
	"fmt"

	"leadflow/core/domain"
	"leadflow/core/port/out"

	"github.com/goccy/go-json"
)

// ClassifyReply asks the model to classify an inbound reply into the fixed
// taxonomy and validates the class and confidence range.
func (c *Client) ClassifyReply(ctx context.Context, lead *domain.Lead, replyBody string) (*out.ModelReply, error) {
	systemPrompt := `You classify inbound email replies from B2B sales leads.

Classify the reply into exactly one of:
- INTERESTED_BOOK_DEMO: wants to schedule a demo, meeting, or call
- NOT_INTERESTED: declining or expressing disinterest
- QUESTION: asking questions, wants more information
- OUT_OF_OFFICE: auto-reply or out-of-office message
- UNSUBSCRIBE: wants to stop receiving emails
- UNCLEAR: does not clearly fit any category

Respond with this exact JSON format:
{
  "classification": "one of the six values above",
  "confidence": 0.0-1.0,
  "reasoning": "why this classification was chosen",
  "extracted_dates": ["any date or time references in the reply"],
  "is_auto_reply": true|false
}`

	stage := "unknown"
	if lead.CurrentOutcomeStage != nil {
		stage = string(*lead.CurrentOutcomeStage)
	}
	userPrompt := fmt.Sprintf(`Lead context: %s %s, Company: %s, Industry: %s, Current stage: %s

Reply text:
---
%s
---`,
		lead.FirstName, lead.LastName, orNA(lead.CompanyName), orNA(lead.Industry), stage,
		truncate(replyBody, 1500))

	resp, err := c.completeJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	var result out.ModelReply
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		return nil, fmt.Errorf("llm: failed to parse classification response: %w", err)
	}
	if !domain.ReplyClass(result.Classification).Valid() {
		return nil, fmt.Errorf("llm: invalid classification %q", result.Classification)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return nil, fmt.Errorf("llm: confidence %f out of range", result.Confidence)
	}

	return &result, nil
}
