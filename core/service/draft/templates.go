package draft

import (
	"fmt"
	"strings"

	"leadflow/core/domain"
)

// template is the deterministic fallback for one email variant. Placeholders
// are substituted with lead fields before rendering.
type template struct {
	subject string
	body    string
}

var templates = map[domain.EmailVariant]template{
	domain.VariantFirstTouch: {
		subject: "Helping {company} achieve better results",
		body: `Hi {first_name},

I'm reaching out because I believe we can help {company} overcome some of the challenges you might be facing.{pain_section}

Our platform has helped similar companies in your industry achieve significant improvements. I'd love to schedule a brief call to explore how we can support your goals.

Would you be available for a 15-minute conversation this week?

Best regards,
Sales Team`,
	},
	domain.VariantFollowUp1: {
		subject: "Following up on {company}",
		body: `Hi {first_name},

I wanted to follow up on my previous note about helping {company}.{pain_section}

I know things get busy, so I'll keep this short: teams like yours typically see results within the first few weeks of working with us.

Would a quick call this week or next work for you?

Best regards,
Sales Team`,
	},
	domain.VariantFollowUp2: {
		subject: "One more idea for {company}",
		body: `Hi {first_name},

I reached out a couple of times about how we could help {company}, and I wanted to share one more thought before I step back.

Companies in your position often underestimate how much time they lose to the status quo. A short conversation could tell us quickly whether there's a fit.

Open to a 15-minute call?

Best regards,
Sales Team`,
	},
	domain.VariantBreakup: {
		subject: "Should I close your file at {company}?",
		body: `Hi {first_name},

I haven't heard back, so I'll assume the timing isn't right for {company} and stop reaching out.

If priorities change and you'd like to revisit the conversation, just reply to this email and we'll pick it up from there.

Wishing you and the team all the best.

Best regards,
Sales Team`,
	},
	domain.VariantQuestionResponse: {
		subject: "Quick question about {company}",
		body: `Hi {first_name},

I came across {company} and wanted to learn more about your team's needs.

To better understand how we can help, could you share a bit more about:
{missing_fields}

Looking forward to connecting.

Best regards,
Sales Team`,
	},
	domain.VariantDemoConfirmation: {
		subject: "Your demo with us is confirmed",
		body: `Hi {first_name},

Great news: your demo is booked. We're looking forward to showing you how teams like {company} put our platform to work.

To make the most of the session, feel free to reply with any specific questions or workflows you'd like us to cover.

See you there.

Best regards,
Sales Team`,
	},
	domain.VariantNurture: {
		subject: "A resource for {company}",
		body: `Hi {first_name},

No ask here, just something useful: we recently published a short guide on the challenges we see companies like {company} running into, and how the best teams handle them.

Happy to send it over if you're interested; just reply and I'll share the link.

Best regards,
Sales Team`,
	},
	domain.VariantReEngagement: {
		subject: "Picking things back up with {company}",
		body: `Hi {first_name},

It's been a while since we last spoke about {company}, and a lot has changed on our side since then.

If the challenges we discussed are still on your radar, I'd love to show you what's new. Would a short call in the next couple of weeks work?

Best regards,
Sales Team`,
	},
}

// renderTemplate substitutes lead fields into the variant's template. Unknown
// variants fall back to first_touch.
func renderTemplate(lead *domain.Lead, variant domain.EmailVariant, missingFields []string) (string, string) {
	tpl, ok := templates[variant]
	if !ok {
		tpl = templates[domain.VariantFirstTouch]
	}

	firstName := lead.FirstName
	if firstName == "" {
		firstName = "there"
	}
	company := lead.CompanyName
	if company == "" {
		company = "your company"
	}

	painSection := ""
	if lead.PainPoint != "" {
		painSection = fmt.Sprintf("\n\nI noticed you mentioned: %s\n", lead.PainPoint)
	}

	fields := missingFields
	if len(fields) > 3 {
		fields = fields[:3]
	}
	var lines []string
	for _, f := range fields {
		lines = append(lines, "- Your "+strings.ReplaceAll(f, "_", " "))
	}
	if len(lines) == 0 {
		lines = []string{"- Your current priorities"}
	}

	r := strings.NewReplacer(
		"{first_name}", firstName,
		"{company}", company,
		"{pain_section}", painSection,
		"{missing_fields}", strings.Join(lines, "\n"),
	)
	return r.Replace(tpl.subject), r.Replace(tpl.body)
}
