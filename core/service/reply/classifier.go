// Package reply classifies inbound email replies and drives the automatic
// outcome stage transitions they imply.
package reply

import (
	"regexp"

	"leadflow/core/domain"
)

// Pattern sets for the rule-based path, checked in priority order. An
// out-of-office match wins over everything so auto-replies never advance the
// stage; unsubscribe wins over not-interested so "not interested, remove me"
// closes the lead.
var (
	oooPatterns = compileAll(
		`out of (?:the )?office`,
		`on (?:annual |parental )?leave`,
		`on vacation`,
		`away from (?:my )?(?:desk|email)`,
		`limited access to email`,
		`auto[- ]?reply`,
		`automatic reply`,
		`i am currently (?:out|away|unavailable)`,
		`will (?:return|be back|respond) (?:on|after)`,
	)

	unsubscribePatterns = compileAll(
		`unsubscribe`,
		`remove me`,
		`stop (?:emailing|contacting|sending)`,
		`opt[- ]?out`,
		`do not (?:contact|email|send)`,
		`take me off`,
	)

	notInterestedPatterns = compileAll(
		`not interested`,
		`no thank(?:s| you)`,
		`not (?:a good |the right )?fit`,
		`pass on this`,
		`we(?:'re| are) (?:all )?set`,
		`already have a (?:solution|vendor|provider)`,
		`not (?:looking|in the market)`,
		`decline`,
	)

	interestedPatterns = compileAll(
		`(?:schedule|book|set up) (?:a )?(?:demo|meeting|call|chat)`,
		`(?:love|like|want) to (?:see|learn|schedule|chat|discuss|meet)`,
		`(?:let's|lets|can we) (?:set up|schedule|book|find|arrange)`,
		`(?:i'?m|we(?:'re| are)) interested`,
		`sounds? (?:great|good|interesting)`,
		`free (?:on|next|this)`,
		`(?:available|availability) (?:on|next|this|for)`,
		`(?:next|this) (?:monday|tuesday|wednesday|thursday|friday|week)`,
	)

	questionPatterns = compileAll(
		`\?`,
		`(?:can|could|do|does|how|what|which|where|when|why|is|are) (?:you|your|it|this|the)`,
		`tell me more`,
		`more (?:info|information|details)`,
		`curious about`,
	)

	datePatterns = compileAll(
		`\b(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`,
		`\b(?:next|this) (?:monday|tuesday|wednesday|thursday|friday|week)\b`,
		`\b(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\s+\d{1,2}(?:st|nd|rd|th)?\b`,
		`\b\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b`,
		`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`,
	)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	return compiled
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// extractDates pulls date and weekday references out of the reply text.
func extractDates(text string) []string {
	var dates []string
	for _, p := range datePatterns {
		dates = append(dates, p.FindAllString(text, -1)...)
	}
	return dates
}

// ruleResult is the rule-based classifier's output before persistence.
type ruleResult struct {
	Class          domain.ReplyClass
	Confidence     float64
	Reasoning      string
	ExtractedDates []string
	IsAutoReply    bool
}

// classifyByRules classifies a reply with the regex pattern sets.
func classifyByRules(body string) ruleResult {
	switch {
	case matchesAny(body, oooPatterns):
		return ruleResult{
			Class:          domain.ReplyOutOfOffice,
			Confidence:     0.85,
			Reasoning:      "Reply matches out-of-office patterns",
			ExtractedDates: extractDates(body),
			IsAutoReply:    true,
		}
	case matchesAny(body, unsubscribePatterns):
		return ruleResult{
			Class:      domain.ReplyUnsubscribe,
			Confidence: 0.9,
			Reasoning:  "Reply contains unsubscribe/opt-out language",
		}
	case matchesAny(body, notInterestedPatterns):
		return ruleResult{
			Class:      domain.ReplyNotInterested,
			Confidence: 0.8,
			Reasoning:  "Reply contains not-interested language",
		}
	case matchesAny(body, interestedPatterns):
		return ruleResult{
			Class:          domain.ReplyInterestedBookDemo,
			Confidence:     0.75,
			Reasoning:      "Reply contains interest/scheduling language",
			ExtractedDates: extractDates(body),
		}
	case matchesAny(body, questionPatterns):
		return ruleResult{
			Class:      domain.ReplyQuestion,
			Confidence: 0.7,
			Reasoning:  "Reply contains question patterns",
		}
	default:
		return ruleResult{
			Class:      domain.ReplyUnclear,
			Confidence: 0.5,
			Reasoning:  "Reply does not match any known patterns",
		}
	}
}
