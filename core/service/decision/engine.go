// Package decision maps a scored lead into a recommended next action.
package decision

import (
	"strings"

	"leadflow/core/domain"
)

// Decision is the outcome of one evaluation: the action plus the fields the
// lead is missing when the action is ASK_QUESTION.
type Decision struct {
	Action        domain.ActionType
	Reason        string
	MissingFields []string
}

// Decide evaluates the decision policy for a scored lead. Rules apply in
// order, first match wins:
//
//  1. missing required fields (email, or any of company / job title /
//     pain point) -> ASK_QUESTION
//  2. COLD score or a disqualifying source -> DISQUALIFY
//  3. HOT or WARM score -> SEND_EMAIL
//  4. otherwise -> HOLD
//
// Completeness gating comes before score so partial data is never
// auto-disqualified.
func Decide(lead *domain.Lead, score *domain.ScoreResult) Decision {
	if missing := missingFields(lead); len(missing) > 0 {
		return Decision{
			Action:        domain.ActionAskQuestion,
			Reason:        "missing required fields: " + strings.Join(missing, ", "),
			MissingFields: missing,
		}
	}

	if strings.EqualFold(lead.Source, domain.SourceDarkWeb) {
		return Decision{
			Action: domain.ActionDisqualify,
			Reason: "disqualifying source: " + lead.Source,
		}
	}
	if score == nil || score.Label == domain.LabelCold {
		return Decision{
			Action: domain.ActionDisqualify,
			Reason: "score label is COLD",
		}
	}

	if score.Label == domain.LabelHot || score.Label == domain.LabelWarm {
		return Decision{
			Action: domain.ActionSendEmail,
			Reason: "score label is " + string(score.Label),
		}
	}

	return Decision{
		Action: domain.ActionHold,
		Reason: "no rule matched",
	}
}

// StatusFor maps an action to the lead lifecycle status it implies.
func StatusFor(action domain.ActionType) domain.LeadStatus {
	switch action {
	case domain.ActionSendEmail:
		return domain.LeadStatusQualified
	case domain.ActionAskQuestion:
		return domain.LeadStatusNeedsInfo
	case domain.ActionDisqualify:
		return domain.LeadStatusDisqualified
	default:
		return domain.LeadStatusNew
	}
}

func missingFields(lead *domain.Lead) []string {
	var missing []string
	if strings.TrimSpace(lead.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(lead.CompanyName) == "" {
		missing = append(missing, "company_name")
	}
	if strings.TrimSpace(lead.JobTitle) == "" {
		missing = append(missing, "job_title")
	}
	if strings.TrimSpace(lead.PainPoint) == "" {
		missing = append(missing, "pain_point")
	}
	return missing
}
