package decision

import (
	"testing"

	"leadflow/core/domain"
)

func completeLead() *domain.Lead {
	return &domain.Lead{
		Email:       "dana@fastgrow.io",
		CompanyName: "FastGrow",
		JobTitle:    "VP of Operations",
		PainPoint:   "Manual routing loses deals",
		Source:      "referral",
	}
}

func score(label domain.ScoreLabel) *domain.ScoreResult {
	return &domain.ScoreResult{Value: 50, Label: label}
}

func TestDecideOrdering(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*domain.Lead)
		score      *domain.ScoreResult
		wantAction domain.ActionType
	}{
		{
			name:       "hot complete lead sends email",
			mutate:     func(l *domain.Lead) {},
			score:      score(domain.LabelHot),
			wantAction: domain.ActionSendEmail,
		},
		{
			name:       "warm complete lead sends email",
			mutate:     func(l *domain.Lead) {},
			score:      score(domain.LabelWarm),
			wantAction: domain.ActionSendEmail,
		},
		{
			name:       "cold complete lead disqualifies",
			mutate:     func(l *domain.Lead) {},
			score:      score(domain.LabelCold),
			wantAction: domain.ActionDisqualify,
		},
		{
			name:       "missing company asks question even when hot",
			mutate:     func(l *domain.Lead) { l.CompanyName = "" },
			score:      score(domain.LabelHot),
			wantAction: domain.ActionAskQuestion,
		},
		{
			name:       "missing job title asks question",
			mutate:     func(l *domain.Lead) { l.JobTitle = "" },
			score:      score(domain.LabelHot),
			wantAction: domain.ActionAskQuestion,
		},
		{
			name:       "missing pain point asks question",
			mutate:     func(l *domain.Lead) { l.PainPoint = "" },
			score:      score(domain.LabelHot),
			wantAction: domain.ActionAskQuestion,
		},
		{
			name:       "missing email asks question",
			mutate:     func(l *domain.Lead) { l.Email = "" },
			score:      score(domain.LabelHot),
			wantAction: domain.ActionAskQuestion,
		},
		{
			name:       "completeness gating beats cold score",
			mutate:     func(l *domain.Lead) { l.CompanyName = "" },
			score:      score(domain.LabelCold),
			wantAction: domain.ActionAskQuestion,
		},
		{
			name:       "disqualifying source beats hot score",
			mutate:     func(l *domain.Lead) { l.Source = "dark_web" },
			score:      score(domain.LabelHot),
			wantAction: domain.ActionDisqualify,
		},
		{
			name:       "nil score disqualifies",
			mutate:     func(l *domain.Lead) {},
			score:      nil,
			wantAction: domain.ActionDisqualify,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := completeLead()
			tt.mutate(lead)
			d := Decide(lead, tt.score)
			if d.Action != tt.wantAction {
				t.Errorf("action = %s, want %s (reason: %s)", d.Action, tt.wantAction, d.Reason)
			}
		})
	}
}

func TestDecideMissingFieldsListed(t *testing.T) {
	lead := completeLead()
	lead.CompanyName = ""
	lead.PainPoint = ""

	d := Decide(lead, score(domain.LabelHot))
	if d.Action != domain.ActionAskQuestion {
		t.Fatalf("action = %s, want ASK_QUESTION", d.Action)
	}
	if len(d.MissingFields) != 2 {
		t.Fatalf("missing fields = %v, want 2 entries", d.MissingFields)
	}
	if d.MissingFields[0] != "company_name" || d.MissingFields[1] != "pain_point" {
		t.Errorf("missing fields = %v", d.MissingFields)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		action domain.ActionType
		want   domain.LeadStatus
	}{
		{domain.ActionSendEmail, domain.LeadStatusQualified},
		{domain.ActionAskQuestion, domain.LeadStatusNeedsInfo},
		{domain.ActionDisqualify, domain.LeadStatusDisqualified},
		{domain.ActionHold, domain.LeadStatusNew},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.action); got != tt.want {
			t.Errorf("StatusFor(%s) = %s, want %s", tt.action, got, tt.want)
		}
	}
}
