// Package enrich derives heuristic attributes from intake lead data.
// Enrichment never fails a pipeline run; anything it cannot infer degrades to
// a zero value.
package enrich

import (
	"strings"

	"leadflow/core/domain"
)

var freeEmailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"hotmail.com": true,
	"outlook.com": true,
	"aol.com":     true,
}

var techIndustryKeywords = []string{
	"software", "saas", "tech", "it", "digital", "cloud", "ai", "ml",
}

var painPointKeywords = []string{
	"losing", "struggling", "challenge", "problem", "pain",
	"frustrat", "slow", "inefficien", "costly", "expensive",
	"manual", "bottleneck", "failing", "behind", "difficult",
}

var urgencyHighKeywords = []string{
	"urgent", "asap", "immediately", "critical", "losing", "deadline",
}

var urgencyMediumKeywords = []string{
	"soon", "looking for", "need", "want to", "interested",
}

var seniorTitles = []string{
	"ceo", "cto", "cfo", "coo", "cmo", "cio", "cpo",
	"founder", "co-founder", "owner", "president",
	"vp", "vice president",
	"director", "head of",
	"partner", "managing",
}

var midTitles = []string{"manager", "lead", "senior", "principal"}

// Enrich derives heuristic attributes for a normalized lead.
func Enrich(lead *domain.Lead) *domain.Enrichment {
	e := &domain.Enrichment{
		CompanySizeCategory: "unknown",
		UrgencyLevel:        "low",
		Seniority:           "junior",
	}

	// Email domain
	if at := strings.LastIndex(lead.Email, "@"); at >= 0 && at < len(lead.Email)-1 {
		domainPart := strings.ToLower(lead.Email[at+1:])
		e.EmailDomain = domainPart
		e.IsFreeEmail = freeEmailDomains[domainPart]
	}

	// Company size category
	size := strings.ToLower(lead.CompanySize)
	switch {
	case size == "":
		e.CompanySizeCategory = "unknown"
	case containsAny(size, "enterprise", "1000+", "large"):
		e.CompanySizeCategory = "enterprise"
	case containsAny(size, "mid", "100-1000", "medium", "201-500", "501-1000"):
		e.CompanySizeCategory = "mid-market"
	default:
		e.CompanySizeCategory = "small"
	}

	// Industry
	industry := strings.ToLower(lead.Industry)
	if industry != "" {
		e.IsTechIndustry = containsAny(industry, techIndustryKeywords...)
	}

	// Budget signal
	e.HasBudget = strings.TrimSpace(lead.BudgetRange) != ""

	// Pain point signal, from the structured field or the free-text message
	e.HasPainPoint = strings.TrimSpace(lead.PainPoint) != ""
	if !e.HasPainPoint && lead.LeadMessage != "" {
		e.HasPainPoint = containsAny(strings.ToLower(lead.LeadMessage), painPointKeywords...)
	}

	// Urgency level, from the structured field or the free-text message
	urgency := strings.ToLower(lead.Urgency)
	switch {
	case urgency == "low" || urgency == "medium" || urgency == "high":
		e.UrgencyLevel = urgency
	case lead.LeadMessage != "":
		msg := strings.ToLower(lead.LeadMessage)
		switch {
		case containsAny(msg, urgencyHighKeywords...):
			e.UrgencyLevel = "high"
		case containsAny(msg, urgencyMediumKeywords...):
			e.UrgencyLevel = "medium"
		}
	}

	// Job title seniority
	title := strings.ToLower(lead.JobTitle)
	switch {
	case containsAny(title, seniorTitles...):
		e.Seniority = "senior"
	case containsAny(title, midTitles...):
		e.Seniority = "mid"
	}

	return e
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
