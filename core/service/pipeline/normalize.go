package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"leadflow/core/domain"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// normalize sanitizes the lead's string fields in place and validates the
// mandatory ones. Rules:
//
//   - whitespace is trimmed from every string field
//   - leading spreadsheet-formula characters (= + - @) are stripped
//   - the email is lowercased
//   - email, first name, and last name must be present; the email must be
//     structurally valid
//
// A non-nil error fails the whole run before any scoring happens.
func normalize(lead *domain.Lead) error {
	fields := []*string{
		&lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone,
		&lead.CompanyName, &lead.JobTitle, &lead.Industry, &lead.CompanySize,
		&lead.Country, &lead.Source, &lead.BudgetRange, &lead.PainPoint,
		&lead.Urgency, &lead.LeadMessage,
	}
	for _, f := range fields {
		*f = sanitize(*f)
	}
	lead.Email = strings.ToLower(lead.Email)

	var missing []string
	if lead.Email == "" {
		missing = append(missing, "email")
	}
	if lead.FirstName == "" {
		missing = append(missing, "first_name")
	}
	if lead.LastName == "" {
		missing = append(missing, "last_name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if !emailPattern.MatchString(lead.Email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimLeft(s, "=+-@")
}
