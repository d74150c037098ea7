package pipeline

import (
	"testing"

	"leadflow/core/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		lead    domain.Lead
		wantErr bool
	}{
		{
			name:    "valid lead",
			lead:    domain.Lead{FirstName: "Dana", LastName: "Reyes", Email: "dana@acme.io"},
			wantErr: false,
		},
		{
			name:    "missing email",
			lead:    domain.Lead{FirstName: "Dana", LastName: "Reyes"},
			wantErr: true,
		},
		{
			name:    "missing first name",
			lead:    domain.Lead{LastName: "Reyes", Email: "dana@acme.io"},
			wantErr: true,
		},
		{
			name:    "missing last name",
			lead:    domain.Lead{FirstName: "Dana", Email: "dana@acme.io"},
			wantErr: true,
		},
		{
			name:    "whitespace-only name",
			lead:    domain.Lead{FirstName: "   ", LastName: "Reyes", Email: "dana@acme.io"},
			wantErr: true,
		},
		{
			name:    "invalid email",
			lead:    domain.Lead{FirstName: "Dana", LastName: "Reyes", Email: "not-an-email"},
			wantErr: true,
		},
		{
			name:    "email without tld",
			lead:    domain.Lead{FirstName: "Dana", LastName: "Reyes", Email: "dana@acme"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := normalize(&tt.lead)
			if (err != nil) != tt.wantErr {
				t.Errorf("normalize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeSanitizes(t *testing.T) {
	lead := domain.Lead{
		FirstName:   "  Dana ",
		LastName:    "Reyes",
		Email:       " DANA@Acme.IO ",
		CompanyName: "=SUM(A1:A9)",
		LeadMessage: "+urgent request",
	}
	if err := normalize(&lead); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if lead.FirstName != "Dana" {
		t.Errorf("first name = %q", lead.FirstName)
	}
	if lead.Email != "dana@acme.io" {
		t.Errorf("email = %q", lead.Email)
	}
	if lead.CompanyName != "SUM(A1:A9)" {
		t.Errorf("company = %q, formula prefix not stripped", lead.CompanyName)
	}
	if lead.LeadMessage != "urgent request" {
		t.Errorf("message = %q", lead.LeadMessage)
	}
}

func TestHashEmailStable(t *testing.T) {
	a := hashEmail("dana@acme.io")
	b := hashEmail("  DANA@ACME.IO ")
	if a == "" || a != b {
		t.Errorf("hash not normalized: %q vs %q", a, b)
	}
	if a == "dana@acme.io" || len(a) != 16 {
		t.Errorf("hash %q should be a 16-char digest", a)
	}
}
