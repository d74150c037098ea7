package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// hashEmail returns a short one-way digest of an email address. Traces carry
// this instead of the raw address.
func hashEmail(email string) string {
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])[:16]
}

// truncateText bounds free text stored in a trace entry.
func truncateText(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
