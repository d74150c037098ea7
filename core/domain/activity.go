package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Activity Log
// =============================================================================

// ActivityType is the closed enumeration of audit trail entry types.
type ActivityType string

const (
	ActivityIngested      ActivityType = "INGESTED"
	ActivityEnriched      ActivityType = "ENRICHED"
	ActivityScored        ActivityType = "SCORED"
	ActivityDecisionMade  ActivityType = "DECISION_MADE"
	ActivityEmailDrafted  ActivityType = "EMAIL_DRAFTED"
	ActivityEmailApproved ActivityType = "EMAIL_APPROVED"
	ActivityEmailSent     ActivityType = "EMAIL_SENT"
	ActivityEmailReplied  ActivityType = "EMAIL_REPLIED"
	ActivityStatusChanged ActivityType = "STATUS_CHANGED"
	ActivityReplyClass    ActivityType = "REPLY_CLASSIFIED"
	ActivityOverridden    ActivityType = "CLASSIFICATION_OVERRIDDEN"
	ActivityFeedback      ActivityType = "FEEDBACK_SUBMITTED"
	ActivityNote          ActivityType = "NOTE"
	ActivityError         ActivityType = "ERROR"
)

// ActivityEntry is one record of the append-only audit trail. Entries are
// never mutated or deleted.
type ActivityEntry struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Type      ActivityType
	Payload   map[string]any
	CreatedAt time.Time
}
