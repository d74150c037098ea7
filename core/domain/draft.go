package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Email Drafts
// =============================================================================

// EmailVariant names the template/style chosen for a given outreach context.
// The caller picks the variant from outcome-stage context; the draft generator
// only renders it.
type EmailVariant string

const (
	VariantFirstTouch       EmailVariant = "first_touch"
	VariantFollowUp1        EmailVariant = "follow_up_1"
	VariantFollowUp2        EmailVariant = "follow_up_2"
	VariantBreakup          EmailVariant = "breakup"
	VariantQuestionResponse EmailVariant = "question_response"
	VariantDemoConfirmation EmailVariant = "demo_confirmation"
	VariantNurture          EmailVariant = "nurture"
	VariantReEngagement     EmailVariant = "re_engagement"
)

// DeliveryStatus tracks an approved draft through sending.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "PENDING"
	DeliverySent    DeliveryStatus = "SENT"
	DeliveryBounced DeliveryStatus = "BOUNCED"
	DeliveryFailed  DeliveryStatus = "FAILED"
)

// Subject and body constraints enforced on every draft, model-generated or
// templated.
const (
	SubjectMinLen = 5
	SubjectMaxLen = 200
	BodyMinLen    = 50
)

// EmailDraft is one generated outreach email. A lead accumulates drafts across
// pipeline runs; an approved draft is never mutated by re-running the pipeline.
type EmailDraft struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	Subject        string
	Body           string
	Variant        EmailVariant
	Approved       bool
	SentAt         *time.Time
	DeliveryStatus DeliveryStatus
	CreatedAt      time.Time
}
