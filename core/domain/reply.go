package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Reply Classification
// =============================================================================

// ReplyClass is the fixed taxonomy for inbound reply classification.
type ReplyClass string

const (
	ReplyInterestedBookDemo ReplyClass = "INTERESTED_BOOK_DEMO"
	ReplyNotInterested      ReplyClass = "NOT_INTERESTED"
	ReplyQuestion           ReplyClass = "QUESTION"
	ReplyOutOfOffice        ReplyClass = "OUT_OF_OFFICE"
	ReplyUnsubscribe        ReplyClass = "UNSUBSCRIBE"
	ReplyUnclear            ReplyClass = "UNCLEAR"
)

// Valid reports whether c is one of the six taxonomy values.
func (c ReplyClass) Valid() bool {
	switch c {
	case ReplyInterestedBookDemo, ReplyNotInterested, ReplyQuestion,
		ReplyOutOfOffice, ReplyUnsubscribe, ReplyUnclear:
		return true
	}
	return false
}

// ReplyClassification is the stored result of classifying one inbound reply.
// Immutable except for the override fields, which may be set exactly once.
type ReplyClassification struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	ReplyBody      string
	Classification ReplyClass
	Confidence     float64
	Reasoning      string
	ExtractedDates []string
	IsAutoReply    bool

	OverriddenClassification *ReplyClass
	OverriddenBy             *string
	OverriddenAt             *time.Time

	CreatedAt time.Time
}

// Overridden reports whether a human has corrected this classification.
func (r *ReplyClassification) Overridden() bool {
	return r.OverriddenClassification != nil
}
