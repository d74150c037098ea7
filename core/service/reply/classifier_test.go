package reply

import (
	"testing"

	"leadflow/core/domain"
)

func TestClassifyByRules(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantClass domain.ReplyClass
		wantAuto  bool
	}{
		{
			name:      "out of office",
			body:      "I am currently out of the office and will return on Monday.",
			wantClass: domain.ReplyOutOfOffice,
			wantAuto:  true,
		},
		{
			name:      "automatic reply header",
			body:      "Automatic reply: away from my desk until next week",
			wantClass: domain.ReplyOutOfOffice,
			wantAuto:  true,
		},
		{
			name:      "unsubscribe beats not interested",
			body:      "Not interested, please remove me",
			wantClass: domain.ReplyUnsubscribe,
		},
		{
			name:      "plain unsubscribe",
			body:      "Please unsubscribe me from this list",
			wantClass: domain.ReplyUnsubscribe,
		},
		{
			name:      "not interested",
			body:      "Thanks but we're all set with our current vendor",
			wantClass: domain.ReplyNotInterested,
		},
		{
			name:      "wants a demo",
			body:      "This sounds great, can we schedule a demo next Tuesday?",
			wantClass: domain.ReplyInterestedBookDemo,
		},
		{
			name:      "question",
			body:      "How does your pricing work for small teams",
			wantClass: domain.ReplyQuestion,
		},
		{
			name:      "unclear",
			body:      "fwd fwd fwd",
			wantClass: domain.ReplyUnclear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyByRules(tt.body)
			if got.Class != tt.wantClass {
				t.Errorf("class = %s, want %s", got.Class, tt.wantClass)
			}
			if got.IsAutoReply != tt.wantAuto {
				t.Errorf("is_auto_reply = %v, want %v", got.IsAutoReply, tt.wantAuto)
			}
			if got.Confidence <= 0 || got.Confidence > 1 {
				t.Errorf("confidence %f out of range", got.Confidence)
			}
			if got.Reasoning == "" {
				t.Error("reasoning must never be empty")
			}
		})
	}
}

func TestExtractDates(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"weekday", "Let's talk on Tuesday", 1},
		{"relative weekday matches two patterns", "free next friday afternoon", 2},
		{"month day", "How about March 14th?", 1},
		{"numeric date", "I can do 3/14 or 3/15", 2},
		{"no dates", "Tell me more about pricing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractDates(tt.body)
			if len(got) != tt.want {
				t.Errorf("extracted %d dates (%v), want %d", len(got), got, tt.want)
			}
		})
	}
}

func TestInterestedReplyCarriesDates(t *testing.T) {
	got := classifyByRules("Sounds good, I'm free next Tuesday")
	if got.Class != domain.ReplyInterestedBookDemo {
		t.Fatalf("class = %s, want INTERESTED_BOOK_DEMO", got.Class)
	}
	if len(got.ExtractedDates) == 0 {
		t.Error("expected extracted dates on an interested reply")
	}
}
