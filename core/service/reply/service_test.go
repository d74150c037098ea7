package reply

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadflow/core/domain"
	"leadflow/core/service/outcome"
	"leadflow/pkg/apperr"

	"github.com/google/uuid"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeLeads struct {
	leads map[uuid.UUID]*domain.Lead
}

func (f *fakeLeads) Create(_ context.Context, lead *domain.Lead) error {
	f.leads[lead.ID] = lead
	return nil
}

func (f *fakeLeads) List(_ context.Context, _, _ int) ([]*domain.Lead, error) {
	return nil, nil
}

func (f *fakeLeads) GetByID(_ context.Context, id uuid.UUID) (*domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, apperr.NotFound("lead")
	}
	copied := *lead
	return &copied, nil
}

func (f *fakeLeads) UpdateProcessingStatus(_ context.Context, _ uuid.UUID, _ domain.ProcessingStatus) error {
	return nil
}

func (f *fakeLeads) UpdateScore(_ context.Context, _ uuid.UUID, _ *domain.ScoreResult, _ domain.ActionType, _ domain.LeadStatus) error {
	return nil
}

func (f *fakeLeads) Archive(_ context.Context, _ uuid.UUID) error { return nil }

type fakeClassifications struct {
	records map[uuid.UUID]*domain.ReplyClassification
}

func newFakeClassifications() *fakeClassifications {
	return &fakeClassifications{records: map[uuid.UUID]*domain.ReplyClassification{}}
}

func (f *fakeClassifications) Create(_ context.Context, rc *domain.ReplyClassification) error {
	f.records[rc.ID] = rc
	return nil
}

func (f *fakeClassifications) GetByID(_ context.Context, id uuid.UUID) (*domain.ReplyClassification, error) {
	rc, ok := f.records[id]
	if !ok {
		return nil, apperr.NotFound("classification")
	}
	return rc, nil
}

func (f *fakeClassifications) ListByLead(_ context.Context, leadID uuid.UUID) ([]*domain.ReplyClassification, error) {
	var out []*domain.ReplyClassification
	for _, rc := range f.records {
		if rc.LeadID == leadID {
			out = append(out, rc)
		}
	}
	return out, nil
}

func (f *fakeClassifications) Override(_ context.Context, id uuid.UUID, newClass domain.ReplyClass, overriddenBy string) (*domain.ReplyClassification, error) {
	rc, ok := f.records[id]
	if !ok {
		return nil, apperr.NotFound("classification")
	}
	if rc.Overridden() {
		return nil, apperr.AlreadyOverridden(id.String())
	}
	now := time.Now().UTC()
	rc.OverriddenClassification = &newClass
	rc.OverriddenBy = &overriddenBy
	rc.OverriddenAt = &now
	return rc, nil
}

type fakeStages struct {
	records []*domain.OutcomeStageRecord
}

func (f *fakeStages) Transition(_ context.Context, record *domain.OutcomeStageRecord) error {
	now := record.EnteredAt
	for _, r := range f.records {
		if r.LeadID == record.LeadID && r.ExitedAt == nil {
			r.ExitedAt = &now
		}
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeStages) Current(_ context.Context, leadID uuid.UUID) (*domain.OutcomeStageRecord, error) {
	for _, r := range f.records {
		if r.LeadID == leadID && r.ExitedAt == nil {
			return r, nil
		}
	}
	return nil, errors.New("no open stage record")
}

func (f *fakeStages) History(_ context.Context, leadID uuid.UUID) ([]*domain.OutcomeStageRecord, error) {
	return nil, nil
}

func (f *fakeStages) StaleEmailSent(_ context.Context, _ time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeActivities struct {
	entries []domain.ActivityType
}

func (f *fakeActivities) Append(_ context.Context, _ uuid.UUID, activityType domain.ActivityType, _ map[string]any) error {
	f.entries = append(f.entries, activityType)
	return nil
}

func (f *fakeActivities) ListByLead(_ context.Context, _ uuid.UUID, _ int) ([]*domain.ActivityEntry, error) {
	return nil, nil
}

// =============================================================================
// Tests
// =============================================================================

func newTestService(lead *domain.Lead) (*Service, *fakeClassifications, *fakeStages, *fakeActivities) {
	leads := &fakeLeads{leads: map[uuid.UUID]*domain.Lead{lead.ID: lead}}
	classifications := newFakeClassifications()
	stages := &fakeStages{}
	activities := &fakeActivities{}
	machine := outcome.NewMachine(leads, stages, activities, nil)
	svc := NewService(leads, classifications, activities, machine, nil, 0.35)
	return svc, classifications, stages, activities
}

func leadInStage(stage domain.OutcomeStage) *domain.Lead {
	lead := &domain.Lead{ID: uuid.New(), FirstName: "Dana", LastName: "Reyes"}
	lead.CurrentOutcomeStage = &stage
	return lead
}

func TestRecordReplyUnsubscribeClosesLead(t *testing.T) {
	lead := leadInStage(domain.StageEmailSent)
	svc, _, stages, _ := newTestService(lead)
	stages.records = append(stages.records, &domain.OutcomeStageRecord{
		ID: uuid.New(), LeadID: lead.ID, Stage: domain.StageEmailSent, EnteredAt: time.Now().UTC(),
	})

	result, err := svc.RecordReply(context.Background(), lead.ID, "Not interested, please remove me")
	if err != nil {
		t.Fatalf("RecordReply: %v", err)
	}
	if result.Classification.Classification != domain.ReplyUnsubscribe {
		t.Errorf("classification = %s, want UNSUBSCRIBE", result.Classification.Classification)
	}
	if result.StageChange == nil || result.StageChange.Stage != domain.StageClosedLost {
		t.Fatalf("stage change = %+v, want CLOSED_LOST", result.StageChange)
	}
	if len(stages.records) != 2 {
		t.Errorf("stage records = %d, want 2 (one atomic transition)", len(stages.records))
	}
}

func TestRecordReplyInterestedMovesToResponded(t *testing.T) {
	lead := leadInStage(domain.StageEmailSent)
	svc, _, _, _ := newTestService(lead)

	result, err := svc.RecordReply(context.Background(), lead.ID, "Sounds great, can we schedule a demo next Tuesday?")
	if err != nil {
		t.Fatalf("RecordReply: %v", err)
	}
	if result.Classification.Classification != domain.ReplyInterestedBookDemo {
		t.Errorf("classification = %s", result.Classification.Classification)
	}
	if result.StageChange == nil || result.StageChange.Stage != domain.StageResponded {
		t.Errorf("stage change = %+v, want RESPONDED", result.StageChange)
	}
	if len(result.Classification.ExtractedDates) == 0 {
		t.Error("expected extracted dates")
	}
}

func TestRecordReplyOutOfOfficeKeepsStage(t *testing.T) {
	lead := leadInStage(domain.StageEmailSent)
	svc, _, _, _ := newTestService(lead)

	result, err := svc.RecordReply(context.Background(), lead.ID, "I am out of the office until Monday")
	if err != nil {
		t.Fatalf("RecordReply: %v", err)
	}
	if result.Classification.Classification != domain.ReplyOutOfOffice {
		t.Errorf("classification = %s", result.Classification.Classification)
	}
	if result.StageChange != nil {
		t.Errorf("stage change = %+v, want none", result.StageChange)
	}
	if !result.Classification.IsAutoReply {
		t.Error("expected is_auto_reply")
	}
}

func TestRecordReplyEmptyBodyIsUnclear(t *testing.T) {
	lead := leadInStage(domain.StageEmailSent)
	svc, _, _, _ := newTestService(lead)

	result, err := svc.RecordReply(context.Background(), lead.ID, "   ")
	if err != nil {
		t.Fatalf("RecordReply: %v", err)
	}
	if result.Classification.Classification != domain.ReplyUnclear {
		t.Errorf("classification = %s, want UNCLEAR", result.Classification.Classification)
	}
	if result.Classification.Confidence != 0 {
		t.Errorf("confidence = %f, want 0 below floor", result.Classification.Confidence)
	}
}

func TestRecordReplyTruncatesStoredBody(t *testing.T) {
	lead := leadInStage(domain.StageEmailSent)
	svc, classifications, _, _ := newTestService(lead)

	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}
	result, err := svc.RecordReply(context.Background(), lead.ID, string(long))
	if err != nil {
		t.Fatalf("RecordReply: %v", err)
	}
	stored := classifications.records[result.Classification.ID]
	if len(stored.ReplyBody) != maxStoredBodyLen {
		t.Errorf("stored body length = %d, want %d", len(stored.ReplyBody), maxStoredBodyLen)
	}
}

func TestRecordReplyBeforeAnyEmail(t *testing.T) {
	lead := &domain.Lead{ID: uuid.New(), FirstName: "Dana", LastName: "Reyes"}
	svc, _, _, _ := newTestService(lead)

	result, err := svc.RecordReply(context.Background(), lead.ID, "tell me more about pricing?")
	if err != nil {
		t.Fatalf("RecordReply: %v", err)
	}
	if result.StageChange != nil {
		t.Error("reply before EMAIL_SENT should not move the stage")
	}
}

func TestOverrideOnce(t *testing.T) {
	lead := leadInStage(domain.StageEmailSent)
	svc, _, _, activities := newTestService(lead)

	recorded, err := svc.RecordReply(context.Background(), lead.ID, "How does pricing work?")
	if err != nil {
		t.Fatalf("RecordReply: %v", err)
	}

	rc, err := svc.Override(context.Background(), recorded.Classification.ID, domain.ReplyNotInterested, "ops@example.com")
	if err != nil {
		t.Fatalf("Override: %v", err)
	}
	if !rc.Overridden() || *rc.OverriddenClassification != domain.ReplyNotInterested {
		t.Errorf("override not recorded: %+v", rc)
	}
	// The original classification stays for audit.
	if rc.Classification != domain.ReplyQuestion {
		t.Errorf("original classification mutated to %s", rc.Classification)
	}

	if _, err := svc.Override(context.Background(), recorded.Classification.ID, domain.ReplyUnclear, "ops@example.com"); err == nil {
		t.Fatal("second override must be rejected")
	}

	found := false
	for _, e := range activities.entries {
		if e == domain.ActivityOverridden {
			found = true
		}
	}
	if !found {
		t.Error("missing override activity entry")
	}
}
