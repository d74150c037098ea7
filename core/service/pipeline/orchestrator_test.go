package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"leadflow/core/domain"
	draftsvc "leadflow/core/service/draft"
	"leadflow/core/service/scoring"
	"leadflow/pkg/apperr"
	"leadflow/pkg/lock"

	"github.com/google/uuid"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeLeads struct {
	mu    sync.Mutex
	leads map[uuid.UUID]*domain.Lead
}

func newFakeLeads(leads ...*domain.Lead) *fakeLeads {
	m := map[uuid.UUID]*domain.Lead{}
	for _, l := range leads {
		m[l.ID] = l
	}
	return &fakeLeads{leads: m}
}

func (f *fakeLeads) Create(_ context.Context, lead *domain.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads[lead.ID] = lead
	return nil
}

func (f *fakeLeads) List(_ context.Context, _, _ int) ([]*domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Lead
	for _, l := range f.leads {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeLeads) GetByID(_ context.Context, id uuid.UUID) (*domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return nil, apperr.NotFound("lead")
	}
	copied := *lead
	return &copied, nil
}

func (f *fakeLeads) UpdateProcessingStatus(_ context.Context, id uuid.UUID, status domain.ProcessingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lead, ok := f.leads[id]; ok {
		lead.ProcessingStatus = status
	}
	return nil
}

func (f *fakeLeads) UpdateScore(_ context.Context, id uuid.UUID, score *domain.ScoreResult, action domain.ActionType, status domain.LeadStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead := f.leads[id]
	lead.ScoreValue = &score.Value
	lead.ScoreLabel = &score.Label
	lead.ScoreRationale = &score.Rationale
	lead.ScoreBreakdown = score.Breakdown
	lead.RecommendedAction = &action
	lead.Status = status
	lead.ProcessingStatus = domain.ProcessingIdle
	return nil
}

func (f *fakeLeads) Archive(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads[id].Archived = true
	return nil
}

func (f *fakeLeads) get(id uuid.UUID) *domain.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leads[id]
}

type fakeRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*domain.PipelineRun
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{runs: map[uuid.UUID]*domain.PipelineRun{}}
}

func (f *fakeRuns) Create(_ context.Context, run *domain.PipelineRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.ID] = run
	return nil
}

func (f *fakeRuns) Complete(_ context.Context, run *domain.PipelineRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.ID] = run
	return nil
}

func (f *fakeRuns) GetByID(_ context.Context, id uuid.UUID) (*domain.PipelineRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, apperr.NotFound("pipeline run")
	}
	return run, nil
}

func (f *fakeRuns) ListByLead(_ context.Context, leadID uuid.UUID) ([]*domain.PipelineRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.PipelineRun
	for _, r := range f.runs {
		if r.LeadID == leadID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeDrafts struct {
	mu     sync.Mutex
	drafts []*domain.EmailDraft
}

func (f *fakeDrafts) Create(_ context.Context, d *domain.EmailDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, d)
	return nil
}

func (f *fakeDrafts) GetByID(_ context.Context, id uuid.UUID) (*domain.EmailDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.drafts {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, apperr.NotFound("draft")
}

func (f *fakeDrafts) ListByLead(_ context.Context, leadID uuid.UUID) ([]*domain.EmailDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.EmailDraft
	for _, d := range f.drafts {
		if d.LeadID == leadID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDrafts) MarkApproved(_ context.Context, id uuid.UUID) error { return nil }

func (f *fakeDrafts) MarkSent(_ context.Context, id uuid.UUID, _ time.Time) error { return nil }

type fakeActivities struct {
	mu      sync.Mutex
	entries []domain.ActivityType
}

func (f *fakeActivities) Append(_ context.Context, _ uuid.UUID, activityType domain.ActivityType, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, activityType)
	return nil
}

func (f *fakeActivities) ListByLead(_ context.Context, _ uuid.UUID, _ int) ([]*domain.ActivityEntry, error) {
	return nil, nil
}

func (f *fakeActivities) has(t domain.ActivityType) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e == t {
			return true
		}
	}
	return false
}

type fakeConfigs struct{}

func (fakeConfigs) Get(_ context.Context, _ string) (*domain.ScoringConfig, error) {
	return domain.DefaultScoringConfig(), nil
}

func (fakeConfigs) Put(_ context.Context, _ *domain.ScoringConfig) error { return nil }

// =============================================================================
// Tests
// =============================================================================

func hotLead() *domain.Lead {
	return &domain.Lead{
		ID:          uuid.New(),
		FirstName:   "Dana",
		LastName:    "Reyes",
		Email:       "Dana@FastGrow.io ",
		CompanyName: "FastGrow",
		JobTitle:    "VP of Operations",
		Industry:    "SaaS",
		CompanySize: "201-500",
		Source:      "referral",
		BudgetRange: "$50k+",
		PainPoint:   "Manual lead routing loses deals",
		Urgency:     "high",
	}
}

func newTestOrchestrator(leads *fakeLeads) (*Orchestrator, *fakeRuns, *fakeDrafts, *fakeActivities) {
	runs := newFakeRuns()
	drafts := &fakeDrafts{}
	activities := &fakeActivities{}
	o := NewOrchestrator(
		leads, runs, drafts, activities, fakeConfigs{}, lock.NewMemoryGuard(),
		scoring.NewEngine(nil), draftsvc.NewGenerator(nil), Options{},
	)
	return o, runs, drafts, activities
}

func TestRunHotLeadEndToEnd(t *testing.T) {
	lead := hotLead()
	leads := newFakeLeads(lead)
	o, _, drafts, activities := newTestOrchestrator(leads)

	run, err := o.Run(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Status != domain.RunSucceeded {
		t.Fatalf("run status = %s (error %q)", run.Status, run.ErrorMessage)
	}

	stored := leads.get(lead.ID)
	if stored.ScoreLabel == nil || *stored.ScoreLabel != domain.LabelHot {
		t.Errorf("score label = %v, want HOT", stored.ScoreLabel)
	}
	if stored.RecommendedAction == nil || *stored.RecommendedAction != domain.ActionSendEmail {
		t.Errorf("action = %v, want SEND_EMAIL", stored.RecommendedAction)
	}
	if stored.Email != "dana@fastgrow.io" {
		t.Errorf("email not normalized: %q", stored.Email)
	}
	if stored.ProcessingStatus != domain.ProcessingIdle {
		t.Errorf("processing status = %s, want IDLE", stored.ProcessingStatus)
	}

	created, _ := drafts.ListByLead(context.Background(), lead.ID)
	if len(created) != 1 {
		t.Fatalf("drafts = %d, want 1", len(created))
	}
	if created[0].Subject == "" || created[0].Body == "" {
		t.Error("draft has empty subject or body")
	}

	for _, want := range []domain.ActivityType{domain.ActivityScored, domain.ActivityDecisionMade, domain.ActivityEmailDrafted} {
		if !activities.has(want) {
			t.Errorf("missing activity %s", want)
		}
	}
}

func TestRunNormalizationFailure(t *testing.T) {
	lead := hotLead()
	lead.Email = "not-an-email"
	prior := 42
	lead.ScoreValue = &prior
	leads := newFakeLeads(lead)
	o, _, drafts, activities := newTestOrchestrator(leads)

	run, err := o.Run(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Status != domain.RunFailed {
		t.Fatalf("run status = %s, want FAILED", run.Status)
	}
	if run.ErrorMessage == "" {
		t.Error("failed run has no error message")
	}
	if len(run.Trace) != 1 || run.Trace[0].Node != nodeNormalize {
		t.Errorf("trace = %+v, want only the normalize node", run.Trace)
	}

	stored := leads.get(lead.ID)
	if stored.ScoreValue == nil || *stored.ScoreValue != 42 {
		t.Error("failed run must leave the prior score untouched")
	}
	if stored.ProcessingStatus != domain.ProcessingFailed {
		t.Errorf("processing status = %s, want FAILED", stored.ProcessingStatus)
	}
	if created, _ := drafts.ListByLead(context.Background(), lead.ID); len(created) != 0 {
		t.Error("failed run must not create drafts")
	}
	if !activities.has(domain.ActivityError) {
		t.Error("missing ERROR activity for failed run")
	}
}

func TestRunDisqualifySkipsDraft(t *testing.T) {
	lead := hotLead()
	lead.Source = "dark_web"
	leads := newFakeLeads(lead)
	o, _, drafts, _ := newTestOrchestrator(leads)

	run, err := o.Run(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Status != domain.RunSucceeded {
		t.Fatalf("run status = %s", run.Status)
	}

	stored := leads.get(lead.ID)
	if *stored.RecommendedAction != domain.ActionDisqualify {
		t.Errorf("action = %s, want DISQUALIFY", *stored.RecommendedAction)
	}
	if created, _ := drafts.ListByLead(context.Background(), lead.ID); len(created) != 0 {
		t.Error("DISQUALIFY must skip the draft node")
	}
	for _, entry := range run.Trace {
		if entry.Node == nodeDraft {
			t.Error("trace contains the draft node for a DISQUALIFY run")
		}
	}
}

func TestRunAskQuestionDraftsQuestions(t *testing.T) {
	lead := hotLead()
	lead.CompanyName = ""
	leads := newFakeLeads(lead)
	o, _, drafts, _ := newTestOrchestrator(leads)

	if _, err := o.Run(context.Background(), lead.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stored := leads.get(lead.ID)
	if *stored.RecommendedAction != domain.ActionAskQuestion {
		t.Fatalf("action = %s, want ASK_QUESTION", *stored.RecommendedAction)
	}
	created, _ := drafts.ListByLead(context.Background(), lead.ID)
	if len(created) != 1 {
		t.Fatalf("drafts = %d, want 1", len(created))
	}
	if created[0].Variant != domain.VariantQuestionResponse {
		t.Errorf("variant = %s, want question_response", created[0].Variant)
	}
}

func TestRunTraceHidesEmail(t *testing.T) {
	lead := hotLead()
	leads := newFakeLeads(lead)
	o, _, _, _ := newTestOrchestrator(leads)

	run, err := o.Run(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, entry := range run.Trace {
		if strings.Contains(entry.Input, "fastgrow.io") || strings.Contains(entry.Output, "fastgrow.io") {
			t.Errorf("trace %s leaks the raw email: %q %q", entry.Node, entry.Input, entry.Output)
		}
	}
	if !strings.Contains(run.Trace[0].Input, "email_hash=") {
		t.Error("normalize trace should carry the email hash")
	}
}

func TestRunRerunOverwritesScoreAndAppendsDraft(t *testing.T) {
	lead := hotLead()
	leads := newFakeLeads(lead)
	o, _, drafts, _ := newTestOrchestrator(leads)

	if _, err := o.Run(context.Background(), lead.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := *leads.get(lead.ID).ScoreValue

	if _, err := o.Run(context.Background(), lead.ID); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := *leads.get(lead.ID).ScoreValue

	if first != second {
		t.Errorf("deterministic rerun changed the score: %d vs %d", first, second)
	}
	created, _ := drafts.ListByLead(context.Background(), lead.ID)
	if len(created) != 2 {
		t.Errorf("drafts = %d, want 2 (old drafts retained)", len(created))
	}
}

func TestRunDuplicateRejected(t *testing.T) {
	lead := hotLead()
	leads := newFakeLeads(lead)
	o, _, _, _ := newTestOrchestrator(leads)

	// Hold the guard as an in-flight run would.
	ok, err := o.guard.TryAcquire(context.Background(), lead.ID)
	if err != nil || !ok {
		t.Fatalf("TryAcquire: ok=%v err=%v", ok, err)
	}

	_, err = o.Run(context.Background(), lead.ID)
	if err == nil {
		t.Fatal("expected duplicate-run rejection")
	}
	appErr := apperr.AsAppError(err)
	if appErr.Code != apperr.CodeDuplicateRun {
		t.Errorf("error code = %s, want DUPLICATE_RUN", appErr.Code)
	}

	// After release the lead runs normally.
	if err := o.guard.Release(context.Background(), lead.ID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := o.Run(context.Background(), lead.ID); err != nil {
		t.Errorf("run after release: %v", err)
	}
}

func TestRunUnknownLead(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(newFakeLeads())
	if _, err := o.Run(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error for unknown lead")
	}
}

func TestBulkRunBatchesAndPartialFailures(t *testing.T) {
	var all []*domain.Lead
	var ids []uuid.UUID
	for i := 0; i < 150; i++ {
		lead := hotLead()
		lead.ID = uuid.New()
		if i%10 == 0 {
			lead.Email = "broken"
		}
		all = append(all, lead)
		ids = append(ids, lead.ID)
	}
	// Two ids that do not exist at all.
	ids = append(ids, uuid.New(), uuid.New())

	leads := newFakeLeads(all...)
	o, _, _, _ := newTestOrchestrator(leads)

	results := o.BulkRun(context.Background(), ids)
	if len(results) != 152 {
		t.Fatalf("results = %d, want 152", len(results))
	}

	var succeeded, failedRuns, errored int
	for i, r := range results {
		if r.LeadID != ids[i] {
			t.Fatalf("result %d out of order", i)
		}
		switch {
		case r.Error != "":
			errored++
		case r.Run.Status == domain.RunFailed:
			failedRuns++
		case r.Run.Status == domain.RunSucceeded:
			succeeded++
		}
	}
	if errored != 2 {
		t.Errorf("errored = %d, want 2 unknown leads", errored)
	}
	if failedRuns != 15 {
		t.Errorf("failed runs = %d, want 15 invalid emails", failedRuns)
	}
	if succeeded != 135 {
		t.Errorf("succeeded = %d, want 135", succeeded)
	}
}

func TestBulkRunEmpty(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(newFakeLeads())
	if results := o.BulkRun(context.Background(), nil); len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}
