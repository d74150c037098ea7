package scoring

import (
	"context"
	"testing"

	"leadflow/core/domain"

	"github.com/google/uuid"
)

// memConfigRepo is an in-memory ScoringConfigRepository for tests.
type memConfigRepo struct {
	cfg *domain.ScoringConfig
}

func (r *memConfigRepo) Get(_ context.Context, _ string) (*domain.ScoringConfig, error) {
	if r.cfg == nil {
		return domain.DefaultScoringConfig(), nil
	}
	copied := *r.cfg
	copied.Weights = make(map[string]float64, len(r.cfg.Weights))
	for k, v := range r.cfg.Weights {
		copied.Weights[k] = v
	}
	return &copied, nil
}

func (r *memConfigRepo) Put(_ context.Context, cfg *domain.ScoringConfig) error {
	r.cfg = cfg
	return nil
}

func leadWithBreakdown(points float64) *domain.Lead {
	return &domain.Lead{
		ID: uuid.New(),
		ScoreBreakdown: []domain.FactorScore{
			{Factor: domain.FactorUrgency, Points: points, Max: 10},
			{Factor: domain.FactorBudget, Points: 0, Max: 8},
		},
	}
}

func TestLearnerWonIncreasesCitedWeights(t *testing.T) {
	seed := domain.DefaultScoringConfig()
	seed.Weights[domain.FactorUrgency] = 5
	repo := &memConfigRepo{cfg: seed}
	learner := NewLearner(repo, 0.1, 2.0)
	lead := leadWithBreakdown(5)

	prev := 5.0
	for i := 0; i < 3; i++ {
		cfg, err := learner.Apply(context.Background(), lead, domain.StageClosedWon)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		w := cfg.Weights[domain.FactorUrgency]
		if w <= prev {
			t.Errorf("iteration %d: urgency weight %.3f did not increase from %.3f", i, w, prev)
		}
		if w > domain.WeightMax {
			t.Errorf("iteration %d: urgency weight %.3f exceeds max", i, w)
		}
		prev = w
	}
}

func TestLearnerZeroPointFactorsUntouched(t *testing.T) {
	repo := &memConfigRepo{}
	learner := NewLearner(repo, 0.1, 2.0)

	cfg, err := learner.Apply(context.Background(), leadWithBreakdown(10), domain.StageClosedWon)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := domain.DefaultScoringConfig().Weights[domain.FactorBudget]
	if cfg.Weights[domain.FactorBudget] != want {
		t.Errorf("budget weight changed to %.3f despite scoring 0 points", cfg.Weights[domain.FactorBudget])
	}
}

func TestLearnerLostDecreasesWeights(t *testing.T) {
	repo := &memConfigRepo{}
	learner := NewLearner(repo, 0.1, 2.0)

	base := domain.DefaultScoringConfig().Weights[domain.FactorUrgency]
	for _, outcome := range []domain.OutcomeStage{domain.StageClosedLost, domain.StageDisqualified} {
		repo.cfg = nil
		cfg, err := learner.Apply(context.Background(), leadWithBreakdown(10), outcome)
		if err != nil {
			t.Fatalf("Apply(%s): %v", outcome, err)
		}
		if cfg.Weights[domain.FactorUrgency] >= base {
			t.Errorf("%s: urgency weight %.3f did not decrease from %.3f", outcome, cfg.Weights[domain.FactorUrgency], base)
		}
	}
}

func TestLearnerNeutralOutcomeNoChange(t *testing.T) {
	repo := &memConfigRepo{}
	learner := NewLearner(repo, 0.1, 2.0)

	cfg, err := learner.Apply(context.Background(), leadWithBreakdown(10), domain.StageResponded)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := domain.DefaultScoringConfig().Weights[domain.FactorUrgency]
	if cfg.Weights[domain.FactorUrgency] != want {
		t.Errorf("non-terminal outcome mutated weights: %.3f", cfg.Weights[domain.FactorUrgency])
	}
}

func TestLearnerClampsAtMax(t *testing.T) {
	repo := &memConfigRepo{}
	learner := NewLearner(repo, 0.1, 2.0)
	lead := leadWithBreakdown(10)

	// Default urgency weight is already at the cap; it must stay there.
	for i := 0; i < 60; i++ {
		if _, err := learner.Apply(context.Background(), lead, domain.StageClosedWon); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	cfg, _ := repo.Get(context.Background(), "default")
	if cfg.Weights[domain.FactorUrgency] > domain.WeightMax {
		t.Errorf("urgency weight %.3f exceeds max after repeated wins", cfg.Weights[domain.FactorUrgency])
	}
}
