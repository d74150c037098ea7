package scoring

import (
	"context"
	"math"
	"testing"

	"leadflow/core/domain"
	"leadflow/core/service/enrich"
)

func hotLead() *domain.Lead {
	return &domain.Lead{
		FirstName:   "Dana",
		LastName:    "Reyes",
		Email:       "dana@fastgrow.io",
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

func TestScoreValueInRange(t *testing.T) {
	engine := NewEngine(nil)
	cfg := domain.DefaultScoringConfig()

	leads := []*domain.Lead{
		{},
		{Email: "x@y.com"},
		hotLead(),
	}
	for _, lead := range leads {
		result := engine.Score(context.Background(), lead, enrich.Enrich(lead), cfg)
		if result.Value < 0 || result.Value > 100 {
			t.Errorf("score %d out of [0,100]", result.Value)
		}
		if result.Label != cfg.Threshold.LabelFor(result.Value) {
			t.Errorf("label %s does not match thresholds for %d", result.Label, result.Value)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	engine := NewEngine(nil)
	cfg := domain.DefaultScoringConfig()
	lead := hotLead()
	e := enrich.Enrich(lead)

	first := engine.Score(context.Background(), lead, e, cfg)
	second := engine.Score(context.Background(), lead, e, cfg)

	if first.Value != second.Value {
		t.Errorf("scores differ: %d vs %d", first.Value, second.Value)
	}
	if len(first.Breakdown) != len(second.Breakdown) {
		t.Fatalf("breakdown lengths differ")
	}
	for i := range first.Breakdown {
		if first.Breakdown[i] != second.Breakdown[i] {
			t.Errorf("breakdown[%d] differs: %+v vs %+v", i, first.Breakdown[i], second.Breakdown[i])
		}
	}
}

func TestScoreBreakdownSumsToValue(t *testing.T) {
	engine := NewEngine(nil)
	lead := hotLead()
	result := engine.Score(context.Background(), lead, enrich.Enrich(lead), domain.DefaultScoringConfig())

	sum := 0.0
	for _, fs := range result.Breakdown {
		sum += fs.Points
		if fs.Points < 0 || fs.Points > fs.Max {
			t.Errorf("factor %s points %.2f outside [0, %.2f]", fs.Factor, fs.Points, fs.Max)
		}
	}
	if int(math.Round(sum)) != result.Value {
		t.Errorf("breakdown sum %.2f does not round to score %d", sum, result.Value)
	}
}

func TestScoreBreakdownFactorOrder(t *testing.T) {
	engine := NewEngine(nil)
	lead := &domain.Lead{Email: "a@b.co"}
	result := engine.Score(context.Background(), lead, enrich.Enrich(lead), domain.DefaultScoringConfig())

	if len(result.Breakdown) != len(domain.FactorOrder) {
		t.Fatalf("breakdown has %d factors, want %d", len(result.Breakdown), len(domain.FactorOrder))
	}
	for i, want := range domain.FactorOrder {
		if result.Breakdown[i].Factor != want {
			t.Errorf("breakdown[%d] = %s, want %s", i, result.Breakdown[i].Factor, want)
		}
	}
}

func TestHotLeadScoresHot(t *testing.T) {
	engine := NewEngine(nil)
	lead := hotLead()
	result := engine.Score(context.Background(), lead, enrich.Enrich(lead), domain.DefaultScoringConfig())

	if result.Label != domain.LabelHot {
		t.Errorf("label = %s (score %d), want HOT", result.Label, result.Value)
	}
	if result.LLMUsed {
		t.Error("rule path should not report LLMUsed")
	}
}

func TestMissingDataScoresZeroNotError(t *testing.T) {
	engine := NewEngine(nil)
	result := engine.Score(context.Background(), &domain.Lead{}, nil, nil)

	if result == nil {
		t.Fatal("expected a result for an empty lead")
	}
	for _, fs := range result.Breakdown {
		switch fs.Factor {
		case domain.FactorBudget, domain.FactorPainPoint, domain.FactorJobTitle,
			domain.FactorIndustry, domain.FactorSource, domain.FactorCompanySize:
			if fs.Points != 0 {
				t.Errorf("factor %s should score 0 with no data, got %.2f", fs.Factor, fs.Points)
			}
		}
	}
}

func TestWeightsChangeScore(t *testing.T) {
	engine := NewEngine(nil)
	lead := hotLead()
	e := enrich.Enrich(lead)

	base := engine.Score(context.Background(), lead, e, domain.DefaultScoringConfig())

	cfg := domain.DefaultScoringConfig()
	cfg.Weights[domain.FactorUrgency] = 0
	lowered := engine.Score(context.Background(), lead, e, cfg)

	if lowered.Value >= base.Value {
		t.Errorf("zeroing the urgency weight should lower the score: %d vs %d", lowered.Value, base.Value)
	}
}
