package scoring

import (
	"context"
	"sync"
	"time"

	"leadflow/core/domain"
	"leadflow/core/port/out"
	"leadflow/pkg/logger"
)

// Learner nudges scoring weights toward factors that correlate with won
// outcomes. This is heuristic tuning, not model training: a single outcome
// moves a weight by at most alpha*scale points.
type Learner struct {
	configs out.ScoringConfigRepository
	alpha   float64
	scale   float64
	log     *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLearner(configs out.ScoringConfigRepository, alpha, scale float64) *Learner {
	if alpha <= 0 {
		alpha = 0.1
	}
	if scale <= 0 {
		scale = 2.0
	}
	return &Learner{
		configs: configs,
		alpha:   alpha,
		scale:   scale,
		log:     logger.WithField("component", "learner"),
		locks:   map[string]*sync.Mutex{},
	}
}

// signalFor maps a terminal outcome stage to a weight adjustment direction.
func signalFor(outcome domain.OutcomeStage) float64 {
	switch outcome {
	case domain.StageClosedWon:
		return 1
	case domain.StageClosedLost, domain.StageDisqualified:
		return -1
	default:
		return 0
	}
}

// Apply updates the tenant's weights from one terminal outcome. Every factor
// that contributed points to the lead's stored breakdown is nudged in the
// outcome's direction and clamped to the weight bounds. The read-modify-write
// runs under a per-tenant lock so concurrent terminal events cannot drop each
// other's updates.
func (l *Learner) Apply(ctx context.Context, lead *domain.Lead, outcome domain.OutcomeStage) (*domain.ScoringConfig, error) {
	tenantID := "default"

	signal := signalFor(outcome)
	if signal == 0 || len(lead.ScoreBreakdown) == 0 {
		return l.configs.Get(ctx, tenantID)
	}

	lock := l.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	cfg, err := l.configs.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	delta := l.alpha * l.scale * signal
	for _, fs := range lead.ScoreBreakdown {
		if fs.Points <= 0 {
			continue
		}
		old, ok := cfg.Weights[fs.Factor]
		if !ok {
			continue
		}
		cfg.Weights[fs.Factor] = domain.ClampWeight(old + delta)
	}
	cfg.UpdatedBy = "learner"
	cfg.UpdatedAt = time.Now().UTC()

	if err := l.configs.Put(ctx, cfg); err != nil {
		return nil, err
	}

	l.log.WithFields(map[string]interface{}{
		"lead_id": lead.ID.String(),
		"outcome": string(outcome),
		"signal":  signal,
	}).Info("Scoring weights updated from outcome")

	return cfg, nil
}

func (l *Learner) tenantLock(tenantID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[tenantID] = lock
	}
	return lock
}
