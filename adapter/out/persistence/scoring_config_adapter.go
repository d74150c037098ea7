package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"leadflow/core/domain"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
)

// =============================================================================
// Scoring Config Adapter
// =============================================================================

// ScoringConfigAdapter implements out.ScoringConfigRepository.
type ScoringConfigAdapter struct {
	db *sqlx.DB
}

// NewScoringConfigAdapter creates a new ScoringConfigAdapter.
func NewScoringConfigAdapter(db *sqlx.DB) *ScoringConfigAdapter {
	return &ScoringConfigAdapter{db: db}
}

// scoringConfigRow represents the database row.
type scoringConfigRow struct {
	TenantID  string    `db:"tenant_id"`
	Weights   []byte    `db:"weights"`
	Threshold []byte    `db:"thresholds"`
	UpdatedBy string    `db:"updated_by"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *scoringConfigRow) toEntity() (*domain.ScoringConfig, error) {
	cfg := &domain.ScoringConfig{
		TenantID:  r.TenantID,
		UpdatedBy: r.UpdatedBy,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Weights, &cfg.Weights); err != nil {
		return nil, fmt.Errorf("failed to decode weights: %w", err)
	}
	if err := json.Unmarshal(r.Threshold, &cfg.Threshold); err != nil {
		return nil, fmt.Errorf("failed to decode thresholds: %w", err)
	}
	return cfg, nil
}

// Get retrieves the tenant's config, falling back to the factory defaults
// when no row exists yet.
func (a *ScoringConfigAdapter) Get(ctx context.Context, tenantID string) (*domain.ScoringConfig, error) {
	var row scoringConfigRow
	query := `SELECT * FROM scoring_configs WHERE tenant_id = $1`

	if err := a.db.GetContext(ctx, &row, query, tenantID); err != nil {
		if err == sql.ErrNoRows {
			cfg := domain.DefaultScoringConfig()
			cfg.TenantID = tenantID
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to get scoring config: %w", err)
	}
	return row.toEntity()
}

// Put upserts the tenant's config. Last write wins; weights are clamped
// before storage.
func (a *ScoringConfigAdapter) Put(ctx context.Context, cfg *domain.ScoringConfig) error {
	for factor, w := range cfg.Weights {
		cfg.Weights[factor] = domain.ClampWeight(w)
	}

	weights, err := json.Marshal(cfg.Weights)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	thresholds, err := json.Marshal(cfg.Threshold)
	if err != nil {
		return fmt.Errorf("failed to encode thresholds: %w", err)
	}
	if cfg.UpdatedAt.IsZero() {
		cfg.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO scoring_configs (tenant_id, weights, thresholds, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id) DO UPDATE SET
			weights = EXCLUDED.weights,
			thresholds = EXCLUDED.thresholds,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at`

	if _, err := a.db.ExecContext(ctx, query, cfg.TenantID, weights, thresholds, cfg.UpdatedBy, cfg.UpdatedAt); err != nil {
		return fmt.Errorf("failed to put scoring config: %w", err)
	}
	return nil
}
