package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"leadflow/core/domain"
	"leadflow/pkg/apperr"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// =============================================================================
// Pipeline Run Adapter
// =============================================================================

// PipelineRunAdapter implements out.PipelineRunRepository.
type PipelineRunAdapter struct {
	db *sqlx.DB
}

// NewPipelineRunAdapter creates a new PipelineRunAdapter.
func NewPipelineRunAdapter(db *sqlx.DB) *PipelineRunAdapter {
	return &PipelineRunAdapter{db: db}
}

// pipelineRunRow represents the database row.
type pipelineRunRow struct {
	ID           uuid.UUID      `db:"id"`
	LeadID       uuid.UUID      `db:"lead_id"`
	Status       string         `db:"status"`
	Trace        []byte         `db:"trace"`
	ErrorMessage sql.NullString `db:"error_message"`
	StartedAt    time.Time      `db:"started_at"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
}

func (r *pipelineRunRow) toEntity() (*domain.PipelineRun, error) {
	run := &domain.PipelineRun{
		ID:           r.ID,
		LeadID:       r.LeadID,
		Status:       domain.RunStatus(r.Status),
		ErrorMessage: r.ErrorMessage.String,
		StartedAt:    r.StartedAt,
	}
	if len(r.Trace) > 0 {
		if err := json.Unmarshal(r.Trace, &run.Trace); err != nil {
			return nil, fmt.Errorf("failed to decode run trace: %w", err)
		}
	}
	if r.CompletedAt.Valid {
		run.CompletedAt = &r.CompletedAt.Time
	}
	return run, nil
}

// Create inserts a run in its initial state.
func (a *PipelineRunAdapter) Create(ctx context.Context, run *domain.PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (id, lead_id, status, trace, started_at)
		VALUES ($1, $2, $3, '[]', $4)`

	_, err := a.db.ExecContext(ctx, query, run.ID, run.LeadID, string(run.Status), run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}
	return nil
}

// Complete writes the terminal state of a run. A run that is already terminal
// is never touched again.
func (a *PipelineRunAdapter) Complete(ctx context.Context, run *domain.PipelineRun) error {
	trace, err := json.Marshal(run.Trace)
	if err != nil {
		return fmt.Errorf("failed to encode run trace: %w", err)
	}

	query := `
		UPDATE pipeline_runs SET
			status = $2,
			trace = $3,
			error_message = $4,
			completed_at = $5
		WHERE id = $1 AND status NOT IN ('SUCCEEDED', 'FAILED')`

	result, err := a.db.ExecContext(ctx, query,
		run.ID, string(run.Status), trace, nullString(run.ErrorMessage), run.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to complete pipeline run: %w", err)
	}
	return requireRow(result, "pipeline run")
}

// GetByID retrieves a run by ID.
func (a *PipelineRunAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.PipelineRun, error) {
	var row pipelineRunRow
	query := `SELECT * FROM pipeline_runs WHERE id = $1`

	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("pipeline run")
		}
		return nil, fmt.Errorf("failed to get pipeline run: %w", err)
	}
	return row.toEntity()
}

// ListByLead retrieves all runs for a lead, newest first.
func (a *PipelineRunAdapter) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*domain.PipelineRun, error) {
	var rows []pipelineRunRow
	query := `SELECT * FROM pipeline_runs WHERE lead_id = $1 ORDER BY started_at DESC`

	if err := a.db.SelectContext(ctx, &rows, query, leadID); err != nil {
		return nil, fmt.Errorf("failed to list pipeline runs: %w", err)
	}

	runs := make([]*domain.PipelineRun, 0, len(rows))
	for i := range rows {
		run, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
