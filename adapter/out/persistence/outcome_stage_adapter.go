package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"leadflow/core/domain"
	"leadflow/pkg/apperr"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// =============================================================================
// Outcome Stage Adapter
// =============================================================================

// OutcomeStageAdapter implements out.OutcomeStageRepository.
type OutcomeStageAdapter struct {
	db *sqlx.DB
}

// NewOutcomeStageAdapter creates a new OutcomeStageAdapter.
func NewOutcomeStageAdapter(db *sqlx.DB) *OutcomeStageAdapter {
	return &OutcomeStageAdapter{db: db}
}

// outcomeStageRow represents the database row.
type outcomeStageRow struct {
	ID            uuid.UUID      `db:"id"`
	LeadID        uuid.UUID      `db:"lead_id"`
	Stage         string         `db:"stage"`
	PreviousStage sql.NullString `db:"previous_stage"`
	Reason        string         `db:"reason"`
	TriggeredBy   sql.NullString `db:"triggered_by"`
	Notes         sql.NullString `db:"notes"`
	EnteredAt     time.Time      `db:"entered_at"`
	ExitedAt      sql.NullTime   `db:"exited_at"`
}

func (r *outcomeStageRow) toEntity() *domain.OutcomeStageRecord {
	record := &domain.OutcomeStageRecord{
		ID:          r.ID,
		LeadID:      r.LeadID,
		Stage:       domain.OutcomeStage(r.Stage),
		Reason:      domain.TransitionReason(r.Reason),
		TriggeredBy: r.TriggeredBy.String,
		Notes:       r.Notes.String,
		EnteredAt:   r.EnteredAt,
	}
	if r.PreviousStage.Valid {
		prev := domain.OutcomeStage(r.PreviousStage.String)
		record.PreviousStage = &prev
	}
	if r.ExitedAt.Valid {
		record.ExitedAt = &r.ExitedAt.Time
	}
	return record
}

// Transition records a stage change in one transaction: it locks the lead's
// open record, re-validates the caller's view of the current stage against
// the locked row, closes it, inserts the new record, and moves the lead's
// denormalized current-stage pointer. The row lock serializes concurrent
// transitions for the same lead; a racer that loses sees the winner's stage
// under the lock and gets INVALID_TRANSITION instead of opening a second
// record. The partial unique index on outcome_stage_records (lead_id) WHERE
// exited_at IS NULL backstops the invariant at the schema level.
func (a *OutcomeStageAdapter) Transition(ctx context.Context, record *domain.OutcomeStageRecord) error {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transition: %w", err)
	}
	defer tx.Rollback()

	var open outcomeStageRow
	lockQuery := `
		SELECT * FROM outcome_stage_records
		WHERE lead_id = $1 AND exited_at IS NULL
		FOR UPDATE`
	err = tx.GetContext(ctx, &open, lockQuery, record.LeadID)
	switch {
	case err == sql.ErrNoRows:
		// Entry: no open record may exist and none may be claimed.
		if record.PreviousStage != nil {
			return apperr.InvalidTransition(string(*record.PreviousStage), string(record.Stage))
		}
	case err != nil:
		return fmt.Errorf("failed to lock open stage record: %w", err)
	default:
		current := domain.OutcomeStage(open.Stage)
		if record.PreviousStage == nil || *record.PreviousStage != current || !current.CanTransitionTo(record.Stage) {
			return apperr.InvalidTransition(string(current), string(record.Stage))
		}

		closeQuery := `
			UPDATE outcome_stage_records
			SET exited_at = $2
			WHERE id = $1 AND exited_at IS NULL`
		result, err := tx.ExecContext(ctx, closeQuery, open.ID, record.EnteredAt)
		if err != nil {
			return fmt.Errorf("failed to close open stage record: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return apperr.InvalidTransition(string(current), string(record.Stage))
		}
	}

	insertQuery := `
		INSERT INTO outcome_stage_records (
			id, lead_id, stage, previous_stage, reason, triggered_by, notes, entered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	var prev sql.NullString
	if record.PreviousStage != nil {
		prev = nullString(string(*record.PreviousStage))
	}
	if _, err := tx.ExecContext(ctx, insertQuery,
		record.ID, record.LeadID, string(record.Stage), prev,
		string(record.Reason), nullString(record.TriggeredBy), nullString(record.Notes),
		record.EnteredAt,
	); err != nil {
		return fmt.Errorf("failed to insert stage record: %w", err)
	}

	// The current_outcome_stage pointer commits with the record it mirrors.
	pointerQuery := `
		UPDATE leads SET
			current_outcome_stage = $2,
			outcome_stage_entered_at = $3,
			updated_at = NOW()
		WHERE id = $1`
	result, err := tx.ExecContext(ctx, pointerQuery, record.LeadID, string(record.Stage), record.EnteredAt)
	if err != nil {
		return fmt.Errorf("failed to update lead stage pointer: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("lead")
	}

	return tx.Commit()
}

// Current retrieves the lead's open stage record.
func (a *OutcomeStageAdapter) Current(ctx context.Context, leadID uuid.UUID) (*domain.OutcomeStageRecord, error) {
	var row outcomeStageRow
	query := `SELECT * FROM outcome_stage_records WHERE lead_id = $1 AND exited_at IS NULL`

	if err := a.db.GetContext(ctx, &row, query, leadID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get current stage: %w", err)
	}
	return row.toEntity(), nil
}

// History retrieves a lead's full stage history, newest first.
func (a *OutcomeStageAdapter) History(ctx context.Context, leadID uuid.UUID) ([]*domain.OutcomeStageRecord, error) {
	var rows []outcomeStageRow
	query := `SELECT * FROM outcome_stage_records WHERE lead_id = $1 ORDER BY entered_at DESC`

	if err := a.db.SelectContext(ctx, &rows, query, leadID); err != nil {
		return nil, fmt.Errorf("failed to list stage history: %w", err)
	}

	records := make([]*domain.OutcomeStageRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toEntity()
	}
	return records, nil
}

// StaleEmailSent returns leads whose open EMAIL_SENT record predates the
// cutoff, for the no-response sweep.
func (a *OutcomeStageAdapter) StaleEmailSent(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `
		SELECT lead_id FROM outcome_stage_records
		WHERE stage = $1 AND exited_at IS NULL AND entered_at < $2`

	if err := a.db.SelectContext(ctx, &ids, query, string(domain.StageEmailSent), olderThan); err != nil {
		return nil, fmt.Errorf("failed to find stale EMAIL_SENT records: %w", err)
	}
	return ids, nil
}
