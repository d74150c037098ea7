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
	"github.com/lib/pq"
)

// =============================================================================
// Reply Classification Adapter
// =============================================================================

// ReplyClassificationAdapter implements out.ReplyClassificationRepository.
type ReplyClassificationAdapter struct {
	db *sqlx.DB
}

// NewReplyClassificationAdapter creates a new ReplyClassificationAdapter.
func NewReplyClassificationAdapter(db *sqlx.DB) *ReplyClassificationAdapter {
	return &ReplyClassificationAdapter{db: db}
}

// replyClassificationRow represents the database row.
type replyClassificationRow struct {
	ID                       uuid.UUID      `db:"id"`
	LeadID                   uuid.UUID      `db:"lead_id"`
	ReplyBody                string         `db:"reply_body"`
	Classification           string         `db:"classification"`
	Confidence               float64        `db:"confidence"`
	Reasoning                sql.NullString `db:"reasoning"`
	ExtractedDates           pq.StringArray `db:"extracted_dates"`
	IsAutoReply              bool           `db:"is_auto_reply"`
	OverriddenClassification sql.NullString `db:"overridden_classification"`
	OverriddenBy             sql.NullString `db:"overridden_by"`
	OverriddenAt             sql.NullTime   `db:"overridden_at"`
	CreatedAt                time.Time      `db:"created_at"`
}

func (r *replyClassificationRow) toEntity() *domain.ReplyClassification {
	rc := &domain.ReplyClassification{
		ID:             r.ID,
		LeadID:         r.LeadID,
		ReplyBody:      r.ReplyBody,
		Classification: domain.ReplyClass(r.Classification),
		Confidence:     r.Confidence,
		Reasoning:      r.Reasoning.String,
		ExtractedDates: r.ExtractedDates,
		IsAutoReply:    r.IsAutoReply,
		CreatedAt:      r.CreatedAt,
	}
	if r.OverriddenClassification.Valid {
		class := domain.ReplyClass(r.OverriddenClassification.String)
		rc.OverriddenClassification = &class
	}
	if r.OverriddenBy.Valid {
		rc.OverriddenBy = &r.OverriddenBy.String
	}
	if r.OverriddenAt.Valid {
		rc.OverriddenAt = &r.OverriddenAt.Time
	}
	return rc
}

// Create inserts a classification record.
func (a *ReplyClassificationAdapter) Create(ctx context.Context, rc *domain.ReplyClassification) error {
	query := `
		INSERT INTO reply_classifications (
			id, lead_id, reply_body, classification, confidence, reasoning,
			extracted_dates, is_auto_reply, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := a.db.ExecContext(ctx, query,
		rc.ID, rc.LeadID, rc.ReplyBody, string(rc.Classification), rc.Confidence,
		nullString(rc.Reasoning), pq.Array(rc.ExtractedDates), rc.IsAutoReply, rc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reply classification: %w", err)
	}
	return nil
}

// GetByID retrieves a classification by ID.
func (a *ReplyClassificationAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReplyClassification, error) {
	var row replyClassificationRow
	query := `SELECT * FROM reply_classifications WHERE id = $1`

	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("reply classification")
		}
		return nil, fmt.Errorf("failed to get reply classification: %w", err)
	}
	return row.toEntity(), nil
}

// ListByLead retrieves all classifications for a lead, newest first.
func (a *ReplyClassificationAdapter) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*domain.ReplyClassification, error) {
	var rows []replyClassificationRow
	query := `SELECT * FROM reply_classifications WHERE lead_id = $1 ORDER BY created_at DESC`

	if err := a.db.SelectContext(ctx, &rows, query, leadID); err != nil {
		return nil, fmt.Errorf("failed to list reply classifications: %w", err)
	}

	records := make([]*domain.ReplyClassification, len(rows))
	for i := range rows {
		records[i] = rows[i].toEntity()
	}
	return records, nil
}

// Override sets the override fields exactly once. The guard is in the WHERE
// clause: a second override matches no rows.
func (a *ReplyClassificationAdapter) Override(ctx context.Context, id uuid.UUID, newClass domain.ReplyClass, overriddenBy string) (*domain.ReplyClassification, error) {
	query := `
		UPDATE reply_classifications
		SET overridden_classification = $2, overridden_by = $3, overridden_at = $4
		WHERE id = $1 AND overridden_at IS NULL`

	result, err := a.db.ExecContext(ctx, query, id, string(newClass), overriddenBy, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to override reply classification: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Distinguish a missing record from an already-overridden one.
		if _, getErr := a.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperr.AlreadyOverridden(id.String())
	}

	return a.GetByID(ctx, id)
}
