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
// Email Draft Adapter
// =============================================================================

// EmailDraftAdapter implements out.EmailDraftRepository.
type EmailDraftAdapter struct {
	db *sqlx.DB
}

// NewEmailDraftAdapter creates a new EmailDraftAdapter.
func NewEmailDraftAdapter(db *sqlx.DB) *EmailDraftAdapter {
	return &EmailDraftAdapter{db: db}
}

// emailDraftRow represents the database row.
type emailDraftRow struct {
	ID             uuid.UUID    `db:"id"`
	LeadID         uuid.UUID    `db:"lead_id"`
	Subject        string       `db:"subject"`
	Body           string       `db:"body"`
	Variant        string       `db:"variant"`
	Approved       bool         `db:"approved"`
	SentAt         sql.NullTime `db:"sent_at"`
	DeliveryStatus string       `db:"delivery_status"`
	CreatedAt      time.Time    `db:"created_at"`
}

func (r *emailDraftRow) toEntity() *domain.EmailDraft {
	draft := &domain.EmailDraft{
		ID:             r.ID,
		LeadID:         r.LeadID,
		Subject:        r.Subject,
		Body:           r.Body,
		Variant:        domain.EmailVariant(r.Variant),
		Approved:       r.Approved,
		DeliveryStatus: domain.DeliveryStatus(r.DeliveryStatus),
		CreatedAt:      r.CreatedAt,
	}
	if r.SentAt.Valid {
		draft.SentAt = &r.SentAt.Time
	}
	return draft
}

// Create inserts a draft. Pipeline reruns append new drafts; nothing here
// replaces an existing one.
func (a *EmailDraftAdapter) Create(ctx context.Context, draft *domain.EmailDraft) error {
	query := `
		INSERT INTO email_drafts (
			id, lead_id, subject, body, variant, approved, delivery_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := a.db.ExecContext(ctx, query,
		draft.ID, draft.LeadID, draft.Subject, draft.Body, string(draft.Variant),
		draft.Approved, string(draft.DeliveryStatus), draft.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create email draft: %w", err)
	}
	return nil
}

// GetByID retrieves a draft by ID.
func (a *EmailDraftAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.EmailDraft, error) {
	var row emailDraftRow
	query := `SELECT * FROM email_drafts WHERE id = $1`

	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("email draft")
		}
		return nil, fmt.Errorf("failed to get email draft: %w", err)
	}
	return row.toEntity(), nil
}

// ListByLead retrieves all drafts for a lead, newest first.
func (a *EmailDraftAdapter) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*domain.EmailDraft, error) {
	var rows []emailDraftRow
	query := `SELECT * FROM email_drafts WHERE lead_id = $1 ORDER BY created_at DESC`

	if err := a.db.SelectContext(ctx, &rows, query, leadID); err != nil {
		return nil, fmt.Errorf("failed to list email drafts: %w", err)
	}

	drafts := make([]*domain.EmailDraft, len(rows))
	for i := range rows {
		drafts[i] = rows[i].toEntity()
	}
	return drafts, nil
}

// MarkApproved flags a draft for sending.
func (a *EmailDraftAdapter) MarkApproved(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE email_drafts SET approved = TRUE WHERE id = $1`

	result, err := a.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to approve email draft: %w", err)
	}
	return requireRow(result, "email draft")
}

// MarkSent records delivery of an approved draft.
func (a *EmailDraftAdapter) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	query := `
		UPDATE email_drafts
		SET sent_at = $2, delivery_status = $3
		WHERE id = $1 AND approved = TRUE`

	result, err := a.db.ExecContext(ctx, query, id, sentAt, string(domain.DeliverySent))
	if err != nil {
		return fmt.Errorf("failed to mark email draft sent: %w", err)
	}
	return requireRow(result, "email draft")
}
