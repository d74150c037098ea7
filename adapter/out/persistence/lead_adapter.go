// Package persistence provides database adapters implementing outbound ports.
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
// Lead Adapter
// =============================================================================

// LeadAdapter implements out.LeadRepository.
type LeadAdapter struct {
	db *sqlx.DB
}

// NewLeadAdapter creates a new LeadAdapter.
func NewLeadAdapter(db *sqlx.DB) *LeadAdapter {
	return &LeadAdapter{db: db}
}

// leadRow represents the database row.
type leadRow struct {
	ID                    uuid.UUID      `db:"id"`
	FirstName             string         `db:"first_name"`
	LastName              string         `db:"last_name"`
	Email                 string         `db:"email"`
	Phone                 sql.NullString `db:"phone"`
	CompanyName           sql.NullString `db:"company_name"`
	JobTitle              sql.NullString `db:"job_title"`
	Industry              sql.NullString `db:"industry"`
	CompanySize           sql.NullString `db:"company_size"`
	Country               sql.NullString `db:"country"`
	Source                sql.NullString `db:"source"`
	BudgetRange           sql.NullString `db:"budget_range"`
	PainPoint             sql.NullString `db:"pain_point"`
	Urgency               sql.NullString `db:"urgency"`
	LeadMessage           sql.NullString `db:"lead_message"`
	Status                string         `db:"status"`
	ScoreValue            sql.NullInt64  `db:"score_value"`
	ScoreLabel            sql.NullString `db:"score_label"`
	ScoreRationale        sql.NullString `db:"score_rationale"`
	ScoreBreakdown        []byte         `db:"score_breakdown"`
	RecommendedAction     sql.NullString `db:"recommended_action"`
	ProcessingStatus      string         `db:"processing_status"`
	CurrentOutcomeStage   sql.NullString `db:"current_outcome_stage"`
	OutcomeStageEnteredAt sql.NullTime   `db:"outcome_stage_entered_at"`
	Archived              bool           `db:"archived"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

func (r *leadRow) toEntity() (*domain.Lead, error) {
	lead := &domain.Lead{
		ID:               r.ID,
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Email:            r.Email,
		Phone:            r.Phone.String,
		CompanyName:      r.CompanyName.String,
		JobTitle:         r.JobTitle.String,
		Industry:         r.Industry.String,
		CompanySize:      r.CompanySize.String,
		Country:          r.Country.String,
		Source:           r.Source.String,
		BudgetRange:      r.BudgetRange.String,
		PainPoint:        r.PainPoint.String,
		Urgency:          r.Urgency.String,
		LeadMessage:      r.LeadMessage.String,
		Status:           domain.LeadStatus(r.Status),
		ProcessingStatus: domain.ProcessingStatus(r.ProcessingStatus),
		Archived:         r.Archived,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.ScoreValue.Valid {
		v := int(r.ScoreValue.Int64)
		lead.ScoreValue = &v
	}
	if r.ScoreLabel.Valid {
		label := domain.ScoreLabel(r.ScoreLabel.String)
		lead.ScoreLabel = &label
	}
	if r.ScoreRationale.Valid {
		lead.ScoreRationale = &r.ScoreRationale.String
	}
	if len(r.ScoreBreakdown) > 0 {
		if err := json.Unmarshal(r.ScoreBreakdown, &lead.ScoreBreakdown); err != nil {
			return nil, fmt.Errorf("failed to decode score breakdown: %w", err)
		}
	}
	if r.RecommendedAction.Valid {
		action := domain.ActionType(r.RecommendedAction.String)
		lead.RecommendedAction = &action
	}
	if r.CurrentOutcomeStage.Valid {
		stage := domain.OutcomeStage(r.CurrentOutcomeStage.String)
		lead.CurrentOutcomeStage = &stage
	}
	if r.OutcomeStageEnteredAt.Valid {
		lead.OutcomeStageEnteredAt = &r.OutcomeStageEnteredAt.Time
	}
	return lead, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new lead.
func (a *LeadAdapter) Create(ctx context.Context, lead *domain.Lead) error {
	query := `
		INSERT INTO leads (
			id, first_name, last_name, email, phone, company_name, job_title,
			industry, company_size, country, source, budget_range, pain_point,
			urgency, lead_message, status, processing_status, archived,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)`

	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	if lead.Status == "" {
		lead.Status = domain.LeadStatusNew
	}
	if lead.ProcessingStatus == "" {
		lead.ProcessingStatus = domain.ProcessingIdle
	}

	_, err := a.db.ExecContext(ctx, query,
		lead.ID, lead.FirstName, lead.LastName, lead.Email,
		nullString(lead.Phone), nullString(lead.CompanyName), nullString(lead.JobTitle),
		nullString(lead.Industry), nullString(lead.CompanySize), nullString(lead.Country),
		nullString(lead.Source), nullString(lead.BudgetRange), nullString(lead.PainPoint),
		nullString(lead.Urgency), nullString(lead.LeadMessage),
		string(lead.Status), string(lead.ProcessingStatus), lead.Archived,
		lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// GetByID retrieves a lead by ID.
func (a *LeadAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	var row leadRow
	query := `SELECT * FROM leads WHERE id = $1`

	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("lead")
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return row.toEntity()
}

// List retrieves leads ordered by creation time, newest first. Archived leads
// are excluded.
func (a *LeadAdapter) List(ctx context.Context, limit, offset int) ([]*domain.Lead, error) {
	var rows []leadRow
	query := `SELECT * FROM leads WHERE archived = FALSE ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	if err := a.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	leads := make([]*domain.Lead, 0, len(rows))
	for i := range rows {
		lead, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// UpdateProcessingStatus sets the in-flight marker for a lead.
func (a *LeadAdapter) UpdateProcessingStatus(ctx context.Context, id uuid.UUID, status domain.ProcessingStatus) error {
	query := `UPDATE leads SET processing_status = $2, updated_at = NOW() WHERE id = $1`

	result, err := a.db.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update processing status: %w", err)
	}
	return requireRow(result, "lead")
}

// UpdateScore writes the results of a pipeline run onto the lead.
func (a *LeadAdapter) UpdateScore(ctx context.Context, id uuid.UUID, score *domain.ScoreResult, action domain.ActionType, status domain.LeadStatus) error {
	breakdown, err := json.Marshal(score.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode score breakdown: %w", err)
	}

	query := `
		UPDATE leads SET
			score_value = $2,
			score_label = $3,
			score_rationale = $4,
			score_breakdown = $5,
			recommended_action = $6,
			status = $7,
			processing_status = $8,
			updated_at = NOW()
		WHERE id = $1`

	result, err := a.db.ExecContext(ctx, query,
		id, score.Value, string(score.Label), score.Rationale, breakdown,
		string(action), string(status), string(domain.ProcessingIdle),
	)
	if err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}
	return requireRow(result, "lead")
}

// Archive soft-deletes a lead. Leads are never physically removed.
func (a *LeadAdapter) Archive(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE leads SET archived = TRUE, updated_at = NOW() WHERE id = $1`

	result, err := a.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to archive lead: %w", err)
	}
	return requireRow(result, "lead")
}

func requireRow(result sql.Result, resource string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(resource)
	}
	return nil
}
