package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"businesson_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CallLog represents the call_logs database model
type CallLog struct {
	ID             uuid.UUID `db:"id"`
	LeadID         uuid.UUID `db:"lead_id"`
	ExternalCallID string    `db:"external_call_id"`
	Direction      string    `db:"direction"`
	Status         string    `db:"status"`
	Duration       *int      `db:"duration"`
	RecordingURL   string    `db:"recording_url"`
	ArchiveKey     string    `db:"archive_key"`
	Transcription  string    `db:"transcription"`
	Summary        string    `db:"summary"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Repository provides database operations for call logs
type Repository struct {
	pool *pgxpool.Pool
}

const callNotFoundMsg = "call log not found"

const callColumns = `id, lead_id, external_call_id, direction, status, duration,
	recording_url, archive_key, transcription, summary, created_at, updated_at`

// New creates a new call logs repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new call log
func (r *Repository) Create(ctx context.Context, call *CallLog) error {
	query := `
		INSERT INTO call_logs (
			id, lead_id, external_call_id, direction, status, duration,
			recording_url, archive_key, transcription, summary, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		call.ID, call.LeadID, call.ExternalCallID, call.Direction, call.Status,
		call.Duration, call.RecordingURL, call.ArchiveKey, call.Transcription,
		call.Summary, call.CreatedAt, call.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create call log: %w", err)
	}

	return nil
}

// GetByID retrieves a call log by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*CallLog, error) {
	return r.getOne(ctx, `SELECT `+callColumns+` FROM call_logs WHERE id = $1`, id)
}

// GetByExternalID retrieves a call log by the provider-assigned call ID.
// A miss means the provider and store are out of sync, so this is a
// NotFound, not a nil result.
func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (*CallLog, error) {
	return r.getOne(ctx, `SELECT `+callColumns+` FROM call_logs WHERE external_call_id = $1`, externalID)
}

// ListByLead retrieves a lead's call logs, newest first
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]CallLog, error) {
	return r.list(ctx, `SELECT `+callColumns+` FROM call_logs WHERE lead_id = $1 ORDER BY created_at DESC`, leadID)
}

// List retrieves all call logs, newest first
func (r *Repository) List(ctx context.Context) ([]CallLog, error) {
	return r.list(ctx, `SELECT `+callColumns+` FROM call_logs ORDER BY created_at DESC`)
}

// Update persists the mutable call log fields
func (r *Repository) Update(ctx context.Context, call *CallLog) error {
	query := `
		UPDATE call_logs SET
			status = $2,
			duration = $3,
			recording_url = $4,
			archive_key = $5,
			transcription = $6,
			summary = $7,
			updated_at = $8
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		call.ID, call.Status, call.Duration, call.RecordingURL,
		call.ArchiveKey, call.Transcription, call.Summary, call.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update call log: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(callNotFoundMsg)
	}

	return nil
}

func (r *Repository) getOne(ctx context.Context, query string, arg interface{}) (*CallLog, error) {
	var call CallLog
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&call.ID, &call.LeadID, &call.ExternalCallID, &call.Direction, &call.Status,
		&call.Duration, &call.RecordingURL, &call.ArchiveKey, &call.Transcription,
		&call.Summary, &call.CreatedAt, &call.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(callNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get call log: %w", err)
	}

	return &call, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]CallLog, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list call logs: %w", err)
	}
	defer rows.Close()

	calls := []CallLog{}
	for rows.Next() {
		var call CallLog
		if err := rows.Scan(
			&call.ID, &call.LeadID, &call.ExternalCallID, &call.Direction, &call.Status,
			&call.Duration, &call.RecordingURL, &call.ArchiveKey, &call.Transcription,
			&call.Summary, &call.CreatedAt, &call.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan call log: %w", err)
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate call logs: %w", err)
	}

	return calls, nil
}
