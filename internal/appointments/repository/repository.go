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

// Appointment represents the appointment database model
type Appointment struct {
	ID        uuid.UUID `db:"id"`
	LeadID    uuid.UUID `db:"lead_id"`
	DateTime  time.Time `db:"date_time"`
	Title     string    `db:"title"`
	Notes     string    `db:"notes"`
	Source    string    `db:"source"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ListFilter narrows List results
type ListFilter struct {
	LeadID *uuid.UUID
	Status *string
	From   *time.Time
	To     *time.Time
}

// Repository provides database operations for appointments
type Repository struct {
	pool *pgxpool.Pool
}

const appointmentNotFoundMsg = "appointment not found"

const appointmentColumns = `id, lead_id, date_time, title, notes, source, status, created_at, updated_at`

// New creates a new appointments repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new appointment
func (r *Repository) Create(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (id, lead_id, date_time, title, notes, source, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		appt.ID, appt.LeadID, appt.DateTime, appt.Title, appt.Notes,
		appt.Source, appt.Status, appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	return nil
}

// GetByID retrieves an appointment by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var appt Appointment
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&appt.ID, &appt.LeadID, &appt.DateTime, &appt.Title, &appt.Notes,
		&appt.Source, &appt.Status, &appt.CreatedAt, &appt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(appointmentNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return &appt, nil
}

// List retrieves appointments matching the filter, soonest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.LeadID != nil {
		query += fmt.Sprintf(" AND lead_id = $%d", argPos)
		args = append(args, *filter.LeadID)
		argPos++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND date_time >= $%d", argPos)
		args = append(args, *filter.From)
		argPos++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND date_time < $%d", argPos)
		args = append(args, *filter.To)
		argPos++
	}
	query += ` ORDER BY date_time ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	appointments := []Appointment{}
	for rows.Next() {
		var appt Appointment
		if err := rows.Scan(
			&appt.ID, &appt.LeadID, &appt.DateTime, &appt.Title, &appt.Notes,
			&appt.Source, &appt.Status, &appt.CreatedAt, &appt.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return appointments, nil
}

// HasScheduled reports whether the lead has any appointment in Scheduled
// status. Used as the conflict check for automated bookings.
func (r *Repository) HasScheduled(ctx context.Context, leadID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM appointments WHERE lead_id = $1 AND status = 'Scheduled')`

	if err := r.pool.QueryRow(ctx, query, leadID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check scheduled appointments: %w", err)
	}

	return exists, nil
}

// HasScheduledAt reports whether the lead already has a Scheduled
// appointment at exactly the given time.
func (r *Repository) HasScheduledAt(ctx context.Context, leadID uuid.UUID, at time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM appointments WHERE lead_id = $1 AND status = 'Scheduled' AND date_time = $2)`

	if err := r.pool.QueryRow(ctx, query, leadID, at).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check scheduled appointments: %w", err)
	}

	return exists, nil
}

// Update updates an existing appointment
func (r *Repository) Update(ctx context.Context, appt *Appointment) error {
	query := `
		UPDATE appointments SET
			date_time = $2,
			title = $3,
			notes = $4,
			status = $5,
			updated_at = $6
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		appt.ID, appt.DateTime, appt.Title, appt.Notes, appt.Status, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(appointmentNotFoundMsg)
	}

	return nil
}

// Delete removes an appointment
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(appointmentNotFoundMsg)
	}

	return nil
}
