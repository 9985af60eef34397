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

// Lead represents the lead database model
type Lead struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Phone     string    `db:"phone"`
	Email     string    `db:"email"`
	Status    string    `db:"status"`
	Source    string    `db:"source"`
	Region    string    `db:"region"`
	Company   string    `db:"company"`
	Industry  string    `db:"industry"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ListFilter narrows List results
type ListFilter struct {
	Status *string
	Search string
	Limit  int
	Offset int
}

// Repository provides database operations for leads
type Repository struct {
	pool *pgxpool.Pool
}

const leadNotFoundMsg = "lead not found"

const leadColumns = `id, name, phone, email, status, source, region, company, industry, notes, created_at, updated_at`

// New creates a new leads repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new lead
func (r *Repository) Create(ctx context.Context, lead *Lead) error {
	query := `
		INSERT INTO leads (id, name, phone, email, status, source, region, company, industry, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		lead.ID, lead.Name, lead.Phone, lead.Email, lead.Status, lead.Source,
		lead.Region, lead.Company, lead.Industry, lead.Notes, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}

	return nil
}

// GetByID retrieves a lead by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	var lead Lead
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &lead.Status,
		&lead.Source, &lead.Region, &lead.Company, &lead.Industry, &lead.Notes, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(leadNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return &lead, nil
}

// GetByPhone retrieves a lead by its normalized phone number.
// Returns (nil, nil) when no lead matches.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (*Lead, error) {
	var lead Lead
	query := `SELECT ` + leadColumns + ` FROM leads WHERE phone = $1 ORDER BY created_at DESC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, phone).Scan(
		&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &lead.Status,
		&lead.Source, &lead.Region, &lead.Company, &lead.Industry, &lead.Notes, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lead by phone: %w", err)
	}

	return &lead, nil
}

// GetByEmail retrieves a lead by email address.
// Returns (nil, nil) when no lead matches.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Lead, error) {
	var lead Lead
	query := `SELECT ` + leadColumns + ` FROM leads WHERE lower(email) = lower($1) ORDER BY created_at DESC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, email).Scan(
		&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &lead.Status,
		&lead.Source, &lead.Region, &lead.Company, &lead.Industry, &lead.Notes, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lead by email: %w", err)
	}

	return &lead, nil
}

// List retrieves leads matching the filter, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Lead, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d)", argPos, argPos, argPos)
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []Lead{}
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &lead.Status,
			&lead.Source, &lead.Region, &lead.Company, &lead.Industry, &lead.Notes, &lead.CreatedAt, &lead.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate leads: %w", err)
	}

	return leads, total, nil
}

// Update updates a lead's mutable fields. ID and created_at never change.
func (r *Repository) Update(ctx context.Context, lead *Lead) error {
	query := `
		UPDATE leads SET
			name = $2,
			phone = $3,
			email = $4,
			status = $5,
			source = $6,
			region = $7,
			company = $8,
			industry = $9,
			notes = $10,
			updated_at = $11
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		lead.ID, lead.Name, lead.Phone, lead.Email, lead.Status, lead.Source,
		lead.Region, lead.Company, lead.Industry, lead.Notes, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMsg)
	}

	return nil
}

// UpdateStatus sets only the lead's status
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE leads SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMsg)
	}

	return nil
}

// Delete removes a lead. Conversation history, call logs, and appointments
// are removed by the database via ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMsg)
	}

	return nil
}
