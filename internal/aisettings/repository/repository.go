package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings represents the ai_settings database model. One row per channel.
type Settings struct {
	Channel          string    `db:"channel"`
	BusinessContext  string    `db:"business_context"`
	Tone             string    `db:"tone"`
	Style            string    `db:"style"`
	Model            string    `db:"model"`
	Temperature      float32   `db:"temperature"`
	TopP             float32   `db:"top_p"`
	MaxTokens        int       `db:"max_tokens"`
	FrequencyPenalty float32   `db:"frequency_penalty"`
	PresencePenalty  float32   `db:"presence_penalty"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Repository provides database operations for AI settings
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new AI settings repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const settingsColumns = `channel, business_context, tone, style, model, temperature, top_p,
	max_tokens, frequency_penalty, presence_penalty, updated_at`

// GetByChannel retrieves settings for a channel.
// Returns (nil, nil) when no row exists; callers apply defaults.
func (r *Repository) GetByChannel(ctx context.Context, channelName string) (*Settings, error) {
	var s Settings
	query := `SELECT ` + settingsColumns + ` FROM ai_settings WHERE channel = $1`

	err := r.pool.QueryRow(ctx, query, channelName).Scan(
		&s.Channel, &s.BusinessContext, &s.Tone, &s.Style, &s.Model,
		&s.Temperature, &s.TopP, &s.MaxTokens, &s.FrequencyPenalty,
		&s.PresencePenalty, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ai settings: %w", err)
	}

	return &s, nil
}

// List retrieves all stored channel settings
func (r *Repository) List(ctx context.Context) ([]Settings, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+settingsColumns+` FROM ai_settings ORDER BY channel`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ai settings: %w", err)
	}
	defer rows.Close()

	settings := []Settings{}
	for rows.Next() {
		var s Settings
		if err := rows.Scan(
			&s.Channel, &s.BusinessContext, &s.Tone, &s.Style, &s.Model,
			&s.Temperature, &s.TopP, &s.MaxTokens, &s.FrequencyPenalty,
			&s.PresencePenalty, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ai settings: %w", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ai settings: %w", err)
	}

	return settings, nil
}

// Upsert creates or replaces the settings row for a channel
func (r *Repository) Upsert(ctx context.Context, s *Settings) error {
	query := `
		INSERT INTO ai_settings (
			channel, business_context, tone, style, model, temperature, top_p,
			max_tokens, frequency_penalty, presence_penalty, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (channel) DO UPDATE SET
			business_context = EXCLUDED.business_context,
			tone = EXCLUDED.tone,
			style = EXCLUDED.style,
			model = EXCLUDED.model,
			temperature = EXCLUDED.temperature,
			top_p = EXCLUDED.top_p,
			max_tokens = EXCLUDED.max_tokens,
			frequency_penalty = EXCLUDED.frequency_penalty,
			presence_penalty = EXCLUDED.presence_penalty,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		s.Channel, s.BusinessContext, s.Tone, s.Style, s.Model,
		s.Temperature, s.TopP, s.MaxTokens, s.FrequencyPenalty,
		s.PresencePenalty, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ai settings: %w", err)
	}

	return nil
}
