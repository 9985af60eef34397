package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Message represents the messages database model. Rows are append-only;
// there is no update path.
type Message struct {
	ID        uuid.UUID `db:"id"`
	LeadID    uuid.UUID `db:"lead_id"`
	Channel   string    `db:"channel"`
	Direction string    `db:"direction"`
	Content   string    `db:"content"`
	Automated bool      `db:"automated"`
	CreatedAt time.Time `db:"created_at"`
}

// Repository provides database operations for conversation messages
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new messages repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const messageColumns = `id, lead_id, channel, direction, content, automated, created_at`

// Create appends a message to the conversation log
func (r *Repository) Create(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (id, lead_id, channel, direction, content, automated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.LeadID, msg.Channel, msg.Direction, msg.Content, msg.Automated, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// History returns every message for (lead, channel) oldest first. Insertion
// order and timestamp order coincide because created_at is set server-side
// at insert time and id breaks ties.
func (r *Repository) History(ctx context.Context, leadID uuid.UUID, channelName string) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE lead_id = $1 AND channel = $2
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, leadID, channelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListByLead returns every message for a lead across channels, oldest first
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE lead_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// LastMessage returns the most recent message for (lead, channel).
// Returns (nil, nil) when the conversation is empty.
func (r *Repository) LastMessage(ctx context.Context, leadID uuid.UUID, channelName string) (*Message, error) {
	var msg Message
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE lead_id = $1 AND channel = $2
		ORDER BY created_at DESC, id DESC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, leadID, channelName).Scan(
		&msg.ID, &msg.LeadID, &msg.Channel, &msg.Direction, &msg.Content, &msg.Automated, &msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last message: %w", err)
	}

	return &msg, nil
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	messages := []Message{}
	for rows.Next() {
		var msg Message
		if err := rows.Scan(
			&msg.ID, &msg.LeadID, &msg.Channel, &msg.Direction, &msg.Content, &msg.Automated, &msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}
