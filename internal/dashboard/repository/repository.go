// Package repository runs the read-only aggregate queries behind the
// dashboard. It spans several tables on purpose; the dashboard owns no
// data of its own.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides aggregate read queries for the dashboard
type Repository struct {
	pool *pgxpool.Pool
}

// StatusCount is one lead-status bucket
type StatusCount struct {
	Status string
	Count  int
}

// CallVolume breaks call counts down by direction
type CallVolume struct {
	Total    int
	Incoming int
	Outgoing int
}

// ChannelCount is one per-channel message bucket
type ChannelCount struct {
	Channel string
	Count   int
}

// ActivityRow is one recent-activity feed entry
type ActivityRow struct {
	Type      string
	LeadID    uuid.UUID
	LeadName  string
	Detail    string
	Timestamp time.Time
}

// New creates a new dashboard repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LeadsByStatus counts leads per status value
func (r *Repository) LeadsByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads by status: %w", err)
	}
	defer rows.Close()

	counts := []StatusCount{}
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts = append(counts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status counts: %w", err)
	}

	return counts, nil
}

// CallsSince counts call logs created at or after the cutoff, split by
// direction.
func (r *Repository) CallsSince(ctx context.Context, since time.Time) (CallVolume, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT direction, COUNT(*) FROM call_logs
		WHERE created_at >= $1 GROUP BY direction`, since)
	if err != nil {
		return CallVolume{}, fmt.Errorf("failed to count calls: %w", err)
	}
	defer rows.Close()

	var vol CallVolume
	for rows.Next() {
		var direction string
		var n int
		if err := rows.Scan(&direction, &n); err != nil {
			return CallVolume{}, fmt.Errorf("failed to scan call count: %w", err)
		}
		switch direction {
		case "Inbound":
			vol.Incoming = n
		case "Outbound":
			vol.Outgoing = n
		}
		vol.Total += n
	}
	if err := rows.Err(); err != nil {
		return CallVolume{}, fmt.Errorf("failed to iterate call counts: %w", err)
	}

	return vol, nil
}

// AutoRepliesSince counts automated outbound messages at or after the
// cutoff, per channel.
func (r *Repository) AutoRepliesSince(ctx context.Context, since time.Time) ([]ChannelCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT channel, COUNT(*) FROM messages
		WHERE automated = TRUE AND direction = 'Outbound' AND created_at >= $1
		GROUP BY channel`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count auto replies: %w", err)
	}
	defer rows.Close()

	counts := []ChannelCount{}
	for rows.Next() {
		var cc ChannelCount
		if err := rows.Scan(&cc.Channel, &cc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan auto-reply count: %w", err)
		}
		counts = append(counts, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate auto-reply counts: %w", err)
	}

	return counts, nil
}

// RecentActivities merges the latest messages, calls, and appointments
// into one feed, newest first.
func (r *Repository) RecentActivities(ctx context.Context, limit int) ([]ActivityRow, error) {
	query := `
		SELECT * FROM (
			SELECT 'message' AS type, m.lead_id, l.name, LEFT(m.content, 120) AS detail, m.created_at
			FROM messages m JOIN leads l ON l.id = m.lead_id
			UNION ALL
			SELECT 'call', c.lead_id, l.name, c.status, c.created_at
			FROM call_logs c JOIN leads l ON l.id = c.lead_id
			UNION ALL
			SELECT 'appointment', a.lead_id, l.name, a.title, a.created_at
			FROM appointments a JOIN leads l ON l.id = a.lead_id
		) activity
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent activities: %w", err)
	}
	defer rows.Close()

	activities := []ActivityRow{}
	for rows.Next() {
		var a ActivityRow
		if err := rows.Scan(&a.Type, &a.LeadID, &a.LeadName, &a.Detail, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	return activities, nil
}

// ContextSnippets gathers short textual facts about recent leads,
// conversations, and appointments for the assistant's prompt context.
func (r *Repository) ContextSnippets(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT * FROM (
			SELECT 'Lead ' || l.name || ' (status ' || l.status || ', phone ' || l.phone || ')' AS snippet, l.updated_at AS at
			FROM leads l
			UNION ALL
			SELECT 'Message from ' || l.name || ' on ' || m.channel || ': ' || LEFT(m.content, 200), m.created_at
			FROM messages m JOIN leads l ON l.id = m.lead_id
			UNION ALL
			SELECT 'Appointment for ' || l.name || ' at ' || a.date_time || ' (' || a.status || ')', a.created_at
			FROM appointments a JOIN leads l ON l.id = a.lead_id
			UNION ALL
			SELECT 'Call with ' || l.name || ': ' || COALESCE(NULLIF(c.summary, ''), c.status), c.created_at
			FROM call_logs c JOIN leads l ON l.id = c.lead_id
		) facts
		ORDER BY at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to gather context snippets: %w", err)
	}
	defer rows.Close()

	snippets := []string{}
	for rows.Next() {
		var snippet string
		var at time.Time
		if err := rows.Scan(&snippet, &at); err != nil {
			return nil, fmt.Errorf("failed to scan snippet: %w", err)
		}
		snippets = append(snippets, snippet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snippets: %w", err)
	}

	return snippets, nil
}
