// Package audit keeps a trail of location decisions made for callers.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rakshak-ai/internal/db"
)

// Outcome of a location decision.
const (
	DecisionResolved   = "resolved"
	DecisionUnresolved = "unresolved"
	DecisionError      = "error"
)

// Tracker manages the location decision audit trail
type Tracker struct {
	conn *db.Connection
	now  func() time.Time
}

// NewTracker creates a new audit tracker. The table is created by
// directory.EnsureSchema.
func NewTracker(conn *db.Connection) *Tracker {
	return &Tracker{conn: conn, now: time.Now}
}

// Decision is one SelectLocation call.
type Decision struct {
	ID         string         `json:"id"`
	Input      string         `json:"input"`
	Normalized string         `json:"normalized"`
	Language   string         `json:"language"`
	Decision   string         `json:"decision"`
	Strategy   string         `json:"strategy,omitempty"`
	StationID  string         `json:"station_id,omitempty"`
	Source     string         `json:"source,omitempty"`
	Match      string         `json:"match,omitempty"`
	Attempts   map[string]any `json:"attempts,omitempty"`
	Duration   time.Duration  `json:"duration"`
	DecidedAt  time.Time      `json:"decided_at"`
}

// RecordDecision saves a decision. ID and DecidedAt are filled in when
// empty.
func (t *Tracker) RecordDecision(ctx context.Context, d Decision) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.DecidedAt.IsZero() {
		d.DecidedAt = t.now()
	}

	var attempts []byte
	if len(d.Attempts) > 0 {
		var err error
		if attempts, err = json.Marshal(d.Attempts); err != nil {
			return fmt.Errorf("encode attempts: %w", err)
		}
	}

	_, err := t.conn.DB.ExecContext(ctx, t.conn.Rebind(`
		INSERT INTO location_audit (
			id, input, normalized, language, decision, strategy,
			station_id, source, match_source, attempts_json, duration_ms, decided_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), d.ID, d.Input, d.Normalized, d.Language, d.Decision, d.Strategy,
		d.StationID, d.Source, d.Match, string(attempts), d.Duration.Milliseconds(), d.DecidedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// Recent returns the latest decisions, newest first.
func (t *Tracker) Recent(ctx context.Context, limit int) ([]Decision, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := t.conn.DB.QueryContext(ctx, t.conn.Rebind(`
		SELECT id, input, normalized, language, decision, strategy,
			station_id, source, match_source, attempts_json, duration_ms, decided_at
		FROM location_audit
		ORDER BY decided_at DESC, id
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var (
			d                                Decision
			strategy, station, source, match sql.NullString
			attempts                         sql.NullString
			durationMS, decidedAt            int64
		)
		if err := rows.Scan(&d.ID, &d.Input, &d.Normalized, &d.Language, &d.Decision, &strategy,
			&station, &source, &match, &attempts, &durationMS, &decidedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Strategy = strategy.String
		d.StationID = station.String
		d.Source = source.String
		d.Match = match.String
		if attempts.String != "" {
			_ = json.Unmarshal([]byte(attempts.String), &d.Attempts)
		}
		d.Duration = time.Duration(durationMS) * time.Millisecond
		d.DecidedAt = time.UnixMilli(decidedAt).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

// Stats summarizes the trail.
type Stats struct {
	Total      int            `json:"total"`
	ByDecision map[string]int `json:"by_decision"`
	ByStrategy map[string]int `json:"by_strategy"`
}

// GetStatistics counts decisions by outcome and by winning strategy.
func (t *Tracker) GetStatistics(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByDecision: map[string]int{}, ByStrategy: map[string]int{}}

	rows, err := t.conn.DB.QueryContext(ctx, `
		SELECT decision, COALESCE(strategy, ''), COUNT(*)
		FROM location_audit
		GROUP BY decision, COALESCE(strategy, '')
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var decision, strategy string
		var n int
		if err := rows.Scan(&decision, &strategy, &n); err != nil {
			return nil, fmt.Errorf("scan statistics: %w", err)
		}
		stats.Total += n
		stats.ByDecision[decision] += n
		if strategy != "" {
			stats.ByStrategy[strategy] += n
		}
	}
	return stats, rows.Err()
}
