package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertRunLog records one finished scraping execution. Rows are written
// once at run end and never mutated afterwards.
func (s *Store) InsertRunLog(ctx context.Context, r *RunLog) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.DurationMs == 0 && r.EndedAt > r.StartedAt {
		r.DurationMs = r.EndedAt - r.StartedAt
	}
	success := 0
	if r.Success {
		success = 1
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO run_log (id, kind, started_at, ended_at, duration_ms,
		attempted, new_records, skipped, errors, success, notes)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.Kind, r.StartedAt, r.EndedAt, r.DurationMs,
		r.Attempted, r.NewRecords, r.Skipped, r.Errors, success, r.Notes,
	)
	if err != nil {
		return fmt.Errorf("store: insert run log: %w", err)
	}
	return nil
}

// RecentRunLogs returns the most recent executions, newest first.
func (s *Store) RecentRunLogs(ctx context.Context, limit int) ([]*RunLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, kind, started_at, ended_at, duration_ms,
		attempted, new_records, skipped, errors, success, notes
		FROM run_log ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent run logs: %w", err)
	}
	defer rows.Close()

	var logs []*RunLog
	for rows.Next() {
		var r RunLog
		var success int
		if err := rows.Scan(&r.ID, &r.Kind, &r.StartedAt, &r.EndedAt, &r.DurationMs,
			&r.Attempted, &r.NewRecords, &r.Skipped, &r.Errors, &success, &r.Notes); err != nil {
			return nil, fmt.Errorf("store: scan run log: %w", err)
		}
		r.Success = success != 0
		logs = append(logs, &r)
	}
	return logs, rows.Err()
}
