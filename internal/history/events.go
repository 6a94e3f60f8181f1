package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies the operation an event records.
type Kind string

const (
	KindPlay  Kind = "play"
	KindPatch Kind = "patch"
)

// Outcome is the result of a recorded operation.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// Event is one recorded device operation. PatchIndex and TargetPosition are
// -1 for play events.
type Event struct {
	ID             int64
	RunID          string
	Kind           Kind
	Device         string
	Zone           int
	Chart          string
	Episode        string
	PatchIndex     int
	TargetPosition int
	Outcome        Outcome
	ErrorMessage   string
	Duration       time.Duration
	CreatedAt      time.Time
}

const eventColumns = "id, run_id, kind, device, zone, chart, episode, patch_index, target_position, outcome, error_message, duration_ms, created_at"

// Record appends an event and returns its ID. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, event Event) (int64, error) {
	if strings.TrimSpace(event.RunID) == "" {
		return 0, errors.New("record event: run id is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	var patchIndex, target sql.NullInt64
	if event.Kind == KindPatch {
		patchIndex = sql.NullInt64{Int64: int64(event.PatchIndex), Valid: true}
		target = sql.NullInt64{Int64: int64(event.TargetPosition), Valid: true}
	}
	var errMsg sql.NullString
	if event.ErrorMessage != "" {
		errMsg = sql.NullString{String: event.ErrorMessage, Valid: true}
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO events (run_id, kind, device, zone, chart, episode, patch_index, target_position, outcome, error_message, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.RunID, string(event.Kind), event.Device, event.Zone, event.Chart, event.Episode,
		patchIndex, target, string(event.Outcome), errMsg, event.Duration.Milliseconds(),
		event.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("event id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit events, newest first. A non-positive limit returns all events.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	query := "SELECT " + eventColumns + " FROM events ORDER BY id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// ByRun returns the events of one run in insertion order.
func (s *Store) ByRun(ctx context.Context, runID string) ([]Event, error) {
	return s.query(ctx, "SELECT "+eventColumns+" FROM events WHERE run_id = ? ORDER BY id", runID)
}

// Stats counts events grouped by outcome.
func (s *Store) Stats(ctx context.Context) (map[Outcome]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT outcome, COUNT(1) FROM events GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("event stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Outcome]int)
	for rows.Next() {
		var outcome Outcome
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		stats[outcome] = count
	}
	return stats, rows.Err()
}

// Prune deletes events created before cutoff and returns the number removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM events WHERE created_at < ?", cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEvent(scanner interface{ Scan(dest ...any) error }) (Event, error) {
	var (
		event      Event
		kind       string
		outcome    string
		patchIndex sql.NullInt64
		target     sql.NullInt64
		errMsg     sql.NullString
		durationMS int64
		createdRaw string
	)
	if err := scanner.Scan(
		&event.ID,
		&event.RunID,
		&kind,
		&event.Device,
		&event.Zone,
		&event.Chart,
		&event.Episode,
		&patchIndex,
		&target,
		&outcome,
		&errMsg,
		&durationMS,
		&createdRaw,
	); err != nil {
		return Event{}, fmt.Errorf("scan event: %w", err)
	}
	event.Kind = Kind(kind)
	event.Outcome = Outcome(outcome)
	event.PatchIndex, event.TargetPosition = -1, -1
	if patchIndex.Valid {
		event.PatchIndex = int(patchIndex.Int64)
	}
	if target.Valid {
		event.TargetPosition = int(target.Int64)
	}
	event.ErrorMessage = errMsg.String
	event.Duration = time.Duration(durationMS) * time.Millisecond
	if ts, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		event.CreatedAt = ts
	}
	return event, nil
}
