package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// EventLog implements audit.Log on PostgreSQL. Rows are insert-only; there
// is deliberately no update or delete statement in this file.
type EventLog struct {
	q Querier
}

// NewEventLog creates an event log bound to the given querier.
func NewEventLog(q Querier) *EventLog {
	return &EventLog{q: q}
}

const eventColumns = `id, student_id, kind, payload, occurred_at`

func scanEvent(row interface{ Scan(dest ...any) error }) (*audit.Event, error) {
	e := &audit.Event{}
	var kind string
	var payload []byte

	if err := row.Scan(&e.ID, &e.StudentID, &kind, &payload, &e.OccurredAt); err != nil {
		return nil, err
	}

	e.Kind = audit.Kind(kind)
	e.Payload = map[string]any{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Append inserts one event row.
func (l *EventLog) Append(ctx context.Context, e *audit.Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return shared.WrapError("audit", "Append", shared.ErrInvalidInput, "failed to encode payload", err)
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = l.q.Exec(ctx, query, e.ID, e.StudentID, string(e.Kind), payload, e.OccurredAt)
	if err != nil {
		return shared.WrapError("audit", "Append", shared.ErrInfrastructure, "failed to insert event", err)
	}

	return nil
}

// FindSince returns events of a kind strictly after the given timestamp,
// oldest first.
func (l *EventLog) FindSince(ctx context.Context, kind audit.Kind, after time.Time) ([]*audit.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE kind = $1 AND occurred_at > $2
		ORDER BY occurred_at ASC
	`

	rows, err := l.q.Query(ctx, query, string(kind), after)
	if err != nil {
		return nil, shared.WrapError("audit", "FindSince", shared.ErrInfrastructure, "failed to query events", err)
	}
	defer rows.Close()

	var events []*audit.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, shared.WrapError("audit", "FindSince", shared.ErrInfrastructure, "failed to scan event", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// LastOccurrence returns the timestamp of the most recent event of a kind,
// or the zero time when none exists.
func (l *EventLog) LastOccurrence(ctx context.Context, kind audit.Kind) (time.Time, error) {
	query := `SELECT MAX(occurred_at) FROM events WHERE kind = $1`

	var last *time.Time
	if err := l.q.QueryRow(ctx, query, string(kind)).Scan(&last); err != nil {
		return time.Time{}, shared.WrapError("audit", "LastOccurrence", shared.ErrInfrastructure, "failed to query last event", err)
	}
	if last == nil {
		return time.Time{}, nil
	}

	return *last, nil
}

// ListByStudent returns events for a student filtered by kind (empty kind
// matches all), newest first.
func (l *EventLog) ListByStudent(ctx context.Context, studentID string, kind audit.Kind, limit int) ([]*audit.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE student_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY occurred_at DESC
		LIMIT $3
	`

	rows, err := l.q.Query(ctx, query, studentID, string(kind), limit)
	if err != nil {
		return nil, shared.WrapError("audit", "ListByStudent", shared.ErrInfrastructure, "failed to query events", err)
	}
	defer rows.Close()

	var events []*audit.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, shared.WrapError("audit", "ListByStudent", shared.ErrInfrastructure, "failed to scan event", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
