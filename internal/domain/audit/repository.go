package audit

import (
	"context"
	"time"
)

// Log is the write-once event log contract. Append runs inside the
// caller's active transaction and never commits independently. There is no
// update or delete operation.
type Log interface {
	// Append inserts one event row.
	Append(ctx context.Context, e *Event) error

	// FindSince returns events of a kind strictly after the given
	// timestamp, ordered by occurrence ascending. Used by the refresh
	// worker to drain its input window.
	FindSince(ctx context.Context, kind Kind, after time.Time) ([]*Event, error)

	// LastOccurrence returns the timestamp of the most recent event of a
	// kind, or the zero time when none exists. The refresh worker reads
	// its checkpoint through this.
	LastOccurrence(ctx context.Context, kind Kind) (time.Time, error)

	// ListByStudent returns events for a student filtered by kind (empty
	// kind matches all), newest first, bounded by limit.
	ListByStudent(ctx context.Context, studentID string, kind Kind, limit int) ([]*Event, error)
}
