// Package dashboard contains the precomputed per-student summary used by
// dashboard reads. The snapshot is always derived state: possibly stale,
// never the primary record of truth.
package dashboard

import (
	"context"
	"time"
)

// Snapshot is the one aggregate row per student.
type Snapshot struct {
	StudentID       string
	ProgressOverall float64
	LastEvalScore   *float64
	NextSessionAt   *time.Time
	TasksOpenCount  int
	RefreshedAt     time.Time
}

// Inputs are the raw figures a snapshot is computed from. Keeping the
// computation a pure function of these values is what makes worker
// recomputation idempotent.
type Inputs struct {
	ProgressAverage float64
	LastEvalScore   *float64
	NextSessionAt   *time.Time
	OpenTaskCount   int
}

// Compute builds a snapshot from its inputs. Same inputs, same output.
func Compute(studentID string, in Inputs, now time.Time) *Snapshot {
	return &Snapshot{
		StudentID:       studentID,
		ProgressOverall: in.ProgressAverage,
		LastEvalScore:   in.LastEvalScore,
		NextSessionAt:   in.NextSessionAt,
		TasksOpenCount:  in.OpenTaskCount,
		RefreshedAt:     now,
	}
}

// Repository defines storage operations for snapshots.
type Repository interface {
	// Get returns the snapshot for a student, or shared.ErrNotFound when
	// it has never been computed.
	Get(ctx context.Context, studentID string) (*Snapshot, error)

	// Write upserts the snapshot row. Called only by the refresh worker.
	Write(ctx context.Context, s *Snapshot) error
}
