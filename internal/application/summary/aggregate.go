// Package summary holds the one aggregation routine behind dashboard
// snapshots. The refresh worker, the read path's live fallback, and parent
// report generation all go through it so the figures cannot drift apart.
package summary

import (
	"context"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/dashboard"
)

// Aggregate computes a fresh snapshot for the student from live rows:
// mean progress score, latest published evaluation score, earliest
// upcoming confirmed session, and the open task count. The result is a
// pure function of the rows read, which keeps recomputation idempotent.
func Aggregate(ctx context.Context, u unitofwork.UnitOfWork, studentID string, now time.Time) (*dashboard.Snapshot, error) {
	avg, err := u.Progress().AverageScore(ctx, studentID)
	if err != nil {
		return nil, err
	}
	lastScore, err := u.Evaluations().LastScore(ctx, studentID)
	if err != nil {
		return nil, err
	}
	nextAt, err := u.Sessions().NextConfirmedStart(ctx, studentID, now)
	if err != nil {
		return nil, err
	}
	open, err := u.Tasks().CountOpen(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dashboard.Compute(studentID, dashboard.Inputs{
		ProgressAverage: avg,
		LastEvalScore:   lastScore,
		NextSessionAt:   nextAt,
		OpenTaskCount:   open,
	}, now), nil
}
