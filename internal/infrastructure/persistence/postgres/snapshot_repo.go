package postgres

import (
	"context"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/dashboard"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// SnapshotRepository implements dashboard.Repository on PostgreSQL. One row
// per student, replaced wholesale on every refresh.
type SnapshotRepository struct {
	q Querier
}

// NewSnapshotRepository creates a repository bound to the given querier.
func NewSnapshotRepository(q Querier) *SnapshotRepository {
	return &SnapshotRepository{q: q}
}

// Get returns the snapshot for a student.
func (r *SnapshotRepository) Get(ctx context.Context, studentID string) (*dashboard.Snapshot, error) {
	query := `
		SELECT student_id, progress_overall, last_eval_score, next_session_at, tasks_open_count, refreshed_at
		FROM dashboard_summary_snapshots
		WHERE student_id = $1
	`

	s := &dashboard.Snapshot{}
	err := r.q.QueryRow(ctx, query, studentID).Scan(
		&s.StudentID, &s.ProgressOverall, &s.LastEvalScore,
		&s.NextSessionAt, &s.TasksOpenCount, &s.RefreshedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("dashboard", "Get", shared.ErrNotFound, "no snapshot for student: "+studentID)
		}
		return nil, shared.WrapError("dashboard", "Get", shared.ErrInfrastructure, "failed to query snapshot", err)
	}

	return s, nil
}

// Write upserts the snapshot row.
func (r *SnapshotRepository) Write(ctx context.Context, s *dashboard.Snapshot) error {
	query := `
		INSERT INTO dashboard_summary_snapshots
			(student_id, progress_overall, last_eval_score, next_session_at, tasks_open_count, refreshed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id) DO UPDATE SET
			progress_overall = EXCLUDED.progress_overall,
			last_eval_score = EXCLUDED.last_eval_score,
			next_session_at = EXCLUDED.next_session_at,
			tasks_open_count = EXCLUDED.tasks_open_count,
			refreshed_at = EXCLUDED.refreshed_at
	`

	_, err := r.q.Exec(ctx, query,
		s.StudentID, s.ProgressOverall, s.LastEvalScore,
		s.NextSessionAt, s.TasksOpenCount, s.RefreshedAt,
	)
	if err != nil {
		return shared.WrapError("dashboard", "Write", shared.ErrInfrastructure, "failed to write snapshot", err)
	}

	return nil
}
