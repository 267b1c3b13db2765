package postgres

import (
	"context"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/progress"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// ProgressRepository implements progress.Repository on PostgreSQL.
type ProgressRepository struct {
	q Querier
}

// NewProgressRepository creates a repository bound to the given querier.
func NewProgressRepository(q Querier) *ProgressRepository {
	return &ProgressRepository{q: q}
}

// Upsert inserts or refreshes the entry keyed by
// (student, subject, chapter, competence).
func (r *ProgressRepository) Upsert(ctx context.Context, p *progress.Progress) error {
	query := `
		INSERT INTO progress (id, student_id, subject, chapter_code, competence_code, score, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, subject, chapter_code, COALESCE(competence_code, ''))
		DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.Exec(ctx, query,
		p.ID, p.StudentID, p.Subject, p.ChapterCode, p.CompetenceCode,
		p.Score, p.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.WrapError("progress", "Upsert", shared.ErrNotFound, "student not found: "+p.StudentID, err)
		}
		return shared.WrapError("progress", "Upsert", shared.ErrInfrastructure, "failed to upsert progress", err)
	}

	return nil
}

// ListByStudent returns progress entries, most recently updated first.
func (r *ProgressRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]*progress.Progress, error) {
	query := `
		SELECT id, student_id, subject, chapter_code, competence_code, score, updated_at
		FROM progress
		WHERE student_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, studentID, limit)
	if err != nil {
		return nil, shared.WrapError("progress", "ListByStudent", shared.ErrInfrastructure, "failed to list progress", err)
	}
	defer rows.Close()

	var entries []*progress.Progress
	for rows.Next() {
		p := &progress.Progress{}
		err := rows.Scan(
			&p.ID, &p.StudentID, &p.Subject, &p.ChapterCode,
			&p.CompetenceCode, &p.Score, &p.UpdatedAt,
		)
		if err != nil {
			return nil, shared.WrapError("progress", "ListByStudent", shared.ErrInfrastructure, "failed to scan progress", err)
		}
		entries = append(entries, p)
	}

	return entries, rows.Err()
}

// AverageScore returns the mean score of all entries for a student.
func (r *ProgressRepository) AverageScore(ctx context.Context, studentID string) (float64, error) {
	query := `SELECT COALESCE(AVG(score), 0) FROM progress WHERE student_id = $1`

	var avg float64
	err := r.q.QueryRow(ctx, query, studentID).Scan(&avg)
	if err != nil {
		return 0, shared.WrapError("progress", "AverageScore", shared.ErrInfrastructure, "failed to average progress", err)
	}

	return avg, nil
}
