// Package progress contains per-competence progress rows. Their average
// feeds the progressOverall KPI of the dashboard snapshot.
package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Progress is one scored chapter/competence entry for a student.
type Progress struct {
	ID             string
	StudentID      string
	Subject        string
	ChapterCode    string
	CompetenceCode *string
	Score          float64
	UpdatedAt      time.Time
}

// New creates a progress entry.
func New(studentID, subject, chapterCode string, score float64) *Progress {
	return &Progress{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		Subject:     subject,
		ChapterCode: chapterCode,
		Score:       score,
		UpdatedAt:   time.Now().UTC(),
	}
}

// Repository defines storage operations for progress rows.
type Repository interface {
	// Upsert inserts or refreshes the entry keyed by
	// (student, subject, chapter, competence).
	Upsert(ctx context.Context, p *Progress) error

	// ListByStudent returns progress entries, most recently updated first.
	ListByStudent(ctx context.Context, studentID string, limit int) ([]*Progress, error)

	// AverageScore returns the mean score of all entries for a student,
	// 0 when the student has none.
	AverageScore(ctx context.Context, studentID string) (float64, error)
}
