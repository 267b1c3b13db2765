// Package report contains generated parent reports.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Report is a rendered summary handed to a parent. The markdown body and
// the KPI map are both snapshots taken at generation time.
type Report struct {
	ID          string
	StudentID   string
	SummaryMD   string
	KPIs        map[string]any
	GeneratedAt time.Time
}

// New creates a report for a student.
func New(studentID, summaryMD string, kpis map[string]any) *Report {
	return &Report{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		SummaryMD:   summaryMD,
		KPIs:        kpis,
		GeneratedAt: time.Now().UTC(),
	}
}

// Repository defines storage operations for reports.
type Repository interface {
	// Create inserts a report row.
	Create(ctx context.Context, r *Report) error

	// ListByStudent returns reports for a student, newest first.
	ListByStudent(ctx context.Context, studentID string) ([]*Report, error)
}
