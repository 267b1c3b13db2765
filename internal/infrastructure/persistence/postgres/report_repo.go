package postgres

import (
	"context"
	"encoding/json"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/report"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// ReportRepository implements report.Repository on PostgreSQL.
type ReportRepository struct {
	q Querier
}

// NewReportRepository creates a repository bound to the given querier.
func NewReportRepository(q Querier) *ReportRepository {
	return &ReportRepository{q: q}
}

// Create inserts a report row.
func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	kpis, err := json.Marshal(rep.KPIs)
	if err != nil {
		return shared.WrapError("report", "Create", shared.ErrInvalidInput, "failed to encode kpis", err)
	}

	query := `
		INSERT INTO reports (id, student_id, summary_md, kpis_json, generated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.q.Exec(ctx, query, rep.ID, rep.StudentID, rep.SummaryMD, kpis, rep.GeneratedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.WrapError("report", "Create", shared.ErrNotFound, "student not found: "+rep.StudentID, err)
		}
		return shared.WrapError("report", "Create", shared.ErrInfrastructure, "failed to insert report", err)
	}

	return nil
}

// ListByStudent returns reports for a student, newest first.
func (r *ReportRepository) ListByStudent(ctx context.Context, studentID string) ([]*report.Report, error) {
	query := `
		SELECT id, student_id, summary_md, kpis_json, generated_at
		FROM reports
		WHERE student_id = $1
		ORDER BY generated_at DESC
	`

	rows, err := r.q.Query(ctx, query, studentID)
	if err != nil {
		return nil, shared.WrapError("report", "ListByStudent", shared.ErrInfrastructure, "failed to list reports", err)
	}
	defer rows.Close()

	var reports []*report.Report
	for rows.Next() {
		rep := &report.Report{}
		var kpis []byte

		if err := rows.Scan(&rep.ID, &rep.StudentID, &rep.SummaryMD, &kpis, &rep.GeneratedAt); err != nil {
			return nil, shared.WrapError("report", "ListByStudent", shared.ErrInfrastructure, "failed to scan report", err)
		}
		if len(kpis) > 0 {
			if err := json.Unmarshal(kpis, &rep.KPIs); err != nil {
				return nil, shared.WrapError("report", "ListByStudent", shared.ErrInfrastructure, "failed to decode kpis", err)
			}
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}
