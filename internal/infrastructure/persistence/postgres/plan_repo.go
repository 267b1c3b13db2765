package postgres

import (
	"context"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/plan"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// PlanRepository implements plan.Repository on PostgreSQL.
type PlanRepository struct {
	q Querier
}

// NewPlanRepository creates a repository bound to the given querier.
func NewPlanRepository(q Querier) *PlanRepository {
	return &PlanRepository{q: q}
}

const planColumns = `id, student_id, code, label, weight, scheduled_at, format, source, created_at`

func scanPlan(row interface{ Scan(dest ...any) error }) (*plan.EpreuvePlan, error) {
	p := &plan.EpreuvePlan{}
	var source string

	err := row.Scan(
		&p.ID, &p.StudentID, &p.Code, &p.Label, &p.Weight,
		&p.ScheduledAt, &p.Format, &source, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Source = plan.Source(source)
	return p, nil
}

// Create inserts a new plan row.
func (r *PlanRepository) Create(ctx context.Context, p *plan.EpreuvePlan) error {
	query := `
		INSERT INTO epreuves_plan (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.Exec(ctx, query,
		p.ID, p.StudentID, p.Code, p.Label, p.Weight,
		p.ScheduledAt, p.Format, string(p.Source), p.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.WrapError("plan", "Create", shared.ErrNotFound, "student not found: "+p.StudentID, err)
		}
		return shared.WrapError("plan", "Create", shared.ErrInfrastructure, "failed to insert plan row", err)
	}

	return nil
}

// ListByStudent returns all plan rows of a student, scheduled first.
func (r *PlanRepository) ListByStudent(ctx context.Context, studentID string) ([]*plan.EpreuvePlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM epreuves_plan
		WHERE student_id = $1
		ORDER BY scheduled_at ASC NULLS LAST, code ASC
	`

	rows, err := r.q.Query(ctx, query, studentID)
	if err != nil {
		return nil, shared.WrapError("plan", "ListByStudent", shared.ErrInfrastructure, "failed to list plan rows", err)
	}
	defer rows.Close()

	var plans []*plan.EpreuvePlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, shared.WrapError("plan", "ListByStudent", shared.ErrInfrastructure, "failed to scan plan row", err)
		}
		plans = append(plans, p)
	}

	return plans, rows.Err()
}

// Update persists label, format, weight, schedule, and source.
func (r *PlanRepository) Update(ctx context.Context, p *plan.EpreuvePlan) error {
	query := `
		UPDATE epreuves_plan
		SET label = $2, weight = $3, scheduled_at = $4, format = $5, source = $6
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		p.ID, p.Label, p.Weight, p.ScheduledAt, p.Format, string(p.Source),
	)
	if err != nil {
		return shared.WrapError("plan", "Update", shared.ErrInfrastructure, "failed to update plan row", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("plan", "Update", shared.ErrNotFound, "plan row not found: "+p.ID)
	}

	return nil
}

// Delete removes a plan row.
func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM epreuves_plan WHERE id = $1`, id)
	if err != nil {
		return shared.WrapError("plan", "Delete", shared.ErrInfrastructure, "failed to delete plan row", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("plan", "Delete", shared.ErrNotFound, "plan row not found: "+id)
	}

	return nil
}

// DeleteBySource removes all rows of a student with the given provenance.
func (r *PlanRepository) DeleteBySource(ctx context.Context, studentID string, source plan.Source) (int, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM epreuves_plan WHERE student_id = $1 AND source = $2`,
		studentID, string(source),
	)
	if err != nil {
		return 0, shared.WrapError("plan", "DeleteBySource", shared.ErrInfrastructure, "failed to delete plan rows", err)
	}

	return int(tag.RowsAffected()), nil
}
