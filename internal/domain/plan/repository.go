package plan

import "context"

// Repository defines storage operations for exam plan rows.
type Repository interface {
	// Create inserts a new plan row.
	Create(ctx context.Context, p *EpreuvePlan) error

	// ListByStudent returns all plan rows of a student ordered by
	// scheduled date (unscheduled rows last).
	ListByStudent(ctx context.Context, studentID string) ([]*EpreuvePlan, error)

	// Update persists label, format, weight, schedule, and source.
	Update(ctx context.Context, p *EpreuvePlan) error

	// Delete removes a plan row.
	// Returns shared.ErrNotFound if the row does not exist.
	Delete(ctx context.Context, id string) error

	// DeleteBySource removes all rows of a student with the given
	// provenance and returns how many were deleted.
	DeleteBySource(ctx context.Context, studentID string, source Source) (int, error)
}
