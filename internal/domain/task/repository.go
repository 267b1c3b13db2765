package task

import "context"

// Repository defines storage operations for tasks. Implementations live in
// infrastructure/persistence and are scoped to the caller's transaction by
// the unit of work that hands them out.
type Repository interface {
	// Create inserts a new task.
	Create(ctx context.Context, t *Task) error

	// GetByID returns a task by ID.
	// Returns shared.ErrNotFound if the task does not exist.
	GetByID(ctx context.Context, id string) (*Task, error)

	// ListByStudent returns all tasks of a student, newest first.
	ListByStudent(ctx context.Context, studentID string) ([]*Task, error)

	// Update persists all mutable fields of a task.
	// Returns shared.ErrNotFound if the task does not exist.
	Update(ctx context.Context, t *Task) error

	// Delete removes a task permanently.
	// Returns shared.ErrNotFound if the task does not exist.
	Delete(ctx context.Context, id string) error

	// CountOpen returns the number of Todo tasks for a student.
	CountOpen(ctx context.Context, studentID string) (int, error)
}
