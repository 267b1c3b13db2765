package student

import "context"

// Repository defines storage operations for students. Implementations live
// in infrastructure/persistence.
type Repository interface {
	// Create inserts a new student.
	Create(ctx context.Context, s *Student) error

	// GetByID returns a student by ID.
	// Returns shared.ErrNotFound if the student does not exist.
	GetByID(ctx context.Context, id string) (*Student, error)

	// Update persists track, profile, and option lists.
	Update(ctx context.Context, s *Student) error

	// ListIDs returns all student IDs. Used by full-population refreshes.
	ListIDs(ctx context.Context) ([]string, error)
}
