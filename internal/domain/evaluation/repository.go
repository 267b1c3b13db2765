package evaluation

import "context"

// Repository defines storage operations for evaluations.
type Repository interface {
	// Create inserts a new evaluation.
	Create(ctx context.Context, e *Evaluation) error

	// GetByID returns an evaluation by ID.
	// Returns shared.ErrNotFound if the evaluation does not exist.
	GetByID(ctx context.Context, id string) (*Evaluation, error)

	// ListByStudent returns all evaluations of a student, newest first.
	ListByStudent(ctx context.Context, studentID string) ([]*Evaluation, error)

	// Update persists status, score, and feedback payload.
	Update(ctx context.Context, e *Evaluation) error

	// LastScore returns the most recent non-nil score of a Corrigé
	// evaluation for the student, or nil when none exists.
	LastScore(ctx context.Context, studentID string) (*float64, error)
}
