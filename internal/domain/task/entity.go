// Package task contains the task entity and its status state machine.
// Tasks are owned by a student and created by sync/coach logic or direct
// CRUD; they are never hard-deleted by background workers.
package task

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo    Status = "Todo"
	StatusDone    Status = "Done"
	StatusSkipped Status = "Skipped"
)

// Source marks who created a task.
type Source string

const (
	SourceAgent  Source = "Agent"
	SourceCoach  Source = "Coach"
	SourceSystem Source = "System"
)

// ParseStatus coerces a case-insensitive name or value into a Status.
// Unknown strings fail with shared.ErrInvalidState.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo":
		return StatusTodo, nil
	case "done":
		return StatusDone, nil
	case "skipped":
		return StatusSkipped, nil
	default:
		return "", shared.NewDomainError("task", "ParseStatus", shared.ErrInvalidState, "unknown task status: "+s)
	}
}

// ParseSource coerces a case-insensitive name or value into a Source.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "agent":
		return SourceAgent, nil
	case "coach":
		return SourceCoach, nil
	case "system":
		return SourceSystem, nil
	default:
		return "", shared.NewDomainError("task", "ParseSource", shared.ErrInvalidState, "unknown task source: "+s)
	}
}

// Transition computes the next status for a requested change.
//
// Allowed moves: Todo ⇄ Done, Todo ⇄ Skipped, and Done/Skipped → Todo
// (reopen). Requesting the current status is a no-op with changed=false.
// Side effects (event emission, refresh request) belong to the caller and
// must only happen when changed is true.
func Transition(current, requested Status) (next Status, changed bool, err error) {
	if _, err := ParseStatus(string(current)); err != nil {
		return current, false, err
	}
	if _, err := ParseStatus(string(requested)); err != nil {
		return current, false, err
	}
	if current == requested {
		return current, false, nil
	}
	// Every pair of distinct valid statuses is reachable: Todo opens to
	// Done/Skipped, both of which reopen to Todo, and Done ⇄ Skipped passes
	// through the same correction semantics.
	return requested, true, nil
}

// Task is a unit of work on a student's plan.
type Task struct {
	ID        string
	StudentID string
	Label     string
	DueAt     *time.Time
	Weight    float64
	Status    Status
	Source    Source
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a Todo task with schema defaults.
func New(studentID, label string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Label:     label,
		Weight:    1.0,
		Status:    StatusTodo,
		Source:    SourceAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks entity invariants before persistence.
func (t *Task) Validate() error {
	if t.StudentID == "" {
		return shared.NewDomainError("task", "Validate", shared.ErrEmptyValue, "student id is required")
	}
	if strings.TrimSpace(t.Label) == "" {
		return shared.NewDomainError("task", "Validate", shared.ErrEmptyValue, "label is required")
	}
	if len(t.Label) > 300 {
		return shared.NewDomainError("task", "Validate", shared.ErrValueOutOfRange, "label exceeds 300 characters")
	}
	if t.Weight < 0 {
		return shared.NewDomainError("task", "Validate", shared.ErrValueOutOfRange, "weight cannot be negative")
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return err
	}
	if _, err := ParseSource(string(t.Source)); err != nil {
		return err
	}
	return nil
}

// IsOpen reports whether the task still needs work.
func (t *Task) IsOpen() bool {
	return t.Status == StatusTodo
}
