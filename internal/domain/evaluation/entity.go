// Package evaluation contains generated evaluations, their grading state
// machine, and the append-only feedback payload.
package evaluation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// Status is the lifecycle state of an evaluation.
type Status string

const (
	StatusPropose Status = "Proposé"
	StatusSoumis  Status = "Soumis"
	StatusCorrige Status = "Corrigé"
)

// ParseStatus coerces a case-insensitive name or value into a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "proposé", "propose":
		return StatusPropose, nil
	case "soumis":
		return StatusSoumis, nil
	case "corrigé", "corrige":
		return StatusCorrige, nil
	default:
		return "", shared.NewDomainError("evaluation", "ParseStatus", shared.ErrInvalidState, "unknown evaluation status: "+s)
	}
}

// Transition computes the next status for a requested change.
//
// Proposé → Soumis (submission) → Corrigé (grading). Corrigé is terminal.
// Requesting the current status is a no-op with changed=false.
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

	switch {
	case current == StatusPropose && requested == StatusSoumis:
		return StatusSoumis, true, nil
	case current == StatusSoumis && requested == StatusCorrige:
		return StatusCorrige, true, nil
	}
	return current, false, shared.NewDomainError(
		"evaluation", "Transition", shared.ErrStateTransition,
		"cannot move evaluation from "+string(current)+" to "+string(requested),
	)
}

// FeedbackPayload is the structured feedback blob attached to an
// evaluation. Each phase appends: submissions grow on submit, history grows
// on grading, items are replaced wholesale by the latest grading pass.
type FeedbackPayload struct {
	Meta        map[string]any   `json:"meta,omitempty"`
	History     []map[string]any `json:"history,omitempty"`
	Submissions []map[string]any `json:"submissions,omitempty"`
	Items       []map[string]any `json:"items,omitempty"`
}

// Evaluation is a generated assessment for a student.
type Evaluation struct {
	ID          string
	StudentID   string
	Subject     string
	Generator   string
	DurationMin int
	Status      Status
	Score20     *float64
	Feedback    FeedbackPayload
	CreatedAt   time.Time
}

// New creates a proposed evaluation.
func New(studentID, subject, generator string, durationMin int) *Evaluation {
	return &Evaluation{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		Subject:     subject,
		Generator:   generator,
		DurationMin: durationMin,
		Status:      StatusPropose,
		Feedback:    FeedbackPayload{},
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate checks entity invariants before persistence.
func (e *Evaluation) Validate() error {
	if e.StudentID == "" {
		return shared.NewDomainError("evaluation", "Validate", shared.ErrEmptyValue, "student id is required")
	}
	if strings.TrimSpace(e.Subject) == "" {
		return shared.NewDomainError("evaluation", "Validate", shared.ErrEmptyValue, "subject is required")
	}
	if e.DurationMin <= 0 {
		return shared.NewDomainError("evaluation", "Validate", shared.ErrValueOutOfRange, "duration must be positive")
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return err
	}
	if e.Score20 != nil && (*e.Score20 < 0 || *e.Score20 > 20) {
		return shared.NewDomainError("evaluation", "Validate", shared.ErrValueOutOfRange, "score must be within [0, 20]")
	}
	return nil
}

// Submit records a student submission and moves the evaluation to Soumis.
// Returns changed=false without touching the payload when the evaluation is
// already Soumis; a Corrigé evaluation rejects the submission with a
// state-transition error.
func (e *Evaluation) Submit(submission map[string]any) (changed bool, err error) {
	next, changed, err := Transition(e.Status, StatusSoumis)
	if err != nil || !changed {
		return changed, err
	}
	e.Status = next
	e.Feedback.Submissions = append(e.Feedback.Submissions, submission)
	return true, nil
}

// Grade applies a manual grading pass: moves the evaluation to Corrigé,
// appends the pass to history, and replaces items. Manual grading may
// overwrite an already-Corrigé evaluation; that asymmetry with AutoGrade is
// deliberate, coaches must be able to correct a published grade.
func (e *Evaluation) Grade(score20 float64, items []map[string]any) (changed bool, err error) {
	if score20 < 0 || score20 > 20 {
		return false, shared.NewDomainError("evaluation", "Grade", shared.ErrValueOutOfRange, "score must be within [0, 20]")
	}
	if e.Status != StatusCorrige {
		next, moved, err := Transition(e.Status, StatusCorrige)
		if err != nil || !moved {
			return moved, err
		}
		e.Status = next
	}
	e.Score20 = &score20
	e.Feedback.History = append(e.Feedback.History, map[string]any{
		"score_20":  score20,
		"graded_at": time.Now().UTC().Format(time.RFC3339),
	})
	e.Feedback.Items = items
	return true, nil
}

// AutoGrade applies the automated grading path. Unlike Grade it is a strict
// no-op on an already-Corrigé evaluation: the record is returned unchanged
// and no event must be emitted.
func (e *Evaluation) AutoGrade(score20 float64, items []map[string]any) (changed bool, err error) {
	if e.Status == StatusCorrige {
		return false, nil
	}
	return e.Grade(score20, items)
}
