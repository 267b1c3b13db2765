// Package audit contains the append-only event log. Event rows are the
// single durable record of "a mutation happened"; they are never updated
// or deleted, and every client-observable state change must be paired with
// exactly one event in the same transaction.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Kind is a stable event kind string. Renaming any of these requires a
// migration plan for stored rows and downstream consumers.
type Kind string

const (
	TaskCreated       Kind = "TASK_CREATED"
	TaskUpdated       Kind = "TASK_UPDATED"
	TaskDeleted       Kind = "TASK_DELETED"
	TaskStatusUpdated Kind = "TASK_STATUS_UPDATED"

	SessionBooked    Kind = "SESSION_BOOKED"
	SessionCancelled Kind = "SESSION_CANCELLED"

	EvalGenerated  Kind = "EVAL_GENERATED"
	EvalSubmitted  Kind = "EVAL_SUBMITTED"
	EvalGraded     Kind = "EVAL_GRADED"
	EvalAutoGraded Kind = "EVAL_AUTO_GRADED"

	EpreuvesPlanSynced Kind = "EPREUVES_PLAN_SYNCED"
	EpreuvesSynced     Kind = "EPREUVES_SYNCED"
	CoachTasksSynced   Kind = "COACH_TASKS_SYNCED"

	ParentReportGenerated Kind = "PARENT_REPORT_GENERATED"

	SummaryRefreshRequested Kind = "DASHBOARD_SUMMARY_REFRESH_REQUESTED"
	SummaryRefreshCompleted Kind = "DASHBOARD_SUMMARY_REFRESH_COMPLETED"
)

// Event is one immutable audit row.
type Event struct {
	ID         string
	StudentID  string
	Kind       Kind
	Payload    map[string]any
	OccurredAt time.Time
}

// NewEvent creates an event stamped with the current time.
func NewEvent(studentID string, kind Kind, payload map[string]any) *Event {
	if payload == nil {
		payload = map[string]any{}
	}
	return &Event{
		ID:         uuid.NewString(),
		StudentID:  studentID,
		Kind:       kind,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}
