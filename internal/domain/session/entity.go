// Package session contains coaching session slots, their bookings, and the
// session status state machine.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// Kind is the delivery format of a session.
type Kind string

const (
	KindVisio      Kind = "Visio"
	KindPresentiel Kind = "Présentiel"
	KindStage      Kind = "Stage"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusPropose  Status = "Proposé"
	StatusConfirme Status = "Confirmé"
	StatusAnnule   Status = "Annulé"
)

// ParseKind coerces a case-insensitive name or value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visio":
		return KindVisio, nil
	case "présentiel", "presentiel":
		return KindPresentiel, nil
	case "stage":
		return KindStage, nil
	default:
		return "", shared.NewDomainError("session", "ParseKind", shared.ErrInvalidState, "unknown session kind: "+s)
	}
}

// ParseStatus coerces a case-insensitive name or value into a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "proposé", "propose":
		return StatusPropose, nil
	case "confirmé", "confirme":
		return StatusConfirme, nil
	case "annulé", "annule":
		return StatusAnnule, nil
	default:
		return "", shared.NewDomainError("session", "ParseStatus", shared.ErrInvalidState, "unknown session status: "+s)
	}
}

// Transition computes the next status for a requested change.
//
// Proposé → Confirmé → Annulé, plus the direct Proposé → Annulé shortcut.
// Annulé is terminal: requesting Annulé again returns changed=false rather
// than an error, so cancellation stays idempotent. Any other move out of a
// terminal or backward direction fails with shared.ErrStateTransition.
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

	switch current {
	case StatusPropose:
		// Both Confirmé and Annulé are reachable from Proposé.
		return requested, true, nil
	case StatusConfirme:
		if requested == StatusAnnule {
			return StatusAnnule, true, nil
		}
	case StatusAnnule:
		// Terminal; same-state was already handled above.
	}
	return current, false, shared.NewDomainError(
		"session", "Transition", shared.ErrStateTransition,
		"cannot move session from "+string(current)+" to "+string(requested),
	)
}

// Session is a bookable coaching slot.
type Session struct {
	ID         string
	StudentID  *string
	Kind       Kind
	Status     Status
	SlotStart  time.Time
	SlotEnd    time.Time
	CoachID    *string
	Capacity   int
	PriceCents int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New creates a proposed session for the given slot.
func New(kind Kind, slotStart, slotEnd time.Time) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusPropose,
		SlotStart: slotStart,
		SlotEnd:   slotEnd,
		Capacity:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks entity invariants before persistence.
func (s *Session) Validate() error {
	if _, err := ParseKind(string(s.Kind)); err != nil {
		return err
	}
	if _, err := ParseStatus(string(s.Status)); err != nil {
		return err
	}
	if s.Capacity < 1 {
		return shared.NewDomainError("session", "Validate", shared.ErrValueOutOfRange, "capacity must be at least 1")
	}
	if s.PriceCents < 0 {
		return shared.NewDomainError("session", "Validate", shared.ErrValueOutOfRange, "price cannot be negative")
	}
	if s.SlotEnd.Before(s.SlotStart) {
		return shared.NewDomainError("session", "Validate", shared.ErrInvalidInput, "slot end precedes slot start")
	}
	return nil
}

// Booking links a session to a student. A session has at most one active
// booking per student.
type Booking struct {
	ID        string
	SessionID string
	StudentID string
	Status    string
	CreatedAt time.Time
}

// BookingStatusActive is the status of a live booking; cancelled bookings
// keep their row with a terminal status string.
const (
	BookingStatusActive    = "active"
	BookingStatusCancelled = "cancelled"
)

// NewBooking creates an active booking for a session/student pair.
func NewBooking(sessionID, studentID string) *Booking {
	return &Booking{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		StudentID: studentID,
		Status:    BookingStatusActive,
		CreatedAt: time.Now().UTC(),
	}
}
