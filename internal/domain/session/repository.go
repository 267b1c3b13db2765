package session

import (
	"context"
	"time"
)

// Repository defines storage operations for sessions and bookings.
type Repository interface {
	// Create inserts a new session.
	Create(ctx context.Context, s *Session) error

	// GetByID returns a session by ID.
	// Returns shared.ErrNotFound if the session does not exist.
	GetByID(ctx context.Context, id string) (*Session, error)

	// Update persists all mutable fields of a session.
	Update(ctx context.Context, s *Session) error

	// NextConfirmedStart returns the earliest slot start among Confirmé
	// sessions booked by the student at or after the given instant.
	// Returns nil when there is none.
	NextConfirmedStart(ctx context.Context, studentID string, after time.Time) (*time.Time, error)

	// CreateBooking inserts a booking row.
	// Returns shared.ErrAlreadyExists when the student already holds an
	// active booking for the session.
	CreateBooking(ctx context.Context, b *Booking) error

	// GetActiveBooking returns the active booking of a student for a
	// session, or shared.ErrNotFound.
	GetActiveBooking(ctx context.Context, sessionID, studentID string) (*Booking, error)

	// UpdateBooking persists a booking's status.
	UpdateBooking(ctx context.Context, b *Booking) error
}
