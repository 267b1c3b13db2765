package postgres

import (
	"context"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/session"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// SessionRepository implements session.Repository on PostgreSQL.
type SessionRepository struct {
	q Querier
}

// NewSessionRepository creates a repository bound to the given querier.
func NewSessionRepository(q Querier) *SessionRepository {
	return &SessionRepository{q: q}
}

const sessionColumns = `id, student_id, kind, status, slot_start, slot_end, coach_id, capacity, price_cents, created_at, updated_at`

func scanSession(row interface{ Scan(dest ...any) error }) (*session.Session, error) {
	s := &session.Session{}
	var kind, status string

	err := row.Scan(
		&s.ID, &s.StudentID, &kind, &status,
		&s.SlotStart, &s.SlotEnd, &s.CoachID,
		&s.Capacity, &s.PriceCents, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Kind = session.Kind(kind)
	s.Status = session.Status(status)
	return s, nil
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.Exec(ctx, query,
		s.ID, s.StudentID, string(s.Kind), string(s.Status),
		s.SlotStart, s.SlotEnd, s.CoachID,
		s.Capacity, s.PriceCents, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("session", "Create", shared.ErrAlreadyExists, "session already exists", err)
		}
		return shared.WrapError("session", "Create", shared.ErrInfrastructure, "failed to insert session", err)
	}

	return nil
}

// GetByID returns a session by ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	s, err := scanSession(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("session", "GetByID", shared.ErrNotFound, "session not found: "+id)
		}
		return nil, shared.WrapError("session", "GetByID", shared.ErrInfrastructure, "failed to query session", err)
	}

	return s, nil
}

// Update persists all mutable fields of a session.
func (r *SessionRepository) Update(ctx context.Context, s *session.Session) error {
	query := `
		UPDATE sessions
		SET student_id = $2, kind = $3, status = $4, slot_start = $5, slot_end = $6,
		    coach_id = $7, capacity = $8, price_cents = $9, updated_at = $10
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		s.ID, s.StudentID, string(s.Kind), string(s.Status),
		s.SlotStart, s.SlotEnd, s.CoachID,
		s.Capacity, s.PriceCents, s.UpdatedAt,
	)
	if err != nil {
		return shared.WrapError("session", "Update", shared.ErrInfrastructure, "failed to update session", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("session", "Update", shared.ErrNotFound, "session not found: "+s.ID)
	}

	return nil
}

// NextConfirmedStart returns the earliest Confirmé slot start at or after
// the given instant, looking at both directly assigned sessions and active
// bookings of the student.
func (r *SessionRepository) NextConfirmedStart(ctx context.Context, studentID string, after time.Time) (*time.Time, error) {
	query := `
		SELECT MIN(s.slot_start)
		FROM sessions s
		LEFT JOIN bookings b ON b.session_id = s.id AND b.status = $3
		WHERE s.status = $4
		  AND s.slot_start >= $2
		  AND (s.student_id = $1 OR b.student_id = $1)
	`

	var next *time.Time
	err := r.q.QueryRow(ctx, query,
		studentID, after,
		session.BookingStatusActive, string(session.StatusConfirme),
	).Scan(&next)
	if err != nil {
		return nil, shared.WrapError("session", "NextConfirmedStart", shared.ErrInfrastructure, "failed to query next session", err)
	}

	return next, nil
}

// CreateBooking inserts a booking row.
func (r *SessionRepository) CreateBooking(ctx context.Context, b *session.Booking) error {
	query := `
		INSERT INTO bookings (id, session_id, student_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.Exec(ctx, query, b.ID, b.SessionID, b.StudentID, b.Status, b.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("session", "CreateBooking", shared.ErrAlreadyExists, "active booking already exists", err)
		}
		if IsForeignKeyViolation(err) {
			return shared.WrapError("session", "CreateBooking", shared.ErrNotFound, "session or student not found", err)
		}
		return shared.WrapError("session", "CreateBooking", shared.ErrInfrastructure, "failed to insert booking", err)
	}

	return nil
}

// GetActiveBooking returns the active booking of a student for a session.
func (r *SessionRepository) GetActiveBooking(ctx context.Context, sessionID, studentID string) (*session.Booking, error) {
	query := `
		SELECT id, session_id, student_id, status, created_at
		FROM bookings
		WHERE session_id = $1 AND student_id = $2 AND status = $3
	`

	b := &session.Booking{}
	err := r.q.QueryRow(ctx, query, sessionID, studentID, session.BookingStatusActive).Scan(
		&b.ID, &b.SessionID, &b.StudentID, &b.Status, &b.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("session", "GetActiveBooking", shared.ErrNotFound, "no active booking")
		}
		return nil, shared.WrapError("session", "GetActiveBooking", shared.ErrInfrastructure, "failed to query booking", err)
	}

	return b, nil
}

// UpdateBooking persists a booking's status.
func (r *SessionRepository) UpdateBooking(ctx context.Context, b *session.Booking) error {
	tag, err := r.q.Exec(ctx, `UPDATE bookings SET status = $2 WHERE id = $1`, b.ID, b.Status)
	if err != nil {
		return shared.WrapError("session", "UpdateBooking", shared.ErrInfrastructure, "failed to update booking", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("session", "UpdateBooking", shared.ErrNotFound, "booking not found: "+b.ID)
	}

	return nil
}
