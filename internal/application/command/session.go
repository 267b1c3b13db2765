package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/session"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION BOOKING
// ══════════════════════════════════════════════════════════════════════════════

// SessionService books and cancels coaching sessions.
type SessionService struct {
	store  unitofwork.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionService creates a session service.
func NewSessionService(store unitofwork.Store, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Book confirms a proposed session for a student: one booking row plus the
// Proposé → Confirmé move, in the same transaction. Booking a session the
// student already actively holds is an idempotent no-op and records no
// event. Booking an Annulé session fails with a state-transition error.
func (s *SessionService) Book(ctx context.Context, actor shared.ActorContext, sessionID, studentID string) (*session.Session, error) {
	if err := shared.EnsureAccess(actor, studentID); err != nil {
		return nil, err
	}

	var booked *session.Session
	err := s.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		if _, err := u.Students().GetByID(ctx, studentID); err != nil {
			return err
		}
		sess, err := u.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			return err
		}

		next, changed, err := session.Transition(sess.Status, session.StatusConfirme)
		if err != nil {
			return err
		}

		if !changed {
			// Already Confirmé. If this student holds the active booking,
			// repeating the call is a no-op; otherwise the slot is taken.
			if _, err := u.Sessions().GetActiveBooking(ctx, sess.ID, studentID); err == nil {
				booked = sess
				return nil
			} else if !shared.IsNotFound(err) {
				return err
			}
			return shared.NewDomainError("session", "Book", shared.ErrAlreadyExists,
				"session is already confirmed for another booking")
		}

		b := session.NewBooking(sess.ID, studentID)
		if err := u.Sessions().CreateBooking(ctx, b); err != nil {
			return err
		}

		sess.Status = next
		if sess.StudentID == nil {
			sid := studentID
			sess.StudentID = &sid
		}
		sess.UpdatedAt = s.now()
		if err := u.Sessions().Update(ctx, sess); err != nil {
			return err
		}

		e := audit.NewEvent(studentID, audit.SessionBooked, map[string]any{
			"sessionId": sess.ID,
			"slotStart": sess.SlotStart.Format(time.RFC3339),
		})
		if err := u.Events().Append(ctx, e); err != nil {
			return err
		}
		refresh := audit.NewEvent(studentID, audit.SummaryRefreshRequested, nil)
		if err := u.Events().Append(ctx, refresh); err != nil {
			return err
		}

		booked = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session booked",
		slog.String("session_id", sessionID),
		slog.String("student_id", studentID),
	)
	return booked, nil
}

// Cancel moves a session to Annulé and releases the student's active
// booking. Cancelling an already-Annulé session is an idempotent no-op:
// the call succeeds and records no event.
func (s *SessionService) Cancel(ctx context.Context, actor shared.ActorContext, sessionID string) (*session.Session, error) {
	var cancelled *session.Session
	err := s.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		sess, err := u.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			return err
		}

		studentID := ""
		if sess.StudentID != nil {
			studentID = *sess.StudentID
		}
		if err := shared.EnsureAccess(actor, studentID); err != nil {
			return err
		}

		next, changed, err := session.Transition(sess.Status, session.StatusAnnule)
		if err != nil {
			return err
		}
		if !changed {
			cancelled = sess
			return nil
		}

		sess.Status = next
		sess.UpdatedAt = s.now()
		if err := u.Sessions().Update(ctx, sess); err != nil {
			return err
		}

		if studentID != "" {
			if b, err := u.Sessions().GetActiveBooking(ctx, sess.ID, studentID); err == nil {
				b.Status = session.BookingStatusCancelled
				if err := u.Sessions().UpdateBooking(ctx, b); err != nil {
					return err
				}
			} else if !shared.IsNotFound(err) {
				return err
			}
		}

		e := audit.NewEvent(studentID, audit.SessionCancelled, map[string]any{"sessionId": sess.ID})
		if err := u.Events().Append(ctx, e); err != nil {
			return err
		}
		if studentID != "" {
			refresh := audit.NewEvent(studentID, audit.SummaryRefreshRequested, nil)
			if err := u.Events().Append(ctx, refresh); err != nil {
				return err
			}
		}

		cancelled = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}
