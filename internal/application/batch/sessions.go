package batch

import (
	"context"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/session"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BULK SESSION CANCELLATION
// ══════════════════════════════════════════════════════════════════════════════

// CancelSessions cancels the given sessions with per-item isolation.
// Cancelling an already-Annulé session is an idempotent no-op: the item
// reports "updated" but records no event.
func (p *Processor) CancelSessions(ctx context.Context, actor shared.ActorContext, sessionIDs []string) ([]Result, error) {
	items := make([]itemFunc, len(sessionIDs))
	for i, id := range sessionIDs {
		id := id
		items[i] = func(ctx context.Context, u unitofwork.UnitOfWork) (outcome, error) {
			return cancelSession(ctx, u, actor, id)
		}
	}
	return p.run(ctx, items)
}

func cancelSession(ctx context.Context, u unitofwork.UnitOfWork, actor shared.ActorContext, id string) (outcome, error) {
	s, err := u.Sessions().GetByID(ctx, id)
	if err != nil {
		return outcome{}, err
	}

	studentID := ""
	if s.StudentID != nil {
		studentID = *s.StudentID
	}
	if err := shared.EnsureAccess(actor, studentID); err != nil {
		return outcome{}, err
	}

	next, changed, err := session.Transition(s.Status, session.StatusAnnule)
	if err != nil {
		return outcome{}, err
	}
	if !changed {
		return outcome{status: StatusUpdated, id: s.ID, studentID: studentID, changed: false}, nil
	}

	s.Status = next
	s.UpdatedAt = time.Now().UTC()
	if err := u.Sessions().Update(ctx, s); err != nil {
		return outcome{}, err
	}

	// Release the student's active booking, if any.
	if studentID != "" {
		if b, err := u.Sessions().GetActiveBooking(ctx, s.ID, studentID); err == nil {
			b.Status = session.BookingStatusCancelled
			if err := u.Sessions().UpdateBooking(ctx, b); err != nil {
				return outcome{}, err
			}
		} else if !shared.IsNotFound(err) {
			return outcome{}, err
		}
	}

	e := audit.NewEvent(studentID, audit.SessionCancelled, map[string]any{"sessionId": s.ID})
	if err := u.Events().Append(ctx, e); err != nil {
		return outcome{}, err
	}

	return outcome{status: StatusUpdated, id: s.ID, studentID: studentID, changed: true}, nil
}
