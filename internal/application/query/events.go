package query

import (
	"context"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Audit trail reads
// ─────────────────────────────────────────────────────────────────────────────

const defaultEventLimit = 50

// EventService serves the per-student audit trail.
type EventService struct {
	store unitofwork.Store
}

// NewEventService creates an event service.
func NewEventService(store unitofwork.Store) *EventService {
	return &EventService{store: store}
}

// ListEvents returns a student's audit events, newest first. Kind narrows
// the listing to one event kind; empty matches all. A non-positive limit
// falls back to the default page size.
func (s *EventService) ListEvents(ctx context.Context, actor shared.ActorContext, studentID string, kind audit.Kind, limit int) ([]*audit.Event, error) {
	if err := shared.EnsureAccess(actor, studentID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultEventLimit
	}
	return s.store.View().Events().ListByStudent(ctx, studentID, kind, limit)
}
