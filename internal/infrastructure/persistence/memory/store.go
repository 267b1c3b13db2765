// Package memory implements the unit-of-work contracts on in-process maps.
// It mirrors the transactional behavior of the PostgreSQL store closely
// enough to exercise batch and sync semantics in tests: WithUnit commits
// all-or-nothing, and savepoints snapshot state so a rollback restores
// exactly what the savepoint saw at begin time.
package memory

import (
	"context"
	"sync"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/dashboard"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/evaluation"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/plan"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/progress"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/report"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/session"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/task"
)

// state holds every table. All access goes through the owning Store's
// mutex; entities are copied on the way in and out so callers never alias
// stored values.
type state struct {
	students    map[string]*student.Student
	tasks       map[string]*task.Task
	sessions    map[string]*session.Session
	bookings    map[string]*session.Booking
	evaluations map[string]*evaluation.Evaluation
	plans       map[string]*plan.EpreuvePlan
	progress    map[string]*progress.Progress
	reports     map[string]*report.Report
	events      []*audit.Event
	snapshots   map[string]*dashboard.Snapshot
}

func newState() *state {
	return &state{
		students:    map[string]*student.Student{},
		tasks:       map[string]*task.Task{},
		sessions:    map[string]*session.Session{},
		bookings:    map[string]*session.Booking{},
		evaluations: map[string]*evaluation.Evaluation{},
		plans:       map[string]*plan.EpreuvePlan{},
		progress:    map[string]*progress.Progress{},
		reports:     map[string]*report.Report{},
		snapshots:   map[string]*dashboard.Snapshot{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.students {
		c.students[k] = copyStudent(v)
	}
	for k, v := range s.tasks {
		c.tasks[k] = copyTask(v)
	}
	for k, v := range s.sessions {
		c.sessions[k] = copySession(v)
	}
	for k, v := range s.bookings {
		c.bookings[k] = copyBooking(v)
	}
	for k, v := range s.evaluations {
		c.evaluations[k] = copyEvaluation(v)
	}
	for k, v := range s.plans {
		c.plans[k] = copyPlan(v)
	}
	for k, v := range s.progress {
		c.progress[k] = copyProgress(v)
	}
	for k, v := range s.reports {
		c.reports[k] = copyReport(v)
	}
	c.events = make([]*audit.Event, len(s.events))
	for i, e := range s.events {
		c.events[i] = copyEvent(e)
	}
	for k, v := range s.snapshots {
		c.snapshots[k] = copySnapshot(v)
	}
	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store implements unitofwork.Store in memory.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// WithUnit runs fn against a working copy of the state. The copy replaces
// the live state only when fn returns nil, so an escaping error discards
// every write made through the unit.
func (s *Store) WithUnit(ctx context.Context, fn func(ctx context.Context, u unitofwork.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	if err := fn(ctx, &unit{st: working, inTx: true}); err != nil {
		return err
	}

	s.st = working
	return nil
}

// View returns a unit bound to the live state. Reads only; opening a
// savepoint on a view fails like it does on the pool-bound postgres view.
func (s *Store) View() unitofwork.UnitOfWork {
	return &unit{st: s.st}
}

// unit hands out repositories over one state instance.
type unit struct {
	st   *state
	inTx bool
}

func (u *unit) Students() student.Repository       { return &studentRepo{u.st} }
func (u *unit) Tasks() task.Repository             { return &taskRepo{u.st} }
func (u *unit) Sessions() session.Repository       { return &sessionRepo{u.st} }
func (u *unit) Evaluations() evaluation.Repository { return &evaluationRepo{u.st} }
func (u *unit) Plans() plan.Repository             { return &planRepo{u.st} }
func (u *unit) Progress() progress.Repository      { return &progressRepo{u.st} }
func (u *unit) Reports() report.Repository         { return &reportRepo{u.st} }
func (u *unit) Events() audit.Log                  { return &eventLog{u.st} }
func (u *unit) Snapshots() dashboard.Repository    { return &snapshotRepo{u.st} }

// BeginSavepoint snapshots the unit's state. The savepoint writes through
// to the same state; Rollback restores the snapshot taken here.
func (u *unit) BeginSavepoint(ctx context.Context) (unitofwork.Savepoint, error) {
	if !u.inTx {
		return nil, shared.NewDomainError("memory", "BeginSavepoint", shared.ErrInvalidState, "cannot open a savepoint outside a transaction")
	}

	return &savepoint{
		unit:  &unit{st: u.st, inTx: true},
		saved: u.st.clone(),
	}, nil
}

type savepoint struct {
	*unit
	saved *state
	done  bool
}

// Commit keeps the writes made since the savepoint was opened.
func (sp *savepoint) Commit(ctx context.Context) error {
	if sp.done {
		return shared.NewDomainError("memory", "Commit", shared.ErrInvalidState, "savepoint already finished")
	}
	sp.done = true
	return nil
}

// Rollback restores the state captured when the savepoint was opened.
func (sp *savepoint) Rollback(ctx context.Context) error {
	if sp.done {
		return shared.NewDomainError("memory", "Rollback", shared.ErrInvalidState, "savepoint already finished")
	}
	sp.done = true
	*sp.st = *sp.saved
	return nil
}
