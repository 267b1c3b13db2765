package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

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

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

// Store implements unitofwork.Store on a PostgreSQL connection pool.
type Store struct {
	conn *Connection
}

// NewStore creates a store backed by the given connection.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn}
}

// WithUnit runs fn inside one read-write transaction. Commits when fn
// returns nil, rolls back the whole transaction otherwise.
func (s *Store) WithUnit(ctx context.Context, fn func(ctx context.Context, u unitofwork.UnitOfWork) error) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, newUnit(tx, tx))
	})
}

// View returns a unit bound to the pool, outside any transaction.
func (s *Store) View() unitofwork.UnitOfWork {
	return newUnit(s.conn.Pool(), nil)
}

// unit hands out repositories bound to one querier. When tx is nil the
// unit is a read-only view and cannot open savepoints.
type unit struct {
	q  Querier
	tx pgx.Tx

	students    *StudentRepository
	tasks       *TaskRepository
	sessions    *SessionRepository
	evaluations *EvaluationRepository
	plans       *PlanRepository
	progress    *ProgressRepository
	reports     *ReportRepository
	events      *EventLog
	snapshots   *SnapshotRepository
}

func newUnit(q Querier, tx pgx.Tx) *unit {
	return &unit{
		q:           q,
		tx:          tx,
		students:    NewStudentRepository(q),
		tasks:       NewTaskRepository(q),
		sessions:    NewSessionRepository(q),
		evaluations: NewEvaluationRepository(q),
		plans:       NewPlanRepository(q),
		progress:    NewProgressRepository(q),
		reports:     NewReportRepository(q),
		events:      NewEventLog(q),
		snapshots:   NewSnapshotRepository(q),
	}
}

func (u *unit) Students() student.Repository       { return u.students }
func (u *unit) Tasks() task.Repository             { return u.tasks }
func (u *unit) Sessions() session.Repository       { return u.sessions }
func (u *unit) Evaluations() evaluation.Repository { return u.evaluations }
func (u *unit) Plans() plan.Repository             { return u.plans }
func (u *unit) Progress() progress.Repository      { return u.progress }
func (u *unit) Reports() report.Repository         { return u.reports }
func (u *unit) Events() audit.Log                  { return u.events }
func (u *unit) Snapshots() dashboard.Repository    { return u.snapshots }

// BeginSavepoint opens a nested transaction. pgx issues a SAVEPOINT when
// Begin is called on an open transaction, so the returned unit's work can
// be rolled back without losing the enclosing transaction.
func (u *unit) BeginSavepoint(ctx context.Context) (unitofwork.Savepoint, error) {
	if u.tx == nil {
		return nil, shared.NewDomainError("postgres", "BeginSavepoint", shared.ErrInvalidState, "cannot open a savepoint outside a transaction")
	}

	nested, err := u.tx.Begin(ctx)
	if err != nil {
		return nil, shared.WrapError("postgres", "BeginSavepoint", shared.ErrInfrastructure, "failed to open savepoint", err)
	}

	return &savepoint{unit: newUnit(nested, nested)}, nil
}

// savepoint is a nested transaction handed out by BeginSavepoint.
type savepoint struct {
	*unit
}

// Commit releases the savepoint into the enclosing transaction.
func (s *savepoint) Commit(ctx context.Context) error {
	if err := s.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: savepoint commit: %v", ErrTransactionFailed, err)
	}
	return nil
}

// Rollback discards only the work done through this savepoint.
func (s *savepoint) Rollback(ctx context.Context) error {
	if err := s.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("%w: savepoint rollback: %v", ErrTransactionFailed, err)
	}
	return nil
}
