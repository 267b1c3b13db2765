// Package unitofwork defines the transaction contracts the application
// layer runs on. A UnitOfWork scopes every repository to one transaction;
// savepoints are begun, committed, and rolled back imperatively so the
// batch processor can isolate per-item failures without losing the outer
// transaction.
package unitofwork

import (
	"context"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/dashboard"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/evaluation"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/plan"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/progress"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/report"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/session"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/task"
)

// UnitOfWork hands out repositories bound to one transaction (or, for a
// read-only view, to the connection pool).
type UnitOfWork interface {
	Students() student.Repository
	Tasks() task.Repository
	Sessions() session.Repository
	Evaluations() evaluation.Repository
	Plans() plan.Repository
	Progress() progress.Repository
	Reports() report.Repository
	Events() audit.Log
	Snapshots() dashboard.Repository

	// BeginSavepoint opens a nested rollback boundary inside this unit.
	// Work done through the returned Savepoint survives a sibling's
	// rollback; the outer transaction still decides overall visibility.
	BeginSavepoint(ctx context.Context) (Savepoint, error)
}

// Savepoint is a nested transaction. Commit releases the savepoint into
// the enclosing transaction; Rollback discards only the work done through
// it. Savepoints nest.
type Savepoint interface {
	UnitOfWork

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens units of work.
type Store interface {
	// WithUnit runs fn inside one transaction. The transaction commits
	// when fn returns nil and rolls back entirely otherwise; an error
	// escaping fn outside any savepoint is an infrastructure-level
	// failure and no partial results survive.
	WithUnit(ctx context.Context, fn func(ctx context.Context, u UnitOfWork) error) error

	// View returns a unit bound to the plain connection, outside any
	// transaction. For read paths only; BeginSavepoint on a view fails.
	View() UnitOfWork
}
