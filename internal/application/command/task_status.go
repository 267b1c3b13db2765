package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK STATUS UPDATE
// ══════════════════════════════════════════════════════════════════════════════

// TaskService applies single task status changes outside the batch path.
type TaskService struct {
	store  unitofwork.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskService creates a task service.
func NewTaskService(store unitofwork.Store, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// UpdateStatus moves a task through its status machine. Requesting the
// current status is an idempotent no-op: the task is returned unchanged and
// nothing is recorded. An effective change records one TASK_STATUS_UPDATED
// event plus a dashboard refresh request.
func (s *TaskService) UpdateStatus(ctx context.Context, actor shared.ActorContext, taskID, status string) (*task.Task, error) {
	requested, err := task.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	var result *task.Task
	err = s.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		t, err := u.Tasks().GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if err := shared.EnsureAccess(actor, t.StudentID); err != nil {
			return err
		}

		next, changed, err := task.Transition(t.Status, requested)
		if err != nil {
			return err
		}
		result = t
		if !changed {
			return nil
		}

		t.Status = next
		t.UpdatedAt = s.now()
		if err := u.Tasks().Update(ctx, t); err != nil {
			return err
		}

		e := audit.NewEvent(t.StudentID, audit.TaskStatusUpdated, map[string]any{
			"taskId": t.ID,
			"status": string(t.Status),
		})
		if err := u.Events().Append(ctx, e); err != nil {
			return err
		}
		refresh := audit.NewEvent(t.StudentID, audit.SummaryRefreshRequested, nil)
		return u.Events().Append(ctx, refresh)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
