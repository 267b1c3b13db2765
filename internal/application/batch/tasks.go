package batch

import (
	"context"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// BULK TASK CRUD
// ══════════════════════════════════════════════════════════════════════════════

// Batch operation names.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// TaskData carries the mutable fields of a task operation. Pointer fields
// distinguish "not provided" from zero values on update.
type TaskData struct {
	StudentID string     `json:"studentId,omitempty"`
	Label     *string    `json:"label,omitempty"`
	DueAt     *time.Time `json:"dueAt,omitempty"`
	Weight    *float64   `json:"weight,omitempty"`
	Status    *string    `json:"status,omitempty"`
	Source    *string    `json:"source,omitempty"`
}

// TaskOperation is one item of a bulk task request.
type TaskOperation struct {
	Op   string   `json:"op"`
	ID   string   `json:"id,omitempty"`
	Data TaskData `json:"data,omitempty"`
}

// Tasks applies a bulk task CRUD batch for the given actor. Authorization
// is re-checked per item because a batch may span multiple students.
func (p *Processor) Tasks(ctx context.Context, actor shared.ActorContext, ops []TaskOperation) ([]Result, error) {
	items := make([]itemFunc, len(ops))
	for i, op := range ops {
		op := op
		items[i] = func(ctx context.Context, u unitofwork.UnitOfWork) (outcome, error) {
			return applyTaskOperation(ctx, u, actor, op)
		}
	}
	return p.run(ctx, items)
}

func applyTaskOperation(ctx context.Context, u unitofwork.UnitOfWork, actor shared.ActorContext, op TaskOperation) (outcome, error) {
	switch op.Op {
	case OpCreate:
		return createTask(ctx, u, actor, op.Data)
	case OpUpdate:
		return updateTask(ctx, u, actor, op.ID, op.Data)
	case OpDelete:
		return deleteTask(ctx, u, actor, op.ID)
	default:
		return outcome{}, shared.NewDomainError("batch", "Tasks", shared.ErrValidation, "unknown operation: "+op.Op)
	}
}

func createTask(ctx context.Context, u unitofwork.UnitOfWork, actor shared.ActorContext, data TaskData) (outcome, error) {
	if data.StudentID == "" {
		return outcome{}, shared.NewDomainError("batch", "Tasks", shared.ErrValidation, "studentId is required for create")
	}
	if err := shared.EnsureAccess(actor, data.StudentID); err != nil {
		return outcome{}, err
	}

	label := ""
	if data.Label != nil {
		label = *data.Label
	}
	t := task.New(data.StudentID, label)
	if data.DueAt != nil {
		t.DueAt = data.DueAt
	}
	if data.Weight != nil {
		t.Weight = *data.Weight
	}
	if data.Status != nil {
		status, err := task.ParseStatus(*data.Status)
		if err != nil {
			return outcome{}, err
		}
		t.Status = status
	}
	if data.Source != nil {
		source, err := task.ParseSource(*data.Source)
		if err != nil {
			return outcome{}, err
		}
		t.Source = source
	}

	if err := t.Validate(); err != nil {
		return outcome{}, err
	}
	if err := u.Tasks().Create(ctx, t); err != nil {
		return outcome{}, err
	}

	e := audit.NewEvent(t.StudentID, audit.TaskCreated, map[string]any{
		"taskId": t.ID,
		"label":  t.Label,
	})
	if err := u.Events().Append(ctx, e); err != nil {
		return outcome{}, err
	}

	return outcome{status: StatusCreated, id: t.ID, studentID: t.StudentID, changed: true}, nil
}

func updateTask(ctx context.Context, u unitofwork.UnitOfWork, actor shared.ActorContext, id string, data TaskData) (outcome, error) {
	t, err := u.Tasks().GetByID(ctx, id)
	if err != nil {
		return outcome{}, err
	}
	if err := shared.EnsureAccess(actor, t.StudentID); err != nil {
		return outcome{}, err
	}

	fieldsChanged := false
	if data.Label != nil && *data.Label != t.Label {
		t.Label = *data.Label
		fieldsChanged = true
	}
	if data.DueAt != nil && (t.DueAt == nil || !t.DueAt.Equal(*data.DueAt)) {
		t.DueAt = data.DueAt
		fieldsChanged = true
	}
	if data.Weight != nil && *data.Weight != t.Weight {
		t.Weight = *data.Weight
		fieldsChanged = true
	}

	statusChanged := false
	if data.Status != nil {
		requested, err := task.ParseStatus(*data.Status)
		if err != nil {
			return outcome{}, err
		}
		next, changed, err := task.Transition(t.Status, requested)
		if err != nil {
			return outcome{}, err
		}
		if changed {
			t.Status = next
			statusChanged = true
		}
	}

	if !fieldsChanged && !statusChanged {
		// Idempotent no-op: the result entry still reports the item, but
		// no event is recorded and no refresh is requested.
		return outcome{status: StatusUpdated, id: t.ID, studentID: t.StudentID, changed: false}, nil
	}

	if err := t.Validate(); err != nil {
		return outcome{}, err
	}
	t.UpdatedAt = time.Now().UTC()
	if err := u.Tasks().Update(ctx, t); err != nil {
		return outcome{}, err
	}

	kind := audit.TaskUpdated
	payload := map[string]any{"taskId": t.ID}
	if statusChanged {
		kind = audit.TaskStatusUpdated
		payload["status"] = string(t.Status)
	}
	if err := u.Events().Append(ctx, audit.NewEvent(t.StudentID, kind, payload)); err != nil {
		return outcome{}, err
	}

	return outcome{status: StatusUpdated, id: t.ID, studentID: t.StudentID, changed: true}, nil
}

func deleteTask(ctx context.Context, u unitofwork.UnitOfWork, actor shared.ActorContext, id string) (outcome, error) {
	t, err := u.Tasks().GetByID(ctx, id)
	if err != nil {
		return outcome{}, err
	}
	if err := shared.EnsureAccess(actor, t.StudentID); err != nil {
		return outcome{}, err
	}

	if err := u.Tasks().Delete(ctx, id); err != nil {
		return outcome{}, err
	}

	e := audit.NewEvent(t.StudentID, audit.TaskDeleted, map[string]any{"taskId": t.ID})
	if err := u.Events().Append(ctx, e); err != nil {
		return outcome{}, err
	}

	return outcome{status: StatusDeleted, id: t.ID, studentID: t.StudentID, changed: true}, nil
}
