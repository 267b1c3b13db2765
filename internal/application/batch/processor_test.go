package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/task"
	"github.com/cyranoaladin/nexus-project-v0/internal/infrastructure/persistence/memory"
)

var coach = shared.ActorContext{Role: shared.RoleCoach, ActorID: "coach-1"}

func newFixture(t *testing.T) (*Processor, *memory.Store, *student.Student) {
	t.Helper()
	store := memory.NewStore()
	stud := student.New(student.TrackTerminale, student.ProfileScolarise)
	err := store.WithUnit(context.Background(), func(ctx context.Context, u unitofwork.UnitOfWork) error {
		return u.Students().Create(ctx, stud)
	})
	require.NoError(t, err)
	return NewProcessor(store, nil), store, stud
}

func eventsOfKind(t *testing.T, store *memory.Store, studentID string, kind audit.Kind) []*audit.Event {
	t.Helper()
	events, err := store.View().Events().ListByStudent(context.Background(), studentID, kind, 100)
	require.NoError(t, err)
	return events
}

func strptr(s string) *string { return &s }

func TestTasksPartialFailureKeepsItemOrder(t *testing.T) {
	ctx := context.Background()
	p, store, stud := newFixture(t)

	ops := []TaskOperation{
		{Op: OpCreate, Data: TaskData{StudentID: stud.ID, Label: strptr("Fiche de révision")}},
		{Op: OpDelete, ID: "no-such-task"},
		{Op: OpCreate, Data: TaskData{StudentID: stud.ID, Label: strptr("Annales 2025")}},
	}

	results, err := p.Tasks(ctx, coach, ops)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, StatusCreated, results[0].Status)
	assert.NotEmpty(t, results[0].ID)
	assert.Equal(t, 1, results[1].Index)
	assert.Equal(t, StatusNotFound, results[1].Status)
	assert.NotEmpty(t, results[1].Error)
	assert.Equal(t, StatusCreated, results[2].Status)

	// The failed item must not take its siblings down with it.
	tasks, err := store.View().Tasks().ListByStudent(ctx, stud.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestTasksEventCountMatchesEffectiveChanges(t *testing.T) {
	ctx := context.Background()
	p, store, stud := newFixture(t)

	ops := []TaskOperation{
		{Op: OpCreate, Data: TaskData{StudentID: stud.ID, Label: strptr("A")}},
		{Op: OpCreate, Data: TaskData{StudentID: stud.ID, Label: strptr("B")}},
		{Op: OpDelete, ID: "missing"},
	}
	results, err := p.Tasks(ctx, coach, ops)
	require.NoError(t, err)

	created := eventsOfKind(t, store, stud.ID, audit.TaskCreated)
	assert.Len(t, created, 2)

	// One refresh request for the one distinct student touched.
	refreshes := eventsOfKind(t, store, stud.ID, audit.SummaryRefreshRequested)
	assert.Len(t, refreshes, 1)

	assert.Equal(t, StatusNotFound, results[2].Status)
}

func TestTasksNoOpUpdateEmitsNothing(t *testing.T) {
	ctx := context.Background()
	p, store, stud := newFixture(t)

	create, err := p.Tasks(ctx, coach, []TaskOperation{
		{Op: OpCreate, Data: TaskData{StudentID: stud.ID, Label: strptr("Déjà Todo")}},
	})
	require.NoError(t, err)
	taskID := create[0].ID

	before := len(eventsOfKind(t, store, stud.ID, audit.SummaryRefreshRequested))

	results, err := p.Tasks(ctx, coach, []TaskOperation{
		{Op: OpUpdate, ID: taskID, Data: TaskData{Status: strptr("Todo")}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusUpdated, results[0].Status)

	assert.Empty(t, eventsOfKind(t, store, stud.ID, audit.TaskStatusUpdated))
	assert.Empty(t, eventsOfKind(t, store, stud.ID, audit.TaskUpdated))
	after := len(eventsOfKind(t, store, stud.ID, audit.SummaryRefreshRequested))
	assert.Equal(t, before, after)
}

func TestTasksStatusChangeEmitsStatusEvent(t *testing.T) {
	ctx := context.Background()
	p, store, stud := newFixture(t)

	create, err := p.Tasks(ctx, coach, []TaskOperation{
		{Op: OpCreate, Data: TaskData{StudentID: stud.ID, Label: strptr("Exercices")}},
	})
	require.NoError(t, err)

	_, err = p.Tasks(ctx, coach, []TaskOperation{
		{Op: OpUpdate, ID: create[0].ID, Data: TaskData{Status: strptr("Done")}},
	})
	require.NoError(t, err)

	events := eventsOfKind(t, store, stud.ID, audit.TaskStatusUpdated)
	require.Len(t, events, 1)
	assert.Equal(t, string(task.StatusDone), events[0].Payload["status"])

	got, err := store.View().Tasks().GetByID(ctx, create[0].ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, got.Status)
}

func TestTasksForbiddenItemIsInvalid(t *testing.T) {
	ctx := context.Background()
	p, store, stud := newFixture(t)

	other := shared.ActorContext{Role: shared.RoleStudent, ActorID: "u-2", StudentID: "someone-else"}
	results, err := p.Tasks(ctx, other, []TaskOperation{
		{Op: OpCreate, Data: TaskData{StudentID: stud.ID, Label: strptr("interdit")}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInvalid, results[0].Status)

	tasks, err := store.View().Tasks().ListByStudent(ctx, stud.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTasksUnknownOperationIsInvalid(t *testing.T) {
	p, _, stud := newFixture(t)

	results, err := p.Tasks(context.Background(), coach, []TaskOperation{
		{Op: "upsert", Data: TaskData{StudentID: stud.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInvalid, results[0].Status)
}

func TestGradeEvaluationsSkipsRefreshForNoOp(t *testing.T) {
	ctx := context.Background()
	p, store, stud := newFixture(t)

	results, err := p.GradeEvaluations(ctx, coach, []GradeOperation{{ID: "missing", Score20: 10}})
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, results[0].Status)
	assert.Empty(t, eventsOfKind(t, store, stud.ID, audit.SummaryRefreshRequested))
}
