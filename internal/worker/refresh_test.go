package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/dashboard"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/progress"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/task"
	"github.com/cyranoaladin/nexus-project-v0/internal/infrastructure/persistence/memory"
)

// recordingCache captures post-commit snapshot pushes.
type recordingCache struct {
	sets []*dashboard.Snapshot
}

func (c *recordingCache) Set(ctx context.Context, snap *dashboard.Snapshot) error {
	c.sets = append(c.sets, snap)
	return nil
}

func seedStudent(t *testing.T, store *memory.Store) *student.Student {
	t.Helper()
	stud := student.New(student.TrackTerminale, student.ProfileScolarise)
	err := store.WithUnit(context.Background(), func(ctx context.Context, u unitofwork.UnitOfWork) error {
		return u.Students().Create(ctx, stud)
	})
	require.NoError(t, err)
	return stud
}

func requestRefresh(t *testing.T, store *memory.Store, studentID string) {
	t.Helper()
	err := store.WithUnit(context.Background(), func(ctx context.Context, u unitofwork.UnitOfWork) error {
		return u.Events().Append(ctx, audit.NewEvent(studentID, audit.SummaryRefreshRequested, nil))
	})
	require.NoError(t, err)
}

func TestRunOnceEmptyWindowIsNoOp(t *testing.T) {
	store := memory.NewStore()
	w := NewRefreshWorker(store, nil, time.Second, nil)

	processed, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
}

func TestRunOnceCoalescesRequestsPerStudent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store)

	err := store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		if err := u.Progress().Upsert(ctx, progress.New(stud.ID, "Mathématiques", "CH-01", 70)); err != nil {
			return err
		}
		return u.Tasks().Create(ctx, task.New(stud.ID, "ouvert"))
	})
	require.NoError(t, err)

	requestRefresh(t, store, stud.ID)
	requestRefresh(t, store, stud.ID)

	cache := &recordingCache{}
	w := NewRefreshWorker(store, cache, time.Second, nil)

	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	snap, err := store.View().Snapshots().Get(ctx, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, 70.0, snap.ProgressOverall)
	assert.Equal(t, 1, snap.TasksOpenCount)

	// Two requests, one student: one COMPLETED event carrying both.
	completed, err := store.View().Events().ListByStudent(ctx, stud.ID, audit.SummaryRefreshCompleted, 10)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, 2, completed[0].Payload["processedCount"])

	require.Len(t, cache.sets, 1)
	assert.Equal(t, stud.ID, cache.sets[0].StudentID)
}

func TestRunOnceAdvancesCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store)

	requestRefresh(t, store, stud.ID)
	w := NewRefreshWorker(store, nil, time.Second, nil)

	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	// The window is drained; a second pass sees nothing.
	processed, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, processed)

	// A new request reopens the window.
	requestRefresh(t, store, stud.ID)
	processed, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

func TestRunOnceHandlesMultipleStudents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	a := seedStudent(t, store)
	b := seedStudent(t, store)

	requestRefresh(t, store, a.ID)
	requestRefresh(t, store, b.ID)
	requestRefresh(t, store, a.ID)

	w := NewRefreshWorker(store, nil, time.Second, nil)
	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, processed)

	for _, stud := range []*student.Student{a, b} {
		_, err := store.View().Snapshots().Get(ctx, stud.ID)
		assert.NoError(t, err)

		completed, err := store.View().Events().ListByStudent(ctx, stud.ID, audit.SummaryRefreshCompleted, 10)
		require.NoError(t, err)
		assert.Len(t, completed, 1)
	}
}
