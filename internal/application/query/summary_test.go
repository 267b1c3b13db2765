package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/dashboard"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/progress"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/session"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/task"
	"github.com/cyranoaladin/nexus-project-v0/internal/infrastructure/persistence/memory"
)

var admin = shared.ActorContext{Role: shared.RoleAdmin, ActorID: "admin-1"}

// fakeCache is an in-process SnapshotCache with fault injection.
type fakeCache struct {
	entries map[string]*dashboard.Snapshot
	fail    bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*dashboard.Snapshot{}}
}

func (c *fakeCache) Get(ctx context.Context, studentID string) (*dashboard.Snapshot, error) {
	if c.fail {
		return nil, errors.New("cache down")
	}
	snap, ok := c.entries[studentID]
	if !ok {
		return nil, errors.New("miss")
	}
	return snap, nil
}

func (c *fakeCache) Set(ctx context.Context, snap *dashboard.Snapshot) error {
	if c.fail {
		return errors.New("cache down")
	}
	c.entries[snap.StudentID] = snap
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

func TestGetSummaryFallsBackToLiveAggregation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store)

	err := store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		if err := u.Progress().Upsert(ctx, progress.New(stud.ID, "Mathématiques", "CH-01", 50)); err != nil {
			return err
		}
		return u.Tasks().Create(ctx, task.New(stud.ID, "ouvert"))
	})
	require.NoError(t, err)

	svc := NewSummaryService(store, nil, nil)
	snap, err := svc.GetSummary(ctx, admin, stud.ID)
	require.NoError(t, err)

	assert.Equal(t, 50.0, snap.ProgressOverall)
	assert.Equal(t, 1, snap.TasksOpenCount)
	assert.Nil(t, snap.LastEvalScore)
}

func TestGetSummaryPrefersStoredSnapshotAndBackfillsCache(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store)

	stored := &dashboard.Snapshot{
		StudentID:       stud.ID,
		ProgressOverall: 72,
		TasksOpenCount:  4,
		RefreshedAt:     time.Now().UTC(),
	}
	err := store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		return u.Snapshots().Write(ctx, stored)
	})
	require.NoError(t, err)

	cache := newFakeCache()
	svc := NewSummaryService(store, cache, nil)

	snap, err := svc.GetSummary(ctx, admin, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, 72.0, snap.ProgressOverall)

	// Backfilled; the next read is served from cache.
	assert.Contains(t, cache.entries, stud.ID)
}

func TestGetSummaryServesCacheHit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store)

	cache := newFakeCache()
	cache.entries[stud.ID] = &dashboard.Snapshot{StudentID: stud.ID, ProgressOverall: 99}
	svc := NewSummaryService(store, cache, nil)

	snap, err := svc.GetSummary(ctx, admin, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, 99.0, snap.ProgressOverall)
}

func TestGetSummarySurvivesDegradedCache(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store)

	cache := newFakeCache()
	cache.fail = true
	svc := NewSummaryService(store, cache, nil)

	snap, err := svc.GetSummary(ctx, admin, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, stud.ID, snap.StudentID)
}

func TestGetSummarySkipsPastConfirmedSessions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store)

	now := time.Now().UTC()
	past := session.New(session.KindVisio, now.AddDate(0, 0, -7), now.AddDate(0, 0, -7).Add(time.Hour))
	past.Status = session.StatusConfirme
	past.StudentID = &stud.ID
	future := session.New(session.KindVisio, now.AddDate(0, 0, 3), now.AddDate(0, 0, 3).Add(time.Hour))
	future.Status = session.StatusConfirme
	future.StudentID = &stud.ID

	err := store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		if err := u.Sessions().Create(ctx, past); err != nil {
			return err
		}
		return u.Sessions().Create(ctx, future)
	})
	require.NoError(t, err)

	svc := NewSummaryService(store, nil, nil)
	snap, err := svc.GetSummary(ctx, admin, stud.ID)
	require.NoError(t, err)

	require.NotNil(t, snap.NextSessionAt)
	assert.Equal(t, future.SlotStart, *snap.NextSessionAt)
}

func TestGetSummaryUnknownStudent(t *testing.T) {
	store := memory.NewStore()
	svc := NewSummaryService(store, nil, nil)

	_, err := svc.GetSummary(context.Background(), admin, "ghost")
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestRequestRefreshAppendsEvent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store)
	svc := NewSummaryService(store, nil, nil)

	require.NoError(t, svc.RequestRefresh(ctx, admin, stud.ID))
	require.NoError(t, svc.RequestRefresh(ctx, admin, stud.ID))

	events, err := store.View().Events().ListByStudent(ctx, stud.ID, audit.SummaryRefreshRequested, 10)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
