package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/plan"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
	"github.com/cyranoaladin/nexus-project-v0/internal/infrastructure/persistence/memory"
)

var admin = shared.ActorContext{Role: shared.RoleAdmin, ActorID: "admin-1"}

func seedStudent(t *testing.T, store *memory.Store, track student.Track, profile student.Profile) *student.Student {
	t.Helper()
	stud := student.New(track, profile)
	err := store.WithUnit(context.Background(), func(ctx context.Context, u unitofwork.UnitOfWork) error {
		return u.Students().Create(ctx, stud)
	})
	require.NoError(t, err)
	return stud
}

func planCodes(t *testing.T, store *memory.Store, studentID string) map[string]plan.Source {
	t.Helper()
	rows, err := store.View().Plans().ListByStudent(context.Background(), studentID)
	require.NoError(t, err)
	out := make(map[string]plan.Source, len(rows))
	for _, row := range rows {
		out[row.Code] = row.Source
	}
	return out
}

func countEvents(t *testing.T, store *memory.Store, studentID string, kind audit.Kind) int {
	t.Helper()
	events, err := store.View().Events().ListByStudent(context.Background(), studentID, kind, 100)
	require.NoError(t, err)
	return len(events)
}

func TestSyncEpreuvesPlanCreatesTemplateRows(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)
	svc := NewSyncService(store, nil)

	result, err := svc.SyncEpreuvesPlan(ctx, admin, stud.ID)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Deleted)
	assert.Equal(t, 4, result.Count)

	rows := planCodes(t, store, stud.ID)
	for _, code := range []string{"PHILO", "GRAND_ORAL", "SPECIALITE-1", "SPECIALITE-2"} {
		assert.Equal(t, plan.SourceAgent, rows[code])
	}
	assert.Equal(t, 1, countEvents(t, store, stud.ID, audit.EpreuvesPlanSynced))
}

func planRows(t *testing.T, store *memory.Store, studentID string) map[string]plan.EpreuvePlan {
	t.Helper()
	rows, err := store.View().Plans().ListByStudent(context.Background(), studentID)
	require.NoError(t, err)
	out := make(map[string]plan.EpreuvePlan, len(rows))
	for _, row := range rows {
		out[row.Code] = *row
	}
	return out
}

func TestSyncEpreuvesPlanIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)
	svc := NewSyncService(store, nil)

	base := time.Date(2026, 2, 1, 9, 15, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	_, err := svc.SyncEpreuvesPlan(ctx, admin, stud.ID)
	require.NoError(t, err)
	first := planRows(t, store, stud.ID)

	// The wall clock moves between passes; the rows must not.
	svc.now = func() time.Time { return base.Add(6 * time.Hour) }

	result, err := svc.SyncEpreuvesPlan(ctx, admin, stud.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Deleted)

	second := planRows(t, store, stud.ID)
	require.Len(t, second, 4)
	assert.Equal(t, first, second)

	// The sync event is emitted on every pass, changed or not.
	assert.Equal(t, 2, countEvents(t, store, stud.ID, audit.EpreuvesPlanSynced))
}

func TestSyncEpreuvesPlanNeverTouchesReglementRows(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)
	svc := NewSyncService(store, nil)

	// A règlement row with a code outside the template, plus a stale Agent row.
	err := store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		if err := u.Plans().Create(ctx, plan.New(stud.ID, "EPS", "Éducation physique", "CCF", 6, plan.SourceReglement)); err != nil {
			return err
		}
		return u.Plans().Create(ctx, plan.New(stud.ID, "OBSOLETE", "Ancienne épreuve", "Écrit", 2, plan.SourceAgent))
	})
	require.NoError(t, err)

	result, err := svc.SyncEpreuvesPlan(ctx, admin, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)

	rows := planCodes(t, store, stud.ID)
	assert.Equal(t, plan.SourceReglement, rows["EPS"])
	assert.NotContains(t, rows, "OBSOLETE")
}

func TestSyncReglementReplacesOnlyReglementRows(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)
	svc := NewSyncService(store, nil)

	_, err := svc.SyncEpreuvesPlan(ctx, admin, stud.ID)
	require.NoError(t, err)

	at := time.Now().UTC().AddDate(0, 3, 0)
	_, err = svc.SyncReglementEpreuves(ctx, admin, stud.ID, []ReglementEntry{
		{Code: "EPS", Label: "Éducation physique", Format: "CCF", Weight: 6, ScheduledAt: &at},
	})
	require.NoError(t, err)

	// Replace the règlement set; agent rows stay put.
	result, err := svc.SyncReglementEpreuves(ctx, admin, stud.ID, []ReglementEntry{
		{Code: "LVA", Label: "Langue vivante A", Format: "Oral", Weight: 3},
		{Code: "LVB", Label: "Langue vivante B", Format: "Oral", Weight: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 2, result.Created)

	rows := planCodes(t, store, stud.ID)
	assert.NotContains(t, rows, "EPS")
	assert.Equal(t, plan.SourceReglement, rows["LVA"])
	assert.Equal(t, plan.SourceAgent, rows["PHILO"])
	assert.Equal(t, 2, countEvents(t, store, stud.ID, audit.EpreuvesSynced))
}

func TestSyncEpreuvesPlanForbiddenForOtherStudent(t *testing.T) {
	store := memory.NewStore()
	stud := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)
	svc := NewSyncService(store, nil)

	other := shared.ActorContext{Role: shared.RoleParent, ActorID: "p-1", StudentID: "someone-else"}
	_, err := svc.SyncEpreuvesPlan(context.Background(), other, stud.ID)
	require.Error(t, err)
	assert.True(t, shared.IsForbidden(err))
}

func TestSyncCoachTasksUpsertsByLabel(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)
	svc := NewSyncService(store, nil)

	due := time.Now().UTC().AddDate(0, 0, 7)
	result, err := svc.SyncCoachTasks(ctx, admin, stud.ID, []TaskSeed{
		{Label: "Fiche méthode dissertation", DueAt: &due, Weight: 2},
		{Label: "Annales Grand oral"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)

	// Same seeds again: nothing changes, no refresh request.
	refreshesBefore := countEvents(t, store, stud.ID, audit.SummaryRefreshRequested)
	result, err = svc.SyncCoachTasks(ctx, admin, stud.ID, []TaskSeed{
		{Label: "Fiche méthode dissertation", DueAt: &due, Weight: 2},
		{Label: "Annales Grand oral"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, refreshesBefore, countEvents(t, store, stud.ID, audit.SummaryRefreshRequested))

	assert.Equal(t, 2, countEvents(t, store, stud.ID, audit.CoachTasksSynced))
}
