package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/progress"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
	"github.com/cyranoaladin/nexus-project-v0/internal/infrastructure/persistence/memory"
)

func TestGenerateReportFromLiveFigures(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)

	err := store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		if err := u.Progress().Upsert(ctx, progress.New(stud.ID, "Mathématiques", "CH-01", 80)); err != nil {
			return err
		}
		return u.Progress().Upsert(ctx, progress.New(stud.ID, "Mathématiques", "CH-02", 40))
	})
	require.NoError(t, err)

	svc := NewReportService(store, nil)
	rep, err := svc.Generate(ctx, admin, stud.ID)
	require.NoError(t, err)

	assert.Equal(t, 60.0, rep.KPIs["progressOverall"])
	assert.Equal(t, 0, rep.KPIs["tasksOpenCount"])
	assert.NotContains(t, rep.KPIs, "lastEvalScore")
	assert.Contains(t, rep.SummaryMD, "Bilan de suivi")
	assert.Contains(t, rep.SummaryMD, "60.0")

	assert.Equal(t, 1, countEvents(t, store, stud.ID, audit.ParentReportGenerated))

	stored, err := store.View().Reports().ListByStudent(ctx, stud.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, rep.ID, stored[0].ID)
}
