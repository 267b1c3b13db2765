package command

import (
	"context"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// COACH TASK SYNC
// ══════════════════════════════════════════════════════════════════════════════

// TaskSeed is one coach-provided task in a sync request. Label is the
// natural key within the student's coach-sourced tasks.
type TaskSeed struct {
	Label  string
	DueAt  *time.Time
	Weight float64
}

// SyncCoachTasks reconciles the student's Coach-sourced tasks against the
// given seed list, reusing the diff-based upsert shape of the exam-plan
// sync: update matching labels in place, insert missing ones. Existing
// coach tasks absent from the seeds are left alone; coaches retire tasks
// through explicit deletes, not through sync. Emits one COACH_TASKS_SYNCED
// event, plus a refresh request when any row changed.
func (s *SyncService) SyncCoachTasks(ctx context.Context, actor shared.ActorContext, studentID string, seeds []TaskSeed) (*SyncResult, error) {
	if err := shared.EnsureAccess(actor, studentID); err != nil {
		return nil, err
	}

	result := &SyncResult{Count: len(seeds)}
	err := s.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		if _, err := u.Students().GetByID(ctx, studentID); err != nil {
			return err
		}

		existing, err := u.Tasks().ListByStudent(ctx, studentID)
		if err != nil {
			return err
		}
		byLabel := make(map[string]*task.Task)
		for _, t := range existing {
			if t.Source == task.SourceCoach {
				byLabel[t.Label] = t
			}
		}

		for _, seed := range seeds {
			if t, ok := byLabel[seed.Label]; ok {
				changed := false
				if seed.DueAt != nil && (t.DueAt == nil || !t.DueAt.Equal(*seed.DueAt)) {
					t.DueAt = seed.DueAt
					changed = true
				}
				if seed.Weight > 0 && seed.Weight != t.Weight {
					t.Weight = seed.Weight
					changed = true
				}
				if !changed {
					continue
				}
				t.UpdatedAt = s.now()
				if err := u.Tasks().Update(ctx, t); err != nil {
					return err
				}
				result.Updated++
				continue
			}

			t := task.New(studentID, seed.Label)
			t.Source = task.SourceCoach
			t.DueAt = seed.DueAt
			if seed.Weight > 0 {
				t.Weight = seed.Weight
			}
			if err := t.Validate(); err != nil {
				return err
			}
			if err := u.Tasks().Create(ctx, t); err != nil {
				return err
			}
			result.Created++
		}

		e := audit.NewEvent(studentID, audit.CoachTasksSynced, map[string]any{
			"count": result.Count,
		})
		if err := u.Events().Append(ctx, e); err != nil {
			return err
		}

		if result.Created > 0 || result.Updated > 0 {
			refresh := audit.NewEvent(studentID, audit.SummaryRefreshRequested, nil)
			if err := u.Events().Append(ctx, refresh); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
