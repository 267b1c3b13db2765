// Package command contains the write operations of the learning-record
// core: exam-plan synchronization, session booking, the evaluation
// lifecycle, coach task sync, and parent report generation. Every command
// runs inside one transaction and pairs each effective state change with
// exactly one audit event.
package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/plan"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXAM-PLAN SYNC
// Two provenance-scoped reconciliation paths coexist: the Agent diff path
// never touches Réglement rows, and the Réglement path never touches Agent
// rows. Each path may only delete rows of its own provenance.
// ══════════════════════════════════════════════════════════════════════════════

// SyncService reconciles exam-plan rows against templates.
type SyncService struct {
	store  unitofwork.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewSyncService creates a sync service.
func NewSyncService(store unitofwork.Store, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// SyncResult reports what a reconciliation pass did.
type SyncResult struct {
	Created int
	Updated int
	Deleted int

	// Count is the template size, reported in the sync event regardless of
	// whether any row actually changed.
	Count int
}

// SyncEpreuvesPlan reconciles the student's Agent-sourced plan rows against
// the (track, profile) template. The pass is idempotent: a second run with
// no intervening change performs zero net row changes. One
// EPREUVES_PLAN_SYNCED event is emitted on every call, changed or not.
func (s *SyncService) SyncEpreuvesPlan(ctx context.Context, actor shared.ActorContext, studentID string) (*SyncResult, error) {
	if err := shared.EnsureAccess(actor, studentID); err != nil {
		return nil, err
	}

	result := &SyncResult{}
	err := s.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		stud, err := u.Students().GetByID(ctx, studentID)
		if err != nil {
			return err
		}

		template := plan.ResolveTemplate(stud.Track, stud.Profile)
		result.Count = len(template)
		now := s.now()

		existing, err := u.Plans().ListByStudent(ctx, studentID)
		if err != nil {
			return err
		}
		byCode := make(map[string]*plan.EpreuvePlan, len(existing))
		for _, p := range existing {
			byCode[p.Code] = p
		}

		inTemplate := make(map[string]struct{}, len(template))
		for _, entry := range template {
			inTemplate[entry.Code] = struct{}{}
			scheduledAt := entry.ScheduledAt(now)

			if row, ok := byCode[entry.Code]; ok {
				row.Label = entry.Label
				row.Format = entry.Format
				row.Weight = entry.Weight
				row.ScheduledAt = scheduledAt
				row.Source = plan.SourceAgent
				if err := u.Plans().Update(ctx, row); err != nil {
					return err
				}
				result.Updated++
				continue
			}

			row := plan.New(studentID, entry.Code, entry.Label, entry.Format, entry.Weight, plan.SourceAgent)
			row.ScheduledAt = scheduledAt
			if err := u.Plans().Create(ctx, row); err != nil {
				return err
			}
			result.Created++
		}

		// Agent rows absent from the template are stale and go away.
		// Réglement rows are never deleted by this path.
		for code, row := range byCode {
			if _, ok := inTemplate[code]; ok {
				continue
			}
			if row.Source != plan.SourceAgent {
				continue
			}
			if err := u.Plans().Delete(ctx, row.ID); err != nil {
				return err
			}
			result.Deleted++
		}

		e := audit.NewEvent(studentID, audit.EpreuvesPlanSynced, map[string]any{
			"count": result.Count,
		})
		return u.Events().Append(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("exam plan synced",
		slog.String("student_id", studentID),
		slog.Int("created", result.Created),
		slog.Int("deleted", result.Deleted),
	)
	return result, nil
}

// ReglementEntry is one exam from the external règlement catalogue.
type ReglementEntry struct {
	Code        string
	Label       string
	Format      string
	Weight      float64
	ScheduledAt *time.Time
}

// SyncReglementEpreuves replaces the student's Réglement-sourced plan rows
// with the given catalogue entries: delete-and-recreate, scoped strictly to
// source=Réglement. Agent rows are never touched by this path. Emits one
// EPREUVES_SYNCED event carrying the entry count.
func (s *SyncService) SyncReglementEpreuves(ctx context.Context, actor shared.ActorContext, studentID string, entries []ReglementEntry) (*SyncResult, error) {
	if err := shared.EnsureAccess(actor, studentID); err != nil {
		return nil, err
	}

	result := &SyncResult{Count: len(entries)}
	err := s.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		if _, err := u.Students().GetByID(ctx, studentID); err != nil {
			return err
		}

		deleted, err := u.Plans().DeleteBySource(ctx, studentID, plan.SourceReglement)
		if err != nil {
			return err
		}
		result.Deleted = deleted

		for _, entry := range entries {
			row := plan.New(studentID, entry.Code, entry.Label, entry.Format, entry.Weight, plan.SourceReglement)
			row.ScheduledAt = entry.ScheduledAt
			if err := row.Validate(); err != nil {
				return err
			}
			if err := u.Plans().Create(ctx, row); err != nil {
				return err
			}
			result.Created++
		}

		e := audit.NewEvent(studentID, audit.EpreuvesSynced, map[string]any{
			"count": result.Count,
		})
		return u.Events().Append(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
