// Package query contains the read operations of the learning-record core.
// Reads never mutate primary state; the one write a read path may perform
// is a best-effort cache backfill.
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/summary"
	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/dashboard"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD SUMMARY READS
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotCache is the cache-aside layer in front of the snapshot table.
// Any error from Get counts as a miss; the read falls through to storage.
type SnapshotCache interface {
	Get(ctx context.Context, studentID string) (*dashboard.Snapshot, error)
	Set(ctx context.Context, snap *dashboard.Snapshot) error
}

// SummaryService serves the per-student dashboard summary.
type SummaryService struct {
	store  unitofwork.Store
	cache  SnapshotCache
	logger *slog.Logger
	now    func() time.Time
}

// NewSummaryService creates a summary service. A nil cache disables the
// cache tier; reads then go straight to the snapshot table.
func NewSummaryService(store unitofwork.Store, cache SnapshotCache, logger *slog.Logger) *SummaryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryService{store: store, cache: cache, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// GetSummary returns the student's dashboard summary. Resolution order:
// cache, stored snapshot (backfilling the cache), then a live aggregation
// when the worker has never materialized a snapshot. A degraded cache is
// logged and skipped, never surfaced to the caller.
func (s *SummaryService) GetSummary(ctx context.Context, actor shared.ActorContext, studentID string) (*dashboard.Snapshot, error) {
	if err := shared.EnsureAccess(actor, studentID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if snap, err := s.cache.Get(ctx, studentID); err == nil {
			return snap, nil
		}
	}

	u := s.store.View()
	if _, err := u.Students().GetByID(ctx, studentID); err != nil {
		return nil, err
	}

	snap, err := u.Snapshots().Get(ctx, studentID)
	if shared.IsNotFound(err) {
		// No materialized snapshot yet. Aggregate live; the worker will
		// persist one on its next pass.
		snap, err = summary.Aggregate(ctx, u, studentID, s.now())
	}
	if err != nil {
		return nil, err
	}

	s.backfill(ctx, snap)
	return snap, nil
}

// RequestRefresh enqueues a recomputation of the student's snapshot by
// appending a DASHBOARD_SUMMARY_REFRESH_REQUESTED event. The worker picks
// it up on its next pass; at-least-once delivery is fine because the
// recomputation is idempotent.
func (s *SummaryService) RequestRefresh(ctx context.Context, actor shared.ActorContext, studentID string) error {
	if err := shared.EnsureAccess(actor, studentID); err != nil {
		return err
	}
	return s.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		if _, err := u.Students().GetByID(ctx, studentID); err != nil {
			return err
		}
		e := audit.NewEvent(studentID, audit.SummaryRefreshRequested, nil)
		return u.Events().Append(ctx, e)
	})
}

func (s *SummaryService) backfill(ctx context.Context, snap *dashboard.Snapshot) {
	if s.cache == nil || snap == nil {
		return
	}
	if err := s.cache.Set(ctx, snap); err != nil {
		s.logger.Warn("summary cache backfill failed",
			slog.String("student_id", snap.StudentID),
			slog.String("error", err.Error()),
		)
	}
}
