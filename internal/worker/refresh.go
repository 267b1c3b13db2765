// Package worker contains the background refresh loop that materializes
// dashboard snapshots from refresh-request events.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/summary"
	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/dashboard"
	"github.com/cyranoaladin/nexus-project-v0/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD REFRESH WORKER
//
// The worker's checkpoint is the timestamp of the newest
// DASHBOARD_SUMMARY_REFRESH_COMPLETED event; requests strictly after it
// form the pending window. Delivery is at-least-once: a crash between
// recompute and commit replays the window, and replaying is harmless
// because recomputation is a pure function of current rows.
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotCache receives freshly materialized snapshots after commit.
type SnapshotCache interface {
	Set(ctx context.Context, snap *dashboard.Snapshot) error
}

// RefreshWorker drains refresh-request events into snapshot rows.
type RefreshWorker struct {
	store    unitofwork.Store
	cache    SnapshotCache
	logger   *slog.Logger
	retrier  *retry.Retrier
	interval time.Duration
	now      func() time.Time
}

// NewRefreshWorker creates a refresh worker. A nil cache skips the
// post-commit cache update.
func NewRefreshWorker(store unitofwork.Store, cache SnapshotCache, interval time.Duration, logger *slog.Logger) *RefreshWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshWorker{
		store:    store,
		cache:    cache,
		logger:   logger,
		retrier:  retry.RefreshRetrier(),
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run executes passes on the configured interval until the context is
// cancelled. A pass that still fails after retries stops the loop; the
// checkpoint has not moved, so a restart replays the same window.
func (w *RefreshWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("refresh worker started", slog.Duration("interval", w.interval))
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			w.logger.Info("refresh worker stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single pass and returns the number of request events
// consumed. An empty window is a no-op: no snapshot write, no event.
func (w *RefreshWorker) RunOnce(ctx context.Context) (int, error) {
	view := w.store.View()
	checkpoint, err := view.Events().LastOccurrence(ctx, audit.SummaryRefreshCompleted)
	if err != nil {
		return 0, err
	}
	requests, err := view.Events().FindSince(ctx, audit.SummaryRefreshRequested, checkpoint)
	if err != nil {
		return 0, err
	}
	if len(requests) == 0 {
		return 0, nil
	}

	// Coalesce: N requests for one student cost one recomputation.
	pending := make(map[string]int)
	order := make([]string, 0, len(requests))
	for _, e := range requests {
		if _, seen := pending[e.StudentID]; !seen {
			order = append(order, e.StudentID)
		}
		pending[e.StudentID]++
	}

	snapshots := make([]*dashboard.Snapshot, 0, len(order))
	err = w.retrier.Do(ctx, func(ctx context.Context) error {
		snapshots = snapshots[:0]
		err := w.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
			for _, studentID := range order {
				snap, err := summary.Aggregate(ctx, u, studentID, w.now())
				if err != nil {
					return err
				}
				if err := u.Snapshots().Write(ctx, snap); err != nil {
					return err
				}
				done := audit.NewEvent(studentID, audit.SummaryRefreshCompleted, map[string]any{
					"processedCount": pending[studentID],
				})
				if err := u.Events().Append(ctx, done); err != nil {
					return err
				}
				snapshots = append(snapshots, snap)
			}
			return nil
		})
		return retry.Retryable(err)
	})
	if err != nil {
		return 0, err
	}

	// Cache updates happen after commit so a rollback can never leave a
	// snapshot visible in cache only.
	for _, snap := range snapshots {
		if w.cache == nil {
			break
		}
		if err := w.cache.Set(ctx, snap); err != nil {
			w.logger.Warn("snapshot cache update failed",
				slog.String("student_id", snap.StudentID),
				slog.String("error", err.Error()),
			)
		}
	}

	w.logger.Info("refresh pass complete",
		slog.Int("requests", len(requests)),
		slog.Int("students", len(order)),
	)
	return len(requests), nil
}
