package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/summary"
	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/dashboard"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/report"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARENT REPORT
// ══════════════════════════════════════════════════════════════════════════════

// ReportService renders parent reports from the student's current figures.
type ReportService struct {
	store  unitofwork.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewReportService creates a report service.
func NewReportService(store unitofwork.Store, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Generate produces a parent report for the student. KPIs come from the
// stored snapshot when one exists and from a live aggregation otherwise,
// so a report never fails just because the worker has not run yet. Emits
// one PARENT_REPORT_GENERATED event.
func (s *ReportService) Generate(ctx context.Context, actor shared.ActorContext, studentID string) (*report.Report, error) {
	if err := shared.EnsureAccess(actor, studentID); err != nil {
		return nil, err
	}

	var generated *report.Report
	err := s.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		if _, err := u.Students().GetByID(ctx, studentID); err != nil {
			return err
		}

		now := s.now()
		snap, err := u.Snapshots().Get(ctx, studentID)
		if shared.IsNotFound(err) {
			snap, err = summary.Aggregate(ctx, u, studentID, now)
		}
		if err != nil {
			return err
		}

		kpis := map[string]any{
			"progressOverall": snap.ProgressOverall,
			"tasksOpenCount":  snap.TasksOpenCount,
		}
		if snap.LastEvalScore != nil {
			kpis["lastEvalScore"] = *snap.LastEvalScore
		}
		if snap.NextSessionAt != nil {
			kpis["nextSessionAt"] = snap.NextSessionAt.Format(time.RFC3339)
		}

		generated = report.New(studentID, renderSummaryMD(snap, now), kpis)
		if err := u.Reports().Create(ctx, generated); err != nil {
			return err
		}

		e := audit.NewEvent(studentID, audit.ParentReportGenerated, map[string]any{
			"reportId": generated.ID,
		})
		return u.Events().Append(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("parent report generated",
		slog.String("report_id", generated.ID),
		slog.String("student_id", studentID),
	)
	return generated, nil
}

func renderSummaryMD(snap *dashboard.Snapshot, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Bilan de suivi\n\n")
	fmt.Fprintf(&b, "_Généré le %s_\n\n", now.Format("02/01/2006"))
	fmt.Fprintf(&b, "- Progression globale : %.1f %%\n", snap.ProgressOverall)
	if snap.LastEvalScore != nil {
		fmt.Fprintf(&b, "- Dernière évaluation : %.1f / 20\n", *snap.LastEvalScore)
	} else {
		b.WriteString("- Dernière évaluation : aucune note publiée\n")
	}
	if snap.NextSessionAt != nil {
		fmt.Fprintf(&b, "- Prochaine séance : %s\n", snap.NextSessionAt.Format("02/01/2006 15:04"))
	} else {
		b.WriteString("- Prochaine séance : aucune séance confirmée\n")
	}
	fmt.Fprintf(&b, "- Tâches en cours : %d\n", snap.TasksOpenCount)
	return b.String()
}
