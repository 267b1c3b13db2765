package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/evaluation"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
	"github.com/cyranoaladin/nexus-project-v0/internal/infrastructure/ratelimit"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// GenerationLimiter throttles evaluation generation. Allow blocks until a
// slot is available or fails with a rate-limit error.
type GenerationLimiter interface {
	Allow(ctx context.Context) error
}

// EvaluationService drives the evaluation state machine: generation,
// student submission, manual grading, and the automated grading path.
type EvaluationService struct {
	store   unitofwork.Store
	limiter GenerationLimiter
	logger  *slog.Logger
	now     func() time.Time
}

// NewEvaluationService creates an evaluation service. A nil limiter falls
// back to a token bucket with the default generation quota.
func NewEvaluationService(store unitofwork.Store, limiter GenerationLimiter, logger *slog.Logger) *EvaluationService {
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultConfig())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationService{
		store:   store,
		limiter: limiter,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Generate creates a Proposé evaluation for the student. Generation runs
// through the rate limiter because it fronts an expensive generator.
func (s *EvaluationService) Generate(ctx context.Context, actor shared.ActorContext, studentID, subject, generator string, durationMin int) (*evaluation.Evaluation, error) {
	if err := shared.EnsureAccess(actor, studentID); err != nil {
		return nil, err
	}
	if err := s.limiter.Allow(ctx); err != nil {
		return nil, err
	}

	ev := evaluation.New(studentID, subject, generator, durationMin)
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	err := s.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		if _, err := u.Students().GetByID(ctx, studentID); err != nil {
			return err
		}
		if err := u.Evaluations().Create(ctx, ev); err != nil {
			return err
		}
		e := audit.NewEvent(studentID, audit.EvalGenerated, map[string]any{
			"evaluationId": ev.ID,
			"subject":      ev.Subject,
			"generator":    ev.Generator,
		})
		return u.Events().Append(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("evaluation generated",
		slog.String("evaluation_id", ev.ID),
		slog.String("student_id", studentID),
		slog.String("subject", subject),
	)
	return ev, nil
}

// Submit records a student submission and moves the evaluation to Soumis.
// Re-submitting a Soumis evaluation is an idempotent no-op: no payload
// change, no event. Submitting a Corrigé evaluation fails with a
// state-transition error.
func (s *EvaluationService) Submit(ctx context.Context, actor shared.ActorContext, evaluationID string, submission map[string]any) (*evaluation.Evaluation, error) {
	var result *evaluation.Evaluation
	err := s.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		ev, err := u.Evaluations().GetByID(ctx, evaluationID)
		if err != nil {
			return err
		}
		if err := shared.EnsureAccess(actor, ev.StudentID); err != nil {
			return err
		}

		changed, err := ev.Submit(submission)
		if err != nil {
			return err
		}
		result = ev
		if !changed {
			return nil
		}

		if err := u.Evaluations().Update(ctx, ev); err != nil {
			return err
		}
		e := audit.NewEvent(ev.StudentID, audit.EvalSubmitted, map[string]any{
			"evaluationId": ev.ID,
		})
		return u.Events().Append(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Grade applies a manual grading pass. Manual grading may overwrite an
// already-Corrigé evaluation, so a repeat call records a fresh EVAL_GRADED
// event and a fresh history entry.
func (s *EvaluationService) Grade(ctx context.Context, actor shared.ActorContext, evaluationID string, score20 float64, items []map[string]any) (*evaluation.Evaluation, error) {
	return s.grade(ctx, actor, evaluationID, score20, items, false)
}

// AutoGrade applies the automated grading path. Unlike Grade it is a
// strict no-op on an already-Corrigé evaluation: an automated pass must
// never clobber a published grade.
func (s *EvaluationService) AutoGrade(ctx context.Context, actor shared.ActorContext, evaluationID string, score20 float64, items []map[string]any) (*evaluation.Evaluation, error) {
	return s.grade(ctx, actor, evaluationID, score20, items, true)
}

func (s *EvaluationService) grade(ctx context.Context, actor shared.ActorContext, evaluationID string, score20 float64, items []map[string]any, auto bool) (*evaluation.Evaluation, error) {
	var result *evaluation.Evaluation
	err := s.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		ev, err := u.Evaluations().GetByID(ctx, evaluationID)
		if err != nil {
			return err
		}
		if err := shared.EnsureAccess(actor, ev.StudentID); err != nil {
			return err
		}

		var changed bool
		if auto {
			changed, err = ev.AutoGrade(score20, items)
		} else {
			changed, err = ev.Grade(score20, items)
		}
		if err != nil {
			return err
		}
		result = ev
		if !changed {
			return nil
		}

		if err := u.Evaluations().Update(ctx, ev); err != nil {
			return err
		}

		kind := audit.EvalGraded
		if auto {
			kind = audit.EvalAutoGraded
		}
		e := audit.NewEvent(ev.StudentID, kind, map[string]any{
			"evaluationId": ev.ID,
			"score20":      score20,
		})
		if err := u.Events().Append(ctx, e); err != nil {
			return err
		}
		refresh := audit.NewEvent(ev.StudentID, audit.SummaryRefreshRequested, nil)
		return u.Events().Append(ctx, refresh)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
