package batch

import (
	"context"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BULK EVALUATION GRADING
// ══════════════════════════════════════════════════════════════════════════════

// GradeOperation is one item of a bulk grading request.
type GradeOperation struct {
	ID      string           `json:"id"`
	Score20 float64          `json:"score20"`
	Items   []map[string]any `json:"items,omitempty"`
}

// GradeEvaluations applies manual grading passes with per-item isolation.
// Manual grading may overwrite an already-Corrigé evaluation.
func (p *Processor) GradeEvaluations(ctx context.Context, actor shared.ActorContext, ops []GradeOperation) ([]Result, error) {
	items := make([]itemFunc, len(ops))
	for i, op := range ops {
		op := op
		items[i] = func(ctx context.Context, u unitofwork.UnitOfWork) (outcome, error) {
			return gradeEvaluation(ctx, u, actor, op)
		}
	}
	return p.run(ctx, items)
}

func gradeEvaluation(ctx context.Context, u unitofwork.UnitOfWork, actor shared.ActorContext, op GradeOperation) (outcome, error) {
	ev, err := u.Evaluations().GetByID(ctx, op.ID)
	if err != nil {
		return outcome{}, err
	}
	if err := shared.EnsureAccess(actor, ev.StudentID); err != nil {
		return outcome{}, err
	}

	changed, err := ev.Grade(op.Score20, op.Items)
	if err != nil {
		return outcome{}, err
	}
	if !changed {
		return outcome{status: StatusUpdated, id: ev.ID, studentID: ev.StudentID, changed: false}, nil
	}

	if err := u.Evaluations().Update(ctx, ev); err != nil {
		return outcome{}, err
	}

	e := audit.NewEvent(ev.StudentID, audit.EvalGraded, map[string]any{
		"evaluationId": ev.ID,
		"score20":      op.Score20,
	})
	if err := u.Events().Append(ctx, e); err != nil {
		return outcome{}, err
	}

	return outcome{status: StatusUpdated, id: ev.ID, studentID: ev.StudentID, changed: true}, nil
}
