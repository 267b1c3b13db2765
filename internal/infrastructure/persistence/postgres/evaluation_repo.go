package postgres

import (
	"context"
	"encoding/json"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/evaluation"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// EvaluationRepository implements evaluation.Repository on PostgreSQL.
// The feedback payload is stored as one JSONB column.
type EvaluationRepository struct {
	q Querier
}

// NewEvaluationRepository creates a repository bound to the given querier.
func NewEvaluationRepository(q Querier) *EvaluationRepository {
	return &EvaluationRepository{q: q}
}

const evaluationColumns = `id, student_id, subject, generator, duration_min, status, score_20, feedback_json, created_at`

func scanEvaluation(row interface{ Scan(dest ...any) error }) (*evaluation.Evaluation, error) {
	e := &evaluation.Evaluation{}
	var status string
	var feedback []byte

	err := row.Scan(
		&e.ID, &e.StudentID, &e.Subject, &e.Generator, &e.DurationMin,
		&status, &e.Score20, &feedback, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Status = evaluation.Status(status)
	if len(feedback) > 0 {
		if err := json.Unmarshal(feedback, &e.Feedback); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Create inserts a new evaluation.
func (r *EvaluationRepository) Create(ctx context.Context, e *evaluation.Evaluation) error {
	feedback, err := json.Marshal(e.Feedback)
	if err != nil {
		return shared.WrapError("evaluation", "Create", shared.ErrInvalidInput, "failed to encode feedback", err)
	}

	query := `
		INSERT INTO evaluations (` + evaluationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.q.Exec(ctx, query,
		e.ID, e.StudentID, e.Subject, e.Generator, e.DurationMin,
		string(e.Status), e.Score20, feedback, e.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("evaluation", "Create", shared.ErrAlreadyExists, "evaluation already exists", err)
		}
		if IsForeignKeyViolation(err) {
			return shared.WrapError("evaluation", "Create", shared.ErrNotFound, "student not found: "+e.StudentID, err)
		}
		return shared.WrapError("evaluation", "Create", shared.ErrInfrastructure, "failed to insert evaluation", err)
	}

	return nil
}

// GetByID returns an evaluation by ID.
func (r *EvaluationRepository) GetByID(ctx context.Context, id string) (*evaluation.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id = $1`

	e, err := scanEvaluation(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("evaluation", "GetByID", shared.ErrNotFound, "evaluation not found: "+id)
		}
		return nil, shared.WrapError("evaluation", "GetByID", shared.ErrInfrastructure, "failed to query evaluation", err)
	}

	return e, nil
}

// ListByStudent returns all evaluations of a student, newest first.
func (r *EvaluationRepository) ListByStudent(ctx context.Context, studentID string) ([]*evaluation.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE student_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, studentID)
	if err != nil {
		return nil, shared.WrapError("evaluation", "ListByStudent", shared.ErrInfrastructure, "failed to list evaluations", err)
	}
	defer rows.Close()

	var evals []*evaluation.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, shared.WrapError("evaluation", "ListByStudent", shared.ErrInfrastructure, "failed to scan evaluation", err)
		}
		evals = append(evals, e)
	}

	return evals, rows.Err()
}

// Update persists status, score, and feedback payload.
func (r *EvaluationRepository) Update(ctx context.Context, e *evaluation.Evaluation) error {
	feedback, err := json.Marshal(e.Feedback)
	if err != nil {
		return shared.WrapError("evaluation", "Update", shared.ErrInvalidInput, "failed to encode feedback", err)
	}

	query := `
		UPDATE evaluations
		SET status = $2, score_20 = $3, feedback_json = $4
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, e.ID, string(e.Status), e.Score20, feedback)
	if err != nil {
		return shared.WrapError("evaluation", "Update", shared.ErrInfrastructure, "failed to update evaluation", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("evaluation", "Update", shared.ErrNotFound, "evaluation not found: "+e.ID)
	}

	return nil
}

// LastScore returns the most recent non-nil score of a Corrigé evaluation.
func (r *EvaluationRepository) LastScore(ctx context.Context, studentID string) (*float64, error) {
	query := `
		SELECT score_20
		FROM evaluations
		WHERE student_id = $1 AND status = $2 AND score_20 IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	var score *float64
	err := r.q.QueryRow(ctx, query, studentID, string(evaluation.StatusCorrige)).Scan(&score)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, shared.WrapError("evaluation", "LastScore", shared.ErrInfrastructure, "failed to query last score", err)
	}

	return score, nil
}
