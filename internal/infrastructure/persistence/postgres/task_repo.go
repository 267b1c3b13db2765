package postgres

import (
	"context"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/task"
)

// TaskRepository implements task.Repository on PostgreSQL.
type TaskRepository struct {
	q Querier
}

// NewTaskRepository creates a repository bound to the given querier.
func NewTaskRepository(q Querier) *TaskRepository {
	return &TaskRepository{q: q}
}

const taskColumns = `id, student_id, label, due_at, weight, status, source, created_at, updated_at`

func scanTask(row interface{ Scan(dest ...any) error }) (*task.Task, error) {
	t := &task.Task{}
	var status, source string

	err := row.Scan(
		&t.ID, &t.StudentID, &t.Label, &t.DueAt, &t.Weight,
		&status, &source, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = task.Status(status)
	t.Source = task.Source(source)
	return t, nil
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.Exec(ctx, query,
		t.ID, t.StudentID, t.Label, t.DueAt, t.Weight,
		string(t.Status), string(t.Source), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("task", "Create", shared.ErrAlreadyExists, "task already exists", err)
		}
		if IsForeignKeyViolation(err) {
			return shared.WrapError("task", "Create", shared.ErrNotFound, "student not found: "+t.StudentID, err)
		}
		return shared.WrapError("task", "Create", shared.ErrInfrastructure, "failed to insert task", err)
	}

	return nil
}

// GetByID returns a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("task", "GetByID", shared.ErrNotFound, "task not found: "+id)
		}
		return nil, shared.WrapError("task", "GetByID", shared.ErrInfrastructure, "failed to query task", err)
	}

	return t, nil
}

// ListByStudent returns all tasks of a student, newest first.
func (r *TaskRepository) ListByStudent(ctx context.Context, studentID string) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE student_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, studentID)
	if err != nil {
		return nil, shared.WrapError("task", "ListByStudent", shared.ErrInfrastructure, "failed to list tasks", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, shared.WrapError("task", "ListByStudent", shared.ErrInfrastructure, "failed to scan task", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// Update persists all mutable fields of a task.
func (r *TaskRepository) Update(ctx context.Context, t *task.Task) error {
	query := `
		UPDATE tasks
		SET label = $2, due_at = $3, weight = $4, status = $5, source = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		t.ID, t.Label, t.DueAt, t.Weight,
		string(t.Status), string(t.Source), t.UpdatedAt,
	)
	if err != nil {
		return shared.WrapError("task", "Update", shared.ErrInfrastructure, "failed to update task", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("task", "Update", shared.ErrNotFound, "task not found: "+t.ID)
	}

	return nil
}

// Delete removes a task permanently.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return shared.WrapError("task", "Delete", shared.ErrInfrastructure, "failed to delete task", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("task", "Delete", shared.ErrNotFound, "task not found: "+id)
	}

	return nil
}

// CountOpen returns the number of Todo tasks for a student.
func (r *TaskRepository) CountOpen(ctx context.Context, studentID string) (int, error) {
	query := `SELECT COUNT(*) FROM tasks WHERE student_id = $1 AND status = $2`

	var count int
	err := r.q.QueryRow(ctx, query, studentID, string(task.StatusTodo)).Scan(&count)
	if err != nil {
		return 0, shared.WrapError("task", "CountOpen", shared.ErrInfrastructure, "failed to count open tasks", err)
	}

	return count, nil
}
