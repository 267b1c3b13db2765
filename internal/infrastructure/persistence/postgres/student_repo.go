package postgres

import (
	"context"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
)

// StudentRepository implements student.Repository on PostgreSQL.
type StudentRepository struct {
	q Querier
}

// NewStudentRepository creates a repository bound to the given querier.
func NewStudentRepository(q Querier) *StudentRepository {
	return &StudentRepository{q: q}
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	query := `
		INSERT INTO students (id, track, profile, specialities, options, llv, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.Exec(ctx, query,
		s.ID, string(s.Track), string(s.Profile),
		s.Specialities, s.Options, s.LLV,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("student", "Create", shared.ErrAlreadyExists, "student already exists", err)
		}
		return shared.WrapError("student", "Create", shared.ErrInfrastructure, "failed to insert student", err)
	}

	return nil
}

// GetByID returns a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	query := `
		SELECT id, track, profile, specialities, options, llv, created_at, updated_at
		FROM students
		WHERE id = $1
	`

	s := &student.Student{}
	var track, profile string

	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &track, &profile,
		&s.Specialities, &s.Options, &s.LLV,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("student", "GetByID", shared.ErrNotFound, "student not found: "+id)
		}
		return nil, shared.WrapError("student", "GetByID", shared.ErrInfrastructure, "failed to query student", err)
	}

	s.Track = student.Track(track)
	s.Profile = student.Profile(profile)
	return s, nil
}

// Update persists track, profile, and option lists.
func (r *StudentRepository) Update(ctx context.Context, s *student.Student) error {
	query := `
		UPDATE students
		SET track = $2, profile = $3, specialities = $4, options = $5, llv = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		s.ID, string(s.Track), string(s.Profile),
		s.Specialities, s.Options, s.LLV,
		s.UpdatedAt,
	)
	if err != nil {
		return shared.WrapError("student", "Update", shared.ErrInfrastructure, "failed to update student", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewDomainError("student", "Update", shared.ErrNotFound, "student not found: "+s.ID)
	}

	return nil
}

// ListIDs returns all student IDs.
func (r *StudentRepository) ListIDs(ctx context.Context) ([]string, error) {
	query := `SELECT id FROM students ORDER BY created_at`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, shared.WrapError("student", "ListIDs", shared.ErrInfrastructure, "failed to list students", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, shared.WrapError("student", "ListIDs", shared.ErrInfrastructure, "failed to scan student id", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
