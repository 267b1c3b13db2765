// Package plan contains the exam plan (épreuves) of a student and the
// template catalogue that the sync engine reconciles against.
package plan

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// Source marks the provenance of a plan row. Provenance gates which sync
// path may delete the row: the Agent reconciliation never touches
// Réglement rows and vice versa.
type Source string

const (
	SourceReglement Source = "Réglement"
	SourceAgent     Source = "Agent"
)

// ParseSource coerces a case-insensitive name or value into a Source.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "réglement", "reglement":
		return SourceReglement, nil
	case "agent":
		return SourceAgent, nil
	default:
		return "", shared.NewDomainError("plan", "ParseSource", shared.ErrInvalidState, "unknown plan source: "+s)
	}
}

// EpreuvePlan is one exam entry on a student's plan. The code is the
// natural key within a student.
type EpreuvePlan struct {
	ID          string
	StudentID   string
	Code        string
	Label       string
	Weight      float64
	ScheduledAt *time.Time
	Format      string
	Source      Source
	CreatedAt   time.Time
}

// New creates a plan row with the given provenance.
func New(studentID, code, label, format string, weight float64, source Source) *EpreuvePlan {
	return &EpreuvePlan{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Code:      code,
		Label:     label,
		Weight:    weight,
		Format:    format,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks entity invariants before persistence.
func (p *EpreuvePlan) Validate() error {
	if p.StudentID == "" {
		return shared.NewDomainError("plan", "Validate", shared.ErrEmptyValue, "student id is required")
	}
	if strings.TrimSpace(p.Code) == "" {
		return shared.NewDomainError("plan", "Validate", shared.ErrEmptyValue, "code is required")
	}
	if _, err := ParseSource(string(p.Source)); err != nil {
		return err
	}
	return nil
}
