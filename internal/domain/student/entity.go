// Package student contains the student identity used by the learning-record
// core: the (track, profile) pair drives exam-plan template resolution.
package student

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// Track is the school year track of a student.
type Track string

const (
	TrackPremiere  Track = "Premiere"
	TrackTerminale Track = "Terminale"
)

// Profile distinguishes regular pupils from independent candidates.
type Profile string

const (
	ProfileScolarise     Profile = "Scolarise"
	ProfileCandidatLibre Profile = "CandidatLibre"
)

// ParseTrack coerces a case-insensitive name or value into a Track.
func ParseTrack(s string) (Track, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "premiere", "première":
		return TrackPremiere, nil
	case "terminale":
		return TrackTerminale, nil
	default:
		return "", shared.NewDomainError("student", "ParseTrack", shared.ErrInvalidState, "unknown track: "+s)
	}
}

// ParseProfile coerces a case-insensitive name or value into a Profile.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scolarise", "scolarisé":
		return ProfileScolarise, nil
	case "candidatlibre", "candidat_libre":
		return ProfileCandidatLibre, nil
	default:
		return "", shared.NewDomainError("student", "ParseProfile", shared.ErrInvalidState, "unknown profile: "+s)
	}
}

// Student is the owner of all learning-record entities.
type Student struct {
	ID           string
	Track        Track
	Profile      Profile
	Specialities []string
	Options      []string
	LLV          []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New creates a student with defaults matching the storage schema.
func New(track Track, profile Profile) *Student {
	now := time.Now().UTC()
	return &Student{
		ID:           uuid.NewString(),
		Track:        track,
		Profile:      profile,
		Specialities: []string{},
		Options:      []string{},
		LLV:          []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
