package plan

import (
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
)

// TemplateEntry is one exam in a (track, profile) template. DaysUntil is
// the offset from "now" to the scheduled date; nil leaves the exam
// unscheduled.
type TemplateEntry struct {
	Code      string
	Label     string
	Format    string
	Weight    float64
	DaysUntil *int
}

// ScheduledAt converts DaysUntil into an absolute timestamp. The offset is
// day-granular, so it is applied to UTC midnight of the given instant:
// resolving the same entry twice within one day yields identical
// timestamps. Negative offsets clamp to today; nil stays unscheduled.
func (e TemplateEntry) ScheduledAt(now time.Time) *time.Time {
	if e.DaysUntil == nil {
		return nil
	}
	days := *e.DaysUntil
	if days < 0 {
		days = 0
	}
	at := now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, days)
	return &at
}

func days(n int) *int { return &n }

// templateKey identifies a template by (track, profile). An empty profile
// matches any profile of the track.
type templateKey struct {
	track   student.Track
	profile student.Profile
}

// templates is the exam template catalogue. Resolution order: exact
// (track, profile) match, then any entry for the track alone, then the
// default single-entry template.
var templates = map[templateKey][]TemplateEntry{
	{student.TrackTerminale, student.ProfileScolarise}: {
		{Code: "PHILO", Label: "Philosophie", Format: "Écrit 4h", Weight: 8, DaysUntil: days(150)},
		{Code: "GRAND_ORAL", Label: "Grand oral", Format: "Oral 20min", Weight: 10, DaysUntil: days(170)},
		{Code: "SPECIALITE-1", Label: "Épreuve de spécialité 1", Format: "Écrit 3h30", Weight: 16, DaysUntil: days(120)},
		{Code: "SPECIALITE-2", Label: "Épreuve de spécialité 2", Format: "Écrit 3h30", Weight: 16, DaysUntil: days(122)},
	},
	{student.TrackTerminale, student.ProfileCandidatLibre}: {
		{Code: "PHILO", Label: "Philosophie", Format: "Écrit 4h", Weight: 8, DaysUntil: days(150)},
		{Code: "GRAND_ORAL", Label: "Grand oral", Format: "Oral 20min", Weight: 10, DaysUntil: days(170)},
		{Code: "SPECIALITE-1", Label: "Épreuve de spécialité 1", Format: "Écrit 3h30", Weight: 16, DaysUntil: days(120)},
		{Code: "SPECIALITE-2", Label: "Épreuve de spécialité 2", Format: "Écrit 3h30", Weight: 16, DaysUntil: days(122)},
		{Code: "CONTROLE_CONTINU", Label: "Évaluations ponctuelles", Format: "Écrit", Weight: 30, DaysUntil: nil},
	},
	{student.TrackPremiere, student.ProfileScolarise}: {
		{Code: "FRANCAIS_ECRIT", Label: "Français écrit", Format: "Écrit 4h", Weight: 5, DaysUntil: days(200)},
		{Code: "FRANCAIS_ORAL", Label: "Français oral", Format: "Oral 20min", Weight: 5, DaysUntil: days(215)},
	},
}

// trackFallbacks maps a track to the profile whose template stands in when
// no exact (track, profile) entry exists.
var trackFallbacks = map[student.Track]student.Profile{
	student.TrackTerminale: student.ProfileScolarise,
	student.TrackPremiere:  student.ProfileScolarise,
}

// defaultTemplate is the last-resort single-entry template.
var defaultTemplate = []TemplateEntry{
	{Code: "BILAN_INITIAL", Label: "Bilan initial", Format: "Diagnostic", Weight: 0, DaysUntil: days(7)},
}

// ResolveTemplate returns the ordered template for a (track, profile)
// pair. The result is a copy; callers may not mutate the catalogue.
func ResolveTemplate(track student.Track, profile student.Profile) []TemplateEntry {
	if entries, ok := templates[templateKey{track, profile}]; ok {
		return append([]TemplateEntry(nil), entries...)
	}
	if fallback, ok := trackFallbacks[track]; ok {
		if entries, ok := templates[templateKey{track, fallback}]; ok {
			return append([]TemplateEntry(nil), entries...)
		}
	}
	return append([]TemplateEntry(nil), defaultTemplate...)
}
