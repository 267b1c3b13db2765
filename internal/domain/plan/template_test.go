package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
)

func codes(entries []TemplateEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Code
	}
	return out
}

func TestResolveTemplateTerminaleScolarise(t *testing.T) {
	entries := ResolveTemplate(student.TrackTerminale, student.ProfileScolarise)

	assert.Equal(t, []string{"PHILO", "GRAND_ORAL", "SPECIALITE-1", "SPECIALITE-2"}, codes(entries))
}

func TestResolveTemplateCandidatLibreAddsControleContinu(t *testing.T) {
	entries := ResolveTemplate(student.TrackTerminale, student.ProfileCandidatLibre)

	assert.Contains(t, codes(entries), "CONTROLE_CONTINU")
	assert.Len(t, entries, 5)
}

func TestResolveTemplateFallsBackToTrack(t *testing.T) {
	entries := ResolveTemplate(student.TrackPremiere, student.ProfileCandidatLibre)

	// No exact (Premiere, CandidatLibre) template; the Scolarise one stands in.
	assert.Equal(t, []string{"FRANCAIS_ECRIT", "FRANCAIS_ORAL"}, codes(entries))
}

func TestResolveTemplateDefault(t *testing.T) {
	entries := ResolveTemplate(student.Track("Seconde"), student.ProfileScolarise)

	require.Len(t, entries, 1)
	assert.Equal(t, "BILAN_INITIAL", entries[0].Code)
}

func TestResolveTemplateReturnsCopy(t *testing.T) {
	a := ResolveTemplate(student.TrackTerminale, student.ProfileScolarise)
	a[0].Code = "MUTATED"

	b := ResolveTemplate(student.TrackTerminale, student.ProfileScolarise)
	assert.Equal(t, "PHILO", b[0].Code)
}

func TestScheduledAt(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	midnight := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	e := TemplateEntry{DaysUntil: days(10)}
	at := e.ScheduledAt(now)
	require.NotNil(t, at)
	assert.Equal(t, midnight.AddDate(0, 0, 10), *at)

	e = TemplateEntry{DaysUntil: days(-3)}
	at = e.ScheduledAt(now)
	require.NotNil(t, at)
	assert.Equal(t, midnight, *at)

	e = TemplateEntry{}
	assert.Nil(t, e.ScheduledAt(now))
}

func TestScheduledAtIsStableWithinADay(t *testing.T) {
	e := TemplateEntry{DaysUntil: days(120)}

	morning := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)
	evening := time.Date(2026, 2, 1, 23, 59, 59, 0, time.UTC)

	assert.Equal(t, *e.ScheduledAt(morning), *e.ScheduledAt(evening))
}
