package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name      string
		current   Status
		requested Status
		next      Status
		changed   bool
		wantErr   bool
	}{
		{"propose to confirme", StatusPropose, StatusConfirme, StatusConfirme, true, false},
		{"propose to annule", StatusPropose, StatusAnnule, StatusAnnule, true, false},
		{"confirme to annule", StatusConfirme, StatusAnnule, StatusAnnule, true, false},
		{"cancel twice is a no-op", StatusAnnule, StatusAnnule, StatusAnnule, false, false},
		{"confirm twice is a no-op", StatusConfirme, StatusConfirme, StatusConfirme, false, false},
		{"annule is terminal", StatusAnnule, StatusConfirme, StatusAnnule, false, true},
		{"no backward move", StatusConfirme, StatusPropose, StatusConfirme, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, changed, err := Transition(tt.current, tt.requested)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shared.ErrStateTransition))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.next, next)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestValidate(t *testing.T) {
	start := time.Now().UTC()
	s := New(KindVisio, start, start.Add(time.Hour))
	require.NoError(t, s.Validate())

	s.SlotEnd = start.Add(-time.Hour)
	assert.Error(t, s.Validate())

	s = New(KindVisio, start, start.Add(time.Hour))
	s.Capacity = 0
	assert.Error(t, s.Validate())

	s = New(KindVisio, start, start.Add(time.Hour))
	s.PriceCents = -100
	assert.Error(t, s.Validate())
}

func TestParseKind(t *testing.T) {
	got, err := ParseKind("presentiel")
	require.NoError(t, err)
	assert.Equal(t, KindPresentiel, got)

	_, err = ParseKind("hybride")
	assert.Error(t, err)
}

func TestNewBooking(t *testing.T) {
	b := NewBooking("session-1", "student-1")
	assert.Equal(t, BookingStatusActive, b.Status)
	assert.NotEmpty(t, b.ID)
}
