package evaluation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name      string
		current   Status
		requested Status
		changed   bool
		wantErr   bool
	}{
		{"propose to soumis", StatusPropose, StatusSoumis, true, false},
		{"soumis to corrige", StatusSoumis, StatusCorrige, true, false},
		{"same status is a no-op", StatusSoumis, StatusSoumis, false, false},
		{"no skipping submission", StatusPropose, StatusCorrige, false, true},
		{"corrige is terminal", StatusCorrige, StatusSoumis, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, changed, err := Transition(tt.current, tt.requested)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shared.ErrStateTransition))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestSubmit(t *testing.T) {
	ev := New("student-1", "Mathématiques", "agent-v1", 60)

	changed, err := ev.Submit(map[string]any{"answers": []string{"a", "b"}})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusSoumis, ev.Status)
	assert.Len(t, ev.Feedback.Submissions, 1)

	// Repeating the submission leaves the payload untouched.
	changed, err = ev.Submit(map[string]any{"answers": []string{"c"}})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, ev.Feedback.Submissions, 1)
}

func TestSubmitRejectedOnceGraded(t *testing.T) {
	ev := New("student-1", "Mathématiques", "agent-v1", 60)
	_, err := ev.Submit(nil)
	require.NoError(t, err)
	_, err = ev.Grade(12, nil)
	require.NoError(t, err)

	changed, err := ev.Submit(map[string]any{"answers": []string{"late"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrStateTransition))
	assert.False(t, changed)
	assert.Len(t, ev.Feedback.Submissions, 1)
}

func TestGradeOverwritesPublishedScore(t *testing.T) {
	ev := New("student-1", "Physique", "agent-v1", 90)
	_, err := ev.Submit(nil)
	require.NoError(t, err)

	changed, err := ev.Grade(12, []map[string]any{{"q": 1, "ok": true}})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusCorrige, ev.Status)
	require.NotNil(t, ev.Score20)
	assert.Equal(t, 12.0, *ev.Score20)

	// A second manual pass replaces the score and appends to history.
	changed, err = ev.Grade(15, nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 15.0, *ev.Score20)
	assert.Len(t, ev.Feedback.History, 2)
}

func TestAutoGradeNeverClobbersPublishedScore(t *testing.T) {
	ev := New("student-1", "Physique", "agent-v1", 90)
	_, err := ev.Submit(nil)
	require.NoError(t, err)

	changed, err := ev.AutoGrade(10, nil)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = ev.AutoGrade(18, nil)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 10.0, *ev.Score20)
	assert.Len(t, ev.Feedback.History, 1)
}

func TestGradeRejectsOutOfRangeScore(t *testing.T) {
	ev := New("student-1", "Physique", "agent-v1", 90)
	_, err := ev.Submit(nil)
	require.NoError(t, err)

	_, err = ev.Grade(25, nil)
	assert.Error(t, err)

	_, err = ev.Grade(-1, nil)
	assert.Error(t, err)
}
