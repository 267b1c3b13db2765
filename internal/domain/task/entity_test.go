package task

import (
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
		next      Status
		changed   bool
		wantErr   bool
	}{
		{"todo to done", StatusTodo, StatusDone, StatusDone, true, false},
		{"todo to skipped", StatusTodo, StatusSkipped, StatusSkipped, true, false},
		{"done reopens", StatusDone, StatusTodo, StatusTodo, true, false},
		{"skipped reopens", StatusSkipped, StatusTodo, StatusTodo, true, false},
		{"done to skipped", StatusDone, StatusSkipped, StatusSkipped, true, false},
		{"same status is a no-op", StatusDone, StatusDone, StatusDone, false, false},
		{"unknown current", Status("Pending"), StatusDone, Status("Pending"), false, true},
		{"unknown requested", StatusTodo, Status("Archived"), StatusTodo, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, changed, err := Transition(tt.current, tt.requested)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, shared.IsInvalidState(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.next, next)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("  DONE ")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got)

	_, err = ParseStatus("finished")
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	task := New("student-1", "Réviser le chapitre 3")

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, StatusTodo, task.Status)
	assert.Equal(t, SourceAgent, task.Source)
	assert.Equal(t, 1.0, task.Weight)
	assert.True(t, task.IsOpen())
	require.NoError(t, task.Validate())
}

func TestValidate(t *testing.T) {
	task := New("", "label")
	assert.Error(t, task.Validate())

	task = New("student-1", "   ")
	assert.Error(t, task.Validate())

	task = New("student-1", "ok")
	task.Weight = -1
	assert.Error(t, task.Validate())
}
