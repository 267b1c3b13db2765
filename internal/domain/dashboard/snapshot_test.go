package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeIsDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	score := 14.5
	next := now.Add(48 * time.Hour)
	in := Inputs{
		ProgressAverage: 62.5,
		LastEvalScore:   &score,
		NextSessionAt:   &next,
		OpenTaskCount:   3,
	}

	a := Compute("student-1", in, now)
	b := Compute("student-1", in, now)

	assert.Equal(t, a, b)
	assert.Equal(t, 62.5, a.ProgressOverall)
	assert.Equal(t, 14.5, *a.LastEvalScore)
	assert.Equal(t, next, *a.NextSessionAt)
	assert.Equal(t, 3, a.TasksOpenCount)
	assert.Equal(t, now, a.RefreshedAt)
}

func TestComputeEmptyInputs(t *testing.T) {
	now := time.Now().UTC()
	snap := Compute("student-1", Inputs{}, now)

	assert.Zero(t, snap.ProgressOverall)
	assert.Nil(t, snap.LastEvalScore)
	assert.Nil(t, snap.NextSessionAt)
	assert.Zero(t, snap.TasksOpenCount)
}
