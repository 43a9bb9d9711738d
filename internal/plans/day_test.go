package plans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusToggles(t *testing.T) {
	assert.Equal(t, StatusCompleted, StatusUnset.ToggleCompleted())
	assert.Equal(t, StatusUnset, StatusCompleted.ToggleCompleted())
	assert.Equal(t, StatusCompleted, StatusMissed.ToggleCompleted())

	assert.Equal(t, StatusMissed, StatusUnset.ToggleMissed())
	assert.Equal(t, StatusUnset, StatusMissed.ToggleMissed())
	assert.Equal(t, StatusMissed, StatusCompleted.ToggleMissed())
}

func TestStatusFlagsRoundtrip(t *testing.T) {
	completed, missed := StatusCompleted.Flags()
	assert.True(t, completed)
	assert.False(t, missed)

	completed, missed = StatusMissed.Flags()
	assert.False(t, completed)
	assert.True(t, missed)

	completed, missed = StatusUnset.Flags()
	assert.False(t, completed)
	assert.False(t, missed)

	assert.Equal(t, StatusCompleted, StatusFromFlags(true, false))
	assert.Equal(t, StatusMissed, StatusFromFlags(false, true))
	assert.Equal(t, StatusUnset, StatusFromFlags(false, false))
	// completed wins if storage somehow holds both flags
	assert.Equal(t, StatusCompleted, StatusFromFlags(true, true))
}

func TestDayPlanValidate(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	valid := DayPlan{
		ID:        "d1",
		OwnerID:   "mila",
		Date:      date,
		Kind:      KindWorkout,
		Exercises: []string{"squats", "deadlift"},
		Duration:  45,
	}
	require.NoError(t, valid.Validate())

	noOwner := valid
	noOwner.OwnerID = ""
	require.Error(t, noOwner.Validate())

	noDate := valid
	noDate.Date = time.Time{}
	require.Error(t, noDate.Validate())

	badKind := valid
	badKind.Kind = "sprint"
	require.Error(t, badKind.Validate())

	restWithExercises := valid
	restWithExercises.Kind = KindRest
	require.Error(t, restWithExercises.Validate())

	negativeDuration := valid
	negativeDuration.Duration = -10
	require.Error(t, negativeDuration.Validate())

	// duration is optional, zero is fine
	zeroDuration := valid
	zeroDuration.Duration = 0
	require.NoError(t, zeroDuration.Validate())

	emptyCompleted := DayPlan{
		ID:      "d2",
		OwnerID: "mila",
		Date:    date,
		Kind:    KindEmpty,
		Status:  StatusCompleted,
	}
	require.Error(t, emptyCompleted.Validate())
}

func TestEmptyDayCannotToggle(t *testing.T) {
	day := NewEmptyDay("mila", time.Date(2024, 1, 15, 13, 37, 0, 0, time.UTC))
	assert.Equal(t, KindEmpty, day.Kind)
	assert.Equal(t, StatusUnset, day.Status)
	assert.False(t, day.CanToggle())
	// date normalized to midnight already at construction
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), day.Date)

	workout := day
	workout.Kind = KindWorkout
	assert.True(t, workout.CanToggle())
}
