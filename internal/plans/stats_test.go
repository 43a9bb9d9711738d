package plans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func workoutDay(id string, date time.Time, status Status) DayPlan {
	return DayPlan{
		ID:      id,
		OwnerID: "mila",
		Date:    date,
		Kind:    KindWorkout,
		Status:  status,
	}
}

func TestCompletedWorkouts(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	days := []DayPlan{
		workoutDay("w1", start, StatusCompleted),
		workoutDay("w2", start.AddDate(0, 0, 1), StatusMissed),
		workoutDay("w3", start.AddDate(0, 0, 2), StatusCompleted),
		{ID: "r1", OwnerID: "mila", Date: start.AddDate(0, 0, 3), Kind: KindRest, Status: StatusCompleted},
		{ID: "e1", OwnerID: "mila", Date: start.AddDate(0, 0, 4), Kind: KindEmpty},
	}

	// rest days never count, even when toggled completed
	assert.Equal(t, 2, CompletedWorkouts(days))
	assert.Equal(t, 0, CompletedWorkouts(nil))
}

func TestCompareProgress(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	daysA := []DayPlan{
		workoutDay("a1", start, StatusCompleted),
		workoutDay("a2", start.AddDate(0, 0, 1), StatusCompleted),
		workoutDay("a3", start.AddDate(0, 0, 2), StatusCompleted),
		workoutDay("a4", start.AddDate(0, 0, 3), StatusMissed),
	}
	daysB := []DayPlan{
		workoutDay("b1", start, StatusCompleted),
		workoutDay("b2", start.AddDate(0, 0, 1), StatusCompleted),
		workoutDay("b3", start.AddDate(0, 0, 2), StatusCompleted),
		workoutDay("b4", start.AddDate(0, 0, 3), StatusCompleted),
		workoutDay("b5", start.AddDate(0, 0, 4), StatusCompleted),
	}

	cmp := CompareProgress("ana", daysA, "bojan", daysB)
	assert.Equal(t, 3, cmp.CompletedA)
	assert.Equal(t, 5, cmp.CompletedB)
	assert.InDelta(t, 0.6, cmp.RatioA, 0.001)
	assert.InDelta(t, 1.0, cmp.RatioB, 0.001)
	assert.Equal(t, "bojan", cmp.Leader)
	assert.False(t, cmp.Tie)
}

func TestCompareProgressTie(t *testing.T) {
	cmp := CompareProgress("ana", nil, "bojan", nil)
	assert.True(t, cmp.Tie)
	assert.Empty(t, cmp.Leader)
	assert.Zero(t, cmp.RatioA)
	assert.Zero(t, cmp.RatioB)
}

func TestToggleChangesCompletedCount(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day := workoutDay("w1", start, StatusCompleted)
	days := []DayPlan{day}
	assert.Equal(t, 1, CompletedWorkouts(days))

	days[0].Status = days[0].Status.ToggleCompleted()
	assert.Equal(t, 0, CompletedWorkouts(days))

	days[0].Status = days[0].Status.ToggleMissed()
	assert.Equal(t, 0, CompletedWorkouts(days))
}
