package plans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setNow(t *testing.T, fixed time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = prev })
}

func TestMidnight(t *testing.T) {
	assert.Equal(t,
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Midnight(time.Date(2024, 1, 15, 23, 59, 59, 0, time.UTC)),
	)

	// non-UTC times truncate to their UTC day
	berlin, err := time.LoadLocation("Europe/Berlin")
	assert.NoError(t, err)
	assert.Equal(t,
		time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
		Midnight(time.Date(2024, 1, 15, 0, 30, 0, 0, berlin)),
	)
}

func TestTodayMidnightRollsOver(t *testing.T) {
	setNow(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), TodayMidnight())

	// memoized within the same day
	setNow(t, time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), TodayMidnight())

	// next day refreshes the cache
	setNow(t, time.Date(2024, 1, 16, 0, 1, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), TodayMidnight())
}

func TestIsToday(t *testing.T) {
	setNow(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
	assert.True(t, IsToday(time.Date(2024, 1, 15, 18, 45, 0, 0, time.UTC)))
	assert.False(t, IsToday(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)))
}
