package plans

import (
	"sync"
	"time"
)

// now is swapped out in tests.
var now = time.Now

// Midnight truncates t to its UTC calendar day.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// single-entry cache for today's midnight, refreshed once the day rolls over
var todayCache struct {
	sync.Mutex
	midnight time.Time
}

// TodayMidnight returns the midnight of the current UTC day. The value is
// memoized until the clock passes into the next day.
func TodayMidnight() time.Time {
	todayCache.Lock()
	defer todayCache.Unlock()

	n := now().UTC()
	if todayCache.midnight.IsZero() ||
		n.Before(todayCache.midnight) ||
		!n.Before(todayCache.midnight.AddDate(0, 0, 1)) {
		todayCache.midnight = Midnight(n)
	}
	return todayCache.midnight
}

func IsToday(t time.Time) bool {
	return Midnight(t).Equal(TodayMidnight())
}
