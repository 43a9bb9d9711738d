package plans

import (
	"sort"
	"time"
)

const (
	// DefaultDisplayLimit is how many loaded days the UI gets at once.
	DefaultDisplayLimit = 7
	displayLimitStep    = 7

	// initial fetch range around the center date
	windowDaysBack    = 7
	windowDaysForward = 14

	// how far back history can be extended, relative to today
	historyCeilingDays = 30

	seedDays = 7
)

// Window is the in-memory, owned slice of an owner's day plans. It keeps
// a loaded set (wider) and a display limit (what the UI shows). Entries
// are kept in ascending date order unless rotated around a pivot via
// Rotate, in which case the pivot comes first, later dates follow in
// ascending order, and earlier dates trail, also ascending.
type Window struct {
	entries      []DayPlan
	displayLimit int
	pivotID      string // non-empty while rotated
}

func NewWindow() *Window {
	return &Window{
		displayLimit: DefaultDisplayLimit,
	}
}

// rotate reorders entries so the pivot entry is first, followed by all
// later dates ascending, followed by all earlier dates ascending.
// Pure - the input slice is not modified. Returns the input unchanged
// when the pivot is not present.
func rotate(entries []DayPlan, pivotID string) []DayPlan {
	pivotIdx := -1
	for i := range entries {
		if entries[i].ID == pivotID {
			pivotIdx = i
			break
		}
	}
	if pivotIdx < 0 {
		return entries
	}

	sorted := sortedByDate(entries)
	for i := range sorted {
		if sorted[i].ID == pivotID {
			pivotIdx = i
			break
		}
	}

	rotated := make([]DayPlan, 0, len(sorted))
	rotated = append(rotated, sorted[pivotIdx:]...)
	rotated = append(rotated, sorted[:pivotIdx]...)
	return rotated
}

func sortedByDate(entries []DayPlan) []DayPlan {
	out := make([]DayPlan, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// SetEntries replaces the loaded set, dropping any rotation.
func (w *Window) SetEntries(entries []DayPlan) {
	w.entries = sortedByDate(entries)
	w.pivotID = ""
}

// Merge adds the given days into the loaded set, de-duplicating by id,
// and re-sorts everything ascending (rotation is dropped).
func (w *Window) Merge(more []DayPlan) {
	seen := make(map[string]bool, len(w.entries))
	for _, e := range w.entries {
		seen[e.ID] = true
	}
	for _, d := range more {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		w.entries = append(w.entries, d)
	}
	w.entries = sortedByDate(w.entries)
	w.pivotID = ""
}

// Rotate reorders the window around the entry with the given id.
// Returns false (and leaves the order alone) when the id is not loaded.
func (w *Window) Rotate(pivotID string) bool {
	rotated := rotate(w.entries, pivotID)
	for i := range w.entries {
		if w.entries[i].ID == pivotID {
			w.entries = rotated
			w.pivotID = pivotID
			return true
		}
	}
	return false
}

// Upsert inserts the day (or replaces the entry with the same owner+date)
// and re-applies the current ordering.
func (w *Window) Upsert(d DayPlan) {
	replaced := false
	for i := range w.entries {
		if w.entries[i].Date.Equal(d.Date) {
			if w.pivotID == w.entries[i].ID {
				w.pivotID = d.ID
			}
			w.entries[i] = d
			replaced = true
			break
		}
	}
	if !replaced {
		w.entries = append(w.entries, d)
	}

	if w.pivotID != "" {
		w.entries = rotate(w.entries, w.pivotID)
	} else {
		w.entries = sortedByDate(w.entries)
	}
}

// Remove drops the entry with the given id from the loaded set.
func (w *Window) Remove(id string) {
	for i := range w.entries {
		if w.entries[i].ID == id {
			w.entries = append(w.entries[:i], w.entries[i+1:]...)
			if w.pivotID == id {
				w.pivotID = ""
			}
			return
		}
	}
}

// Find returns the loaded entry for the given date.
func (w *Window) Find(date time.Time) (DayPlan, bool) {
	date = Midnight(date)
	for i := range w.entries {
		if w.entries[i].Date.Equal(date) {
			return w.entries[i], true
		}
	}
	return DayPlan{}, false
}

func (w *Window) FindByID(id string) (DayPlan, bool) {
	for i := range w.entries {
		if w.entries[i].ID == id {
			return w.entries[i], true
		}
	}
	return DayPlan{}, false
}

// Visible returns at most displayLimit entries, in window order.
func (w *Window) Visible() []DayPlan {
	limit := w.displayLimit
	if limit > len(w.entries) {
		limit = len(w.entries)
	}
	out := make([]DayPlan, limit)
	copy(out, w.entries[:limit])
	return out
}

// Loaded returns a copy of the full loaded set, in window order.
func (w *Window) Loaded() []DayPlan {
	out := make([]DayPlan, len(w.entries))
	copy(out, w.entries)
	return out
}

func (w *Window) Len() int {
	return len(w.entries)
}

func (w *Window) DisplayLimit() int {
	return w.displayLimit
}

func (w *Window) ResetDisplayLimit() {
	w.displayLimit = DefaultDisplayLimit
}

// RaiseDisplayLimit reveals one more page of the already loaded set.
func (w *Window) RaiseDisplayLimit() {
	w.displayLimit += displayLimitStep
}

// EnsureVisible raises the display limit just enough for the entry with
// the given id to be within the visible slice.
func (w *Window) EnsureVisible(id string) {
	for i := range w.entries {
		if w.entries[i].ID == id {
			if i >= w.displayLimit {
				w.displayLimit = i + 1
			}
			return
		}
	}
}

// EarliestDate and LatestDate look at the loaded set regardless of the
// current (possibly rotated) ordering.
func (w *Window) EarliestDate() (time.Time, bool) {
	if len(w.entries) == 0 {
		return time.Time{}, false
	}
	earliest := w.entries[0].Date
	for _, e := range w.entries[1:] {
		if e.Date.Before(earliest) {
			earliest = e.Date
		}
	}
	return earliest, true
}

func (w *Window) LatestDate() (time.Time, bool) {
	if len(w.entries) == 0 {
		return time.Time{}, false
	}
	latest := w.entries[0].Date
	for _, e := range w.entries[1:] {
		if e.Date.After(latest) {
			latest = e.Date
		}
	}
	return latest, true
}

// HasMoreDays tells the caller whether a "show more" affordance makes sense.
func (w *Window) HasMoreDays() bool {
	return len(w.entries) > w.displayLimit
}

// HasMoreWeeks reports whether history can still be extended backwards:
// the earliest loaded date has to stay within the history ceiling.
func (w *Window) HasMoreWeeks(today time.Time) bool {
	earliest, ok := w.EarliestDate()
	if !ok {
		return false
	}
	return earliest.After(Midnight(today).AddDate(0, 0, -historyCeilingDays))
}
