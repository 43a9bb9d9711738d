package plans

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind says what a day plan holds: a workout, a rest day, or nothing yet.
type Kind string

const (
	KindWorkout Kind = "workout"
	KindRest    Kind = "rest"
	KindEmpty   Kind = "empty"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindWorkout, KindRest, KindEmpty:
		return true
	default:
		return false
	}
}

// Status is the completion state of a day plan. The storage schema keeps
// two booleans (completed, missed); those two never end up true at the
// same time, so in code the state is a single tri-state value and the
// booleans exist only at the repo boundary.
type Status string

const (
	StatusUnset     Status = "unset"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
)

func (s Status) ToggleCompleted() Status {
	if s == StatusCompleted {
		return StatusUnset
	}
	return StatusCompleted
}

func (s Status) ToggleMissed() Status {
	if s == StatusMissed {
		return StatusUnset
	}
	return StatusMissed
}

func StatusFromFlags(completed, missed bool) Status {
	switch {
	case completed:
		return StatusCompleted
	case missed:
		return StatusMissed
	default:
		return StatusUnset
	}
}

func (s Status) Flags() (completed, missed bool) {
	return s == StatusCompleted, s == StatusMissed
}

var (
	ErrDayNotFound   = errors.New("day plan not found")
	ErrInvalidDay    = errors.New("invalid day plan")
	ErrHistoryLimit  = errors.New("history limit reached")
	ErrEmptyWindow   = errors.New("window is empty")
	ErrDateNotLoaded = errors.New("date not loaded in window")
)

// DayPlan is one calendar day's schedule for one owner.
// The ID is generated locally (uuid) before the first save and replaced
// by the stored id once the upsert returns.
type DayPlan struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Date      time.Time `json:"date"`
	Kind      Kind      `json:"kind"`
	Exercises []string  `json:"exercises,omitempty"`
	Duration  int       `json:"duration,omitempty"` // minutes
	Notes     string    `json:"notes,omitempty"`
	Status    Status    `json:"status"`
	Archived  bool      `json:"archived"`
}

// NewEmptyDay makes an unplanned placeholder for the given date.
func NewEmptyDay(ownerID string, date time.Time) DayPlan {
	return DayPlan{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Date:    Midnight(date),
		Kind:    KindEmpty,
		Status:  StatusUnset,
	}
}

func (d *DayPlan) Validate() error {
	if d.OwnerID == "" {
		return errors.New("day plan owner empty")
	}
	if d.Date.IsZero() {
		return errors.New("day plan date empty")
	}
	if !d.Kind.IsValid() {
		return errors.New("day plan kind invalid")
	}
	if d.Kind == KindWorkout && d.Duration < 0 {
		return errors.New("workout duration must not be negative")
	}
	if d.Kind != KindWorkout && len(d.Exercises) > 0 {
		return errors.New("exercises only allowed on workout days")
	}
	if d.Kind == KindEmpty && d.Status != StatusUnset {
		return errors.New("empty day cannot be completed or missed")
	}
	return nil
}

// CanToggle reports whether completion toggles apply at all:
// unplanned days stay unset no matter what the caller asks for.
func (d *DayPlan) CanToggle() bool {
	return d.Kind != KindEmpty
}
