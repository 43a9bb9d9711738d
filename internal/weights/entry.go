package weights

import (
	"errors"
	"time"
)

var (
	ErrEntryNotFound = errors.New("weight entry not found")
	ErrInvalidEntry  = errors.New("invalid weight entry")
)

// Entry is one body-weight measurement, at most one per owner per day.
type Entry struct {
	ID        int       `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Date      time.Time `json:"date"`
	Kilograms float64   `json:"kilograms"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e *Entry) Validate() error {
	if e.OwnerID == "" {
		return errors.New("weight entry owner empty")
	}
	if e.Date.IsZero() {
		return errors.New("weight entry date empty")
	}
	if e.Kilograms <= 0 {
		return errors.New("weight must be positive")
	}
	return nil
}
