package plans

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

type repoMock struct {
	days map[string]*DayPlan

	// returnErr, when set, is returned from every call, for exercising
	// failure paths
	returnErr error
}

func NewMockDaysRepo() *repoMock {
	return &repoMock{
		days: make(map[string]*DayPlan),
	}
}

func (r *repoMock) FailWith(err error) {
	r.returnErr = err
}

func (r *repoMock) ListRange(_ context.Context, params RangeParams) ([]DayPlan, error) {
	if r.returnErr != nil {
		return nil, r.returnErr
	}
	var days []DayPlan
	for _, d := range r.days {
		if d.OwnerID != params.OwnerID {
			continue
		}
		if d.Archived && !params.IncludeArchived {
			continue
		}
		if d.Date.Before(params.From) || d.Date.After(params.To) {
			continue
		}
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days, nil
}

func (r *repoMock) Upsert(_ context.Context, day DayPlan) (*DayPlan, error) {
	if r.returnErr != nil {
		return nil, r.returnErr
	}
	if existing := r.findByDate(day.OwnerID, day.Date); existing != nil {
		day.ID = existing.ID
	} else if day.ID == "" {
		day.ID = uuid.NewString()
	}
	r.days[day.ID] = &day
	return &day, nil
}

func (r *repoMock) InsertBatch(_ context.Context, days []DayPlan) error {
	if r.returnErr != nil {
		return r.returnErr
	}
	for i := range days {
		if r.findByDate(days[i].OwnerID, days[i].Date) != nil {
			continue
		}
		d := days[i]
		r.days[d.ID] = &d
	}
	return nil
}

func (r *repoMock) SetArchived(_ context.Context, id string, archived bool) error {
	if r.returnErr != nil {
		return r.returnErr
	}
	day, ok := r.days[id]
	if !ok {
		return ErrDayNotFound
	}
	day.Archived = archived
	return nil
}

func (r *repoMock) OldestActive(_ context.Context, ownerID string) (*DayPlan, error) {
	if r.returnErr != nil {
		return nil, r.returnErr
	}
	var oldest *DayPlan
	for _, d := range r.days {
		if d.OwnerID != ownerID || d.Archived {
			continue
		}
		if oldest == nil || d.Date.Before(oldest.Date) {
			oldest = d
		}
	}
	if oldest == nil {
		return nil, ErrDayNotFound
	}
	cp := *oldest
	return &cp, nil
}

func (r *repoMock) ActiveCount(_ context.Context, ownerID string) (int, error) {
	if r.returnErr != nil {
		return 0, r.returnErr
	}
	var count int
	for _, d := range r.days {
		if d.OwnerID == ownerID && !d.Archived {
			count++
		}
	}
	return count, nil
}

func (r *repoMock) ListArchived(_ context.Context, ownerID string) ([]DayPlan, error) {
	if r.returnErr != nil {
		return nil, r.returnErr
	}
	var days []DayPlan
	for _, d := range r.days {
		if d.OwnerID == ownerID && d.Archived {
			days = append(days, *d)
		}
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})
	return days, nil
}

func (r *repoMock) Delete(_ context.Context, id string) error {
	if r.returnErr != nil {
		return r.returnErr
	}
	if _, ok := r.days[id]; !ok {
		return ErrDayNotFound
	}
	delete(r.days, id)
	return nil
}

func (r *repoMock) findByDate(ownerID string, date time.Time) *DayPlan {
	for _, d := range r.days {
		if d.OwnerID == ownerID && d.Date.Equal(date) {
			return d
		}
	}
	return nil
}
