package weights

import (
	"context"
	"sort"
	"time"
)

type repoMock struct {
	nextID  int
	entries map[int]*Entry
}

func NewMockWeightsRepo() *repoMock {
	return &repoMock{
		nextID:  1,
		entries: make(map[int]*Entry),
	}
}

func (r *repoMock) Save(_ context.Context, entry Entry) (*Entry, error) {
	for _, e := range r.entries {
		if e.OwnerID == entry.OwnerID && e.Date.Equal(entry.Date) {
			e.Kilograms = entry.Kilograms
			e.Notes = entry.Notes
			saved := *e
			return &saved, nil
		}
	}
	entry.ID = r.nextID
	entry.CreatedAt = time.Now()
	r.nextID++
	r.entries[entry.ID] = &entry
	return &entry, nil
}

func (r *repoMock) List(_ context.Context, params ListParams) ([]Entry, error) {
	var entries []Entry
	for _, e := range r.entries {
		if e.OwnerID != params.OwnerID {
			continue
		}
		if !params.From.IsZero() && e.Date.Before(params.From) {
			continue
		}
		if !params.To.IsZero() && e.Date.After(params.To) {
			continue
		}
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Entry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	e := *entry
	return &e, nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	if _, ok := r.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}
