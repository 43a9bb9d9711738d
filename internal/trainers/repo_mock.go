package trainers

import (
	"context"
	"time"
)

type repoMock struct {
	clients map[string][]Client

	// listCalls counts ListClients hits, for asserting cache behavior
	listCalls int
}

func NewMockTrainersRepo() *repoMock {
	return &repoMock{
		clients: make(map[string][]Client),
	}
}

func (r *repoMock) ListClients(_ context.Context, trainerID string) ([]Client, error) {
	r.listCalls++
	out := make([]Client, len(r.clients[trainerID]))
	copy(out, r.clients[trainerID])
	return out, nil
}

func (r *repoMock) AddClient(_ context.Context, trainerID, clientID string) error {
	for _, c := range r.clients[trainerID] {
		if c.ClientID == clientID {
			return ErrAlreadyClient
		}
	}
	r.clients[trainerID] = append(r.clients[trainerID], Client{
		TrainerID: trainerID,
		ClientID:  clientID,
		AddedAt:   time.Now(),
	})
	return nil
}

func (r *repoMock) RemoveClient(_ context.Context, trainerID, clientID string) error {
	roster := r.clients[trainerID]
	for i, c := range roster {
		if c.ClientID == clientID {
			r.clients[trainerID] = append(roster[:i], roster[i+1:]...)
			return nil
		}
	}
	return ErrClientNotFound
}
