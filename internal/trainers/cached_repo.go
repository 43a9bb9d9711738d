package trainers

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	rosterCacheExpire  = 5 * time.Minute
	rosterCacheCleanup = 10 * time.Minute
)

type clientsRepo interface {
	ListClients(ctx context.Context, trainerID string) ([]Client, error)
	AddClient(ctx context.Context, trainerID, clientID string) error
	RemoveClient(ctx context.Context, trainerID, clientID string) error
}

// CachedRepo keeps trainer rosters in memory for a few minutes. Rosters
// change rarely but get read on every duel and every coached-plan
// request, so the cache spares the DB the hot path.
type CachedRepo struct {
	repo  clientsRepo
	cache *gocache.Cache
}

func NewCachedRepo(repo clientsRepo) *CachedRepo {
	return &CachedRepo{
		repo:  repo,
		cache: gocache.New(rosterCacheExpire, rosterCacheCleanup),
	}
}

func rosterCacheKey(trainerID string) string {
	return fmt.Sprintf("roster::%s", trainerID)
}

func (r *CachedRepo) ListClients(ctx context.Context, trainerID string) ([]Client, error) {
	if cached, found := r.cache.Get(rosterCacheKey(trainerID)); found {
		return cached.([]Client), nil
	}

	clients, err := r.repo.ListClients(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(rosterCacheKey(trainerID), clients, gocache.DefaultExpiration)
	return clients, nil
}

func (r *CachedRepo) AddClient(ctx context.Context, trainerID, clientID string) error {
	if err := r.repo.AddClient(ctx, trainerID, clientID); err != nil {
		return err
	}
	r.cache.Delete(rosterCacheKey(trainerID))
	return nil
}

func (r *CachedRepo) RemoveClient(ctx context.Context, trainerID, clientID string) error {
	if err := r.repo.RemoveClient(ctx, trainerID, clientID); err != nil {
		return err
	}
	r.cache.Delete(rosterCacheKey(trainerID))
	return nil
}

// IsClient reports whether the given athlete is in the trainer's roster.
func (r *CachedRepo) IsClient(ctx context.Context, trainerID, clientID string) (bool, error) {
	clients, err := r.ListClients(ctx, trainerID)
	if err != nil {
		return false, err
	}
	for _, c := range clients {
		if c.ClientID == clientID {
			return true, nil
		}
	}
	return false, nil
}
