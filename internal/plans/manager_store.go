package plans

import "sync"

// ManagerStore hands out one Manager per owner, created lazily. A
// manager, once created, serves that owner for the lifetime of the
// process, keeping its window state between requests.
type ManagerStore struct {
	mu         sync.Mutex
	managers   map[string]*Manager
	newManager func(ownerID string) *Manager
}

func NewManagerStore(newManager func(ownerID string) *Manager) *ManagerStore {
	return &ManagerStore{
		managers:   make(map[string]*Manager),
		newManager: newManager,
	}
}

func (s *ManagerStore) Get(ownerID string) *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.managers[ownerID]
	if !ok {
		m = s.newManager(ownerID)
		s.managers[ownerID] = m
	}
	return m
}
