package tracking

import (
	"context"
	"sync"
)

// InMemoryStore is a thread-safe, in-memory implementation of LocationStore.
type InMemoryStore struct {
	sync.RWMutex
	positions map[int64]Coordinates
}

// NewInMemoryStore creates a new in-memory location store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		positions: make(map[int64]Coordinates),
	}
}

// Set records the latest coordinates for the chat, replacing any previous value.
func (s *InMemoryStore) Set(_ context.Context, chatID int64, coords Coordinates) error {
	s.Lock()
	defer s.Unlock()
	s.positions[chatID] = coords
	return nil
}

// Get retrieves the last known coordinates for the chat.
func (s *InMemoryStore) Get(_ context.Context, chatID int64) (Coordinates, bool, error) {
	s.RLock()
	defer s.RUnlock()
	coords, ok := s.positions[chatID]
	return coords, ok, nil
}
