package session

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRegistry is a thread-safe, in-memory implementation of Registry.
type InMemoryRegistry struct {
	sync.RWMutex
	chatIDs map[int64]struct{}
}

// NewInMemoryRegistry creates a new in-memory registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		chatIDs: make(map[int64]struct{}),
	}
}

// Register adds the chat id to the set.
func (r *InMemoryRegistry) Register(_ context.Context, chatID int64) error {
	r.Lock()
	defer r.Unlock()
	r.chatIDs[chatID] = struct{}{}
	return nil
}

// List returns every registered chat id in ascending order.
func (r *InMemoryRegistry) List(_ context.Context) ([]int64, error) {
	r.RLock()
	defer r.RUnlock()
	ids := make([]int64, 0, len(r.chatIDs))
	for id := range r.chatIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
