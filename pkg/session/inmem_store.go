package session

import (
	"context"
	"sync"
)

// InMemoryStore is a thread-safe, in-memory implementation of the Store interface.
type InMemoryStore struct {
	sync.RWMutex
	sessions map[int64]Session
}

// NewInMemoryStore creates a new in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[int64]Session),
	}
}

// Get retrieves the session for the chat.
func (s *InMemoryStore) Get(_ context.Context, chatID int64) (Session, bool, error) {
	s.RLock()
	defer s.RUnlock()
	sess, ok := s.sessions[chatID]
	return sess, ok, nil
}

// Put saves the session, replacing any previous value for its chat id.
func (s *InMemoryStore) Put(_ context.Context, sess Session) error {
	s.Lock()
	defer s.Unlock()
	s.sessions[sess.ChatID] = sess
	return nil
}

// Delete removes the chat's session.
func (s *InMemoryStore) Delete(_ context.Context, chatID int64) error {
	s.Lock()
	defer s.Unlock()
	delete(s.sessions, chatID)
	return nil
}
