package session

import "context"

// Store is the interface for keeping in-progress sessions.
// This decouples the conversation handlers from the storage implementation.
type Store interface {
	// Get retrieves the session for the chat. The boolean reports whether
	// one exists.
	Get(ctx context.Context, chatID int64) (Session, bool, error)
	// Put saves the session, replacing any previous value for its chat id.
	Put(ctx context.Context, s Session) error
	// Delete removes the chat's session. Deleting a missing session is a
	// no-op.
	Delete(ctx context.Context, chatID int64) error
}
