package session

import "context"

// Registry is the durable record of every chat that has ever started the
// conversation. It is append-only from the bot's point of view; entries are
// only removed externally.
type Registry interface {
	// Register adds the chat id to the set. Registering an id twice is a
	// no-op.
	Register(ctx context.Context, chatID int64) error
	// List returns every registered chat id in ascending order.
	List(ctx context.Context) ([]int64, error)
}
