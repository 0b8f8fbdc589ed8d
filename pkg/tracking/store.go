package tracking

import "context"

// LocationStore is the interface for recording the most recent position of
// each chat. Each update overwrites the previous one; there is no history.
type LocationStore interface {
	// Set records the latest coordinates for the chat, replacing any
	// previous value.
	Set(ctx context.Context, chatID int64, coords Coordinates) error
	// Get retrieves the last known coordinates for the chat. The boolean
	// reports whether a position has ever been recorded.
	Get(ctx context.Context, chatID int64) (Coordinates, bool, error)
}
