// Package spinner animates a transient progress message while a slow
// external call is in flight.
package spinner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// frames is the glyph cycle rendered in front of the waiting text.
var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// MessageEditor edits the text of an already-sent chat message.
type MessageEditor interface {
	EditMessage(ctx context.Context, chatID int64, messageID int64, text string) error
}

// Spinner is a running progress animation. It must be stopped on every exit
// path of the call it decorates; Stop is idempotent and waits for the update
// loop to finish, so no edit can race whatever is rendered next.
type Spinner struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start launches the update loop as a child of ctx, rewriting the message
// with the next glyph roughly every interval, wrapping indefinitely.
func Start(ctx context.Context, editor MessageEditor, chatID, messageID int64, text string, interval time.Duration, logger zerolog.Logger) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	s := &Spinner{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	log := logger.With().Str("component", "spinner").Int64("chat_id", chatID).Logger()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			frame := frames[i%len(frames)]
			if err := editor.EditMessage(ctx, chatID, messageID, fmt.Sprintf("%s %s", frame, text)); err != nil {
				// A failed edit only costs one frame.
				log.Warn().Err(err).Msg("Failed to update progress message")
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return s
}

// Stop cancels the update loop and waits for it to exit. Safe to call more
// than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}
