// Package app provides the central orchestrator for the vehicle-intake bot.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/illmade-knight/vehicle-intake/pkg/bot"
	"github.com/rs/zerolog"
)

// UpdateSource delivers batches of inbound chat events, blocking until a batch
// arrives or ctx ends.
type UpdateSource interface {
	GetUpdates(ctx context.Context) ([]bot.Update, error)
}

// Handler advances a conversation with one inbound event.
type Handler interface {
	HandleUpdate(ctx context.Context, u bot.Update) error
}

// pollBackoff is how long the loop pauses after a failed poll before trying
// again, so a dead transport does not spin the loop hot.
const pollBackoff = 5 * time.Second

// App is the central application struct. It drives the poll/dispatch loop and
// owns the background reminder.
type App struct {
	source   UpdateSource
	handler  Handler
	reminder *bot.Reminder
	logger   zerolog.Logger
}

// New creates a new, fully initialized App. reminder may be nil when the
// daily broadcast is disabled.
func New(source UpdateSource, handler Handler, reminder *bot.Reminder, logger zerolog.Logger) *App {
	return &App{
		source:   source,
		handler:  handler,
		reminder: reminder,
		logger:   logger.With().Str("component", "app").Logger(),
	}
}

// Run polls for updates and dispatches them until ctx is cancelled. Updates
// within one batch are handled in order, so a chat never sees its own events
// out of sequence.
func (a *App) Run(ctx context.Context) error {
	if a.reminder != nil {
		go a.reminder.Run(ctx)
	}

	a.logger.Info().Msg("Starting update dispatch loop")
	for {
		updates, err := a.source.GetUpdates(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				a.logger.Info().Msg("Dispatch loop stopping")
				return nil
			}
			a.logger.Error().Err(err).Msg("Failed to poll for updates")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollBackoff):
			}
			continue
		}

		for _, u := range updates {
			if err := a.handler.HandleUpdate(ctx, u); err != nil {
				a.logger.Error().Err(err).Int64("chat_id", u.ChatID).Msg("Failed to handle update")
			}
		}
	}
}
