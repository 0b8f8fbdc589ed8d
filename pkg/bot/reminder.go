package bot

import (
	"context"
	"time"

	"github.com/illmade-knight/vehicle-intake/pkg/session"
	"github.com/rs/zerolog"
)

// reminderText is the static daily nudge sent to every registered chat.
const reminderText = "¡Recordatorio! Por favor, llena el formulario."

// Reminder broadcasts the daily form reminder to every registered chat id at
// a fixed wall-clock time.
type Reminder struct {
	registry session.Registry
	chat     Chat
	hour     int
	minute   int
	location *time.Location
	logger   zerolog.Logger
}

// NewReminder creates a reminder firing daily at hour:minute in loc.
func NewReminder(registry session.Registry, chat Chat, hour, minute int, loc *time.Location, logger zerolog.Logger) *Reminder {
	return &Reminder{
		registry: registry,
		chat:     chat,
		hour:     hour,
		minute:   minute,
		location: loc,
		logger:   logger.With().Str("component", "reminder").Logger(),
	}
}

// Run blocks, firing a broadcast at each scheduled time until ctx is
// cancelled.
func (r *Reminder) Run(ctx context.Context) {
	for {
		next := r.nextAfter(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			r.Broadcast(ctx)
		}
	}
}

// Broadcast sends the reminder to every registered chat. Send failures are
// logged and do not stop the remaining sends.
func (r *Reminder) Broadcast(ctx context.Context) {
	chatIDs, err := r.registry.List(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to list registered chats for reminder")
		return
	}
	for _, chatID := range chatIDs {
		if _, err := r.chat.SendMessage(ctx, chatID, reminderText, nil); err != nil {
			r.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reminder")
		}
	}
	r.logger.Info().Int("chats", len(chatIDs)).Msg("Reminder broadcast finished")
}

// nextAfter returns the first scheduled firing strictly after now.
func (r *Reminder) nextAfter(now time.Time) time.Time {
	local := now.In(r.location)
	next := time.Date(local.Year(), local.Month(), local.Day(), r.hour, r.minute, 0, 0, r.location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
