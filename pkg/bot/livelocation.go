package bot

import (
	"context"

	"github.com/illmade-knight/vehicle-intake/pkg/session"
)

// handleAskName stores the user's full name and asks for the id number.
func (b *Bot) handleAskName(ctx context.Context, sess session.Session, u Update) error {
	if u.Text == "" {
		if _, ok := b.prompt(ctx, u.ChatID, "Por favor, dime tu nombre completo:", nil); !ok {
			return nil
		}
		return nil
	}
	sess.FullName = u.Text

	if _, ok := b.prompt(ctx, u.ChatID, "Gracias. Ahora, por favor, dime tu cédula:", nil); !ok {
		return nil
	}
	return b.advance(ctx, sess, session.StateAskIDNumber)
}

// handleAskIDNumber stores the id number and asks the user to share their
// live position.
func (b *Bot) handleAskIDNumber(ctx context.Context, sess session.Session, u Update) error {
	if u.Text == "" {
		if _, ok := b.prompt(ctx, u.ChatID, "Por favor, dime tu cédula:", nil); !ok {
			return nil
		}
		return nil
	}
	sess.IDNumber = u.Text

	if _, ok := b.prompt(ctx, u.ChatID,
		"Gracias. Ahora comparte tu ubicación en tiempo real:",
		[][]Button{Row(Button{Label: "Compartir mi ubicación 📍", RequestLocation: true})}); !ok {
		return nil
	}
	return b.advance(ctx, sess, session.StateAskLiveLocation)
}

// handleAskLiveLocation records the shared position and schedules the
// repeating report. Scheduling always replaces any job already running for
// the chat.
func (b *Bot) handleAskLiveLocation(ctx context.Context, sess session.Session, u Update) error {
	if u.Location == nil {
		if _, ok := b.prompt(ctx, u.ChatID,
			"Comparte tu ubicación en tiempo real:",
			[][]Button{Row(Button{Label: "Compartir mi ubicación 📍", RequestLocation: true})}); !ok {
			return nil
		}
		return nil
	}

	// The position itself was already recorded by HandleUpdate.
	b.reporter.Schedule(u.ChatID, sess.FullName, sess.IDNumber)

	if _, ok := b.prompt(ctx, u.ChatID,
		"¡Gracias! los datos y tu ubicación se estarán enviando cada minuto", nil); !ok {
		return nil
	}
	return b.advance(ctx, sess, session.StateEnded)
}
