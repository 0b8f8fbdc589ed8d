package bot

import (
	"context"
	"fmt"

	"github.com/illmade-knight/vehicle-intake/pkg/relay"
	"github.com/illmade-knight/vehicle-intake/pkg/session"
	"github.com/illmade-knight/vehicle-intake/pkg/spinner"
)

// handleAskEndpoint stores which answering service the question will go to.
func (b *Bot) handleAskEndpoint(ctx context.Context, sess session.Session, u Update) error {
	switch u.Text {
	case "Docs":
		sess.QueryType = string(relay.QueryDocs)
	case "Base de datos":
		sess.QueryType = string(relay.QueryDatabase)
	default:
		if _, ok := b.prompt(ctx, u.ChatID, "Opción inválida. Por favor seleccione nuevamente.", [][]Button{Row(
			Button{Label: "Docs"},
			Button{Label: "Base de datos"},
		)}); !ok {
			return nil
		}
		return nil
	}

	if _, ok := b.prompt(ctx, u.ChatID, "Por favor, ingrese su pregunta:", nil); !ok {
		return nil
	}
	return b.advance(ctx, sess, session.StateAskQuestion)
}

// handleAskQuestion relays the question, animating the waiting message while
// the call is in flight. The spinner is stopped on every exit path before the
// answer is rendered into the same message.
func (b *Bot) handleAskQuestion(ctx context.Context, sess session.Session, u Update) error {
	if u.Text == "" {
		if _, ok := b.prompt(ctx, u.ChatID, "Por favor, ingrese su pregunta:", nil); !ok {
			return nil
		}
		return nil
	}

	messageID, ok := b.prompt(ctx, u.ChatID, "⠋ Esperando respuesta...", nil)
	if !ok {
		return nil
	}

	answer := b.askWithSpinner(ctx, sess, u.Text, messageID)

	if ok := b.edit(ctx, u.ChatID, messageID, fmt.Sprintf("Respuesta:\n%s", answer)); !ok {
		return nil
	}
	return b.advance(ctx, sess, session.StateEnded)
}

// askWithSpinner decorates the relay call with the progress animation,
// guaranteeing the animation is stopped and awaited before returning.
func (b *Bot) askWithSpinner(ctx context.Context, sess session.Session, question string, messageID int64) string {
	s := spinner.Start(ctx, b.chat, sess.ChatID, messageID, "Esperando respuesta...", b.cfg.SpinnerInterval, b.logger)
	defer s.Stop()

	return b.relay.Ask(ctx, relay.QueryType(sess.QueryType), question)
}
