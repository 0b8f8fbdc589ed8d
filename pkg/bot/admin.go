package bot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/illmade-knight/vehicle-intake/pkg/session"
)

// accessDenied is deliberately the same for a wrong username and a wrong
// password, so a failed attempt does not reveal which stage it failed at.
const accessDenied = "Acceso denegado."

// handleAdminUsername checks the username with an exact string compare. A
// mismatch terminates the flow without reaching the password stage.
func (b *Bot) handleAdminUsername(ctx context.Context, sess session.Session, u Update) error {
	if u.Text != b.cfg.AdminUsername {
		if _, ok := b.prompt(ctx, u.ChatID, accessDenied, nil); !ok {
			return nil
		}
		return b.advance(ctx, sess, session.StateEnded)
	}

	if _, ok := b.prompt(ctx, u.ChatID, "Nombre de usuario correcto. Ahora, ingrese su contraseña:", nil); !ok {
		return nil
	}
	return b.advance(ctx, sess, session.StateAdminPassword)
}

// handleAdminPassword checks the password and, on success, lists every
// registered chat id as a selectable button.
func (b *Bot) handleAdminPassword(ctx context.Context, sess session.Session, u Update) error {
	if u.Text != b.cfg.AdminPassword {
		if _, ok := b.prompt(ctx, u.ChatID, accessDenied, nil); !ok {
			return nil
		}
		return b.advance(ctx, sess, session.StateEnded)
	}

	if _, ok := b.prompt(ctx, u.ChatID, "Acceso concedido.", nil); !ok {
		return nil
	}

	chatIDs, err := b.registry.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list registered chats: %w", err)
	}
	if len(chatIDs) == 0 {
		if _, ok := b.prompt(ctx, u.ChatID, "No hay chat IDs registrados todavía.", nil); !ok {
			return nil
		}
		return b.advance(ctx, sess, session.StateEnded)
	}

	keyboard := make([][]Button, 0, len(chatIDs))
	for _, id := range chatIDs {
		label := strconv.FormatInt(id, 10)
		keyboard = append(keyboard, Row(Button{Label: label, Data: label}))
	}
	if _, ok := b.prompt(ctx, u.ChatID, "Seleccione un chat ID para ver las respuestas:", keyboard); !ok {
		return nil
	}
	return b.advance(ctx, sess, session.StateAdminSelect)
}

// handleAdminSelect renders the selected chat's recorded answers.
func (b *Bot) handleAdminSelect(ctx context.Context, sess session.Session, u Update) error {
	selected, err := strconv.ParseInt(u.Callback, 10, 64)
	if err != nil {
		if _, ok := b.prompt(ctx, u.ChatID, "Seleccione un chat ID para ver las respuestas:", nil); !ok {
			return nil
		}
		return nil
	}

	target, found, err := b.sessions.Get(ctx, selected)
	if err != nil {
		return fmt.Errorf("failed to load session for chat %d: %w", selected, err)
	}
	if !found {
		if _, ok := b.prompt(ctx, u.ChatID,
			fmt.Sprintf("No hay respuestas registradas para el chat ID %d.", selected), nil); !ok {
			return nil
		}
		return b.advance(ctx, sess, session.StateEnded)
	}

	vehicle := string(target.VehicleType)
	if vehicle == "" {
		vehicle = session.NotProvided
	}
	fuel := string(target.FuelLevel)
	if fuel == "" {
		fuel = session.NotProvided
	}
	text := fmt.Sprintf(
		"Respuestas del chat ID %d:\n"+
			"Tipo de vehículo: %s\n"+
			"Nivel de combustible: %s\n"+
			"Kilometraje: %s\n"+
			"Ubicación: %s",
		selected, vehicle, fuel, target.MileageDisplay(), target.LocationDisplay())

	if _, ok := b.prompt(ctx, u.ChatID, text, nil); !ok {
		return nil
	}
	return b.advance(ctx, sess, session.StateEnded)
}
