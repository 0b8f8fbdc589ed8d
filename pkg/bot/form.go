package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/illmade-knight/vehicle-intake/pkg/session"
)

var mileagePattern = regexp.MustCompile(`^\d+$`)

// vehicleNames maps callback data to the display names shown on the menu.
var vehicleNames = map[session.VehicleType]string{
	session.VehicleTracks:        "🚜 Cargador de Ruedas",
	session.VehicleWheels:        "🚧 Cargador de Ruedas (pequeño)",
	session.VehicleLongReach:     "🏗️ Largo Alcance",
	session.VehicleMiniExcavator: "🚜 Miniexcavadora",
}

func vehicleKeyboard() [][]Button {
	return [][]Button{
		Row(Button{Label: vehicleNames[session.VehicleTracks], Data: string(session.VehicleTracks)}),
		Row(Button{Label: vehicleNames[session.VehicleWheels], Data: string(session.VehicleWheels)}),
		Row(Button{Label: vehicleNames[session.VehicleLongReach], Data: string(session.VehicleLongReach)}),
		Row(Button{Label: vehicleNames[session.VehicleMiniExcavator], Data: string(session.VehicleMiniExcavator)}),
	}
}

func fuelKeyboard() [][]Button {
	levels := []session.FuelLevel{
		session.FuelBelowQuarter,
		session.FuelQuarterToHalf,
		session.FuelAboveHalf,
		session.FuelFull,
	}
	keyboard := make([][]Button, 0, len(levels))
	for _, level := range levels {
		keyboard = append(keyboard, Row(Button{Label: string(level), Data: string(level)}))
	}
	return keyboard
}

func locationKeyboard() [][]Button {
	return [][]Button{Row(Button{Label: "Enviar mi ubicación 📍", RequestLocation: true})}
}

// handleMenu branches into one of the four flows from the start menu.
func (b *Bot) handleMenu(ctx context.Context, sess session.Session, u Update) error {
	switch u.Text {
	case "Formulario":
		if _, ok := b.prompt(ctx, u.ChatID,
			"Buenos días! Por favor compártenos esta información antes de iniciar tu jornada laboral.\n"+
				"Dime el tipo de vehículo\n\n"+
				"👇 Selecciona una opción del menú de abajo", vehicleKeyboard()); !ok {
			return nil
		}
		return b.advance(ctx, sess, session.StateVehicleType)
	case "Pregunta":
		if _, ok := b.prompt(ctx, u.ChatID, "Seleccione la fuente de la respuesta:", [][]Button{Row(
			Button{Label: "Docs"},
			Button{Label: "Base de datos"},
		)}); !ok {
			return nil
		}
		return b.advance(ctx, sess, session.StateAskEndpoint)
	case "Administrador":
		if _, ok := b.prompt(ctx, u.ChatID, "Por favor, ingrese su nombre de usuario:", nil); !ok {
			return nil
		}
		return b.advance(ctx, sess, session.StateAdminUsername)
	case "Compartir ubicación":
		if _, ok := b.prompt(ctx, u.ChatID, "Por favor, dime tu nombre completo:", nil); !ok {
			return nil
		}
		return b.advance(ctx, sess, session.StateAskName)
	default:
		b.promptMenu(ctx, u.ChatID)
		return nil
	}
}

// handleVehicleType stores the selected vehicle and asks for the fuel level.
func (b *Bot) handleVehicleType(ctx context.Context, sess session.Session, u Update) error {
	selected := session.VehicleType(u.Callback)
	name, valid := vehicleNames[selected]
	if !valid {
		if _, ok := b.prompt(ctx, u.ChatID, "Selecciona una opción del menú de abajo", vehicleKeyboard()); !ok {
			return nil
		}
		return nil
	}
	sess.VehicleType = selected

	if _, ok := b.prompt(ctx, u.ChatID,
		fmt.Sprintf("Seleccionaste: %s.\nDime el nivel de combustible:", name), fuelKeyboard()); !ok {
		return nil
	}
	return b.advance(ctx, sess, session.StateFuelLevel)
}

// handleFuelLevel stores the fuel reading and asks the mileage decision.
func (b *Bot) handleFuelLevel(ctx context.Context, sess session.Session, u Update) error {
	selected := session.FuelLevel(u.Callback)
	switch selected {
	case session.FuelBelowQuarter, session.FuelQuarterToHalf, session.FuelAboveHalf, session.FuelFull:
	default:
		if _, ok := b.prompt(ctx, u.ChatID, "Por favor seleccione el nivel de combustible:", fuelKeyboard()); !ok {
			return nil
		}
		return nil
	}
	sess.FuelLevel = selected

	if _, ok := b.prompt(ctx, u.ChatID,
		fmt.Sprintf("Seleccionaste %s.\nDanos por favor el kilometraje del vehículo", selected),
		[][]Button{Row(Button{Label: "Fill", Data: "Fill"}, Button{Label: "Skip", Data: "Skip"})}); !ok {
		return nil
	}
	return b.advance(ctx, sess, session.StateMileageDecision)
}

// handleMileageDecision lets the user type the mileage or skip it.
func (b *Bot) handleMileageDecision(ctx context.Context, sess session.Session, u Update) error {
	switch u.Callback {
	case "Fill":
		if _, ok := b.prompt(ctx, u.ChatID,
			"Ejemplo de kilometraje (e.g., 50000): no coloques ni puntos ni comas", nil); !ok {
			return nil
		}
		return b.advance(ctx, sess, session.StateMileage)
	case "Skip":
		if _, ok := b.prompt(ctx, u.ChatID, "Kilometraje omitido.\nEnvía una foto del vehículo 📷, o presiona /skip.", nil); !ok {
			return nil
		}
		return b.advance(ctx, sess, session.StatePhoto)
	default:
		if _, ok := b.prompt(ctx, u.ChatID, "Elige una opción:",
			[][]Button{Row(Button{Label: "Fill", Data: "Fill"}, Button{Label: "Skip", Data: "Skip"})}); !ok {
			return nil
		}
		return nil
	}
}

// handleMileage validates and formats the typed mileage, re-prompting on
// anything that is not a plain digit string.
func (b *Bot) handleMileage(ctx context.Context, sess session.Session, u Update) error {
	if !mileagePattern.MatchString(u.Text) {
		if _, ok := b.prompt(ctx, u.ChatID,
			"Por favor ingrese un número válido para el kilometraje (solo dígitos):", nil); !ok {
			return nil
		}
		return nil
	}

	sess.Mileage = formatMileage(u.Text)

	if _, ok := b.prompt(ctx, u.ChatID,
		"Kilometraje registrado.\nEnvía una foto del vehículo 📷, o presiona /skip.", nil); !ok {
		return nil
	}
	return b.advance(ctx, sess, session.StatePhoto)
}

// handlePhoto stores the photo reference, or skips it on /skip.
func (b *Bot) handlePhoto(ctx context.Context, sess session.Session, u Update) error {
	switch {
	case u.PhotoRef != "":
		sess.PhotoRef = u.PhotoRef
		if _, ok := b.prompt(ctx, u.ChatID, "Foto cargada correctamente.\nPor favor comparte tu ubicación, o presiona /skip.", locationKeyboard()); !ok {
			return nil
		}
	case u.Text == "/skip":
		if _, ok := b.prompt(ctx, u.ChatID, "Ninguna foto fue cargada.\nPor favor comparte tu ubicación, o presiona /skip.", locationKeyboard()); !ok {
			return nil
		}
	default:
		if _, ok := b.prompt(ctx, u.ChatID, "Envía una foto del vehículo 📷, o presiona /skip.", nil); !ok {
			return nil
		}
		return nil
	}
	return b.advance(ctx, sess, session.StateLocation)
}

// handleLocation stores the shared position, or skips it, and renders the
// terminal summary.
func (b *Bot) handleLocation(ctx context.Context, sess session.Session, u Update) error {
	switch {
	case u.Location != nil:
		sess.Location = u.Location
		b.logger.Info().
			Int64("chat_id", u.ChatID).
			Float64("latitude", u.Location.Latitude).
			Float64("longitude", u.Location.Longitude).
			Msg("Form location received")
		if _, ok := b.prompt(ctx, u.ChatID, "Ubicación recibida correctamente.\nEste es un resumen de tus datos:", nil); !ok {
			return nil
		}
	case u.Text == "/skip":
		if _, ok := b.prompt(ctx, u.ChatID, "Sin ubicación.\nEste es un resumen de tus datos:", nil); !ok {
			return nil
		}
	default:
		if _, ok := b.prompt(ctx, u.ChatID, "Envia por favor tu ubicación, o presiona /skip.", locationKeyboard()); !ok {
			return nil
		}
		return nil
	}

	if err := b.sendSummary(ctx, sess); err != nil {
		return err
	}
	return b.advance(ctx, sess, session.StateEnded)
}

// sendSummary renders every collected field, attaching the photo when one was
// supplied. Skipped optionals appear with their explicit markers.
func (b *Bot) sendSummary(ctx context.Context, sess session.Session) error {
	text := fmt.Sprintf(
		"Estos son los datos que suministraste\n"+
			"Tipo de vehículo: %s\n"+
			"Nivel de combustible: %s\n"+
			"Kilometraje: %s\n"+
			"Foto: %s\n"+
			"Ubicación: %s",
		sess.VehicleType, sess.FuelLevel, sess.MileageDisplay(), sess.PhotoDisplay(), sess.LocationDisplay())

	sendCtx, cancel := context.WithTimeout(ctx, b.cfg.PromptTimeout)
	defer cancel()

	if sess.PhotoRef != "" {
		if err := b.chat.SendPhoto(sendCtx, sess.ChatID, sess.PhotoRef, text); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", sess.ChatID).Msg("Failed to send summary photo")
			b.expire(sess.ChatID)
		}
		return nil
	}
	if _, err := b.chat.SendMessage(sendCtx, sess.ChatID, text, nil); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", sess.ChatID).Msg("Failed to send summary")
		b.expire(sess.ChatID)
	}
	return nil
}

// formatMileage groups amounts longer than three digits with '.' thousands
// separators; shorter amounts are stored as typed.
func formatMileage(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	if len(trimmed) <= 3 {
		return trimmed
	}

	var b strings.Builder
	head := len(trimmed) % 3
	if head > 0 {
		b.WriteString(trimmed[:head])
	}
	for i := head; i < len(trimmed); i += 3 {
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(trimmed[i : i+3])
	}
	return b.String()
}
