// Package session holds one user's progress through the intake conversation
// and the durable registry of every chat that has ever started it.
package session

import (
	"fmt"
	"time"

	"github.com/illmade-knight/vehicle-intake/pkg/tracking"
)

// State is a named point in the conversation expecting a specific category
// of input.
type State string

const (
	StateMenu            State = "MENU"
	StateVehicleType     State = "VEHICLE_TYPE"
	StateFuelLevel       State = "FUEL_LEVEL"
	StateMileageDecision State = "MILEAGE_DECISION"
	StateMileage         State = "MILEAGE"
	StatePhoto           State = "PHOTO"
	StateLocation        State = "LOCATION"
	StateAskName         State = "ASK_NAME"
	StateAskIDNumber     State = "ASK_ID_NUMBER"
	StateAskLiveLocation State = "ASK_LIVE_LOCATION"
	StateAskEndpoint     State = "ASK_ENDPOINT"
	StateAskQuestion     State = "ASK_QUESTION"
	StateAdminUsername   State = "ADMIN_USERNAME"
	StateAdminPassword   State = "ADMIN_PASSWORD"
	StateAdminSelect     State = "ADMIN_SELECT"
	StateEnded           State = "ENDED"
)

// Markers rendered in summaries for optional answers the user skipped. The
// two spellings follow the grammatical gender of the fields they describe.
const (
	NotProvided  = "No proporcionado" // mileage
	NotProvidedF = "No proporcionada" // photo, location
)

// VehicleType is one of the fixed machine categories offered on the menu.
type VehicleType string

const (
	VehicleTracks        VehicleType = "Orugas"
	VehicleWheels        VehicleType = "Ruedas"
	VehicleLongReach     VehicleType = "Largo alcance"
	VehicleMiniExcavator VehicleType = "Miniexcavadoras"
)

// FuelLevel is one of the fixed fuel readings offered after the vehicle type.
type FuelLevel string

const (
	FuelBelowQuarter  FuelLevel = "Menos de 1/4"
	FuelQuarterToHalf FuelLevel = "1/4 a 1/2"
	FuelAboveHalf     FuelLevel = "Mas de medio"
	FuelFull          FuelLevel = "Completo"
)

// Session is one chat's in-progress or completed interaction with the bot.
// Each answer field is written by exactly one state handler.
type Session struct {
	ChatID int64
	State  State

	// Intake form answers.
	VehicleType VehicleType
	FuelLevel   FuelLevel
	Mileage     string
	PhotoRef    string
	Location    *tracking.Coordinates

	// Live-location variant answers.
	FullName string
	IDNumber string

	// Question flow selection.
	QueryType string

	CreatedAt time.Time
}

// New creates a fresh session for the chat, positioned at the menu.
func New(chatID int64) Session {
	return Session{
		ChatID:    chatID,
		State:     StateMenu,
		CreatedAt: time.Now(),
	}
}

// MileageDisplay returns the stored mileage or the skip marker.
func (s Session) MileageDisplay() string {
	if s.Mileage == "" {
		return NotProvided
	}
	return s.Mileage
}

// PhotoDisplay returns a marker describing whether a photo was supplied.
func (s Session) PhotoDisplay() string {
	if s.PhotoRef == "" {
		return NotProvidedF
	}
	return "Cargada"
}

// LocationDisplay returns the stored coordinates or the skip marker.
func (s Session) LocationDisplay() string {
	if s.Location == nil {
		return NotProvidedF
	}
	return formatCoordinates(*s.Location)
}

func formatCoordinates(c tracking.Coordinates) string {
	return fmt.Sprintf("%f / %f", c.Latitude, c.Longitude)
}
