package bot_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/illmade-knight/vehicle-intake/pkg/bot"
	"github.com/illmade-knight/vehicle-intake/pkg/relay"
	"github.com/illmade-knight/vehicle-intake/pkg/session"
	"github.com/illmade-knight/vehicle-intake/pkg/tracking"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChat records every outbound message so tests can assert on the
// conversation transcript.
type fakeChat struct {
	mu     sync.Mutex
	nextID int64

	messages  []sentMessage
	edits     []sentEdit
	photos    []sentPhoto
	sendErr   error
	editErr   error
}

type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard [][]bot.Button
}

type sentEdit struct {
	ChatID    int64
	MessageID int64
	Text      string
}

type sentPhoto struct {
	ChatID   int64
	PhotoRef string
	Caption  string
}

func (f *fakeChat) SendMessage(_ context.Context, chatID int64, text string, keyboard [][]bot.Button) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	f.messages = append(f.messages, sentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
	return f.nextID, nil
}

func (f *fakeChat) EditMessage(_ context.Context, chatID, messageID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, sentEdit{ChatID: chatID, MessageID: messageID, Text: text})
	return nil
}

func (f *fakeChat) SendPhoto(_ context.Context, chatID int64, photoRef, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, sentPhoto{ChatID: chatID, PhotoRef: photoRef, Caption: caption})
	return nil
}

func (f *fakeChat) lastMessage(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.messages)
	return f.messages[len(f.messages)-1]
}

// mockScheduler records reporter scheduling calls.
type mockScheduler struct {
	mu        sync.Mutex
	scheduled []scheduledReport
	cancelled []int64
}

type scheduledReport struct {
	ChatID   int64
	Name     string
	IDNumber string
}

func (m *mockScheduler) Schedule(chatID int64, name, idNumber string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduled = append(m.scheduled, scheduledReport{ChatID: chatID, Name: name, IDNumber: idNumber})
}

func (m *mockScheduler) Cancel(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, chatID)
}

// mockAsker returns a canned answer and records the question it was asked.
type mockAsker struct {
	answer    string
	queryType relay.QueryType
	question  string
}

func (m *mockAsker) Ask(_ context.Context, queryType relay.QueryType, question string) string {
	m.queryType = queryType
	m.question = question
	return m.answer
}

type fixture struct {
	bot       *bot.Bot
	chat      *fakeChat
	sessions  *session.InMemoryStore
	registry  *session.InMemoryRegistry
	locations *tracking.InMemoryStore
	scheduler *mockScheduler
	asker     *mockAsker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		chat:      &fakeChat{},
		sessions:  session.NewInMemoryStore(),
		registry:  session.NewInMemoryRegistry(),
		locations: tracking.NewInMemoryStore(),
		scheduler: &mockScheduler{},
		asker:     &mockAsker{answer: "respuesta de prueba"},
	}
	cfg := bot.Config{AdminUsername: "Admin", AdminPassword: "123"}
	f.bot = bot.New(f.chat, f.sessions, f.registry, f.locations, f.scheduler, f.asker, cfg, zerolog.Nop())
	return f
}

// putSession seeds the chat's session at a given state with the given fields.
func (f *fixture) putSession(t *testing.T, sess session.Session) {
	t.Helper()
	require.NoError(t, f.sessions.Put(context.Background(), sess))
}

func (f *fixture) getSession(t *testing.T, chatID int64) session.Session {
	t.Helper()
	sess, ok, err := f.sessions.Get(context.Background(), chatID)
	require.NoError(t, err)
	require.True(t, ok)
	return sess
}

func TestHandleUpdate_StartRegistersChatAndShowsMenu(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 7, Text: "/start"})

	// Assert
	require.NoError(t, err)
	ids, err := f.registry.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)

	last := f.chat.lastMessage(t)
	assert.Equal(t, "Seleccione una opción:", last.Text)
	require.Len(t, last.Keyboard, 1)
	assert.Len(t, last.Keyboard[0], 4)

	sess := f.getSession(t, 7)
	assert.Equal(t, session.StateMenu, sess.State)
}

func TestHandleUpdate_WithoutSessionPromptsStart(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 9, Text: "hola"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Por favor, comienza con /start", f.chat.lastMessage(t).Text)
}

func TestHandleUpdate_MileageRejectsNonDigits(t *testing.T) {
	// Arrange
	f := newFixture(t)
	sess := session.New(4)
	sess.State = session.StateMileage
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 4, Text: "12a45"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Por favor ingrese un número válido para el kilometraje (solo dígitos):", f.chat.lastMessage(t).Text)
	assert.Equal(t, session.StateMileage, f.getSession(t, 4).State, "invalid input must not advance the flow")
}

func TestHandleUpdate_MileageFormatsThousands(t *testing.T) {
	// Arrange
	f := newFixture(t)
	sess := session.New(4)
	sess.State = session.StateMileage
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 4, Text: "50000"})

	// Assert
	require.NoError(t, err)
	after := f.getSession(t, 4)
	assert.Equal(t, "50.000", after.Mileage)
	assert.Equal(t, session.StatePhoto, after.State)
}

func TestHandleUpdate_MileageShortValueKeptVerbatim(t *testing.T) {
	// Arrange
	f := newFixture(t)
	sess := session.New(4)
	sess.State = session.StateMileage
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 4, Text: "999"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "999", f.getSession(t, 4).Mileage)
}

func TestHandleUpdate_SummaryShowsSkipMarkers(t *testing.T) {
	// Arrange: everything optional was skipped before the location step.
	f := newFixture(t)
	sess := session.New(5)
	sess.State = session.StateLocation
	sess.VehicleType = session.VehicleTracks
	sess.FuelLevel = session.FuelFull
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 5, Text: "/skip"})

	// Assert
	require.NoError(t, err)
	summary := f.chat.lastMessage(t)
	assert.Contains(t, summary.Text, "Estos son los datos que suministraste")
	assert.Contains(t, summary.Text, fmt.Sprintf("Kilometraje: %s", session.NotProvided))
	assert.Contains(t, summary.Text, fmt.Sprintf("Foto: %s", session.NotProvidedF))
	assert.Contains(t, summary.Text, fmt.Sprintf("Ubicación: %s", session.NotProvidedF))
	assert.Equal(t, session.StateEnded, f.getSession(t, 5).State)
}

func TestHandleUpdate_SummaryAttachesPhotoWhenUploaded(t *testing.T) {
	// Arrange
	f := newFixture(t)
	sess := session.New(5)
	sess.State = session.StateLocation
	sess.VehicleType = session.VehicleWheels
	sess.FuelLevel = session.FuelAboveHalf
	sess.PhotoRef = "photo-file-id"
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{
		ChatID:   5,
		Location: &tracking.Coordinates{Latitude: 4.6, Longitude: -74.1},
	})

	// Assert
	require.NoError(t, err)
	require.Len(t, f.chat.photos, 1)
	assert.Equal(t, "photo-file-id", f.chat.photos[0].PhotoRef)
	assert.Contains(t, f.chat.photos[0].Caption, "Foto: Cargada")
	assert.Contains(t, f.chat.photos[0].Caption, "Ubicación: 4.600000 / -74.100000")
}

func TestHandleUpdate_AdminWrongPasswordIsDeniedGenerically(t *testing.T) {
	// Arrange
	f := newFixture(t)
	sess := session.New(8)
	sess.State = session.StateAdminPassword
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 8, Text: "wrong"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Acceso denegado.", f.chat.lastMessage(t).Text)
	assert.Equal(t, session.StateEnded, f.getSession(t, 8).State, "a failed attempt is terminal, not a retry")
}

func TestHandleUpdate_AdminWrongUsernameIsDeniedGenerically(t *testing.T) {
	// Arrange
	f := newFixture(t)
	sess := session.New(8)
	sess.State = session.StateAdminUsername
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 8, Text: "admin "})

	// Assert: comparison is exact, no trimming or case folding.
	require.NoError(t, err)
	assert.Equal(t, "Acceso denegado.", f.chat.lastMessage(t).Text)
	assert.Equal(t, session.StateEnded, f.getSession(t, 8).State)
}

func TestHandleUpdate_AdminListsRegisteredChats(t *testing.T) {
	// Arrange
	f := newFixture(t)
	require.NoError(t, f.registry.Register(context.Background(), 100))
	require.NoError(t, f.registry.Register(context.Background(), 200))
	sess := session.New(8)
	sess.State = session.StateAdminPassword
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 8, Text: "123"})

	// Assert
	require.NoError(t, err)
	last := f.chat.lastMessage(t)
	assert.Equal(t, "Seleccione un chat ID para ver las respuestas:", last.Text)
	require.Len(t, last.Keyboard, 2)
	assert.Equal(t, "100", last.Keyboard[0][0].Data)
	assert.Equal(t, "200", last.Keyboard[1][0].Data)
	assert.Equal(t, session.StateAdminSelect, f.getSession(t, 8).State)
}

func TestHandleUpdate_AdminViewsSelectedChatAnswers(t *testing.T) {
	// Arrange
	f := newFixture(t)
	target := session.New(100)
	target.State = session.StateEnded
	target.VehicleType = session.VehicleTracks
	target.FuelLevel = session.FuelFull
	target.Mileage = "50.000"
	f.putSession(t, target)

	admin := session.New(8)
	admin.State = session.StateAdminSelect
	f.putSession(t, admin)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 8, Callback: "100"})

	// Assert
	require.NoError(t, err)
	last := f.chat.lastMessage(t)
	assert.Contains(t, last.Text, "Respuestas del chat ID 100:")
	assert.Contains(t, last.Text, "Kilometraje: 50.000")
	assert.Contains(t, last.Text, fmt.Sprintf("Ubicación: %s", session.NotProvidedF))
}

func TestHandleUpdate_QuestionAnswerReplacesWaitingMessage(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.asker.answer = "El aceite se cambia cada 250 horas."
	sess := session.New(3)
	sess.State = session.StateAskQuestion
	sess.QueryType = string(relay.QueryDocs)
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 3, Text: "¿Cada cuánto se cambia el aceite?"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, relay.QueryDocs, f.asker.queryType)
	assert.Equal(t, "¿Cada cuánto se cambia el aceite?", f.asker.question)

	f.chat.mu.Lock()
	require.NotEmpty(t, f.chat.edits)
	final := f.chat.edits[len(f.chat.edits)-1]
	f.chat.mu.Unlock()
	assert.Equal(t, "Respuesta:\nEl aceite se cambia cada 250 horas.", final.Text)
	assert.Equal(t, session.StateEnded, f.getSession(t, 3).State)
}

func TestHandleUpdate_EndpointSelectionSetsQueryType(t *testing.T) {
	// Arrange
	f := newFixture(t)
	sess := session.New(3)
	sess.State = session.StateAskEndpoint
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 3, Text: "Base de datos"})

	// Assert
	require.NoError(t, err)
	after := f.getSession(t, 3)
	assert.Equal(t, string(relay.QueryDatabase), after.QueryType)
	assert.Equal(t, session.StateAskQuestion, after.State)
}

func TestHandleUpdate_LiveLocationSchedulesReporter(t *testing.T) {
	// Arrange
	f := newFixture(t)
	sess := session.New(6)
	sess.State = session.StateAskLiveLocation
	sess.FullName = "Ana Pérez"
	sess.IDNumber = "1020304050"
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{
		ChatID:   6,
		Location: &tracking.Coordinates{Latitude: 4.65, Longitude: -74.05},
	})

	// Assert: the position is stored and the repeating report is scheduled.
	require.NoError(t, err)
	coords, found, err := f.locations.Get(context.Background(), 6)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 4.65, coords.Latitude)

	require.Len(t, f.scheduler.scheduled, 1)
	assert.Equal(t, scheduledReport{ChatID: 6, Name: "Ana Pérez", IDNumber: "1020304050"}, f.scheduler.scheduled[0])
	assert.True(t, strings.HasPrefix(f.chat.lastMessage(t).Text, "¡Gracias!"))
}

func TestHandleUpdate_CancelStopsReporterAndEndsSession(t *testing.T) {
	// Arrange
	f := newFixture(t)
	sess := session.New(6)
	sess.State = session.StateAskLiveLocation
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 6, Text: "/cancel"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int64{6}, f.scheduler.cancelled)
	assert.Equal(t, "Adiós! Esperamos hablar contigo pronto.", f.chat.lastMessage(t).Text)
	assert.Equal(t, session.StateEnded, f.getSession(t, 6).State)
}

func TestHandleUpdate_MenuReissuesOnUnknownOption(t *testing.T) {
	// Arrange
	f := newFixture(t)
	sess := session.New(2)
	sess.State = session.StateMenu
	f.putSession(t, sess)

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 2, Text: "otra cosa"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Seleccione una opción:", f.chat.lastMessage(t).Text)
	assert.Equal(t, session.StateMenu, f.getSession(t, 2).State)
}

func TestHandleUpdate_SendFailureClosesSessionForInactivity(t *testing.T) {
	// Arrange
	f := newFixture(t)
	sess := session.New(2)
	sess.State = session.StateMenu
	f.putSession(t, sess)
	f.chat.sendErr = assert.AnError

	// Act
	err := f.bot.HandleUpdate(context.Background(), bot.Update{ChatID: 2, Text: "Formulario"})

	// Assert: the flow does not advance past a failed send.
	require.NoError(t, err)
	assert.Equal(t, session.StateEnded, f.getSession(t, 2).State)
}
