// Package bot drives the intake conversation: a per-chat state machine that
// asks the scripted questions, validates answers, and coordinates the
// background reporter and the query relay.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/illmade-knight/vehicle-intake/pkg/relay"
	"github.com/illmade-knight/vehicle-intake/pkg/session"
	"github.com/illmade-knight/vehicle-intake/pkg/tracking"
	"github.com/rs/zerolog"
)

// Asker forwards a question to an answering service and returns the
// user-facing answer text.
type Asker interface {
	Ask(ctx context.Context, queryType relay.QueryType, question string) string
}

// Scheduler manages the per-chat repeating location report.
type Scheduler interface {
	Schedule(chatID int64, name, idNumber string)
	Cancel(chatID int64)
}

// Config carries the tunables of the conversation.
type Config struct {
	// AdminUsername and AdminPassword are compared with exact string
	// equality, no normalization.
	AdminUsername string
	AdminPassword string
	// PromptTimeout bounds each outbound send/edit; on expiry the session is
	// closed for inactivity.
	PromptTimeout time.Duration
	// SpinnerInterval is the cadence of progress-message updates during a
	// relay call.
	SpinnerInterval time.Duration
}

// Bot is the conversation state machine. One instance serves every chat;
// per-chat state lives in the session store.
type Bot struct {
	chat      Chat
	sessions  session.Store
	registry  session.Registry
	locations tracking.LocationStore
	reporter  Scheduler
	relay     Asker
	cfg       Config
	logger    zerolog.Logger
}

// New creates a fully wired conversation handler.
func New(chat Chat, sessions session.Store, registry session.Registry, locations tracking.LocationStore, reporter Scheduler, asker Asker, cfg Config, logger zerolog.Logger) *Bot {
	if cfg.PromptTimeout == 0 {
		cfg.PromptTimeout = 120 * time.Second
	}
	if cfg.SpinnerInterval == 0 {
		cfg.SpinnerInterval = 300 * time.Millisecond
	}
	return &Bot{
		chat:      chat,
		sessions:  sessions,
		registry:  registry,
		locations: locations,
		reporter:  reporter,
		relay:     asker,
		cfg:       cfg,
		logger:    logger.With().Str("component", "bot").Logger(),
	}
}

// HandleUpdate advances the chat's conversation with one inbound event.
// Validation problems re-prompt the current state; transport problems close
// the session with an inactivity notice. The returned error is reserved for
// store failures.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) error {
	// Every shared position overwrites the chat's last known location, so a
	// running reporter always reads the freshest coordinates.
	if u.Location != nil {
		if err := b.locations.Set(ctx, u.ChatID, *u.Location); err != nil {
			return fmt.Errorf("failed to record location for chat %d: %w", u.ChatID, err)
		}
	}

	switch u.Text {
	case "/start":
		return b.handleStart(ctx, u)
	case "/cancel":
		return b.handleCancel(ctx, u)
	}

	sess, ok, err := b.sessions.Get(ctx, u.ChatID)
	if err != nil {
		return fmt.Errorf("failed to load session for chat %d: %w", u.ChatID, err)
	}
	if !ok || sess.State == session.StateEnded {
		b.prompt(ctx, u.ChatID, "Por favor, comienza con /start", nil)
		return nil
	}

	switch sess.State {
	case session.StateMenu:
		return b.handleMenu(ctx, sess, u)
	case session.StateVehicleType:
		return b.handleVehicleType(ctx, sess, u)
	case session.StateFuelLevel:
		return b.handleFuelLevel(ctx, sess, u)
	case session.StateMileageDecision:
		return b.handleMileageDecision(ctx, sess, u)
	case session.StateMileage:
		return b.handleMileage(ctx, sess, u)
	case session.StatePhoto:
		return b.handlePhoto(ctx, sess, u)
	case session.StateLocation:
		return b.handleLocation(ctx, sess, u)
	case session.StateAskName:
		return b.handleAskName(ctx, sess, u)
	case session.StateAskIDNumber:
		return b.handleAskIDNumber(ctx, sess, u)
	case session.StateAskLiveLocation:
		return b.handleAskLiveLocation(ctx, sess, u)
	case session.StateAskEndpoint:
		return b.handleAskEndpoint(ctx, sess, u)
	case session.StateAskQuestion:
		return b.handleAskQuestion(ctx, sess, u)
	case session.StateAdminUsername:
		return b.handleAdminUsername(ctx, sess, u)
	case session.StateAdminPassword:
		return b.handleAdminPassword(ctx, sess, u)
	case session.StateAdminSelect:
		return b.handleAdminSelect(ctx, sess, u)
	default:
		b.logger.Warn().Int64("chat_id", u.ChatID).Str("state", string(sess.State)).Msg("Update for unknown state")
		return nil
	}
}

// handleStart registers the chat durably, resets its session, and shows the
// menu.
func (b *Bot) handleStart(ctx context.Context, u Update) error {
	if err := b.registry.Register(ctx, u.ChatID); err != nil {
		return fmt.Errorf("failed to register chat %d: %w", u.ChatID, err)
	}
	b.logger.Info().Int64("chat_id", u.ChatID).Msg("Chat started the bot")

	sess := session.New(u.ChatID)
	if err := b.sessions.Put(ctx, sess); err != nil {
		return fmt.Errorf("failed to create session for chat %d: %w", u.ChatID, err)
	}
	b.promptMenu(ctx, u.ChatID)
	return nil
}

// handleCancel ends the conversation and stops any live reporter for the chat.
func (b *Bot) handleCancel(ctx context.Context, u Update) error {
	b.reporter.Cancel(u.ChatID)
	b.prompt(ctx, u.ChatID, "Adiós! Esperamos hablar contigo pronto.", nil)
	return b.endSession(ctx, u.ChatID)
}

func (b *Bot) promptMenu(ctx context.Context, chatID int64) {
	keyboard := [][]Button{Row(
		Button{Label: "Formulario"},
		Button{Label: "Pregunta"},
		Button{Label: "Administrador"},
		Button{Label: "Compartir ubicación"},
	)}
	b.prompt(ctx, chatID, "Seleccione una opción:", keyboard)
}

// prompt sends a message within the configured timeout. On failure the
// session is closed for inactivity and ok is false; callers should stop
// advancing the flow.
func (b *Bot) prompt(ctx context.Context, chatID int64, text string, keyboard [][]Button) (messageID int64, ok bool) {
	sendCtx, cancel := context.WithTimeout(ctx, b.cfg.PromptTimeout)
	defer cancel()

	id, err := b.chat.SendMessage(sendCtx, chatID, text, keyboard)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send prompt")
		b.expire(chatID)
		return 0, false
	}
	return id, true
}

// edit rewrites an existing message within the configured timeout, with the
// same inactivity escalation as prompt.
func (b *Bot) edit(ctx context.Context, chatID, messageID int64, text string) bool {
	editCtx, cancel := context.WithTimeout(ctx, b.cfg.PromptTimeout)
	defer cancel()

	if err := b.chat.EditMessage(editCtx, chatID, messageID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit message")
		b.expire(chatID)
		return false
	}
	return true
}

// expire closes the chat's session after a blocked transition and tells the
// user, best effort, why the flow ended.
func (b *Bot) expire(chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.PromptTimeout)
	defer cancel()

	_, _ = b.chat.SendMessage(ctx, chatID,
		"El formulario se ha cerrado por inactividad.\nPor favor, vuelve a comenzar con /start", nil)
	if err := b.endSession(ctx, chatID); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to close expired session")
	}
}

// endSession marks the chat's session as ended while keeping its answers
// available for the admin view.
func (b *Bot) endSession(ctx context.Context, chatID int64) error {
	sess, ok, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load session for chat %d: %w", chatID, err)
	}
	if !ok {
		return nil
	}
	sess.State = session.StateEnded
	if err := b.sessions.Put(ctx, sess); err != nil {
		return fmt.Errorf("failed to end session for chat %d: %w", chatID, err)
	}
	return nil
}

// advance persists the session in its next state.
func (b *Bot) advance(ctx context.Context, sess session.Session, next session.State) error {
	sess.State = next
	if err := b.sessions.Put(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session for chat %d: %w", sess.ChatID, err)
	}
	return nil
}
