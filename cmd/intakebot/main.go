package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/illmade-knight/vehicle-intake/app"
	"github.com/illmade-knight/vehicle-intake/internal/clients"
	"github.com/illmade-knight/vehicle-intake/internal/config"
	"github.com/illmade-knight/vehicle-intake/pkg/bot"
	"github.com/illmade-knight/vehicle-intake/pkg/relay"
	"github.com/illmade-knight/vehicle-intake/pkg/session"
	"github.com/illmade-knight/vehicle-intake/pkg/tracking"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadBot()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	reminderTZ, err := time.LoadLocation(cfg.ReminderTimezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.ReminderTimezone).Msg("Unknown reminder timezone")
	}

	// 2. Instantiate Storage
	sessions := session.NewInMemoryStore()
	registry, err := session.NewFileRegistry(cfg.RegistryPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.RegistryPath).Msg("Failed to open chat registry")
	}
	locations := tracking.NewInMemoryStore()
	logger.Info().Msg("Storage initialized")

	// 3. Instantiate Networking Clients
	telegram := clients.NewTelegramClient(cfg.TelegramBaseURL, cfg.TelegramToken, logger)
	backend := clients.NewLocationBackendClient(cfg.LocationBackendURL, logger)
	relayClient := relay.NewClient(cfg.DocsRelayURL, cfg.DatabaseRelayURL, logger)
	logger.Info().Msg("Networking clients initialized")

	// 4. Instantiate the Background Reporter
	reporter := tracking.NewReporter(locations, backend, cfg.ReportInterval, cfg.ReportDelay, logger)
	defer reporter.Stop()

	// 5. Instantiate the Conversation Handler and Reminder
	handler := bot.New(telegram, sessions, registry, locations, reporter, relayClient, bot.Config{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		PromptTimeout: cfg.PromptTimeout,
	}, logger)
	reminder := bot.NewReminder(registry, telegram, cfg.ReminderHour, cfg.ReminderMinute, reminderTZ, logger)

	// 6. Run the Dispatch Loop
	application := app.New(telegram, handler, reminder, logger)
	logger.Info().Msg("Vehicle-intake bot starting")
	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Dispatch loop failed")
	}
	logger.Info().Msg("Shutdown signal received. Exiting.")
}
