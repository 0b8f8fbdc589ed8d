// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// BotConfig holds everything the conversation service needs.
type BotConfig struct {
	// TelegramBaseURL is normally https://api.telegram.org.
	TelegramBaseURL string
	TelegramToken   string

	// LocationBackendURL is the base URL of the location ingest service.
	LocationBackendURL string

	// DocsRelayURL and DatabaseRelayURL are the two answering services.
	DocsRelayURL     string
	DatabaseRelayURL string

	AdminUsername string
	AdminPassword string

	// RegistryPath is the file holding one registered chat id per line.
	RegistryPath string

	// ReportInterval is the cadence of the repeating location report, and
	// ReportDelay the wait before the first one.
	ReportInterval time.Duration
	ReportDelay    time.Duration

	// PromptTimeout bounds each outbound send or edit.
	PromptTimeout time.Duration

	// ReminderHour and ReminderMinute schedule the daily broadcast in
	// ReminderTimezone.
	ReminderHour     int
	ReminderMinute   int
	ReminderTimezone string
}

// IngestConfig holds everything the location ingest service needs.
type IngestConfig struct {
	Addr string

	ElasticURL    string
	ElasticIndex  string
	ElasticAPIKey string

	// PubsubProjectID and PubsubTopicID configure the report fan-out. Both
	// empty disables publishing.
	PubsubProjectID string
	PubsubTopicID   string
}

// LoadBot reads the bot configuration from the environment.
func LoadBot() (*BotConfig, error) {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	backendURL := os.Getenv("LOCATION_BACKEND_URL")
	if backendURL == "" {
		return nil, fmt.Errorf("LOCATION_BACKEND_URL environment variable is required")
	}

	cfg := &BotConfig{
		TelegramBaseURL:    envOr("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		TelegramToken:      token,
		LocationBackendURL: backendURL,
		DocsRelayURL:       os.Getenv("DOCS_RELAY_URL"),
		DatabaseRelayURL:   os.Getenv("DATABASE_RELAY_URL"),
		AdminUsername:      envOr("ADMIN_USERNAME", "Admin"),
		AdminPassword:      envOr("ADMIN_PASSWORD", "123"),
		RegistryPath:       envOr("REGISTRY_PATH", "chats_id.txt"),
		ReportInterval:     envDuration("REPORT_INTERVAL", time.Minute),
		ReportDelay:        envDuration("REPORT_DELAY", time.Minute),
		PromptTimeout:      envDuration("PROMPT_TIMEOUT", 2*time.Minute),
		ReminderHour:       envInt("REMINDER_HOUR", 14),
		ReminderMinute:     envInt("REMINDER_MINUTE", 2),
		ReminderTimezone:   envOr("REMINDER_TIMEZONE", "America/Bogota"),
	}
	return cfg, nil
}

// LoadIngest reads the ingest configuration from the environment.
func LoadIngest() (*IngestConfig, error) {
	elasticURL := os.Getenv("ELASTIC_URL")
	if elasticURL == "" {
		return nil, fmt.Errorf("ELASTIC_URL environment variable is required")
	}

	port := envInt("PORT", 8000)

	return &IngestConfig{
		Addr:            fmt.Sprintf(":%d", port),
		ElasticURL:      elasticURL,
		ElasticIndex:    envOr("ELASTIC_INDEX", "vehicle-reports"),
		ElasticAPIKey:   os.Getenv("ELASTIC_API_KEY"),
		PubsubProjectID: os.Getenv("PUBSUB_PROJECT_ID"),
		PubsubTopicID:   os.Getenv("PUBSUB_TOPIC_ID"),
	}, nil
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
