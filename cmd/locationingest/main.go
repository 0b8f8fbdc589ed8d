package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/illmade-knight/vehicle-intake/internal/config"
	"github.com/illmade-knight/vehicle-intake/internal/ingest"
	"github.com/illmade-knight/vehicle-intake/internal/storage/elastic"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadIngest()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Instantiate Persistent Storage
	store := elastic.NewReportsStore(cfg.ElasticURL, cfg.ElasticIndex, cfg.ElasticAPIKey, logger)
	if err := store.EnsureIndex(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to prepare reports index")
	}
	logger.Info().Str("index", cfg.ElasticIndex).Msg("Elasticsearch storage initialized")

	// 3. Instantiate the Optional Fan-Out Publisher
	var publisher ingest.ReportPublisher
	if cfg.PubsubProjectID != "" && cfg.PubsubTopicID != "" {
		psClient, err := pubsub.NewClient(ctx, cfg.PubsubProjectID)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create Pub/Sub client")
		}
		defer psClient.Close()

		p := ingest.NewPublisher(psClient, cfg.PubsubTopicID, logger)
		defer p.Stop()
		publisher = p
		logger.Info().Str("topic", cfg.PubsubTopicID).Msg("Report fan-out enabled")
	}

	// 4. Build and Start the HTTP Server
	server := ingest.NewServer(store, publisher, logger)
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Router(),
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("Location ingest service listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// 5. Wait for Shutdown
	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shut down cleanly")
	}
	logger.Info().Msg("Exiting.")
}
