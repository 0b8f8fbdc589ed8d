package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Publisher fans accepted reports out on a Pub/Sub topic so downstream
// consumers (dashboards, alerting) see them without polling the index.
type Publisher struct {
	topic  *pubsub.Publisher
	logger zerolog.Logger
}

// NewPublisher creates a publisher for one topic.
func NewPublisher(client *pubsub.Client, topicID string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		topic:  client.Publisher(topicID),
		logger: logger.With().Str("component", "report-publisher").Str("topic", topicID).Logger(),
	}
}

// Publish sends one report and waits for broker confirmation.
func (p *Publisher) Publish(ctx context.Context, report Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report for publishing: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{Data: payload})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}

	p.logger.Debug().Str("id", report.IDNumber).Msg("Published position report")
	return nil
}

// Stop flushes pending messages. Call during shutdown.
func (p *Publisher) Stop() {
	p.topic.Stop()
}
