// Package clients provides HTTP clients for communicating with external services.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/illmade-knight/vehicle-intake/pkg/tracking"
	"github.com/rs/zerolog"
)

// LocationBackendClient posts identified position reports to the location
// ingest service. It satisfies tracking.Sender.
type LocationBackendClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewLocationBackendClient creates a new client for the location backend.
func NewLocationBackendClient(baseURL string, logger zerolog.Logger) *LocationBackendClient {
	return &LocationBackendClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With().Str("client", "location-backend").Logger(),
	}
}

// SendLocation posts one report. Any 2xx response counts as accepted.
func (c *LocationBackendClient) SendLocation(ctx context.Context, payload tracking.Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal location payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/location", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create location request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute location request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("location backend returned unexpected status code: %d", resp.StatusCode)
	}

	c.logger.Info().Str("id", payload.IDNumber).Msg("Successfully sent location report")
	return nil
}
