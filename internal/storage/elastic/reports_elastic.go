// Package elastic provides persistent storage for position reports using
// Elasticsearch's HTTP API.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/illmade-knight/vehicle-intake/internal/ingest"
	"github.com/rs/zerolog"
)

// reportDocument is the private struct used for index marshalling. This keeps
// the public domain model in `internal/ingest` clean from persistence-specific
// fields such as the combined geo_point.
type reportDocument struct {
	Name      string  `json:"name"`
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Location is the "lat,lon" geo_point rendering of the coordinates.
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
}

// indexMapping declares the field types the reports index needs; without it
// Elasticsearch would infer location as text and break geo queries.
const indexMapping = `{
	"mappings": {
		"properties": {
			"name": {"type": "keyword"},
			"id": {"type": "keyword"},
			"latitude": {"type": "float"},
			"longitude": {"type": "float"},
			"location": {"type": "geo_point"},
			"timestamp": {"type": "date"}
		}
	}
}`

// ReportsStore is a concrete implementation of the ingest.ReportStore
// interface backed by one Elasticsearch index.
type ReportsStore struct {
	baseURL    string
	index      string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewReportsStore creates an Elasticsearch-backed store for position reports.
// apiKey may be empty for unauthenticated clusters.
func NewReportsStore(baseURL, index, apiKey string, logger zerolog.Logger) *ReportsStore {
	return &ReportsStore{
		baseURL: baseURL,
		index:   index,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "elastic-store").Str("index", index).Logger(),
	}
}

func toReportDocument(report ingest.Report) reportDocument {
	return reportDocument{
		Name:      report.Name,
		ID:        report.IDNumber,
		Latitude:  report.Latitude,
		Longitude: report.Longitude,
		Location:  fmt.Sprintf("%f,%f", report.Latitude, report.Longitude),
		Timestamp: report.RecordedAt.UTC().Format(time.RFC3339),
	}
}

// EnsureIndex creates the reports index with its mapping if it does not exist
// yet. Safe to call on every startup.
func (s *ReportsStore) EnsureIndex(ctx context.Context) error {
	exists, err := s.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Debug().Msg("Reports index already exists")
		return nil
	}

	req, err := s.newRequest(ctx, http.MethodPut, s.index, []byte(indexMapping))
	if err != nil {
		return fmt.Errorf("failed to create index request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute index request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("elasticsearch returned unexpected status code for index creation: %d", resp.StatusCode)
	}

	s.logger.Info().Msg("Created reports index")
	return nil
}

// Insert appends one report document to the index.
func (s *ReportsStore) Insert(ctx context.Context, report ingest.Report) error {
	body, err := json.Marshal(toReportDocument(report))
	if err != nil {
		return fmt.Errorf("failed to marshal report document: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, fmt.Sprintf("%s/_doc", s.index), body)
	if err != nil {
		return fmt.Errorf("failed to create insert request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute insert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("elasticsearch returned unexpected status code for insert: %d", resp.StatusCode)
	}

	s.logger.Debug().Str("id", report.IDNumber).Msg("Inserted position report")
	return nil
}

func (s *ReportsStore) indexExists(ctx context.Context) (bool, error) {
	req, err := s.newRequest(ctx, http.MethodHead, s.index, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create index check request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to execute index check request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("elasticsearch returned unexpected status code for index check: %d", resp.StatusCode)
	}
}

func (s *ReportsStore) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	endpoint, err := url.JoinPath(s.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("failed to build elasticsearch url: %w", err)
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+s.apiKey)
	}
	return req, nil
}
