// Package relay forwards free-text questions to the external answering
// services and normalizes their response shapes into plain text.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QueryType selects which of the two fixed answering services a question is
// sent to. The two services have distinct request and response schemas that
// are deliberately kept separate.
type QueryType string

const (
	// QueryDocs targets the document-search service, which streams
	// newline-delimited JSON chunks.
	QueryDocs QueryType = "docs"
	// QueryDatabase targets the structured-data service, which answers with
	// a single JSON object.
	QueryDatabase QueryType = "database"
)

const (
	// databaseIndexName is the fixed index the structured-data service
	// queries against.
	databaseIndexName = "pae_2024_2"

	// maxAnswerLength bounds the rendered answer, marker included.
	maxAnswerLength  = 4096
	truncationMarker = "..."

	fallbackDocs     = "No se pudo obtener una respuesta válida."
	fallbackDatabase = "No se encontró respuesta en el JSON."
	transportFailure = "Hubo un problema al conectarse con la API. Por favor, inténtelo más tarde."
)

// chunkLine is one record of the document-search NDJSON stream.
type chunkLine struct {
	Result struct {
		Chunk string `json:"chunk"`
	} `json:"result"`
}

// Client is responsible for all communication with the answering services.
type Client struct {
	docsURL     string
	databaseURL string
	httpClient  *http.Client
	logger      zerolog.Logger
}

// NewClient creates a relay client for the two fixed service endpoints.
func NewClient(docsURL, databaseURL string, logger zerolog.Logger) *Client {
	return &Client{
		docsURL:     docsURL,
		databaseURL: databaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger.With().Str("client", "query-relay").Logger(),
	}
}

// Ask forwards the question to the service selected by queryType and returns
// the user-facing answer. Failures never propagate: transport problems yield
// a fixed error string and empty results yield the service's fallback text.
func (c *Client) Ask(ctx context.Context, queryType QueryType, question string) string {
	logger := c.logger.With().
		Str("query_id", uuid.NewString()).
		Str("query_type", string(queryType)).
		Logger()

	var url string
	var body any
	switch queryType {
	case QueryDatabase:
		url = c.databaseURL
		body = map[string]string{"question": question, "index_name": databaseIndexName}
	default:
		url = c.docsURL
		body = map[string]string{"query": question}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal relay request")
		return transportFailure
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create relay request")
		return transportFailure
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to reach answering service")
		return transportFailure
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error().Int("status", resp.StatusCode).Msg("Answering service returned unexpected status code")
		return transportFailure
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read answering service response")
		return transportFailure
	}

	var answer string
	if queryType == QueryDatabase {
		answer = c.decodeDatabase(raw, logger)
	} else {
		answer = c.decodeDocs(raw, logger)
	}

	logger.Info().Int("answer_len", len(answer)).Msg("Relay call completed")
	return truncate(answer)
}

// decodeDocs reassembles the newline-delimited chunk stream. Malformed lines
// are skipped; they never abort the concatenation of later valid lines.
func (c *Client) decodeDocs(raw []byte, logger zerolog.Logger) string {
	var b strings.Builder
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var record chunkLine
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			logger.Warn().Err(err).Msg("Skipping malformed response line")
			continue
		}
		b.WriteString(record.Result.Chunk)
	}
	if b.Len() == 0 {
		return fallbackDocs
	}
	return b.String()
}

// decodeDatabase extracts the natural-language answer from the single JSON
// object the structured-data service returns.
func (c *Client) decodeDatabase(raw []byte, logger zerolog.Logger) string {
	var decoded struct {
		NaturalLanguageResponse *string `json:"natural_language_response"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		logger.Warn().Err(err).Msg("Failed to decode structured-data response")
		return fallbackDatabase
	}
	if decoded.NaturalLanguageResponse == nil || *decoded.NaturalLanguageResponse == "" {
		return fallbackDatabase
	}
	return *decoded.NaturalLanguageResponse
}

// truncate caps the answer at the maximum render length, appending only the
// truncation marker.
func truncate(answer string) string {
	runes := []rune(answer)
	if len(runes) <= maxAnswerLength {
		return answer
	}
	return fmt.Sprintf("%s%s", string(runes[:maxAnswerLength-len(truncationMarker)]), truncationMarker)
}
