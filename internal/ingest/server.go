package ingest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ReportPublisher fans accepted reports out to downstream consumers.
type ReportPublisher interface {
	Publish(ctx context.Context, report Report) error
}

// reportRequest is the wire shape of one inbound report.
type reportRequest struct {
	Name      string   `json:"name" binding:"required"`
	IDNumber  string   `json:"id" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// Server exposes the report intake API.
type Server struct {
	store     ReportStore
	publisher ReportPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewServer creates the intake API over the given store. publisher may be nil
// when no fan-out is configured.
func NewServer(store ReportStore, publisher ReportPublisher, logger zerolog.Logger) *Server {
	return &Server{
		store:     store,
		publisher: publisher,
		logger:    logger.With().Str("component", "ingest-server").Logger(),
		now:       time.Now,
	}
}

// Router builds the HTTP routes. CORS is open: the reporting clients are
// browsers and bots on arbitrary origins.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/api/location", s.handleReport)
	return router
}

// handleReport validates one report, stamps the arrival time, persists it and
// fans it out.
func (s *Server) handleReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report payload"})
		return
	}

	report := Report{
		Name:       req.Name,
		IDNumber:   req.IDNumber,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		RecordedAt: s.now().UTC(),
	}

	if err := s.store.Insert(c.Request.Context(), report); err != nil {
		s.logger.Error().Err(err).Str("id", report.IDNumber).Msg("Failed to store report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store report"})
		return
	}

	// Fan-out is best effort: the report is already durable.
	if s.publisher != nil {
		if err := s.publisher.Publish(c.Request.Context(), report); err != nil {
			s.logger.Error().Err(err).Str("id", report.IDNumber).Msg("Failed to publish report")
		}
	}

	s.logger.Info().
		Str("id", report.IDNumber).
		Float64("latitude", report.Latitude).
		Float64("longitude", report.Longitude).
		Msg("Report accepted")
	c.JSON(http.StatusCreated, gin.H{"message": "Location received"})
}
