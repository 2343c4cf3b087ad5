// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/config"
	correlationHTTP "github.com/allisson/outreach/internal/correlation/http"
	pipelineHTTP "github.com/allisson/outreach/internal/pipeline/http"
)

// Server represents the API HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The router is assembled separately via
// SetupRouter so callers control which handlers are mounted.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter assembles the Gin router: base middleware, health endpoints and
// the v1 API surface. The webhook group carries its own per-IP rate limit.
func (s *Server) SetupRouter(
	cfg *config.Config,
	metricsMiddleware gin.HandlerFunc,
	campaignHandler *pipelineHTTP.CampaignHandler,
	queueHandler *pipelineHTTP.QueueHandler,
	webhookHandler *correlationHTTP.WebhookHandler,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if metricsMiddleware != nil {
		router.Use(metricsMiddleware)
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	{
		campaigns := v1.Group("/campaigns")
		campaigns.POST("/:id/process", campaignHandler.ProcessHandler)
		campaigns.POST("/:id/pause", campaignHandler.PauseHandler)
		campaigns.POST("/:id/resume", campaignHandler.ResumeHandler)
		campaigns.GET("/:id/progress", campaignHandler.ProgressHandler)
		campaigns.GET("/:id/email-jobs", campaignHandler.ListEmailJobsHandler)

		v1.POST("/retries", campaignHandler.RetryHandler)
		v1.GET("/queue/stats", queueHandler.StatsHandler)

		webhooks := v1.Group("/webhooks")
		webhooks.Use(correlationHTTP.RateLimitMiddleware(
			cfg.WebhookRateLimitPerSec, cfg.WebhookRateLimitBurst, s.logger))
		webhooks.POST("/inbound", webhookHandler.InboundHandler)
	}

	s.router = router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic, checking
// the database connection.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil {
		components["database"] = "error"
	} else if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("readiness database check failed", slog.Any("error", err))
		components["database"] = "error"
	}

	if components["database"] != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// GetHandler returns the router as an http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server. SetupRouter must have been called first.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
