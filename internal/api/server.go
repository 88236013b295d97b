package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vkivaturi/traffis/config"
	"github.com/vkivaturi/traffis/internal/api/handlers"
	"github.com/vkivaturi/traffis/internal/api/middleware"
	"github.com/vkivaturi/traffis/internal/metrics"
	"github.com/vkivaturi/traffis/internal/services"
)

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, eventService *services.EventService, m *metrics.Metrics) *Server {
	server := &Server{config: cfg}
	server.router = server.setupRouter(eventService, m)
	server.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter(eventService *services.EventService, m *metrics.Metrics) *gin.Engine {
	if s.config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	if s.config.Server.CorsEnabled {
		router.Use(middleware.CORS(s.config.Server.CorsOrigins))
	}

	limiters := middleware.NewRateLimiters(s.config.RateLimit)
	auth := middleware.RequireAPIKey(s.config.Auth.APIKey)

	eventsHandler := handlers.NewEventsHandler(eventService)
	llmHandler := handlers.NewLLMHandler(eventService)
	metricsHandler := handlers.NewMetricsHandler(m)

	apiGroup := router.Group("/api")
	apiGroup.GET("/events", limiters.Read(), eventsHandler.ListEvents)
	apiGroup.POST("/events", limiters.Write(), auth, eventsHandler.CreateEvent)
	apiGroup.DELETE("/events/:id", limiters.Write(), auth, eventsHandler.DeleteEvent)
	apiGroup.POST("/llm", limiters.Write(), auth, llmHandler.DraftEvent)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metricsHandler.GetMetrics)

	return router
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.Server.Address).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
