// Package api exposes jobshopd's ops surface: a health check and a
// recent-domain-events feed for operators watching a running engine.
// Spec's Non-goals explicitly exclude HTTP CRUD, auth/RBAC, and
// real-time push as external collaborators, so this stays a small,
// read-only introspection surface rather than the full request API —
// the core is driven in-process (pkg/engine) or via cmd/jobshopd's
// "solve" subcommand, not over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/flowforge/jobshop/internal/config"
	"github.com/flowforge/jobshop/pkg/events"
)

// Server is the ops HTTP surface.
type Server struct {
	config *config.APIConfig
	bus    *events.Bus
	logger *slog.Logger
	server *http.Server
}

// NewServer constructs a Server. bus may be nil, in which case
// /events/recent always reports an empty feed.
func NewServer(cfg *config.APIConfig, bus *events.Bus, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{config: cfg, bus: bus, logger: logger}
}

// Router builds the gin engine backing this server, exported so tests can
// drive it directly with httptest without opening a real listener.
func (s *Server) Router() *gin.Engine {
	return s.setupRouter()
}

// Start runs the HTTP server until ctx is canceled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRouter()
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.logger.Info("starting ops API server", "address", s.config.Listen)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("stopping ops API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(s.loggingMiddleware())
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())
	router.Use(s.securityHeadersMiddleware())
	if s.config.RateLimit.Enabled {
		router.Use(s.rateLimitMiddleware())
	}

	router.GET("/healthz", s.healthHandler)
	router.GET("/events/recent", s.recentEventsHandler)

	return router
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	if !s.config.Cors.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	corsConfig := cors.Config{
		AllowOrigins: s.config.Cors.AllowedOrigins,
		AllowMethods: []string{"GET"},
	}
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
	}
	return cors.New(corsConfig)
}
