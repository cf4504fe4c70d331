package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Anirudh9794/container-service-extension/internal/api/handlers"
	"github.com/Anirudh9794/container-service-extension/internal/api/middleware"
	"github.com/Anirudh9794/container-service-extension/internal/config"
	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/orchestrator"
	"github.com/Anirudh9794/container-service-extension/internal/storage"
	"github.com/Anirudh9794/container-service-extension/internal/websocket"
)

// Server represents the REST API server
type Server struct {
	config      *config.APIConfig
	logger      logger.Interface
	database    *storage.Database
	coordinator *orchestrator.Coordinator
	events      *websocket.Hub
	router      *gin.Engine
	server      *http.Server
}

// New creates a new API server instance
func New(cfg *config.APIConfig, log logger.Interface, db *storage.Database, coordinator *orchestrator.Coordinator, events *websocket.Hub) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	s := &Server{
		config:      cfg,
		logger:      log,
		database:    db,
		coordinator: coordinator,
		events:      events,
		router:      router,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes and middleware
func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.RequestID())

	if s.config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig(), s.logger)
		s.router.Use(limiter.Middleware())
	}

	// Health check endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(s.database)
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/ready", healthHandler.Ready)

	protected := s.router.Group("/")
	if s.config.AuthEnabled {
		protected.Use(middleware.Auth(middleware.AcceptAnyToken()))
	}

	clusterHandler := handlers.NewClusterHandler(s.coordinator, s.logger)
	swaggerHandler := handlers.NewSwaggerHandler()
	cluster := protected.Group("/cluster")
	{
		cluster.GET("", clusterHandler.List)
		cluster.POST("", clusterHandler.Create)
		cluster.GET("/swagger.json", swaggerHandler.JSON)
		cluster.GET("/swagger.yaml", swaggerHandler.YAML)
		cluster.DELETE("/:clusterid", clusterHandler.Delete)
	}

	taskHandler := handlers.NewTaskHandler(s.coordinator, s.logger)
	protected.GET("/tasks", taskHandler.ListIDs)

	if s.events != nil {
		protected.GET("/events", s.events.Handler)
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	readTimeout, err := time.ParseDuration(s.config.ReadTimeout)
	if err != nil {
		readTimeout = 30 * time.Second
	}

	writeTimeout, err := time.ParseDuration(s.config.WriteTimeout)
	if err != nil {
		writeTimeout = 30 * time.Second
	}

	s.server = &http.Server{
		Addr:         s.config.GetAddress(),
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.WithField("address", s.config.GetAddress()).Info("Starting API server")

	if s.config.IsTLSEnabled() {
		return s.server.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
	}

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}

// Router returns the underlying Gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}
