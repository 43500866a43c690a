package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/cache"
	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/internal/middleware"
	"github.com/genome-variant-explorer/internal/service"
	"github.com/genome-variant-explorer/internal/webhook"
)

const shutdownTimeout = 30 * time.Second

// Options carries the collaborators the HTTP server routes to.
type Options struct {
	Service  service.GenomeBrowser
	Cache    cache.Cache
	Webhook  *webhook.Handler
	Registry *prometheus.Registry
	Logger   *logrus.Logger
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	browser       service.GenomeBrowser
	cache         cache.Cache
	cacheTTL      time.Duration
	webhook       *webhook.Handler
	registry      *prometheus.Registry
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
	startedAt     time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, opts Options) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	store := opts.Cache
	if store == nil {
		store = cache.Noop{}
	}

	router := gin.New()

	router.Use(middleware.CorrelationID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)
		router.Use(middleware.RateLimit(limiter))
	}
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))
	router.Use(newHTTPMetrics(registry).handler())
	router.Use(middleware.AuditLogger(logger))

	server := &Server{
		configManager: configManager,
		browser:       opts.Service,
		cache:         store,
		cacheTTL:      cfg.Cache.DefaultTTL,
		webhook:       opts.Webhook,
		registry:      registry,
		logger:        logger,
		router:        router,
		startedAt:     time.Now(),
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/genomes", s.handleListGenomes)
		v1.GET("/genomes/:genome/chromosomes", s.handleListChromosomes)
		v1.GET("/genes/search", s.handleSearchGenes)
		v1.GET("/genes/:id", s.handleGetGene)
		v1.GET("/sequence", s.handleGetSequence)
		v1.GET("/clinvar", s.handleGetClinvar)
		v1.POST("/variants/analyze", s.handleAnalyzeVariant)
		v1.POST("/variants/analyze/batch", s.handleAnalyzeBatch)
		v1.POST("/clinvar/analyze", s.handleAnalyzeClinvar)
		v1.GET("/ws/analyze", s.handleAnalyzeStream)
	}

	if s.webhook != nil {
		s.router.POST("/api/webhooks/clerk", s.webhook.Handle)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	cfg := s.configManager.GetConfig()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   cfg.MCP.ServerVersion,
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// corsMiddleware answers with the configured origins. An empty list or a
// "*" entry allows any origin without credentials.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	wildcard := len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && originAllowed(allowedOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, "+middleware.CorrelationIDHeader)
		c.Header("Access-Control-Expose-Headers", "Content-Length, "+middleware.CorrelationIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if candidate == "*" || strings.EqualFold(candidate, origin) {
			return true
		}
	}
	return false
}
