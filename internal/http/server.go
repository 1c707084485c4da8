package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	challengeHTTP "github.com/allisson/challenge/internal/challenge/http"
	"github.com/allisson/challenge/internal/config"
	"github.com/allisson/challenge/internal/metrics"
	"github.com/allisson/challenge/internal/redis"
)

// Server represents the challenge API HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates the API server and wires the router: recovery, request
// id, structured logging, optional CORS, metrics and rate limiting, plus the
// challenge routes and the health endpoints.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	challengeHandler *challengeHTTP.ChallengeHandler,
	redisClient *goredis.Client,
	metricsProvider *metrics.Provider,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", healthHandler())
	router.GET("/ready", readinessHandler(redisClient))

	v1 := router.Group("/v1")
	if cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, logger))
	}

	challenges := v1.Group("/challenges")
	challenges.POST("", challengeHandler.CreateHandler)
	challenges.POST("/info", challengeHandler.InfoHandler)
	challenges.POST("/verify", challengeHandler.VerifyHandler)
	challenges.POST("/regenerate", challengeHandler.RegenerateHandler)
	challenges.POST("/remove", challengeHandler.RemoveHandler)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

// readinessHandler reports whether the server can reach its storage backend.
func readinessHandler(redisClient *goredis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := redis.HealthCheck(c.Request.Context(), redisClient); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"components": gin.H{
					"redis": err.Error(),
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
