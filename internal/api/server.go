// Package api exposes the engine over a JSON HTTP surface.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/airsight/airsight-engine/internal/config"
	"github.com/airsight/airsight-engine/internal/forecast"
	"github.com/airsight/airsight-engine/internal/health"
	"github.com/airsight/airsight-engine/internal/service"
)

// Server wraps the HTTP server and lifecycle helpers.
type Server struct {
	cfg        config.ServerConfig
	httpServer *http.Server
	logger     *slog.Logger

	dispatcher *service.Dispatcher
	forecaster *forecast.Engine
	health     *health.Engine
}

// NewServer constructs the HTTP server bound to the configured address.
func NewServer(cfg config.ServerConfig, dispatcher *service.Dispatcher, forecaster *forecast.Engine, healthEngine *health.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		dispatcher: dispatcher,
		forecaster: forecaster,
		health:     healthEngine,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.setupRouter(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/healthz", s.healthz)
	r.GET("/readyz", s.readyz)

	apiRoute := r.Group("/api")
	{
		apiRoute.POST("/query", s.query)
		apiRoute.POST("/predict", s.predict)
		apiRoute.POST("/monthly-predict", s.monthlyPredict)
		apiRoute.POST("/health-risk", s.healthRisk)
		apiRoute.POST("/health-risk-filtered", s.healthRiskFiltered)
		apiRoute.GET("/countries", s.countries)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// Start serves requests until Shutdown is invoked.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return fmt.Errorf("server not initialised")
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) {
	if s.httpServer == nil {
		return
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("http server shutdown", "error", err)
	}
}

// Address exposes the configured listen address (useful for tests).
func (s *Server) Address() string {
	return s.cfg.Address
}

// GracefulTimeout returns the configured graceful timeout duration.
func (s *Server) GracefulTimeout() time.Duration {
	return s.cfg.GracefulTimeout
}
