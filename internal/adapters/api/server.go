// Package api provides the operator HTTP surface for the dispatch service.
// Handlers translate requests into orchestrator calls and store lookups.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"plotlines.app/internal/authors"
	"plotlines.app/internal/core/dispatch"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port int
}

// Dispatcher is the part of the orchestrator the HTTP adapter depends on
type Dispatcher interface {
	RunCycle(ctx context.Context, date string) (*dispatch.CycleSummary, error)
	Today() string
	LastSummary() (*dispatch.CycleSummary, bool)
}

// AuthorCatalog lists the writing styles subscribers can pick
type AuthorCatalog interface {
	List() []authors.Author
}

// HTTPServerAdapter implements the operator HTTP server using Gin
type HTTPServerAdapter struct {
	router       *gin.Engine
	server       *http.Server
	config       ServerConfig
	dispatcher   Dispatcher
	combinations ports.CombinationRepository
	runs         ports.RunStateStore
	deliveries   ports.DeliveryLedger
	authors      AuthorCatalog
	health       ports.SystemHealthChecker
	engineState  ports.EngineStateReporter
	validate     *validator.Validate
}

// ServerOptions represents options for creating the HTTP server
type ServerOptions struct {
	Config              ServerConfig
	Dispatcher          Dispatcher
	Combinations        ports.CombinationRepository
	Runs                ports.RunStateStore
	Deliveries          ports.DeliveryLedger
	Authors             AuthorCatalog
	SystemHealthChecker ports.SystemHealthChecker
	// EngineState is optional; engines without a breaker report nothing
	EngineState ports.EngineStateReporter
}

// NewHTTPServerAdapter creates a new HTTP server adapter
func NewHTTPServerAdapter(opts ServerOptions) (*HTTPServerAdapter, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server options: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	server := &HTTPServerAdapter{
		router:       router,
		config:       opts.Config,
		dispatcher:   opts.Dispatcher,
		combinations: opts.Combinations,
		runs:         opts.Runs,
		deliveries:   opts.Deliveries,
		authors:      opts.Authors,
		health:       opts.SystemHealthChecker,
		engineState:  opts.EngineState,
		validate:     validator.New(),
	}

	server.setupRoutes()
	server.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", opts.Config.Port),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
		// no write timeout: POST /api/dispatch answers after a whole cycle
	}
	return server, nil
}

// Validate checks if all required dependencies are provided
func (opts *ServerOptions) Validate() error {
	if opts.Dispatcher == nil {
		return errors.NewValidationError("dispatcher is required")
	}
	if opts.Combinations == nil {
		return errors.NewValidationError("combination repository is required")
	}
	if opts.Runs == nil {
		return errors.NewValidationError("run state store is required")
	}
	if opts.Deliveries == nil {
		return errors.NewValidationError("delivery ledger is required")
	}
	if opts.Authors == nil {
		return errors.NewValidationError("author catalog is required")
	}
	if opts.SystemHealthChecker == nil {
		return errors.NewValidationError("system health checker is required")
	}
	return nil
}

// setupRoutes configures all HTTP routes
func (s *HTTPServerAdapter) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.POST("/dispatch", s.runDispatch)
		api.GET("/runs", s.listRuns)
		api.GET("/authors", s.listAuthors)
		api.GET("/metrics", s.getMetrics)
	}

	s.router.GET("/health", s.getHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start serves HTTP until Shutdown is called
func (s *HTTPServerAdapter) Start() error {
	slog.Info("Starting HTTP server", "port", s.config.Port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *HTTPServerAdapter) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	return nil
}

// GetRouter returns the router for testing purposes
func (s *HTTPServerAdapter) GetRouter() *gin.Engine {
	return s.router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
