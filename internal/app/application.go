package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"plotlines.app/internal/adapters/api"
	"plotlines.app/internal/config"
	"plotlines.app/internal/core/dispatch"
	"plotlines.app/internal/ports"
)

type Application struct {
	config    *config.Config
	container *DependencyContainer

	// Adapters
	httpServer *api.HTTPServerAdapter
	scheduler  *Scheduler
}

// NewApplication loads configuration from the environment and wires every adapter
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	container, err := NewDependencyContainer(ctx, cfg, DependencyOverrides{})
	if err != nil {
		return nil, fmt.Errorf("create dependency container: %w", err)
	}

	return NewApplicationWithDependencies(cfg, container)
}

// NewApplicationWithDependencies creates an application from a prepared container
func NewApplicationWithDependencies(cfg *config.Config, container *DependencyContainer) (*Application, error) {
	app := &Application{
		config:    cfg,
		container: container,
	}

	if err := app.initializeAdapters(); err != nil {
		return nil, fmt.Errorf("initialize adapters: %w", err)
	}

	return app, nil
}

func (a *Application) initializeAdapters() error {
	slog.Info("Initializing adapters...")

	p := a.container.ApplicationPorts()

	var engineState ports.EngineStateReporter
	if reporter, ok := p.EngineInvoker.(ports.EngineStateReporter); ok {
		engineState = reporter
	}

	httpServer, err := api.NewHTTPServerAdapter(api.ServerOptions{
		Config: api.ServerConfig{
			Port: a.config.Server.Port,
		},
		Dispatcher:          a.container.Orchestrator(),
		Combinations:        p.CombinationRepository,
		Runs:                p.RunStateStore,
		Deliveries:          p.DeliveryLedger,
		Authors:             a.container.Authors(),
		SystemHealthChecker: a.container.HealthChecker(),
		EngineState:         engineState,
	})
	if err != nil {
		return fmt.Errorf("create HTTP adapter: %w", err)
	}
	a.httpServer = httpServer

	a.scheduler = NewScheduler(
		a.container.Orchestrator(),
		p.ConfigProvider.GetSchedulerConfig(),
		p.Clock,
		p.Logger,
	)

	slog.Info("Adapters initialized successfully")
	return nil
}

// Start runs the scheduler in the background and serves HTTP until shutdown
func (a *Application) Start(ctx context.Context) error {
	slog.Info("Starting application...")

	if a.config.Scheduler.Enabled {
		go a.scheduler.Run(ctx)
	} else {
		slog.Info("Scheduler disabled, dispatch runs only on demand")
	}

	return a.httpServer.Start()
}

func (a *Application) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down application...")

	a.scheduler.Stop()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Error shutting down HTTP server", "error", err)
		return err
	}

	if err := a.container.Cleanup(); err != nil {
		slog.Warn("Error closing database", "error", err)
	}

	slog.Info("Application shutdown complete")
	return nil
}

// Config returns the application configuration
func (a *Application) Config() *config.Config {
	return a.config
}

// GetRouter returns the Gin router for testing
func (a *Application) GetRouter() *gin.Engine {
	return a.httpServer.GetRouter()
}

// Orchestrator returns the dispatch orchestrator
func (a *Application) Orchestrator() *dispatch.Orchestrator {
	return a.container.Orchestrator()
}

// Container returns the dependency container
func (a *Application) Container() *DependencyContainer {
	return a.container
}
