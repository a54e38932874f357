package app

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"plotlines.app/internal/adapters/database"
	"plotlines.app/internal/adapters/engine"
	"plotlines.app/internal/adapters/external"
	"plotlines.app/internal/adapters/infrastructure"
	"plotlines.app/internal/authors"
	"plotlines.app/internal/config"
	"plotlines.app/internal/core/dispatch"
	"plotlines.app/internal/core/notification"
	"plotlines.app/internal/ports"
)

// DependencyOverrides replaces adapters that reach outside the process.
// Zero fields are built from configuration.
type DependencyOverrides struct {
	Database      *gorm.DB
	Engine        ports.EngineInvoker
	EmailProvider ports.EmailProvider
	Clock         ports.Clock
}

type DependencyContainer struct {
	config       *config.Config
	db           *gorm.DB
	ports        *ports.ApplicationPorts
	authors      *authors.Catalog
	transport    string
	health       *infrastructure.SystemHealthChecker
	orchestrator *dispatch.Orchestrator
}

func NewDependencyContainer(ctx context.Context, cfg *config.Config, overrides DependencyOverrides) (*DependencyContainer, error) {
	container := &DependencyContainer{config: cfg}

	if err := container.initializeDatabase(overrides.Database); err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	if err := container.initializePorts(ctx, overrides); err != nil {
		_ = container.Cleanup()
		return nil, fmt.Errorf("initialize ports: %w", err)
	}

	if err := container.initializeDispatch(); err != nil {
		_ = container.Cleanup()
		return nil, fmt.Errorf("initialize dispatch: %w", err)
	}

	return container, nil
}

func (c *DependencyContainer) initializeDatabase(db *gorm.DB) error {
	if db == nil {
		slog.Info("Initializing database connection...")

		var err error
		db, err = database.InitDB(c.config.Database.GetDSN())
		if err != nil {
			return err
		}
	}

	slog.Info("Running database migrations...")
	if err := database.RunMigrations(db); err != nil {
		return err
	}

	c.db = db
	slog.Info("Database ready")
	return nil
}

func (c *DependencyContainer) initializePorts(ctx context.Context, overrides DependencyOverrides) error {
	slog.Info("Initializing ports...")

	configProvider := infrastructure.NewConfigProviderAdapter(c.config)

	var logger ports.Logger = infrastructure.NewSlogLoggerAdapter(slog.Default())
	if c.config.Log.FilePath != "" {
		journal, err := infrastructure.NewFileLoggerAdapter(c.config.Log.FilePath)
		if err != nil {
			slog.Warn("Failed to create dispatch journal, logging to stdout only", "error", err)
		} else {
			logger = infrastructure.NewMultiLogger(logger, journal)
			slog.Info("Dispatch journal enabled", "path", c.config.Log.FilePath)
		}
	}

	catalog, err := authors.Default()
	if err != nil {
		return fmt.Errorf("load author catalog: %w", err)
	}
	c.authors = catalog

	engineInvoker := overrides.Engine
	if engineInvoker == nil {
		engineInvoker, err = engine.NewEngine(configProvider.GetEngineConfig(), catalog, logger)
		if err != nil {
			return fmt.Errorf("create engine: %w", err)
		}
	}

	emailProvider := overrides.EmailProvider
	c.transport = "custom"
	if emailProvider == nil {
		emailProvider, c.transport, err = external.NewEmailProvider(ctx, configProvider.GetEmailConfig(), logger)
		if err != nil {
			return fmt.Errorf("create email provider: %w", err)
		}
	}
	slog.Info("Email transport selected", "transport", c.transport)

	renderer, err := notification.NewRenderer(configProvider)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	lockManager, err := external.NewLockManager(configProvider.GetLockConfig())
	if err != nil {
		return fmt.Errorf("create lock manager: %w", err)
	}
	slog.Info("Dispatch lock initialized", "type", lockManager.Name())

	var clock ports.Clock = infrastructure.SystemClock{}
	if overrides.Clock != nil {
		clock = overrides.Clock
	}

	c.ports = &ports.ApplicationPorts{
		CombinationRepository: database.NewCombinationRepositoryAdapter(c.db),
		RunStateStore:         database.NewRunRepositoryAdapter(c.db),
		SubscriberRepository:  database.NewSubscriberRepositoryAdapter(c.db),
		DeliveryLedger:        database.NewDeliveryRepositoryAdapter(c.db),

		EngineInvoker: engineInvoker,

		EmailProvider:   emailProvider,
		MessageRenderer: renderer,

		LockManager: lockManager,
		Clock:       clock,

		ConfigProvider:   configProvider,
		MetricsCollector: infrastructure.NewPrometheusMetricsCollector(),
		Logger:           logger,
		Database:         c.db,
	}

	c.health = infrastructure.NewSystemHealthChecker(infrastructure.SystemHealthCheckerConfig{
		DatabaseChecker: infrastructure.NewDatabaseHealthChecker(c.db),
		EngineChecker:   infrastructure.NewEngineHealthChecker(configProvider.GetEngineConfig(), engineInvoker),
		EmailChecker:    infrastructure.NewEmailHealthChecker(configProvider.GetEmailConfig(), c.transport),
		LockChecker:     infrastructure.NewLockHealthChecker(lockManager),
		ConfigProvider:  configProvider,
	})

	slog.Info("Ports initialized successfully")
	return nil
}

func (c *DependencyContainer) initializeDispatch() error {
	p := c.ports

	tracker, err := dispatch.NewDeliveryTracker(dispatch.DeliveryTrackerDependencies{
		Ledger:        p.DeliveryLedger,
		EmailProvider: p.EmailProvider,
		Renderer:      p.MessageRenderer,
		Metrics:       p.MetricsCollector,
		Clock:         p.Clock,
		Logger:        p.Logger,
	})
	if err != nil {
		return fmt.Errorf("create delivery tracker: %w", err)
	}

	orchestrator, err := dispatch.NewOrchestrator(dispatch.OrchestratorDependencies{
		Combinations: p.CombinationRepository,
		Runs:         p.RunStateStore,
		Subscribers:  p.SubscriberRepository,
		Engine:       p.EngineInvoker,
		Delivery:     tracker,
		Locks:        p.LockManager,
		Metrics:      p.MetricsCollector,
		Clock:        p.Clock,
		Config:       p.ConfigProvider,
		Logger:       p.Logger,
	})
	if err != nil {
		return fmt.Errorf("create orchestrator: %w", err)
	}

	c.orchestrator = orchestrator
	return nil
}

func (c *DependencyContainer) ApplicationPorts() *ports.ApplicationPorts {
	return c.ports
}

func (c *DependencyContainer) Database() *gorm.DB {
	return c.db
}

func (c *DependencyContainer) Orchestrator() *dispatch.Orchestrator {
	return c.orchestrator
}

func (c *DependencyContainer) Authors() *authors.Catalog {
	return c.authors
}

func (c *DependencyContainer) HealthChecker() *infrastructure.SystemHealthChecker {
	return c.health
}

// Cleanup releases the lock backend and the database connection
func (c *DependencyContainer) Cleanup() error {
	if c.ports != nil {
		if closer, ok := c.ports.LockManager.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("Error closing lock manager", "error", err)
			}
		}
	}
	if c.db != nil {
		return database.CloseDB(c.db)
	}
	return nil
}
