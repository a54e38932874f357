package infrastructure

import (
	"context"

	"plotlines.app/internal/ports"
)

// SystemHealthChecker aggregates all health checks
type SystemHealthChecker struct {
	checkers       map[string]ports.HealthChecker
	configProvider ports.ConfigProvider
}

// SystemHealthCheckerConfig holds the configuration for creating a system health checker
type SystemHealthCheckerConfig struct {
	DatabaseChecker ports.HealthChecker
	EngineChecker   ports.HealthChecker
	EmailChecker    ports.HealthChecker
	LockChecker     ports.HealthChecker
	ConfigProvider  ports.ConfigProvider
}

// NewSystemHealthChecker creates a new system health checker
func NewSystemHealthChecker(config SystemHealthCheckerConfig) *SystemHealthChecker {
	checkers := make(map[string]ports.HealthChecker)
	for name, checker := range map[string]ports.HealthChecker{
		"database": config.DatabaseChecker,
		"engine":   config.EngineChecker,
		"email":    config.EmailChecker,
		"lock":     config.LockChecker,
	} {
		if checker != nil {
			checkers[name] = checker
		}
	}

	return &SystemHealthChecker{
		checkers:       checkers,
		configProvider: config.ConfigProvider,
	}
}

// CheckAll performs health checks on all components
func (s *SystemHealthChecker) CheckAll(ctx context.Context) map[string]ports.HealthStatus {
	results := make(map[string]ports.HealthStatus, len(s.checkers)+1)

	for name, checker := range s.checkers {
		results[name] = checker.Check(ctx)
	}

	if s.configProvider != nil {
		scheduler := s.configProvider.GetSchedulerConfig()
		details := map[string]interface{}{
			"appBaseURL":       s.configProvider.GetAppConfig().BaseURL,
			"schedulerEnabled": scheduler.Enabled,
			"dispatchWorkers":  s.configProvider.GetDispatchConfig().Workers,
			"dispatchHour":     scheduler.Hour,
			"dispatchMinute":   scheduler.Minute,
		}
		if scheduler.Location != nil {
			details["dispatchTimezone"] = scheduler.Location.String()
		}
		results["config"] = ports.HealthStatus{
			Component: "config",
			Status:    StatusHealthy,
			Details:   details,
		}
	}

	return results
}

// OverallStatus folds component statuses: any unhealthy wins, then degraded
func OverallStatus(results map[string]ports.HealthStatus) string {
	overall := StatusHealthy
	for _, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}
