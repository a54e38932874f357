package infrastructure

import (
	"context"
	"os"
	"os/exec"

	"plotlines.app/internal/ports"
)

// Health status values
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// EngineHealthChecker verifies the engine can be spawned
type EngineHealthChecker struct {
	config ports.EngineConfig
	engine ports.EngineInvoker
}

// NewEngineHealthChecker creates a new engine health checker
func NewEngineHealthChecker(config ports.EngineConfig, engine ports.EngineInvoker) *EngineHealthChecker {
	return &EngineHealthChecker{config: config, engine: engine}
}

// Check looks for the interpreter and script, and reports breaker state.
// An open breaker is degraded rather than unhealthy: it closes on its own.
func (e *EngineHealthChecker) Check(ctx context.Context) ports.HealthStatus {
	status := ports.HealthStatus{
		Component: "engine",
		Status:    StatusHealthy,
		Details: map[string]interface{}{
			"command": e.config.Command,
			"script":  e.config.Script,
			"timeout": e.config.Timeout.String(),
		},
	}

	if _, err := exec.LookPath(e.config.Command); err != nil {
		status.Status = StatusUnhealthy
		status.Error = "engine command not found: " + e.config.Command
		return status
	}

	info, err := os.Stat(e.config.Script)
	if err != nil || info.IsDir() {
		status.Status = StatusUnhealthy
		status.Error = "engine script not found: " + e.config.Script
		return status
	}

	if reporter, ok := e.engine.(ports.EngineStateReporter); ok {
		state := reporter.State()
		status.Details["breaker"] = state
		if state == "open" {
			status.Status = StatusDegraded
		}
	}

	return status
}

// EmailHealthChecker reports the active email transport
type EmailHealthChecker struct {
	config    ports.EmailConfig
	transport string
}

// NewEmailHealthChecker creates a new email health checker
func NewEmailHealthChecker(config ports.EmailConfig, transport string) *EmailHealthChecker {
	return &EmailHealthChecker{config: config, transport: transport}
}

// Check reports transport details; the log transport delivers nothing and is degraded
func (e *EmailHealthChecker) Check(ctx context.Context) ports.HealthStatus {
	status := ports.HealthStatus{
		Component: "email",
		Status:    StatusHealthy,
		Details: map[string]interface{}{
			"transport":       e.transport,
			"rate_per_second": e.config.RatePerSecond,
		},
	}

	switch e.transport {
	case "smtp":
		status.Details["host"] = e.config.SMTPHost
		status.Details["port"] = e.config.SMTPPort
	case "ses":
		status.Details["region"] = e.config.SESRegion
	case "log":
		status.Status = StatusDegraded
		status.Details["note"] = "emails are logged, not sent"
	}

	return status
}

// pinger is implemented by lock backends with a remote store
type pinger interface {
	Ping(ctx context.Context) error
}

// LockHealthChecker verifies the dispatch lock backend
type LockHealthChecker struct {
	locks ports.LockManager
}

// NewLockHealthChecker creates a new lock health checker
func NewLockHealthChecker(locks ports.LockManager) *LockHealthChecker {
	return &LockHealthChecker{locks: locks}
}

// Check pings remote lock stores
func (l *LockHealthChecker) Check(ctx context.Context) ports.HealthStatus {
	status := ports.HealthStatus{
		Component: "lock",
		Status:    StatusHealthy,
		Details:   map[string]interface{}{"backend": l.locks.Name()},
	}

	if p, ok := l.locks.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			status.Status = StatusUnhealthy
			status.Error = err.Error()
		}
	}

	return status
}
