package engine

import (
	"context"
	"time"

	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// LoggingDecorator decorates an engine invoker with structured logging
type LoggingDecorator struct {
	engine ports.EngineInvoker
	logger ports.Logger
}

// NewLoggingDecorator creates a new logging decorator for the engine
func NewLoggingDecorator(engine ports.EngineInvoker, logger ports.Logger) ports.EngineInvoker {
	return &LoggingDecorator{
		engine: engine,
		logger: logger,
	}
}

// Invoke wraps the engine call with structured logging
func (d *LoggingDecorator) Invoke(ctx context.Context, combination *ports.CombinationData) (*ports.GeneratedPayload, error) {
	d.logger.Info("Engine invocation started",
		ports.F("station", combination.StationCode),
		ports.F("author", combination.AuthorKey),
		ports.F("event", "request"))

	startTime := time.Now()
	payload, err := d.engine.Invoke(ctx, combination)
	duration := time.Since(startTime)

	if err != nil {
		d.logger.Error("Engine invocation failed",
			ports.F("station", combination.StationCode),
			ports.F("author", combination.AuthorKey),
			ports.F("event", "error"),
			ports.F("duration_ms", duration.Milliseconds()),
			ports.F("error_type", errors.TypeOf(err).String()),
			ports.F("error", err.Error()))
		return nil, err
	}

	d.logger.Info("Engine invocation completed",
		ports.F("station", combination.StationCode),
		ports.F("author", combination.AuthorKey),
		ports.F("event", "response"),
		ports.F("duration_ms", duration.Milliseconds()),
		ports.F("topic", payload.Topic),
		ports.F("characters", len(payload.Characters)))

	return payload, nil
}

// State delegates to the wrapped engine when it reports breaker state
func (d *LoggingDecorator) State() string {
	if reporter, ok := d.engine.(ports.EngineStateReporter); ok {
		return reporter.State()
	}
	return StateDisabled
}
