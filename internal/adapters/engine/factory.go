package engine

import "plotlines.app/internal/ports"

// NewEngine builds the engine invoker chain: process, logging, and a circuit
// breaker when a failure threshold is configured
func NewEngine(config ports.EngineConfig, authors AuthorDirectory, logger ports.Logger) (ports.EngineInvoker, error) {
	process, err := NewProcessInvoker(config, authors)
	if err != nil {
		return nil, err
	}

	var engine ports.EngineInvoker = NewLoggingDecorator(process, logger)
	if config.BreakerThreshold > 0 {
		engine = NewBreakerDecorator(engine, config, logger)
	}

	return engine, nil
}
