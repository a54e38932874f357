package engine

import (
	"context"
	stderrors "errors"

	gobreaker "github.com/sony/gobreaker/v2"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// StateDisabled is reported when no circuit breaker guards the engine
const StateDisabled = "disabled"

// BreakerDecorator fails fast once the engine has failed too many times in a row.
// Only engine failures count; cancellation and validation errors pass through.
type BreakerDecorator struct {
	engine ports.EngineInvoker
	cb     *gobreaker.CircuitBreaker[*ports.GeneratedPayload]
}

// NewBreakerDecorator wraps engine with a breaker that opens after threshold
// consecutive failures and half-opens after the configured cooldown
func NewBreakerDecorator(engine ports.EngineInvoker, config ports.EngineConfig, logger ports.Logger) *BreakerDecorator {
	threshold := uint32(config.BreakerThreshold)

	cb := gobreaker.NewCircuitBreaker[*ports.GeneratedPayload](gobreaker.Settings{
		Name:        "engine",
		MaxRequests: 1,
		Timeout:     config.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.IsEngineError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Engine circuit breaker state changed",
				ports.F("breaker", name),
				ports.F("from", from.String()),
				ports.F("to", to.String()))
		},
	})

	return &BreakerDecorator{engine: engine, cb: cb}
}

// Invoke runs the engine through the breaker
func (b *BreakerDecorator) Invoke(ctx context.Context, combination *ports.CombinationData) (*ports.GeneratedPayload, error) {
	payload, err := b.cb.Execute(func() (*ports.GeneratedPayload, error) {
		return b.engine.Invoke(ctx, combination)
	})
	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.NewEngineUnavailableError("engine circuit breaker is open", err)
		}
		return nil, err
	}
	return payload, nil
}

// State returns closed, half-open or open
func (b *BreakerDecorator) State() string {
	return b.cb.State().String()
}
