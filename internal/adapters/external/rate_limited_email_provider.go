package external

import (
	"context"

	"golang.org/x/time/rate"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// RateLimitedEmailProvider spaces sends to at most a fixed number per second
type RateLimitedEmailProvider struct {
	provider ports.EmailProvider
	limiter  *rate.Limiter
}

// NewRateLimitedEmailProvider wraps provider with a token bucket of burst 1
func NewRateLimitedEmailProvider(provider ports.EmailProvider, perSecond float64) *RateLimitedEmailProvider {
	return &RateLimitedEmailProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// SendEmail waits for a send slot, then delegates
func (p *RateLimitedEmailProvider) SendEmail(ctx context.Context, message ports.EmailMessage) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", errors.NewEmailError("send rate limiter wait failed", err)
	}
	return p.provider.SendEmail(ctx, message)
}
