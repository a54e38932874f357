package external

import (
	"context"
	"fmt"

	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// Email transport names
const (
	TransportSMTP = "smtp"
	TransportSES  = "ses"
	TransportLog  = "log"
)

// NewEmailProvider builds the configured transport, wrapped in a rate limiter
// when a send rate is set. SMTP without credentials degrades to the log transport.
func NewEmailProvider(ctx context.Context, config ports.EmailConfig, logger ports.Logger) (ports.EmailProvider, string, error) {
	var (
		provider  ports.EmailProvider
		transport = config.Transport
	)

	switch config.Transport {
	case TransportSMTP:
		if config.SMTPUsername == "" || config.SMTPPassword == "" {
			logger.Warn("SMTP credentials not configured, logging emails instead of sending")
			transport = TransportLog
			provider = NewLogEmailProviderAdapter(logger)
			break
		}
		smtpProvider := NewSMTPEmailProviderAdapter(EmailProviderConfig{
			Host:     config.SMTPHost,
			Port:     config.SMTPPort,
			Username: config.SMTPUsername,
			Password: config.SMTPPassword,
			FromName: config.FromName,
			FromAddr: config.FromAddress,
		})
		if err := smtpProvider.ValidateConfiguration(); err != nil {
			return nil, "", err
		}
		provider = smtpProvider
	case TransportSES:
		sesProvider, err := NewSESEmailProviderAdapter(ctx, config)
		if err != nil {
			return nil, "", err
		}
		provider = sesProvider
	case TransportLog:
		provider = NewLogEmailProviderAdapter(logger)
	default:
		return nil, "", errors.NewConfigurationError(
			fmt.Sprintf("unsupported email transport: %s", config.Transport), nil)
	}

	if config.RatePerSecond > 0 {
		provider = NewRateLimitedEmailProvider(provider, config.RatePerSecond)
	}

	return provider, transport, nil
}
