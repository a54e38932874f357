package external

import (
	"context"
	"fmt"
	"time"

	"plotlines.app/internal/ports"
)

// LogEmailProviderAdapter writes messages to the log instead of sending them.
// It stands in for SMTP when no credentials are configured.
type LogEmailProviderAdapter struct {
	logger ports.Logger
	now    func() time.Time
}

// NewLogEmailProviderAdapter creates a log-only email provider
func NewLogEmailProviderAdapter(logger ports.Logger) *LogEmailProviderAdapter {
	return &LogEmailProviderAdapter{logger: logger, now: time.Now}
}

// SendEmail logs the message and returns a synthetic id
func (p *LogEmailProviderAdapter) SendEmail(ctx context.Context, message ports.EmailMessage) (string, error) {
	if err := validateMessage(message); err != nil {
		return "", err
	}

	messageID := fmt.Sprintf("log-%d", p.now().UnixNano())
	p.logger.Info("Email logged instead of sent",
		ports.F("to", message.To),
		ports.F("subject", message.Subject),
		ports.F("message_id", messageID),
		ports.F("html_bytes", len(message.HTMLBody)),
		ports.F("text_bytes", len(message.TextBody)))

	return messageID, nil
}
