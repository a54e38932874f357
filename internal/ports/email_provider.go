package ports

import "context"

// EmailMessage represents a rendered message ready to send
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailProvider defines the contract for email sending.
// It returns the transport's identifier for the accepted message.
type EmailProvider interface {
	SendEmail(ctx context.Context, message EmailMessage) (string, error)
}

// RenderedMessage is a subject plus bodies, without a recipient
type RenderedMessage struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// MessageRenderer defines the contract for building subscriber emails
type MessageRenderer interface {
	DailyMessage(run *RunData, unsubscribeToken string) (*RenderedMessage, error)
	ConfirmationMessage(confirmToken string) (*RenderedMessage, error)
}
