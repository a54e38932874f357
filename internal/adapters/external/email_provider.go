package external

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// SMTPEmailProviderAdapter implements EmailProvider port using SMTP
type SMTPEmailProviderAdapter struct {
	host     string
	port     int
	username string
	password string
	fromName string
	fromAddr string
}

// EmailProviderConfig represents SMTP configuration
type EmailProviderConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
	FromAddr string
}

// NewSMTPEmailProviderAdapter creates a new SMTP email provider adapter
func NewSMTPEmailProviderAdapter(config EmailProviderConfig) *SMTPEmailProviderAdapter {
	return &SMTPEmailProviderAdapter{
		host:     config.Host,
		port:     config.Port,
		username: config.Username,
		password: config.Password,
		fromName: config.FromName,
		fromAddr: config.FromAddr,
	}
}

// SendEmail sends a multipart message over SMTP and returns its Message-ID
func (p *SMTPEmailProviderAdapter) SendEmail(ctx context.Context, message ports.EmailMessage) (string, error) {
	if err := validateMessage(message); err != nil {
		return "", err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), domainOf(p.fromAddr))
	msg, err := p.buildMessage(messageID, message)
	if err != nil {
		return "", errors.NewEmailError("failed to build message", err)
	}
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	client, err := smtp.Dial(addr)
	if err != nil {
		return "", errors.NewEmailError("failed to connect to SMTP server", err)
	}
	defer func() {
		_ = client.Close()
	}()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName: p.host,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return "", errors.NewEmailError("failed to establish secure TLS connection", err)
		}
	}

	// Authenticate only if credentials are provided
	if p.username != "" && p.password != "" {
		auth := smtp.PlainAuth("", p.username, p.password, p.host)
		if err := client.Auth(auth); err != nil {
			return "", errors.NewEmailError("failed to authenticate", err)
		}
	}

	if err := client.Mail(p.fromAddr); err != nil {
		return "", errors.NewEmailError("failed to set sender", err)
	}
	if err := client.Rcpt(message.To); err != nil {
		return "", errors.NewEmailError("failed to set recipient", err)
	}

	writer, err := client.Data()
	if err != nil {
		return "", errors.NewEmailError("failed to get data writer", err)
	}
	if _, err := writer.Write(msg); err != nil {
		_ = writer.Close()
		return "", errors.NewEmailError("failed to write message", err)
	}
	if err := writer.Close(); err != nil {
		return "", errors.NewEmailError("server rejected message", err)
	}

	if err := client.Quit(); err != nil {
		return "", errors.NewEmailError("failed to close SMTP session", err)
	}

	return messageID, nil
}

// ValidateConfiguration validates the email provider configuration
func (p *SMTPEmailProviderAdapter) ValidateConfiguration() error {
	if p.host == "" {
		return errors.NewConfigurationError("SMTP host cannot be empty", nil)
	}
	if p.port < 1 || p.port > 65535 {
		return errors.NewConfigurationError("SMTP port must be between 1 and 65535", nil)
	}
	if p.fromAddr == "" {
		return errors.NewConfigurationError("from address cannot be empty", nil)
	}
	if p.fromName == "" {
		return errors.NewConfigurationError("from name cannot be empty", nil)
	}
	return nil
}

// buildMessage constructs a multipart/alternative message with text and HTML parts
func (p *SMTPEmailProviderAdapter) buildMessage(messageID string, message ports.EmailMessage) ([]byte, error) {
	var body bytes.Buffer
	parts := multipart.NewWriter(&body)

	if message.TextBody != "" {
		if err := writePart(parts, "text/plain", message.TextBody); err != nil {
			return nil, err
		}
	}
	if err := writePart(parts, "text/html", message.HTMLBody); err != nil {
		return nil, err
	}
	if err := parts.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", mime.QEncoding.Encode("utf-8", p.fromName)+" <"+p.fromAddr+">")
	fmt.Fprintf(&msg, "To: %s\r\n", message.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", message.Subject))
	fmt.Fprintf(&msg, "Message-ID: %s\r\n", messageID)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", parts.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}

func writePart(parts *multipart.Writer, contentType, content string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType+"; charset=UTF-8")
	header.Set("Content-Transfer-Encoding", "8bit")

	part, err := parts.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write([]byte(content))
	return err
}

func validateMessage(message ports.EmailMessage) error {
	if message.To == "" {
		return errors.NewValidationError("recipient email cannot be empty")
	}
	if message.Subject == "" {
		return errors.NewValidationError("email subject cannot be empty")
	}
	if message.HTMLBody == "" {
		return errors.NewValidationError("email body cannot be empty")
	}
	return nil
}

func domainOf(address string) string {
	if at := strings.LastIndex(address, "@"); at >= 0 && at < len(address)-1 {
		return address[at+1:]
	}
	return "localhost"
}
