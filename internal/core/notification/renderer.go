// Package notification renders the subscriber-facing emails.
package notification

import (
	"embed"
	"fmt"
	"net/url"
	"strings"

	"github.com/osteele/liquid"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

//go:embed templates/*.liquid
var templateFS embed.FS

const (
	confirmationSubject = "Confirm your Plot Lines subscription"

	fallbackAuthorName = "Hemingway"
	fallbackTopic      = "A moment in the garden"
	fallbackProseHTML  = "<p>The garden waits.</p>"
	fallbackProseText  = "The garden waits."
	fallbackCharacters = "The usual suspects"
)

// Renderer builds daily and confirmation messages from liquid templates
type Renderer struct {
	config ports.ConfigProvider

	dailyHTML   *liquid.Template
	dailyText   *liquid.Template
	confirmHTML *liquid.Template
	confirmText *liquid.Template
}

// NewRenderer parses the embedded templates once
func NewRenderer(config ports.ConfigProvider) (*Renderer, error) {
	if config == nil {
		return nil, errors.NewValidationError("config is required")
	}

	engine := liquid.NewEngine()
	r := &Renderer{config: config}

	targets := map[string]**liquid.Template{
		"templates/daily.html.liquid":   &r.dailyHTML,
		"templates/daily.txt.liquid":    &r.dailyText,
		"templates/confirm.html.liquid": &r.confirmHTML,
		"templates/confirm.txt.liquid":  &r.confirmText,
	}
	for name, target := range targets {
		source, err := templateFS.ReadFile(name)
		if err != nil {
			return nil, errors.NewConfigurationError(fmt.Sprintf("read template %s", name), err)
		}
		tpl, parseErr := engine.ParseString(string(source))
		if parseErr != nil {
			return nil, errors.NewConfigurationError(fmt.Sprintf("parse template %s", name), parseErr)
		}
		*target = tpl
	}

	return r, nil
}

// DailyMessage renders a completed run for one subscriber
func (r *Renderer) DailyMessage(run *ports.RunData, unsubscribeToken string) (*ports.RenderedMessage, error) {
	if run == nil {
		return nil, errors.NewValidationError("run is required")
	}

	bindings := map[string]interface{}{
		"run_date":        run.RunDate,
		"author_name":     orDefault(run.AuthorName, fallbackAuthorName),
		"weather_summary": run.WeatherSummary,
		"topic":           orDefault(run.Topic, fallbackTopic),
		"prose_html":      orDefault(run.ProseHTML, fallbackProseHTML),
		"prose_text":      orDefault(run.ProseText, fallbackProseText),
		"quote":           run.Quote,
		"characters":      orDefault(run.Characters, fallbackCharacters),
		"unsubscribe_url": r.unsubscribeURL(unsubscribeToken),
	}

	htmlBody, err := r.dailyHTML.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render daily html: %w", err)
	}
	textBody, err := r.dailyText.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render daily text: %w", err)
	}

	return &ports.RenderedMessage{
		Subject:  fmt.Sprintf("Garden Conversation - %s", run.RunDate),
		HTMLBody: htmlBody,
		TextBody: strings.TrimSpace(textBody) + "\n",
	}, nil
}

// ConfirmationMessage renders the double opt-in email
func (r *Renderer) ConfirmationMessage(confirmToken string) (*ports.RenderedMessage, error) {
	if strings.TrimSpace(confirmToken) == "" {
		return nil, errors.NewValidationError("confirm token is required")
	}

	bindings := map[string]interface{}{
		"confirm_url": fmt.Sprintf("%s/api/confirm/%s", r.baseURL(), url.PathEscape(confirmToken)),
	}

	htmlBody, err := r.confirmHTML.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render confirmation html: %w", err)
	}
	textBody, err := r.confirmText.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render confirmation text: %w", err)
	}

	return &ports.RenderedMessage{
		Subject:  confirmationSubject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	}, nil
}

func (r *Renderer) baseURL() string {
	return strings.TrimRight(r.config.GetAppConfig().BaseURL, "/")
}

func (r *Renderer) unsubscribeURL(token string) string {
	return fmt.Sprintf("%s/api/unsubscribe?token=%s", r.baseURL(), url.QueryEscape(token))
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
