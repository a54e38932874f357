package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"plotlines.app/internal/core/runstate"
	"plotlines.app/internal/mocks"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

func newTestRenderer(t *testing.T, baseURL string) *Renderer {
	config := mocks.NewConfigProvider(t)
	config.On("GetAppConfig").Return(ports.AppConfig{BaseURL: baseURL}).Maybe()

	renderer, err := NewRenderer(config)
	require.NoError(t, err)
	return renderer
}

func TestRenderer_DailyMessage(t *testing.T) {
	renderer := newTestRenderer(t, "https://plotlines.app/")
	run := &ports.RunData{
		RunDate:        "2026-10-15",
		Status:         runstate.StatusCompleted,
		ProseText:      "The tomatoes held through the frost.",
		ProseHTML:      "<p>The tomatoes held through the frost.</p>",
		Topic:          "First frost",
		Quote:          "Nothing lasts, but the basil tried.",
		AuthorName:     "Raymond Carver",
		WeatherSummary: "Clear, low of 28F",
		Characters:     "Tomato, Basil",
	}

	message, err := renderer.DailyMessage(run, "unsub token")

	require.NoError(t, err)
	assert.Equal(t, "Garden Conversation - 2026-10-15", message.Subject)

	assert.Contains(t, message.HTMLBody, "<p>The tomatoes held through the frost.</p>")
	assert.Contains(t, message.HTMLBody, "2026-10-15 | Raymond Carver style")
	assert.Contains(t, message.HTMLBody, "Clear, low of 28F")
	assert.Contains(t, message.HTMLBody, "Characters: Tomato, Basil")
	assert.Contains(t, message.HTMLBody, `href="https://plotlines.app/api/unsubscribe?token=unsub+token"`)

	assert.Contains(t, message.TextBody, "Garden Conversation - 2026-10-15")
	assert.Contains(t, message.TextBody, "The tomatoes held through the frost.")
	assert.Contains(t, message.TextBody, `"Nothing lasts, but the basil tried."`)
	assert.Contains(t, message.TextBody, "Unsubscribe: https://plotlines.app/api/unsubscribe?token=unsub+token")
	assert.NotContains(t, message.TextBody, "<p>")
}

func TestRenderer_DailyMessageFallbacks(t *testing.T) {
	renderer := newTestRenderer(t, "http://localhost:8080")

	message, err := renderer.DailyMessage(&ports.RunData{RunDate: "2026-10-15"}, "tok")

	require.NoError(t, err)
	assert.Contains(t, message.HTMLBody, "Hemingway style")
	assert.Contains(t, message.HTMLBody, "Today: A moment in the garden")
	assert.Contains(t, message.HTMLBody, "<p>The garden waits.</p>")
	assert.Contains(t, message.HTMLBody, "Characters: The usual suspects")
	assert.NotContains(t, message.HTMLBody, `class="quote"`)
	assert.Contains(t, message.TextBody, "The garden waits.")
}

func TestRenderer_EscapesPlainFieldsInHTML(t *testing.T) {
	renderer := newTestRenderer(t, "http://localhost:8080")

	message, err := renderer.DailyMessage(&ports.RunData{RunDate: "2026-10-15", Topic: "<script>alert(1)</script>"}, "tok")

	require.NoError(t, err)
	assert.NotContains(t, message.HTMLBody, "<script>")
	assert.Contains(t, message.HTMLBody, "&lt;script&gt;")
}

func TestRenderer_ConfirmationMessage(t *testing.T) {
	renderer := newTestRenderer(t, "http://localhost:8080")

	message, err := renderer.ConfirmationMessage("abc-123")

	require.NoError(t, err)
	assert.Equal(t, "Confirm your Plot Lines subscription", message.Subject)
	assert.Contains(t, message.HTMLBody, `href="http://localhost:8080/api/confirm/abc-123"`)
	assert.Contains(t, message.TextBody, "http://localhost:8080/api/confirm/abc-123")
}

func TestRenderer_Validation(t *testing.T) {
	renderer := newTestRenderer(t, "http://localhost:8080")

	_, err := renderer.DailyMessage(nil, "tok")
	assert.True(t, errors.IsValidationError(err))

	_, err = renderer.ConfirmationMessage(" ")
	assert.True(t, errors.IsValidationError(err))

	_, err = NewRenderer(nil)
	assert.True(t, errors.IsValidationError(err))
}
