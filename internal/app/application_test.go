package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"plotlines.app/internal/adapters/database"
	"plotlines.app/internal/config"
	"plotlines.app/internal/mocks"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

type scriptedEngine struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *scriptedEngine) Invoke(ctx context.Context, combination *ports.CombinationData) (*ports.GeneratedPayload, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return &ports.GeneratedPayload{
		ProseText:      "The tomatoes stood in the heat.",
		ProseHTML:      "<p>The tomatoes stood in the heat.</p>",
		Topic:          "Heat",
		Quote:          "The sun also rises.",
		AuthorName:     "Ernest Hemingway",
		WeatherSummary: "Hot and dry",
		Characters:     []string{"Tomato", "Basil"},
	}, nil
}

func (e *scriptedEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []ports.EmailMessage
}

func (m *recordingMailer) SendEmail(ctx context.Context, message ports.EmailMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, message)
	return "test-" + message.To, nil
}

func (m *recordingMailer) Recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, msg := range m.sent {
		out[i] = msg.To
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{Port: 0},
		Engine:     config.EngineConfig{Command: "python3", Script: "garden/engine.py", TimeoutSeconds: 120},
		Email:      config.EmailConfig{Transport: config.EmailTransportLog, FromName: "Plot Lines", FromAddress: "no-reply@plotlines.app"},
		Scheduler:  config.SchedulerConfig{Enabled: false, DispatchTime: "06:00", Timezone: "UTC"},
		Dispatch:   config.DispatchConfig{Workers: 1},
		Lock:       config.LockConfig{Type: config.LockTypeMemory, TTLMinutes: 180},
		AppBaseURL: "http://localhost:8080",
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), database.Config())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

type appFixture struct {
	app    *Application
	engine *scriptedEngine
	mailer *recordingMailer
	ports  *ports.ApplicationPorts
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()

	f := &appFixture{engine: &scriptedEngine{}, mailer: &recordingMailer{}}
	cfg := testConfig()

	container, err := NewDependencyContainer(context.Background(), cfg, DependencyOverrides{
		Database:      openTestDB(t),
		Engine:        f.engine,
		EmailProvider: f.mailer,
		Clock:         mocks.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	f.app, err = NewApplicationWithDependencies(cfg, container)
	require.NoError(t, err)
	f.ports = container.ApplicationPorts()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, f.app.Shutdown(ctx))
	})

	f.seed(t)
	return f
}

func (f *appFixture) seed(t *testing.T) {
	ctx := context.Background()
	confirmedAt := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

	for _, s := range []struct {
		email     string
		confirmed bool
	}{
		{"ada@example.com", true},
		{"grace@example.com", true},
		{"pending@example.com", false},
	} {
		sub := &ports.SubscriberData{
			Email:       s.email,
			City:        "Boulder",
			State:       "CO",
			StationCode: "BOU",
			AuthorKey:   "hemingway",
			Active:      true,
		}
		if s.confirmed {
			sub.ConfirmedAt = &confirmedAt
		}
		require.NoError(t, f.ports.SubscriberRepository.Save(ctx, sub))
	}

	_, err := f.ports.CombinationRepository.Ensure(ctx, &ports.CombinationData{
		StationCode: "BOU",
		AuthorKey:   "hemingway",
		City:        "Boulder",
		State:       "CO",
	})
	require.NoError(t, err)
}

func (f *appFixture) post(t *testing.T, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return f.serve(t, req)
}

func (f *appFixture) get(t *testing.T, path string) (int, map[string]interface{}) {
	t.Helper()
	return f.serve(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func (f *appFixture) serve(t *testing.T, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	f.app.GetRouter().ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestApplication_DispatchEndToEnd(t *testing.T) {
	f := newAppFixture(t)

	code, body := f.post(t, "/api/dispatch", "")

	require.Equal(t, http.StatusOK, code)
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, "2025-06-01", summary["date"])
	assert.Equal(t, float64(1), summary["combinations"])
	assert.Equal(t, float64(1), summary["completed"])
	assert.Equal(t, float64(2), summary["sent"])
	assert.Equal(t, []string{"ada@example.com", "grace@example.com"}, f.mailer.Recipients())

	code, body = f.get(t, "/api/runs?date=2025-06-01")

	require.Equal(t, http.StatusOK, code)
	runs := body["runs"].([]interface{})
	require.Len(t, runs, 1)
	run := runs[0].(map[string]interface{})
	assert.Equal(t, "BOU", run["station_code"])
	assert.Equal(t, "completed", run["status"])
	assert.Equal(t, float64(2), run["sent"])
	assert.Equal(t, float64(0), run["failed"])
}

func TestApplication_RerunSkipsCompletedDate(t *testing.T) {
	f := newAppFixture(t)

	code, _ := f.post(t, "/api/dispatch", `{"date":"2025-06-01"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := f.post(t, "/api/dispatch", `{"date":"2025-06-01"}`)

	require.Equal(t, http.StatusOK, code)
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["skipped"])
	assert.Equal(t, float64(0), summary["sent"])
	assert.Equal(t, 1, f.engine.Calls())
	assert.Len(t, f.mailer.Recipients(), 2)
}

func TestApplication_FailedRunIsRegeneratedOnRetry(t *testing.T) {
	f := newAppFixture(t)
	f.engine.err = errors.NewEngineExitError(1, "Traceback: KeyError", nil)

	code, body := f.post(t, "/api/dispatch", `{"date":"2025-06-01"}`)

	require.Equal(t, http.StatusOK, code)
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["failed"])
	assert.Empty(t, f.mailer.Recipients())

	f.engine.mu.Lock()
	f.engine.err = nil
	f.engine.mu.Unlock()

	code, body = f.post(t, "/api/dispatch", `{"date":"2025-06-01"}`)

	require.Equal(t, http.StatusOK, code)
	summary = body["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["completed"])
	assert.Equal(t, 2, f.engine.Calls())
	assert.Len(t, f.mailer.Recipients(), 2)

	runs, err := f.ports.RunStateStore.ListRuns(context.Background(), "2025-06-01")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestApplication_MetricsAndAuthors(t *testing.T) {
	f := newAppFixture(t)

	code, body := f.get(t, "/api/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["last_cycle"])

	code, _ = f.post(t, "/api/dispatch", "")
	require.Equal(t, http.StatusOK, code)

	code, body = f.get(t, "/api/metrics")
	require.Equal(t, http.StatusOK, code)
	last := body["last_cycle"].(map[string]interface{})
	assert.Equal(t, "2025-06-01", last["date"])

	code, body = f.get(t, "/api/authors")
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["authors"])
}
