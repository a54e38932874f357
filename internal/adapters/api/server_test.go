package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"plotlines.app/internal/adapters/infrastructure"
	"plotlines.app/internal/authors"
	"plotlines.app/internal/core/dispatch"
	"plotlines.app/internal/core/runstate"
	"plotlines.app/internal/mocks"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) RunCycle(ctx context.Context, date string) (*dispatch.CycleSummary, error) {
	args := m.Called(ctx, date)
	summary, _ := args.Get(0).(*dispatch.CycleSummary)
	return summary, args.Error(1)
}

func (m *mockDispatcher) Today() string {
	return m.Called().String(0)
}

func (m *mockDispatcher) LastSummary() (*dispatch.CycleSummary, bool) {
	args := m.Called()
	summary, _ := args.Get(0).(*dispatch.CycleSummary)
	return summary, args.Bool(1)
}

type staticHealth map[string]ports.HealthStatus

func (s staticHealth) CheckAll(ctx context.Context) map[string]ports.HealthStatus {
	return s
}

type fixedState string

func (f fixedState) State() string { return string(f) }

type serverFixture struct {
	dispatcher   *mockDispatcher
	combinations *mocks.CombinationRepository
	runs         *mocks.RunStateStore
	deliveries   *mocks.DeliveryLedger
	health       staticHealth
	router       *gin.Engine
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := authors.Default()
	require.NoError(t, err)

	f := &serverFixture{
		dispatcher:   &mockDispatcher{},
		combinations: mocks.NewCombinationRepository(t),
		runs:         mocks.NewRunStateStore(t),
		deliveries:   mocks.NewDeliveryLedger(t),
		health: staticHealth{
			"database": {Component: "database", Status: infrastructure.StatusHealthy},
		},
	}
	t.Cleanup(func() { f.dispatcher.AssertExpectations(t) })

	server, err := NewHTTPServerAdapter(ServerOptions{
		Config:              ServerConfig{Port: 8080},
		Dispatcher:          f.dispatcher,
		Combinations:        f.combinations,
		Runs:                f.runs,
		Deliveries:          f.deliveries,
		Authors:             catalog,
		SystemHealthChecker: f.health,
		EngineState:         fixedState("closed"),
	})
	require.NoError(t, err)
	f.router = server.GetRouter()

	return f
}

func (f *serverFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func sampleSummary(date string) *dispatch.CycleSummary {
	return &dispatch.CycleSummary{
		Date:         date,
		Combinations: 2,
		Completed:    1,
		Skipped:      1,
		Sent:         3,
		Errors:       []string{},
		StartedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Duration:     1500 * time.Millisecond,
	}
}

func TestDispatch_DefaultsToToday(t *testing.T) {
	f := newServerFixture(t)
	f.dispatcher.On("Today").Return("2025-06-01")
	f.dispatcher.On("RunCycle", mock.Anything, "2025-06-01").Return(sampleSummary("2025-06-01"), nil)

	w := f.do(http.MethodPost, "/api/dispatch", "")

	require.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Summary map[string]interface{} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "2025-06-01", response.Summary["date"])
	assert.Equal(t, float64(3), response.Summary["sent"])
	assert.Equal(t, "1.5s", response.Summary["duration"])
}

func TestDispatch_ExplicitDate(t *testing.T) {
	f := newServerFixture(t)
	f.dispatcher.On("RunCycle", mock.Anything, "2025-05-30").Return(sampleSummary("2025-05-30"), nil)

	w := f.do(http.MethodPost, "/api/dispatch", `{"date":"2025-05-30"}`)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDispatch_ContextDetachedFromClient(t *testing.T) {
	f := newServerFixture(t)
	f.dispatcher.On("RunCycle", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Done() == nil
	}), "2025-05-30").Return(sampleSummary("2025-05-30"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/dispatch", strings.NewReader(`{"date":"2025-05-30"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDispatch_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "MalformedDate", body: `{"date":"2025-13-45"}`},
		{name: "WrongFormat", body: `{"date":"06/01/2025"}`},
		{name: "NotJSON", body: `date=2025-06-01`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServerFixture(t)

			w := f.do(http.MethodPost, "/api/dispatch", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestDispatch_Conflict(t *testing.T) {
	f := newServerFixture(t)
	f.dispatcher.On("RunCycle", mock.Anything, "2025-06-01").
		Return(nil, errors.NewConflictError("dispatch for 2025-06-01 already running"))

	w := f.do(http.MethodPost, "/api/dispatch", `{"date":"2025-06-01"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already running")
}

func TestDispatch_AbortedCycleReturnsPartialSummary(t *testing.T) {
	f := newServerFixture(t)
	summary := sampleSummary("2025-06-01")
	summary.Aborted = 1
	f.dispatcher.On("RunCycle", mock.Anything, "2025-06-01").
		Return(summary, errors.NewDatabaseError("store unavailable", stderrors.New("connection refused")))

	w := f.do(http.MethodPost, "/api/dispatch", `{"date":"2025-06-01"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var response struct {
		Summary map[string]interface{} `json:"summary"`
		Error   string                 `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(1), response.Summary["aborted"])
	assert.Equal(t, "dispatch cycle aborted", response.Error)
}

func TestListRuns(t *testing.T) {
	f := newServerFixture(t)
	generatedAt := time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC)
	f.runs.On("ListRuns", mock.Anything, "2025-06-01").Return([]*ports.RunData{
		{ID: 7, CombinationID: 1, RunDate: "2025-06-01", Status: runstate.StatusCompleted, Topic: "Tomatoes", AuthorName: "Ernest Hemingway", GeneratedAt: &generatedAt, GenerationMs: 900},
		{ID: 8, CombinationID: 2, RunDate: "2025-06-01", Status: runstate.StatusFailed},
	}, nil)
	f.combinations.On("FindByID", mock.Anything, uint(1)).Return(&ports.CombinationData{ID: 1, StationCode: "BOU", AuthorKey: "hemingway"}, nil)
	f.combinations.On("FindByID", mock.Anything, uint(2)).Return(&ports.CombinationData{ID: 2, StationCode: "BOU", AuthorKey: "carver"}, nil)
	f.deliveries.On("CountByStatus", mock.Anything, uint(7)).Return(map[ports.DeliveryStatus]int64{
		ports.DeliveryStatusSent:   2,
		ports.DeliveryStatusFailed: 1,
	}, nil)
	f.deliveries.On("CountByStatus", mock.Anything, uint(8)).Return(map[ports.DeliveryStatus]int64{}, nil)

	w := f.do(http.MethodGet, "/api/runs?date=2025-06-01", "")

	require.Equal(t, http.StatusOK, w.Code)
	var response RunsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "2025-06-01", response.Date)
	require.Len(t, response.Runs, 2)
	assert.Equal(t, "hemingway", response.Runs[0].AuthorKey)
	assert.Equal(t, "completed", response.Runs[0].Status)
	assert.Equal(t, int64(2), response.Runs[0].Sent)
	assert.Equal(t, int64(1), response.Runs[0].Failed)
	assert.Equal(t, "failed", response.Runs[1].Status)
	assert.Zero(t, response.Runs[1].Sent)
}

func TestListRuns_DefaultsToToday(t *testing.T) {
	f := newServerFixture(t)
	f.dispatcher.On("Today").Return("2025-06-01")
	f.runs.On("ListRuns", mock.Anything, "2025-06-01").Return([]*ports.RunData{}, nil)

	w := f.do(http.MethodGet, "/api/runs", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"date":"2025-06-01","runs":[]}`, w.Body.String())
}

func TestListRuns_Errors(t *testing.T) {
	t.Run("InvalidDate", func(t *testing.T) {
		f := newServerFixture(t)
		f.runs.On("ListRuns", mock.Anything, "yesterday").Return(nil, errors.NewValidationError(`invalid run date "yesterday"`))

		w := f.do(http.MethodGet, "/api/runs?date=yesterday", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("StoreUnavailable", func(t *testing.T) {
		f := newServerFixture(t)
		f.runs.On("ListRuns", mock.Anything, "2025-06-01").Return(nil, errors.NewDatabaseError("failed to list runs", stderrors.New("down")))

		w := f.do(http.MethodGet, "/api/runs?date=2025-06-01", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestListAuthors(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(http.MethodGet, "/api/authors", "")

	require.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Authors []authors.Author `json:"authors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Authors)
	for _, a := range response.Authors {
		assert.NotEmpty(t, a.Key)
		assert.NotEmpty(t, a.Name)
	}
}

func TestGetMetrics(t *testing.T) {
	t.Run("NoCycleYet", func(t *testing.T) {
		f := newServerFixture(t)
		f.dispatcher.On("LastSummary").Return(nil, false)

		w := f.do(http.MethodGet, "/api/metrics", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"last_cycle":null,"engine_state":"closed"}`, w.Body.String())
	})

	t.Run("AfterCycle", func(t *testing.T) {
		f := newServerFixture(t)
		f.dispatcher.On("LastSummary").Return(sampleSummary("2025-06-01"), true)

		w := f.do(http.MethodGet, "/api/metrics", "")

		require.Equal(t, http.StatusOK, w.Code)
		var response struct {
			LastCycle map[string]interface{} `json:"last_cycle"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "2025-06-01", response.LastCycle["date"])
	})
}

func TestHealth(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		f := newServerFixture(t)

		w := f.do(http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	})

	t.Run("Unhealthy", func(t *testing.T) {
		f := newServerFixture(t)
		f.health["lock"] = ports.HealthStatus{Component: "lock", Status: infrastructure.StatusUnhealthy, Error: "redis down"}

		w := f.do(http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "redis down")
	})
}

func TestPrometheusEndpoint(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServerOptions_Validate(t *testing.T) {
	_, err := NewHTTPServerAdapter(ServerOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatcher is required")
}
