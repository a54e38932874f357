package api

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"plotlines.app/internal/adapters/infrastructure"
	"plotlines.app/internal/core/dispatch"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// DispatchRequest is the optional body of POST /api/dispatch
type DispatchRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// DispatchResponse carries the cycle summary and, for aborted cycles, the reason
type DispatchResponse struct {
	Summary *dispatch.CycleSummary `json:"summary"`
	Error   string                 `json:"error,omitempty"`
}

// RunView is one run with its delivery counts
type RunView struct {
	ID           uint       `json:"id"`
	StationCode  string     `json:"station_code"`
	AuthorKey    string     `json:"author_key"`
	RunDate      string     `json:"run_date"`
	Status       string     `json:"status"`
	Topic        string     `json:"topic,omitempty"`
	AuthorName   string     `json:"author_name,omitempty"`
	GeneratedAt  *time.Time `json:"generated_at,omitempty"`
	GenerationMs int64      `json:"generation_ms"`
	Sent         int64      `json:"sent"`
	Failed       int64      `json:"failed"`
}

// RunsResponse lists the runs of one date
type RunsResponse struct {
	Date string    `json:"date"`
	Runs []RunView `json:"runs"`
}

// MetricsResponse is the operator snapshot served by GET /api/metrics
type MetricsResponse struct {
	LastCycle   *dispatch.CycleSummary `json:"last_cycle"`
	EngineState string                 `json:"engine_state,omitempty"`
}

// HealthResponse aggregates component health
type HealthResponse struct {
	Status     string                        `json:"status"`
	Components map[string]ports.HealthStatus `json:"components"`
}

// runDispatch handles POST /api/dispatch requests
func (s *HTTPServerAdapter) runDispatch(c *gin.Context) {
	var request DispatchRequest
	if err := c.ShouldBindJSON(&request); err != nil && !stderrors.Is(err, io.EOF) {
		s.handleError(c, errors.NewValidationError("invalid request body"))
		return
	}
	if err := s.validate.Struct(request); err != nil {
		s.handleError(c, errors.NewValidationError("date must be YYYY-MM-DD"))
		return
	}

	date := request.Date
	if date == "" {
		date = s.dispatcher.Today()
	}

	slog.Info("Manual dispatch requested", "date", date)

	// The cycle outlives a client that hangs up; it keeps the lock until done.
	summary, err := s.dispatcher.RunCycle(context.WithoutCancel(c.Request.Context()), date)
	if err != nil {
		if summary == nil {
			s.handleError(c, err)
			return
		}
		slog.Error("Manual dispatch aborted", "date", date, "error", err)
		c.JSON(http.StatusInternalServerError, DispatchResponse{Summary: summary, Error: "dispatch cycle aborted"})
		return
	}

	c.JSON(http.StatusOK, DispatchResponse{Summary: summary})
}

// listRuns handles GET /api/runs requests
func (s *HTTPServerAdapter) listRuns(c *gin.Context) {
	ctx := c.Request.Context()

	date := c.Query("date")
	if date == "" {
		date = s.dispatcher.Today()
	}

	runs, err := s.runs.ListRuns(ctx, date)
	if err != nil {
		s.handleError(c, err)
		return
	}

	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		view, err := s.runView(ctx, run)
		if err != nil {
			s.handleError(c, err)
			return
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, RunsResponse{Date: date, Runs: views})
}

func (s *HTTPServerAdapter) runView(ctx context.Context, run *ports.RunData) (RunView, error) {
	combination, err := s.combinations.FindByID(ctx, run.CombinationID)
	if err != nil {
		return RunView{}, err
	}

	counts, err := s.deliveries.CountByStatus(ctx, run.ID)
	if err != nil {
		return RunView{}, err
	}

	return RunView{
		ID:           run.ID,
		StationCode:  combination.StationCode,
		AuthorKey:    combination.AuthorKey,
		RunDate:      run.RunDate,
		Status:       run.Status.String(),
		Topic:        run.Topic,
		AuthorName:   run.AuthorName,
		GeneratedAt:  run.GeneratedAt,
		GenerationMs: run.GenerationMs,
		Sent:         counts[ports.DeliveryStatusSent],
		Failed:       counts[ports.DeliveryStatusFailed],
	}, nil
}

// listAuthors handles GET /api/authors requests
func (s *HTTPServerAdapter) listAuthors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authors": s.authors.List()})
}

// getMetrics handles GET /api/metrics requests
func (s *HTTPServerAdapter) getMetrics(c *gin.Context) {
	var response MetricsResponse
	if summary, ok := s.dispatcher.LastSummary(); ok {
		response.LastCycle = summary
	}
	if s.engineState != nil {
		response.EngineState = s.engineState.State()
	}

	c.JSON(http.StatusOK, response)
}

// getHealth handles GET /health requests
func (s *HTTPServerAdapter) getHealth(c *gin.Context) {
	results := s.health.CheckAll(c.Request.Context())
	status := infrastructure.OverallStatus(results)

	code := http.StatusOK
	if status == infrastructure.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{Status: status, Components: results})
}
