package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"plotlines.app/pkg/errors"
)

func TestHTTPServerAdapter_HandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := &HTTPServerAdapter{}

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{name: "Validation", err: errors.NewValidationError("date must be YYYY-MM-DD"), wantStatus: http.StatusBadRequest, wantMessage: "date must be YYYY-MM-DD"},
		{name: "NotFound", err: errors.NewNotFoundError("combination not found"), wantStatus: http.StatusNotFound, wantMessage: "combination not found"},
		{name: "Conflict", err: errors.NewConflictError("dispatch already running"), wantStatus: http.StatusConflict, wantMessage: "dispatch already running"},
		{name: "WrappedConflict", err: wrap(errors.NewConflictError("dispatch already running")), wantStatus: http.StatusConflict, wantMessage: "dispatch already running"},
		{name: "EngineTimeout", err: errors.NewEngineTimeoutError("engine timed out", nil), wantStatus: http.StatusServiceUnavailable, wantMessage: "Content engine unavailable"},
		{name: "EngineUnavailable", err: errors.NewEngineUnavailableError("breaker open", nil), wantStatus: http.StatusServiceUnavailable, wantMessage: "Content engine unavailable"},
		{name: "Email", err: errors.NewEmailError("smtp down", nil), wantStatus: http.StatusServiceUnavailable, wantMessage: "Unable to send email"},
		{name: "Database", err: errors.NewDatabaseError("connection refused", nil), wantStatus: http.StatusInternalServerError, wantMessage: "Internal server error"},
		{name: "Consistency", err: errors.NewConsistencyError("run already completed"), wantStatus: http.StatusInternalServerError, wantMessage: "Internal server error"},
		{name: "Configuration", err: errors.NewConfigurationError("bad config", nil), wantStatus: http.StatusInternalServerError, wantMessage: "Internal server error"},
		{name: "Plain", err: stderrors.New("boom"), wantStatus: http.StatusInternalServerError, wantMessage: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/test", func(c *gin.Context) {
				server.handleError(c, tt.err)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tt.wantStatus, w.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.wantMessage, response.Error)
		})
	}
}

func wrap(err error) error {
	return stderrors.Join(stderrors.New("acquire dispatch lock"), err)
}
