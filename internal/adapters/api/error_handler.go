package api

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	errorspkg "plotlines.app/pkg/errors"
)

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleError handles different types of application errors
func (s *HTTPServerAdapter) handleError(c *gin.Context, err error) {
	var appErr *errorspkg.AppError
	var statusCode int
	var message string

	if !errors.As(err, &appErr) {
		slog.Error("Unclassified request error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	switch appErr.Type {
	case errorspkg.ErrorTypeValidation:
		statusCode = http.StatusBadRequest
		message = appErr.Message
	case errorspkg.ErrorTypeNotFound:
		statusCode = http.StatusNotFound
		message = appErr.Message
	case errorspkg.ErrorTypeConflict:
		statusCode = http.StatusConflict
		message = appErr.Message
	case errorspkg.ErrorTypeEngineTimeout, errorspkg.ErrorTypeEngineExit,
		errorspkg.ErrorTypeEngineOutput, errorspkg.ErrorTypeEngineUnavailable:
		statusCode = http.StatusServiceUnavailable
		message = "Content engine unavailable"
	case errorspkg.ErrorTypeEmail:
		statusCode = http.StatusServiceUnavailable
		message = "Unable to send email"
	case errorspkg.ErrorTypeDatabase, errorspkg.ErrorTypeConsistency:
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
	default:
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
	}

	if statusCode >= http.StatusInternalServerError {
		slog.Error("Request failed", "path", c.FullPath(), "error_type", appErr.Type.String(), "error", err)
	}

	c.JSON(statusCode, ErrorResponse{Error: message})
}
