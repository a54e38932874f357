package errors

import (
	"errors"
	"fmt"
)

// Application error types grouped by the part of the dispatch pipeline that raises them

type ErrorType int

// Domain errors - input validation and lookups
const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeValidation
	ErrorTypeNotFound
	ErrorTypeConflict

	// Store errors - run state and delivery ledger
	ErrorTypeDatabase
	ErrorTypeConsistency

	// Engine errors - the external content-generation process
	ErrorTypeEngineTimeout
	ErrorTypeEngineExit
	ErrorTypeEngineOutput
	ErrorTypeEngineUnavailable

	// Delivery errors
	ErrorTypeEmail

	// System/Configuration errors
	ErrorTypeConfiguration
)

// String returns the string representation of error type
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND_ERROR"
	case ErrorTypeConflict:
		return "CONFLICT_ERROR"
	case ErrorTypeDatabase:
		return "DATABASE_ERROR"
	case ErrorTypeConsistency:
		return "CONSISTENCY_ERROR"
	case ErrorTypeEngineTimeout:
		return "ENGINE_TIMEOUT"
	case ErrorTypeEngineExit:
		return "ENGINE_EXIT_ERROR"
	case ErrorTypeEngineOutput:
		return "ENGINE_OUTPUT_ERROR"
	case ErrorTypeEngineUnavailable:
		return "ENGINE_UNAVAILABLE"
	case ErrorTypeEmail:
		return "EMAIL_ERROR"
	case ErrorTypeConfiguration:
		return "CONFIGURATION_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Short aliases used throughout the adapters
const (
	ValidationError    = ErrorTypeValidation
	NotFoundError      = ErrorTypeNotFound
	ConflictError      = ErrorTypeConflict
	DatabaseError      = ErrorTypeDatabase
	ConsistencyError   = ErrorTypeConsistency
	EmailError         = ErrorTypeEmail
	ConfigurationError = ErrorTypeConfiguration
)

type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	// Diagnostic holds captured process output (stderr or raw stdout) for engine failures.
	Diagnostic string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type.String(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

func Wrap(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// Domain Error Constructors
func NewValidationError(message string) *AppError {
	return New(ValidationError, message)
}

func NewNotFoundError(message string) *AppError {
	return New(NotFoundError, message)
}

func NewConflictError(message string) *AppError {
	return New(ConflictError, message)
}

// Store Error Constructors
func NewDatabaseError(message string, cause error) *AppError {
	return Wrap(DatabaseError, message, cause)
}

func NewConsistencyError(message string) *AppError {
	return New(ConsistencyError, message)
}

// Engine Error Constructors
func NewEngineTimeoutError(message string, cause error) *AppError {
	return Wrap(ErrorTypeEngineTimeout, message, cause)
}

func NewEngineExitError(exitCode int, stderr string, cause error) *AppError {
	err := Wrap(ErrorTypeEngineExit, fmt.Sprintf("engine exited with code %d", exitCode), cause)
	err.Diagnostic = stderr
	return err
}

func NewEngineOutputError(message string, rawOutput string, cause error) *AppError {
	err := Wrap(ErrorTypeEngineOutput, message, cause)
	err.Diagnostic = rawOutput
	return err
}

func NewEngineUnavailableError(message string, cause error) *AppError {
	return Wrap(ErrorTypeEngineUnavailable, message, cause)
}

// Delivery Error Constructors
func NewEmailError(message string, cause error) *AppError {
	return Wrap(EmailError, message, cause)
}

// System/Configuration Error Constructors
func NewConfigurationError(message string, cause error) *AppError {
	return Wrap(ConfigurationError, message, cause)
}

// TypeOf returns the type of the first AppError in the chain
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// DiagnosticOf returns the diagnostic output of the first AppError in the chain
func DiagnosticOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Diagnostic
	}
	return ""
}

// Helper functions for error type checking
func IsNotFoundError(err error) bool {
	return TypeOf(err) == NotFoundError
}

func IsConflictError(err error) bool {
	return TypeOf(err) == ConflictError
}

func IsValidationError(err error) bool {
	return TypeOf(err) == ValidationError
}

func IsDatabaseError(err error) bool {
	return TypeOf(err) == DatabaseError
}

func IsConsistencyError(err error) bool {
	return TypeOf(err) == ConsistencyError
}

func IsEmailError(err error) bool {
	return TypeOf(err) == EmailError
}

func IsConfigurationError(err error) bool {
	return TypeOf(err) == ConfigurationError
}

// IsEngineError reports whether err is any engine failure
func IsEngineError(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeEngineTimeout, ErrorTypeEngineExit, ErrorTypeEngineOutput, ErrorTypeEngineUnavailable:
		return true
	default:
		return false
	}
}
