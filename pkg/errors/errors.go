package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeRateLimit    ErrorType = "RATE_LIMIT"

	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
	ErrorTypeDatabase    ErrorType = "DATABASE"
)

// statusByType is the HTTP status each error type is answered with.
var statusByType = map[ErrorType]int{
	ErrorTypeValidation:   http.StatusBadRequest,
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeConflict:     http.StatusConflict,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeForbidden:    http.StatusForbidden,
	ErrorTypeRateLimit:    http.StatusTooManyRequests,
	ErrorTypeInternal:     http.StatusInternalServerError,
	ErrorTypeUnavailable:  http.StatusServiceUnavailable,
	ErrorTypeDatabase:     http.StatusInternalServerError,
}

// TypeForStatus maps a bare HTTP status back to an error type. Statuses shared
// by several types resolve to the most general one.
func TypeForStatus(status int) ErrorType {
	switch status {
	case http.StatusInternalServerError:
		return ErrorTypeInternal
	case http.StatusMethodNotAllowed:
		return ErrorTypeValidation
	}
	for t, s := range statusByType {
		if s == status {
			return t
		}
	}
	return ErrorTypeInternal
}

// Error codes carried in AppError.Code for ontology failures.
const (
	CodeDuplicateEdge  = "DUPLICATE_EDGE"
	CodeSelfLoop       = "SELF_LOOP"
	CodeNodeNotFound   = "NODE_NOT_FOUND"
	CodeEdgeNotFound   = "EDGE_NOT_FOUND"
	CodeCircuitOpen    = "CIRCUIT_OPEN"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeMissingRole    = "MISSING_ROLE"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// New creates an AppError of type t answered with the type's HTTP status.
func New(t ErrorType, message string) *AppError {
	status, ok := statusByType[t]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Type:       t,
		Message:    message,
		HTTPStatus: status,
		StackTrace: captureStackTrace(),
	}
}

func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}

func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

// NewInvalidRequest is a validation error for a malformed request.
func NewInvalidRequest(message string) *AppError {
	return New(ErrorTypeValidation, message).WithCode(CodeInvalidRequest)
}

func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, resource+" not found")
}

// NewNodeNotFound reports a node id missing from the node table.
func NewNodeNotFound(id string) *AppError {
	return NewNotFoundError("node " + id).WithCode(CodeNodeNotFound)
}

// NewEdgeNotFound reports an edge id missing from the edge table.
func NewEdgeNotFound(id string) *AppError {
	return NewNotFoundError("edge " + id).WithCode(CodeEdgeNotFound)
}

func NewConflictError(message string) *AppError {
	return New(ErrorTypeConflict, message)
}

// NewDuplicateEdge reports an existing edge between source and target, in
// either direction.
func NewDuplicateEdge(source, target string) *AppError {
	return NewConflictError(fmt.Sprintf("nodes %s and %s are already connected", source, target)).
		WithCode(CodeDuplicateEdge)
}

func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return New(ErrorTypeUnauthorized, message)
}

// NewMissingRole rejects an authenticated caller without role.
func NewMissingRole(role string) *AppError {
	return New(ErrorTypeForbidden, fmt.Sprintf("role %q required", role)).WithCode(CodeMissingRole)
}

// NewRateLimitError rejects a client over its per-window budget.
func NewRateLimitError(limit int, window string) *AppError {
	return New(ErrorTypeRateLimit, fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, window))
}

func NewInternalError(message string) *AppError {
	return New(ErrorTypeInternal, message)
}

func NewUnavailableError(service string) *AppError {
	return New(ErrorTypeUnavailable, fmt.Sprintf("service '%s' is unavailable", service))
}

func NewDatabaseError(operation string, err error) *AppError {
	return New(ErrorTypeDatabase, fmt.Sprintf("database operation '%s' failed", operation)).WithCause(err)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

func IsNotFound(err error) bool   { return IsType(err, ErrorTypeNotFound) }
func IsValidation(err error) bool { return IsType(err, ErrorTypeValidation) }
func IsConflict(err error) bool   { return IsType(err, ErrorTypeConflict) }
