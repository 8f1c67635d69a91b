// Package errors classifies failures by type and severity
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// Configuration errors - invalid request or service configuration, raised before any query runs
	ErrorTypeConfig ErrorType = iota
	// Validation errors - invalid input data at the service boundary
	ErrorTypeValidation
	// Execution errors - the triple store rejected or failed a query
	ErrorTypeExecution
	// Network errors - transport failures talking to the store or a cache
	ErrorTypeNetwork
	// Storage errors - capture store or export target failures
	ErrorTypeStorage
	// Internal errors - broken invariants (unknown variables, unassigned node ids)
	ErrorTypeInternal
)

var typeNames = [...]string{"CONFIG", "VALIDATION", "EXECUTION", "NETWORK", "STORAGE", "INTERNAL"}

func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "UNKNOWN"
	}
	return typeNames[t]
}

// Severity represents how critical an error is
type Severity int

const (
	// SeverityLow - enrichment or caching degraded, the request still succeeds
	SeverityLow Severity = iota
	// SeverityMedium - the operation failed but the process is healthy
	SeverityMedium
	// SeverityHigh - the current request fails
	SeverityHigh
	// SeverityCritical - an invariant is broken
	SeverityCritical
)

var severityNames = [...]string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "UNKNOWN"
	}
	return severityNames[s]
}

// Error is a classified error with optional structured context
type Error struct {
	Type     ErrorType
	Severity Severity
	Message  string
	Cause    error
	Context  map[string]any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Is matches any *Error of the same type, so errors.Is(err, &Error{Type: ErrorTypeConfig}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsFatal returns true if this error should stop execution
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityCritical
}

// DetailedString renders the error with its sorted context, one key per line
func (e *Error) DetailedString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] [%s] %s\n", e.Severity, e.Type, e.Message)

	if e.Cause != nil {
		fmt.Fprintf(&sb, "Caused by: %v\n", e.Cause)
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("Context:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %v\n", k, e.Context[k])
		}
	}

	return sb.String()
}

// New creates an error with the given type, severity, and message
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{Type: errType, Severity: severity, Message: message}
}

// Wrap classifies err. A nil err stays nil.
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Type: errType, Severity: severity, Message: message, Cause: err}
}

// ConfigError creates a configuration error
func ConfigError(message string) *Error {
	return New(ErrorTypeConfig, SeverityHigh, message)
}

// ConfigErrorf creates a configuration error with formatting
func ConfigErrorf(format string, args ...any) *Error {
	return New(ErrorTypeConfig, SeverityHigh, fmt.Sprintf(format, args...))
}

// WrapConfig wraps a sentinel or lower-level error as a configuration error
func WrapConfig(err error, format string, args ...any) *Error {
	return Wrap(err, ErrorTypeConfig, SeverityHigh, fmt.Sprintf(format, args...))
}

// ValidationError creates a validation error
func ValidationError(message string) *Error {
	return New(ErrorTypeValidation, SeverityMedium, message)
}

// ValidationErrorf creates a validation error with formatting
func ValidationErrorf(format string, args ...any) *Error {
	return New(ErrorTypeValidation, SeverityMedium, fmt.Sprintf(format, args...))
}

// ExecutionError wraps a query execution failure
func ExecutionError(err error, message string) *Error {
	return Wrap(err, ErrorTypeExecution, SeverityHigh, message)
}

// ExecutionErrorf wraps a query execution failure with formatting
func ExecutionErrorf(err error, format string, args ...any) *Error {
	return Wrap(err, ErrorTypeExecution, SeverityHigh, fmt.Sprintf(format, args...))
}

// NetworkErrorf wraps a transport failure
func NetworkErrorf(err error, format string, args ...any) *Error {
	return Wrap(err, ErrorTypeNetwork, SeverityHigh, fmt.Sprintf(format, args...))
}

// StorageErrorf wraps a capture store or export failure
func StorageErrorf(err error, format string, args ...any) *Error {
	return Wrap(err, ErrorTypeStorage, SeverityMedium, fmt.Sprintf(format, args...))
}

// InternalError creates an internal error
func InternalError(message string) *Error {
	return New(ErrorTypeInternal, SeverityCritical, message)
}

// InternalErrorf creates an internal error with formatting
func InternalErrorf(format string, args ...any) *Error {
	return New(ErrorTypeInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// WrapInternal wraps a sentinel error as an internal invariant violation
func WrapInternal(err error, format string, args ...any) *Error {
	return Wrap(err, ErrorTypeInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// IsFatal checks if an error is fatal (should stop execution)
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.IsFatal()
	}
	return false
}

// GetSeverity returns the severity of an error. Unclassified errors are medium.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityLow
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity
	}
	return SeverityMedium
}

// GetType returns the type of the outermost *Error in the chain
func GetType(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err carries an *Error of the given type anywhere in its chain
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Type == errType {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// HTTPStatus maps an error to the status an API response should carry.
// Bad input is 400, a failing upstream store is 502, everything else 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsType(err, ErrorTypeConfig), IsType(err, ErrorTypeValidation):
		return http.StatusBadRequest
	case IsType(err, ErrorTypeExecution), IsType(err, ErrorTypeNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
