package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := stderrors.New("connection refused")

	tests := []struct {
		name     string
		err      *Error
		wantType ErrorType
		fatal    bool
	}{
		{"config", ConfigErrorf("max distance %d", 0), ErrorTypeConfig, false},
		{"validation", ValidationError("bad body"), ErrorTypeValidation, false},
		{"execution", ExecutionErrorf(cause, "query %d failed", 3), ErrorTypeExecution, false},
		{"network", NetworkErrorf(cause, "dial"), ErrorTypeNetwork, false},
		{"internal", InternalErrorf("node %q has no id", "x"), ErrorTypeInternal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeExecution, SeverityHigh, "nothing"))
}

func TestErrorChain(t *testing.T) {
	sentinel := stderrors.New("same entity")
	err := fmt.Errorf("finder: %w", WrapConfig(sentinel, "invalid request"))

	assert.True(t, stderrors.Is(err, sentinel))
	assert.True(t, IsType(err, ErrorTypeConfig))
	assert.False(t, IsType(err, ErrorTypeExecution))
	assert.Equal(t, ErrorTypeConfig, GetType(err))
	assert.Equal(t, "finder: invalid request: same entity", err.Error())
}

func TestIsMatchesByType(t *testing.T) {
	err := ExecutionErrorf(stderrors.New("502"), "store failed")
	assert.True(t, stderrors.Is(err, &Error{Type: ErrorTypeExecution}))
	assert.False(t, stderrors.Is(err, &Error{Type: ErrorTypeConfig}))
}

func TestDetailedString(t *testing.T) {
	err := ConfigError("bad limit").WithContext("limit", -1).WithContext("field", "finder.limit")
	out := err.DetailedString()

	require.Contains(t, out, "[HIGH] [CONFIG] bad limit")
	assert.Contains(t, out, "field: finder.limit\n  limit: -1")
}

func TestGetTypeForeignError(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, GetType(stderrors.New("plain")))
	assert.Equal(t, SeverityMedium, GetSeverity(stderrors.New("plain")))
	assert.Equal(t, SeverityLow, GetSeverity(nil))
}

func TestHTTPStatus(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"config", ConfigError("same entity"), http.StatusBadRequest},
		{"validation", ValidationErrorf("entity: %s", "x"), http.StatusBadRequest},
		{"execution", ExecutionError(cause, "query failed"), http.StatusBadGateway},
		{"network", fmt.Errorf("request: %w", NetworkErrorf(cause, "dial")), http.StatusBadGateway},
		{"storage", StorageErrorf(cause, "capture"), http.StatusInternalServerError},
		{"internal", InternalError("unknown variable"), http.StatusInternalServerError},
		{"plain", cause, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "STORAGE", ErrorTypeStorage.String())
	assert.Equal(t, "UNKNOWN", ErrorType(42).String())
	assert.Equal(t, "CRITICAL", SeverityCritical.String())
	assert.Equal(t, "UNKNOWN", Severity(-1).String())
}
