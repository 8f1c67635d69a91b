package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{" warn ", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"info", INFO},
		{"", INFO},
		{"verbose", INFO},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLogger_JSONToConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: INFO, JSONFormat: true}, &buf)
	require.NoError(t, err)

	logger.Slog().With("component", "finder").Info("request finished", "queries", 6)
	logger.Slog().Debug("filtered out")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "request finished", entry["msg"])
	assert.Equal(t, "finder", entry["component"])
	assert.Equal(t, float64(6), entry["queries"])
}

func TestNewLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "relfinder.log")

	logger, err := NewLogger(Config{Level: DEBUG, OutputFile: path}, nil)
	require.NoError(t, err)
	logger.Slog().Debug("hello")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")
}

func TestNewLogger_RotatesOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relfinder.log")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), 64), 0644))
	require.NoError(t, os.WriteFile(path+".1", []byte("older"), 0644))

	logger, err := NewLogger(Config{OutputFile: path, MaxSize: 32, MaxBackups: 3}, nil)
	require.NoError(t, err)
	defer logger.Close()

	rotated, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Len(t, rotated, 64)

	older, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	assert.Equal(t, "older", string(older))
}

func TestDebugConfig(t *testing.T) {
	cfg := DebugConfig("/tmp/relfinder.log")
	assert.Equal(t, DEBUG, cfg.Level)
	assert.True(t, cfg.AddSource)
	assert.Equal(t, "/tmp/relfinder.log", cfg.OutputFile)
}
