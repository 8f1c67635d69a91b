package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
)

// isolate runs the test in an empty working and home directory
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	keyring.MockInit()
	for _, key := range []string{"SPARQL_ENDPOINT", "SPARQL_USERNAME", "SPARQL_PASSWORD", "API_KEY", "REDIS_ADDR", "NEO4J_URI", "DEBUG"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 60*time.Second, cfg.Endpoint.Timeout)
	assert.Equal(t, "no_intermediate_duplicates", cfg.Finder.CycleStrategy)
	assert.Equal(t, 50, cfg.Enrichment.ChunkSize)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "relfinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoint:
  url: http://localhost:5820/cbcm/query
  timeout: 90s
finder:
  concurrency: 2
  ignored_objects:
    - http://example.org/Nowhere
cache:
  addr: localhost:6379
`), 0644))

	t.Setenv("RELFINDER_FINDER_CONCURRENCY", "8")
	t.Setenv("SPARQL_USERNAME", "reader")
	t.Setenv("NEO4J_URI", "bolt://graph:7687")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5820/cbcm/query", cfg.Endpoint.URL)
	assert.Equal(t, 90*time.Second, cfg.Endpoint.Timeout)
	assert.Equal(t, 8, cfg.Finder.Concurrency)
	assert.Equal(t, []string{"http://example.org/Nowhere"}, cfg.Finder.IgnoredObjects)
	assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
	assert.Equal(t, "reader", cfg.Endpoint.Username)
	assert.Equal(t, "bolt://graph:7687", cfg.Neo4j.URI)
	// untouched sections keep their defaults
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	t.Cleanup(func() { os.Unsetenv("API_KEY") })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("API_KEY=from-dotenv\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.API.APIKey)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "relfinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func validConfig() *Config {
	cfg := Default()
	cfg.Endpoint.URL = "http://localhost:5820/cbcm/query"
	cfg.Endpoint.Username = "reader"
	cfg.Endpoint.Password = "secret"
	cfg.API.APIKey = "key"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		ctx      ValidationContext
		wantErrs int
	}{
		{"valid serve", func(*Config) {}, ValidationContextServe, 0},
		{"missing endpoint", func(c *Config) { c.Endpoint.URL = "" }, ValidationContextFind, 1},
		{"relative endpoint", func(c *Config) { c.Endpoint.URL = "/query" }, ValidationContextFind, 1},
		{"serve needs api key", func(c *Config) { c.API.APIKey = "" }, ValidationContextServe, 1},
		{"find ignores api key", func(c *Config) { c.API.APIKey = "" }, ValidationContextFind, 0},
		{"unknown cycle strategy", func(c *Config) { c.Finder.CycleStrategy = "sometimes" }, ValidationContextFind, 1},
		{"bad ignore list", func(c *Config) { c.Finder.IgnoredProperties = []string{"has space"} }, ValidationContextFind, 1},
		{"export needs neo4j", func(*Config) {}, ValidationContextExport, 1},
		{"zero distance limit", func(c *Config) { c.Finder.MaxDistanceLimit = 0 }, ValidationContextAll, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			result := cfg.Validate(tt.ctx)
			assert.Len(t, result.Errors, tt.wantErrs, result.Error())
			assert.Equal(t, tt.wantErrs > 0, result.HasErrors())
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	cfg := validConfig()
	cfg.Endpoint.Password = ""
	cfg.Finder.MaxDistanceLimit = 6

	result := cfg.Validate(ValidationContextFind)
	assert.False(t, result.HasErrors())
	assert.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[1], "42 queries")
}

func TestRequire(t *testing.T) {
	cfg := validConfig()
	cfg.Endpoint.URL = ""

	err := cfg.Require(ValidationContextFind)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "SPARQL_ENDPOINT")

	assert.NoError(t, validConfig().Require(ValidationContextServe))
}
