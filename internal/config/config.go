package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// SPARQL endpoint of the triple store
	Endpoint EndpointConfig `mapstructure:"endpoint" yaml:"endpoint"`

	// Path finding settings
	Finder FinderConfig `mapstructure:"finder" yaml:"finder"`

	// Label and class lookup settings
	Enrichment EnrichmentConfig `mapstructure:"enrichment" yaml:"enrichment"`

	// HTTP service
	API APIConfig `mapstructure:"api" yaml:"api"`

	// Redis label cache (disabled when Addr is empty)
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Request capture store (disabled when Path is empty)
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`

	// Neo4j export target
	Neo4j Neo4jConfig `mapstructure:"neo4j" yaml:"neo4j"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// AllowListFile points at the allowed_object_properties / allowed_entity_classes file
	AllowListFile string `mapstructure:"allow_list_file" yaml:"allow_list_file"`
}

type EndpointConfig struct {
	URL               string        `mapstructure:"url" yaml:"url"`
	Username          string        `mapstructure:"username" yaml:"username"`
	Password          string        `mapstructure:"password" yaml:"password"`
	Reasoning         bool          `mapstructure:"reasoning" yaml:"reasoning"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit         float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second, 0 = unlimited
	Burst             int           `mapstructure:"burst" yaml:"burst"`
	OntologyNamespace string        `mapstructure:"ontology_namespace" yaml:"ontology_namespace"`
}

type FinderConfig struct {
	IgnoredProperties []string      `mapstructure:"ignored_properties" yaml:"ignored_properties"`
	IgnoredObjects    []string      `mapstructure:"ignored_objects" yaml:"ignored_objects"`
	CycleStrategy     string        `mapstructure:"cycle_strategy" yaml:"cycle_strategy"`
	Limit             int           `mapstructure:"limit" yaml:"limit"`
	Concurrency       int           `mapstructure:"concurrency" yaml:"concurrency"`
	MaxDistanceLimit  int           `mapstructure:"max_distance_limit" yaml:"max_distance_limit"` // Upper bound accepted from clients
	QueryTimeout      time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
	Separator         string        `mapstructure:"separator" yaml:"separator"`
}

type EnrichmentConfig struct {
	ChunkSize    int    `mapstructure:"chunk_size" yaml:"chunk_size"`
	Concurrency  int    `mapstructure:"concurrency" yaml:"concurrency"`
	DefaultClass string `mapstructure:"default_class" yaml:"default_class"`
}

type APIConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	APIKey       string        `mapstructure:"api_key" yaml:"api_key"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

type CacheConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
}

type CaptureConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type Neo4jConfig struct {
	URI       string `mapstructure:"uri" yaml:"uri"`
	User      string `mapstructure:"user" yaml:"user"`
	Password  string `mapstructure:"password" yaml:"password"`
	Database  string `mapstructure:"database" yaml:"database"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file"`
	JSONFormat bool   `mapstructure:"json" yaml:"json"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			Timeout:           60 * time.Second,
			Burst:             1,
			OntologyNamespace: "http://w3id.org/um/cbcm/eu-cm-ontology#",
		},
		Finder: FinderConfig{
			CycleStrategy:    "no_intermediate_duplicates",
			Concurrency:      1,
			MaxDistanceLimit: 3,
			QueryTimeout:     60 * time.Second,
			Separator:        " | ",
		},
		Enrichment: EnrichmentConfig{
			ChunkSize:    50,
			Concurrency:  4,
			DefaultClass: "Thing",
		},
		API: APIConfig{
			Addr:         ":5000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
		},
		Cache: CacheConfig{
			TTL:    24 * time.Hour,
			Prefix: "relfinder",
		},
		Neo4j: Neo4jConfig{
			Database:  "neo4j",
			BatchSize: 500,
		},
		Log: LogConfig{
			Level: "info",
		},
		AllowListFile: "config.json",
	}
}

// defaults flattens Default() into viper keys so that nested keys can be
// overridden individually by the file or RELFINDER_* variables.
func defaults(cfg *Config) map[string]any {
	return map[string]any{
		"endpoint.url":                cfg.Endpoint.URL,
		"endpoint.username":           cfg.Endpoint.Username,
		"endpoint.password":           cfg.Endpoint.Password,
		"endpoint.reasoning":          cfg.Endpoint.Reasoning,
		"endpoint.rate_limit":         cfg.Endpoint.RateLimit,
		"endpoint.timeout":            cfg.Endpoint.Timeout,
		"endpoint.burst":              cfg.Endpoint.Burst,
		"endpoint.ontology_namespace": cfg.Endpoint.OntologyNamespace,
		"finder.cycle_strategy":       cfg.Finder.CycleStrategy,
		"finder.limit":                cfg.Finder.Limit,
		"finder.concurrency":          cfg.Finder.Concurrency,
		"finder.max_distance_limit":   cfg.Finder.MaxDistanceLimit,
		"finder.query_timeout":        cfg.Finder.QueryTimeout,
		"finder.separator":            cfg.Finder.Separator,
		"enrichment.chunk_size":       cfg.Enrichment.ChunkSize,
		"enrichment.concurrency":      cfg.Enrichment.Concurrency,
		"enrichment.default_class":    cfg.Enrichment.DefaultClass,
		"api.addr":                    cfg.API.Addr,
		"api.api_key":                 cfg.API.APIKey,
		"api.read_timeout":            cfg.API.ReadTimeout,
		"api.write_timeout":           cfg.API.WriteTimeout,
		"cache.addr":                  cfg.Cache.Addr,
		"cache.ttl":                   cfg.Cache.TTL,
		"cache.prefix":                cfg.Cache.Prefix,
		"capture.path":                cfg.Capture.Path,
		"neo4j.uri":                   cfg.Neo4j.URI,
		"neo4j.user":                  cfg.Neo4j.User,
		"neo4j.password":              cfg.Neo4j.Password,
		"neo4j.database":              cfg.Neo4j.Database,
		"neo4j.batch_size":            cfg.Neo4j.BatchSize,
		"log.level":                   cfg.Log.Level,
		"log.file":                    cfg.Log.File,
		"log.json":                    cfg.Log.JSONFormat,
		"allow_list_file":             cfg.AllowListFile,
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	for key, value := range defaults(cfg) {
		v.SetDefault(key, value)
	}

	// RELFINDER_FINDER_CONCURRENCY -> finder.concurrency
	v.SetEnvPrefix("RELFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("relfinder")
		v.AddConfigPath(".relfinder")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".relfinder"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	if DetectMode().UsesKeychain() {
		NewSecretStore().Fill(cfg)
	}

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".relfinder", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies the unprefixed variables the triple store
// deployment already uses
func applyEnvOverrides(cfg *Config) {
	// Endpoint configuration
	if url := os.Getenv("SPARQL_ENDPOINT"); url != "" {
		cfg.Endpoint.URL = url
	}
	if user := os.Getenv("SPARQL_USERNAME"); user != "" {
		cfg.Endpoint.Username = user
	}
	if pass := os.Getenv("SPARQL_PASSWORD"); pass != "" {
		cfg.Endpoint.Password = pass
	}
	if rateLimit := os.Getenv("SPARQL_RATE_LIMIT"); rateLimit != "" {
		if rate, err := strconv.ParseFloat(rateLimit, 64); err == nil {
			cfg.Endpoint.RateLimit = rate
		}
	}

	// API configuration
	if key := os.Getenv("API_KEY"); key != "" {
		cfg.API.APIKey = key
	}
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			cfg.API.Addr = ":" + port
		}
	}

	// Cache configuration
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Cache.Password = pass
	}

	// Neo4j configuration
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		cfg.Neo4j.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		cfg.Neo4j.User = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		cfg.Neo4j.Password = pass
	}

	if path := os.Getenv("CAPTURE_PATH"); path != "" {
		cfg.Capture.Path = expandPath(path)
	}
	if file := os.Getenv("ALLOW_LIST_FILE"); file != "" {
		cfg.AllowListFile = expandPath(file)
	}
	if os.Getenv("DEBUG") != "" {
		cfg.Log.Level = "debug"
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
