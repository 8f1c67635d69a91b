package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rohankatakam/relfinder/internal/errors"
	"github.com/rohankatakam/relfinder/internal/sparql"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextServe - relfinder serve requires the endpoint and an API key
	ValidationContextServe ValidationContext = "serve"
	// ValidationContextFind - find, queries and entities require the endpoint
	ValidationContextFind ValidationContext = "find"
	// ValidationContextExport - find --export-neo4j additionally requires Neo4j
	ValidationContextExport ValidationContext = "export"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ! %s\n", warn))
		}
	}

	return sb.String()
}

// Validate validates configuration for the given context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextServe:
		c.validateEndpoint(result, DetectMode().RequiresSecureCredentials())
		c.validateFinder(result)
		c.validateAPI(result, true)
		c.validateCache(result)
	case ValidationContextFind:
		c.validateEndpoint(result, false)
		c.validateFinder(result)
	case ValidationContextExport:
		c.validateEndpoint(result, false)
		c.validateFinder(result)
		c.validateNeo4j(result, true)
	case ValidationContextAll:
		c.validateEndpoint(result, false)
		c.validateFinder(result)
		c.validateAPI(result, false)
		c.validateCache(result)
		c.validateNeo4j(result, false)
	}

	return result
}

// Require validates ctx and returns a configuration error if it fails
func (c *Config) Require(ctx ValidationContext) error {
	result := c.Validate(ctx)
	if result.HasErrors() {
		return errors.ConfigError(result.Error())
	}
	return nil
}

func (c *Config) validateEndpoint(result *ValidationResult, requireCredentials bool) {
	if c.Endpoint.URL == "" {
		result.AddError("SPARQL_ENDPOINT is required but not set")
	} else if u, err := url.Parse(c.Endpoint.URL); err != nil || u.Scheme == "" || u.Host == "" {
		result.AddError("SPARQL_ENDPOINT is invalid: %q", c.Endpoint.URL)
	}

	if c.Endpoint.Username == "" || c.Endpoint.Password == "" {
		if requireCredentials {
			result.AddError("SPARQL_USERNAME/SPARQL_PASSWORD are required in %s mode (set them via %s)", DetectMode(), DetectMode().ConfigSource())
		} else {
			result.AddWarning("SPARQL_USERNAME/SPARQL_PASSWORD not set, querying the endpoint anonymously")
		}
	}

	if c.Endpoint.Timeout <= 0 {
		result.AddError("endpoint.timeout must be positive, got %s", c.Endpoint.Timeout)
	}
	if c.Endpoint.RateLimit < 0 {
		result.AddError("endpoint.rate_limit must not be negative, got %.2f", c.Endpoint.RateLimit)
	}
	if c.Endpoint.OntologyNamespace == "" {
		result.AddWarning("endpoint.ontology_namespace is not set, every node will be classified as %s", c.Enrichment.DefaultClass)
	}
}

func (c *Config) validateFinder(result *ValidationResult) {
	if _, err := sparql.ParseCycleStrategy(c.Finder.CycleStrategy); err != nil {
		result.AddError("finder.cycle_strategy: %v", err)
	}
	if c.Finder.Limit < 0 {
		result.AddError("finder.limit must not be negative, got %d", c.Finder.Limit)
	}
	if c.Finder.MaxDistanceLimit < 1 {
		result.AddError("finder.max_distance_limit must be at least 1, got %d", c.Finder.MaxDistanceLimit)
	} else if c.Finder.MaxDistanceLimit > 5 {
		// D(D+1) queries, most of them with long chains
		result.AddWarning("finder.max_distance_limit %d allows %d queries per request", c.Finder.MaxDistanceLimit, sparql.DescriptorCount(c.Finder.MaxDistanceLimit))
	}
	if c.Finder.Concurrency < 1 {
		result.AddWarning("finder.concurrency is %d, queries will run sequentially", c.Finder.Concurrency)
	}

	for _, iri := range append(append([]string{}, c.Finder.IgnoredProperties...), c.Finder.IgnoredObjects...) {
		if err := sparql.ValidateIRI(iri); err != nil {
			result.AddError("finder ignore list: %v", err)
		}
	}

	if c.AllowListFile == "" {
		result.AddError("ALLOW_LIST_FILE is required but not set")
	}
}

func (c *Config) validateAPI(result *ValidationResult, required bool) {
	if c.API.APIKey == "" {
		if required {
			result.AddError("API_KEY is required but not set")
		} else {
			result.AddWarning("API_KEY is not set, the HTTP service will refuse to start")
		}
	}
	if c.API.Addr == "" {
		result.AddWarning("api.addr is not set, will use default (:5000)")
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	if c.Cache.Addr == "" {
		return
	}
	if c.Cache.TTL <= 0 {
		result.AddWarning("cache.ttl is invalid or not set, will use default (24h)")
	}
}

func (c *Config) validateNeo4j(result *ValidationResult, required bool) {
	missing := []string{}
	if c.Neo4j.URI == "" {
		missing = append(missing, "NEO4J_URI")
	}
	if c.Neo4j.User == "" {
		missing = append(missing, "NEO4J_USER")
	}
	if c.Neo4j.Password == "" {
		missing = append(missing, "NEO4J_PASSWORD")
	}

	if len(missing) > 0 {
		if required {
			result.AddError("%s required but not set", strings.Join(missing, ", "))
		} else if len(missing) < 3 {
			result.AddWarning("Neo4j export partially configured, missing %s", strings.Join(missing, ", "))
		}
		return
	}

	if _, err := url.Parse(c.Neo4j.URI); err != nil {
		result.AddError("NEO4J_URI is invalid: %v", err)
	}
	if c.Neo4j.Password == "password" || c.Neo4j.Password == "neo4j" {
		result.AddWarning("NEO4J_PASSWORD is set to a very common password (%s)", c.Neo4j.Password)
	}
}
