package config

import (
	"os"
	"strings"
)

// DeploymentMode represents the deployment context
type DeploymentMode string

const (
	// ModeDevelopment represents a local checkout
	// - Uses .env file for configuration
	// - Anonymous endpoint access is acceptable
	ModeDevelopment DeploymentMode = "development"

	// ModeProduction represents a deployed service or installed binary
	// - Credentials via env vars, config file, or OS keychain
	// - serve refuses to start without endpoint credentials
	ModeProduction DeploymentMode = "production"

	// ModeCI represents CI/CD pipeline execution
	// - All credentials from environment variables
	// - No keychain access
	ModeCI DeploymentMode = "ci"
)

// DetectMode determines the deployment context based on environment
func DetectMode() DeploymentMode {
	// Explicit mode override (highest priority)
	if mode := os.Getenv("RELFINDER_MODE"); mode != "" {
		switch strings.ToLower(mode) {
		case "development", "dev":
			return ModeDevelopment
		case "production", "prod":
			return ModeProduction
		case "ci", "cicd":
			return ModeCI
		}
	}

	if isCI() {
		return ModeCI
	}

	if _, err := os.Stat(".env"); err == nil {
		return ModeDevelopment
	}
	if _, err := os.Stat("go.mod"); err == nil {
		return ModeDevelopment
	}

	return ModeProduction
}

// isCI detects if running in a CI/CD environment
func isCI() bool {
	ciEnvVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"CIRCLECI",
		"JENKINS_URL",
		"BUILDKITE",
		"TF_BUILD",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return true
		}
	}

	return false
}

// String returns the string representation of the mode
func (m DeploymentMode) String() string {
	return string(m)
}

// UsesKeychain returns true if secrets may be read from the OS keychain
func (m DeploymentMode) UsesKeychain() bool {
	return m != ModeCI
}

// RequiresSecureCredentials returns true if the service must not query the endpoint anonymously
func (m DeploymentMode) RequiresSecureCredentials() bool {
	return m == ModeProduction || m == ModeCI
}

// ConfigSource returns where credentials should come from
func (m DeploymentMode) ConfigSource() string {
	switch m {
	case ModeDevelopment:
		return ".env file"
	case ModeProduction:
		return "environment variables, config file, or OS keychain"
	case ModeCI:
		return "environment variables only"
	default:
		return "unknown"
	}
}
