package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectMode(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want DeploymentMode
	}{
		{"explicit dev", map[string]string{"RELFINDER_MODE": "dev"}, ModeDevelopment},
		{"explicit prod wins over ci", map[string]string{"RELFINDER_MODE": "prod", "CI": "true"}, ModeProduction},
		{"ci", map[string]string{"GITHUB_ACTIONS": "true"}, ModeCI},
		{"bare directory", nil, ModeProduction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for _, key := range []string{"RELFINDER_MODE", "CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "JENKINS_URL", "BUILDKITE", "TF_BUILD"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			assert.Equal(t, tt.want, DetectMode())
		})
	}
}

func TestDeploymentMode_Policies(t *testing.T) {
	assert.True(t, ModeDevelopment.UsesKeychain())
	assert.False(t, ModeCI.UsesKeychain())
	assert.False(t, ModeDevelopment.RequiresSecureCredentials())
	assert.True(t, ModeProduction.RequiresSecureCredentials())
}

func TestValidate_ServeCredentialsByMode(t *testing.T) {
	cfg := validConfig()
	cfg.Endpoint.Password = ""

	t.Setenv("RELFINDER_MODE", "production")
	result := cfg.Validate(ValidationContextServe)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "production mode")

	t.Setenv("RELFINDER_MODE", "development")
	result = cfg.Validate(ValidationContextServe)
	assert.False(t, result.HasErrors(), result.Error())
	assert.NotEmpty(t, result.Warnings)
}
