package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAllowLists(t *testing.T) {
	want := &AllowLists{
		ObjectProperties: []string{"http://w3id.org/um/cbcm/eu-cm-ontology#hasDirector"},
		EntityClasses:    []string{"http://w3id.org/um/cbcm/eu-cm-ontology#Company"},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "config.json",
			content: `{
	"allowed_object_properties": ["http://w3id.org/um/cbcm/eu-cm-ontology#hasDirector"],
	"allowed_entity_classes": ["http://w3id.org/um/cbcm/eu-cm-ontology#Company"]
}`,
		},
		{
			name: "yaml",
			file: "allow.yaml",
			content: `allowed_object_properties:
  - http://w3id.org/um/cbcm/eu-cm-ontology#hasDirector
allowed_entity_classes:
  - http://w3id.org/um/cbcm/eu-cm-ontology#Company
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadAllowLists(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadAllowLists_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"empty properties", "a.yaml", "allowed_entity_classes: []\n", "allowed_object_properties is empty"},
		{"invalid iri", "a.yaml", "allowed_object_properties: ['has space']\n", "allow lists"},
		{"malformed json", "a.json", "{", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAllowLists(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadAllowLists(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
