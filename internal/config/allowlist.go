package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/relfinder/internal/sparql"
)

// AllowLists bound what the service exposes: the predicates that may appear
// on an edge and the classes whose instances are listed as entities.
type AllowLists struct {
	ObjectProperties []string `yaml:"allowed_object_properties" json:"allowed_object_properties"`
	EntityClasses    []string `yaml:"allowed_entity_classes" json:"allowed_entity_classes"`
}

// LoadAllowLists reads a YAML or JSON allow-list file
func LoadAllowLists(path string) (*AllowLists, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read allow lists: %w", err)
	}

	unmarshal := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".json") {
		unmarshal = json.Unmarshal
	}

	var lists AllowLists
	if err := unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("failed to parse allow lists %s: %w", path, err)
	}

	if len(lists.ObjectProperties) == 0 {
		return nil, fmt.Errorf("allow lists %s: allowed_object_properties is empty", path)
	}
	for _, iri := range append(append([]string{}, lists.ObjectProperties...), lists.EntityClasses...) {
		if err := sparql.ValidateIRI(iri); err != nil {
			return nil, fmt.Errorf("allow lists %s: %w", path, err)
		}
	}

	return &lists, nil
}
