package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vibin_matcher/matching"
)

// LoadWeights returns the scoring weight table. An empty path yields the
// built-in table; otherwise the YAML file at path replaces it and must pass
// validation.
func LoadWeights(path string) (matching.Weights, error) {
	if path == "" {
		return matching.DefaultWeights(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return matching.Weights{}, fmt.Errorf("read weights file: %w", err)
	}
	var w matching.Weights
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return matching.Weights{}, fmt.Errorf("parse weights file %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return matching.Weights{}, fmt.Errorf("weights file %s: %w", path, err)
	}
	return w, nil
}
