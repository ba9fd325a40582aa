// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"chunk-auditor/internal/composite"
)

func Load(path string) (*AssessorRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg AssessorRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

func Save(reg *AssessorRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks catalog integrity: assessor names are unique and non-empty,
// thresholds stay in [0, 100], response schemas parse, and the default
// weights form a valid table.
func Validate(reg *AssessorRegistry) error {
	if len(reg.Assessors) == 0 {
		return fmt.Errorf("registry contains no assessors")
	}

	weights := make(map[string]float64, len(reg.Assessors))
	for _, a := range reg.Assessors {
		if a.Name == "" {
			return fmt.Errorf("assessor missing name")
		}
		if _, dup := weights[a.Name]; dup {
			return fmt.Errorf("duplicate assessor name: %s", a.Name)
		}
		if a.Dimension == "" {
			return fmt.Errorf("assessor %s missing dimension", a.Name)
		}
		if a.DefaultThreshold < 0 || a.DefaultThreshold > 100 {
			return fmt.Errorf("assessor %s threshold %d outside [0, 100]", a.Name, a.DefaultThreshold)
		}
		if len(a.ResponseSchema) == 0 || !json.Valid(a.ResponseSchema) {
			return fmt.Errorf("assessor %s has an unparseable response schema", a.Name)
		}
		weights[a.Name] = a.DefaultWeight
	}

	return composite.ValidateWeights(weights)
}
