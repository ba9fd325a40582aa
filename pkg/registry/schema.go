// pkg/registry/schema.go
package registry

import "encoding/json"

// AssessorRegistry is the JSON catalog of assessor definitions. It is
// regenerated from the assessor packages by cmd/tools/registry-sync and
// served by GET /v1/assessors.
type AssessorRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Assessors   []Assessor `json:"assessors"`
}

// Assessor describes one scoring dimension: what it measures, the schema its
// answers must satisfy, and the defaults the composite layer starts from.
type Assessor struct {
	Name             string          `json:"name"`
	DisplayName      string          `json:"displayName"`
	Dimension        string          `json:"dimension"`
	SchemaVersion    int             `json:"schemaVersion"`
	DefaultWeight    float64         `json:"defaultWeight"`
	DefaultThreshold int             `json:"defaultThreshold"`
	DefaultTimeout   string          `json:"defaultTimeout"`
	HardGateBarriers []string        `json:"hardGateBarriers,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}
