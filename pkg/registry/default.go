// pkg/registry/default.go
package registry

import (
	"time"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/assessors/entityfocus"
	"chunk-auditor/internal/assessors/queryanswer"
	"chunk-auditor/internal/assessors/rubric"
	"chunk-auditor/internal/assessors/structure"
)

const catalogVersion = "1.0.0"

// Default builds the catalog from the compiled assessor packages, so the
// registry can never drift from the code that produces the verdicts.
func Default() *AssessorRegistry {
	qa := queryanswer.LoadConfig()
	ru := rubric.LoadConfig()
	ef := entityfocus.LoadConfig()
	sq := structure.LoadConfig()

	return &AssessorRegistry{
		Version:     catalogVersion,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Assessors: []Assessor{
			{
				Name:             queryanswer.AssessorName,
				DisplayName:      "Query-Answer",
				Dimension:        queryanswer.Dimension,
				SchemaVersion:    int(assessment.SchemaQueryAware),
				DefaultWeight:    qa.Weight,
				DefaultThreshold: qa.Threshold,
				DefaultTimeout:   qa.Timeout.String(),
				HardGateBarriers: queryanswer.HardGateBarriers(),
				ResponseSchema:   queryanswer.ResponseSchema(),
			},
			{
				Name:             rubric.AssessorName,
				DisplayName:      "Semantic Rubric",
				Dimension:        rubric.Dimension,
				SchemaVersion:    int(assessment.SchemaBase),
				DefaultWeight:    ru.Weight,
				DefaultThreshold: ru.Threshold,
				DefaultTimeout:   ru.Timeout.String(),
				ResponseSchema:   rubric.ResponseSchema(),
			},
			{
				Name:             entityfocus.AssessorName,
				DisplayName:      "Entity Focus",
				Dimension:        entityfocus.Dimension,
				SchemaVersion:    int(assessment.SchemaEntityAware),
				DefaultWeight:    ef.Weight,
				DefaultThreshold: ef.Threshold,
				DefaultTimeout:   ef.Timeout.String(),
				ResponseSchema:   entityfocus.ResponseSchema(),
			},
			{
				Name:             structure.AssessorName,
				DisplayName:      "Structure Quality",
				Dimension:        structure.Dimension,
				SchemaVersion:    int(assessment.SchemaBase),
				DefaultWeight:    sq.Weight,
				DefaultThreshold: sq.Threshold,
				DefaultTimeout:   sq.Timeout.String(),
				ResponseSchema:   structure.ResponseSchema(),
			},
		},
	}
}
