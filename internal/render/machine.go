// internal/render/machine.go
package render

import (
	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/composite"
)

// Record is the machine view of a verdict: a strict field subset of
// CompositeResult plus the rendered human view. It never carries a value the
// underlying result does not.
type Record struct {
	OverallScore     int                           `json:"overall_score"`
	OverallPassing   bool                          `json:"overall_passing"`
	Degraded         bool                          `json:"degraded"`
	EffectiveWeights map[string]float64            `json:"effective_weights"`
	PerAssessor      map[string]assessment.Outcome `json:"per_assessor"`
	ChunkRef         string                        `json:"chunk_ref,omitempty"`
	HumanView        string                        `json:"human_view"`
}

func buildRecord(result *composite.CompositeResult, humanView string) *Record {
	return &Record{
		OverallScore:     result.OverallScore,
		OverallPassing:   result.OverallPassing,
		Degraded:         result.Degraded,
		EffectiveWeights: result.EffectiveWeights,
		PerAssessor:      result.PerAssessor,
		ChunkRef:         result.ChunkRef,
		HumanView:        humanView,
	}
}
