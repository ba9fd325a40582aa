// internal/composite/result.go
package composite

import (
	"sort"

	"chunk-auditor/internal/assessment"
)

// CompositeResult is the verdict for one chunk. It is built once per
// Evaluate call and never updated afterwards.
type CompositeResult struct {
	PerAssessor      map[string]assessment.Outcome `json:"per_assessor"`
	EffectiveWeights map[string]float64            `json:"effective_weights"`
	OverallScore     int                           `json:"overall_score"`
	OverallPassing   bool                          `json:"overall_passing"`
	Degraded         bool                          `json:"degraded"`
	ElapsedSeconds   float64                       `json:"elapsed_seconds"`
	ChunkRef         string                        `json:"chunk_ref,omitempty"`
}

// AssessorNames returns every configured assessor name in sorted order.
func (r *CompositeResult) AssessorNames() []string {
	names := make([]string, 0, len(r.PerAssessor))
	for name := range r.PerAssessor {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FailedAssessors returns the sorted names of assessors whose outcome is
// Failed. Empty when the evaluation was not degraded.
func (r *CompositeResult) FailedAssessors() []string {
	var names []string
	for name, outcome := range r.PerAssessor {
		if !outcome.Succeeded() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// HardGateViolations collects severe hard-gate issues across all surviving
// assessors, keyed by assessor name.
func (r *CompositeResult) HardGateViolations() map[string][]assessment.Issue {
	violations := make(map[string][]assessment.Issue)
	for name, outcome := range r.PerAssessor {
		if !outcome.Succeeded() {
			continue
		}
		if v := outcome.Result.HardGateViolations(); len(v) > 0 {
			violations[name] = v
		}
	}
	return violations
}
