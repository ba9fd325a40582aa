// internal/assessment/result.go
package assessment

// Severity grades how strongly an issue interferes with retrieval.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Rank orders severities for sorting and comparison, minor lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityMinor:
		return 0
	case SeverityModerate:
		return 1
	case SeveritySevere:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is one of the three known severities.
func (s Severity) Valid() bool {
	return s.Rank() >= 0
}

// Issue is a single identified retrieval barrier.
type Issue struct {
	BarrierType string   `json:"barrier_type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Evidence    string   `json:"evidence,omitempty"`
	// HardGate marks an issue whose severity alone vetoes the composite
	// verdict. Set by the producing assessor, consumed by the orchestrator.
	HardGate bool `json:"hard_gate,omitempty"`
}

// Entity is a named concept extracted during entity-focus assessment.
type Entity struct {
	Text        string `json:"text"`
	Type        string `json:"type"`
	Specificity string `json:"specificity,omitempty"`
}

// SchemaVersion tags which generation of the result shape an assessor
// produced. Later generations only add optional fields, so consumers written
// against an earlier version keep working unchanged.
type SchemaVersion int

const (
	// SchemaBase carries the core fields every assessor returns.
	SchemaBase SchemaVersion = 1
	// SchemaQueryAware adds chunk_type and likely_queries.
	SchemaQueryAware SchemaVersion = 2
	// SchemaEntityAware adds entities, primary_topic and entity_coverage.
	SchemaEntityAware SchemaVersion = 3
)

// Result is one assessor's verdict for one chunk.
type Result struct {
	Name            string        `json:"name"`
	Score           int           `json:"score"`
	Passing         bool          `json:"passing"`
	Issues          []Issue       `json:"issues"`
	Strengths       []string      `json:"strengths"`
	Assessment      string        `json:"assessment"`
	Recommendations []string      `json:"recommendations"`
	SchemaVersion   SchemaVersion `json:"schema_version"`

	// Fields below are additive per schema generation and stay zero unless
	// the producing assessor populates them.
	ChunkType      string   `json:"chunk_type,omitempty"`
	LikelyQueries  []string `json:"likely_queries,omitempty"`
	Entities       []Entity `json:"entities,omitempty"`
	PrimaryTopic   string   `json:"primary_topic,omitempty"`
	EntityCoverage *float64 `json:"entity_coverage,omitempty"`
}

// HasSevere reports whether any issue is severe.
func (r *Result) HasSevere() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeveritySevere {
			return true
		}
	}
	return false
}

// HardGateViolations returns the severe issues flagged as composite vetoes.
func (r *Result) HardGateViolations() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.HardGate && issue.Severity == SeveritySevere {
			out = append(out, issue)
		}
	}
	return out
}
