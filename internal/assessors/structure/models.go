// internal/assessors/structure/models.go
package structure

type Answer struct {
	Issues          []AnswerIssue `json:"issues"`
	Strengths       []string      `json:"strengths"`
	Assessment      string        `json:"assessment"`
	Recommendations []string      `json:"recommendations"`
	Score           int           `json:"score"`
	Passing         bool          `json:"passing"`
}

type AnswerIssue struct {
	BarrierType string `json:"barrier_type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Evidence    string `json:"evidence,omitempty"`
}
