// internal/assessors/queryanswer/models.go
package queryanswer

type Answer struct {
	Issues          []AnswerIssue `json:"issues"`
	Strengths       []string      `json:"strengths"`
	Assessment      string        `json:"assessment"`
	Recommendations []string      `json:"recommendations"`
	Score           int           `json:"score"`
	Passing         bool          `json:"passing"`
	ChunkType       string        `json:"chunk_type"`
	LikelyQueries   []string      `json:"likely_queries"`
}

type AnswerIssue struct {
	BarrierType string `json:"barrier_type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Evidence    string `json:"evidence,omitempty"`
}
