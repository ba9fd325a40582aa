// internal/assessors/entityfocus/models.go
package entityfocus

type Answer struct {
	Issues          []AnswerIssue  `json:"issues"`
	Strengths       []string       `json:"strengths"`
	Assessment      string         `json:"assessment"`
	Recommendations []string       `json:"recommendations"`
	Score           int            `json:"score"`
	Passing         bool           `json:"passing"`
	Entities        []AnswerEntity `json:"entities"`
	PrimaryTopic    string         `json:"primary_topic"`
	EntityCoverage  float64        `json:"entity_coverage"`
}

type AnswerIssue struct {
	BarrierType string `json:"barrier_type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Evidence    string `json:"evidence,omitempty"`
}

type AnswerEntity struct {
	Text        string `json:"text"`
	Type        string `json:"type"`
	Specificity string `json:"specificity"`
}
