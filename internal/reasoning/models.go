// internal/reasoning/models.go
package reasoning

import "encoding/json"

// Question is one structured exchange with the reasoning service: a
// procedural prompt plus the JSON shape the answer must satisfy.
type Question struct {
	System         string
	Prompt         string
	ResponseSchema json.RawMessage
	// MaxOutputTokens overrides the client default when positive.
	MaxOutputTokens int
}

type askRequest struct {
	Model           string          `json:"model"`
	System          string          `json:"system,omitempty"`
	Prompt          string          `json:"prompt"`
	ResponseSchema  json.RawMessage `json:"response_schema,omitempty"`
	MaxOutputTokens int             `json:"max_output_tokens,omitempty"`
	Temperature     float64         `json:"temperature"`
}

type askResponse struct {
	ID      string          `json:"id"`
	Model   string          `json:"model"`
	Output  json.RawMessage `json:"output"`
	Refusal string          `json:"refusal,omitempty"`
}
