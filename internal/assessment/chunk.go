// internal/assessment/chunk.go
package assessment

import (
	"crypto/sha256"
	"encoding/hex"
)

// Chunk is the unit of content under audit. Assessors treat it as immutable
// input; nothing in the evaluation path writes to it.
type Chunk struct {
	// ID is an optional stable identifier assigned by the pipeline.
	ID string `json:"id,omitempty"`
	// Heading is the nearest enclosing section title, empty when the source
	// carries no structure.
	Heading string `json:"heading,omitempty"`
	// Text is the chunk body handed to every assessor.
	Text string `json:"text"`
	// Metadata carries optional structural hints such as source_format or
	// position. Assessors may read it but must not depend on any key being
	// present.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// WordCount reports the number of whitespace-separated tokens in the body.
func (c *Chunk) WordCount() int {
	count := 0
	inWord := false
	for _, r := range c.Text {
		switch r {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				count++
				inWord = true
			}
		}
	}
	return count
}

// Fingerprint returns a stable content hash over heading and body, used as
// the identity portion of cache keys.
func (c *Chunk) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(c.Heading))
	h.Write([]byte{0})
	h.Write([]byte(c.Text))
	return hex.EncodeToString(h.Sum(nil))
}
