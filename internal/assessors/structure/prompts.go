// internal/assessors/structure/prompts.go
package structure

import (
	"fmt"
	"strings"

	"chunk-auditor/internal/assessment"
)

func systemPrompt() string {
	return `Evaluate structural quality of extracted web content for RAG. You cannot restructure the source; judge content as received.

Structural Elements to Evaluate:
- Heading: specificity and accuracy
- Paragraphs: appropriate sizing, no walls of text
- Lists: used where enumeration calls for them
- Tables: used for tabular data
- Code: properly formatted if present
- Flow: logical intro, body, wrap-up progression

Algorithm (follow this exact order):

STEP 1 - IDENTIFY ISSUES:
A. Check each structural element and create the issues list.
   Barrier types: poor_heading, wall_of_text, missing_lists, missing_tables, poor_code_format, poor_flow.
   For each issue set barrier_type, severity (minor | moderate | severe), description,
   and an evidence excerpt showing the problem. Order issues by severity.
   Severity guide per element:
   - heading: minor slightly vague, moderate generic or somewhat misleading, severe inaccurate
   - paragraphs: minor slightly long, moderate some walls of text, severe no paragraph structure
   - lists/tables: minor small missed opportunities, moderate several, severe data unusable as prose
   - flow: minor small jumps, moderate disordered sections, severe no discernible progression

STEP 2 - IDENTIFY STRENGTHS:
B. List 2-4 structural strengths.

STEP 3 - SYNTHESIZE ASSESSMENT:
C. Write the overall assessment (2-4 sentences) of structural quality for RAG.

STEP 4 - PROVIDE RECOMMENDATIONS:
D. List 2-3 specific structural improvements.

STEP 5 - CALCULATE SCORE:
E. Start at 95. Deduct per issue: minor -5, moderate -10, severe -20.
   Any severe issue caps the score at 65; three or more moderate issues cap it at 75.
   No issues at all means 100. Final bounds: min 10, max 100.

STEP 6 - DETERMINE PASSING:
F. passing = score >= threshold (typically 70).

` + assessment.IgnoreArtifactsPrompt
}

func buildPrompt(heading, text string) string {
	headingDisplay := heading
	if strings.TrimSpace(headingDisplay) == "" {
		headingDisplay = "[No heading]"
	}
	return fmt.Sprintf("HEADING: %s\n\nCONTENT:\n%s", headingDisplay, text)
}

const responseSchema = `{
	"type": "object",
	"required": ["issues", "strengths", "assessment", "recommendations", "score", "passing"],
	"properties": {
		"issues": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["barrier_type", "severity", "description"],
				"properties": {
					"barrier_type": {"type": "string"},
					"severity": {"type": "string", "enum": ["minor", "moderate", "severe"]},
					"description": {"type": "string"},
					"evidence": {"type": "string"}
				}
			}
		},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"assessment": {"type": "string"},
		"recommendations": {"type": "array", "items": {"type": "string"}},
		"score": {"type": "integer", "minimum": 0, "maximum": 100},
		"passing": {"type": "boolean"}
	}
}`
