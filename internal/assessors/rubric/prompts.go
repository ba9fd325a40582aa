// internal/assessors/rubric/prompts.go
package rubric

import (
	"fmt"
	"strings"

	"chunk-auditor/internal/assessment"
)

func systemPrompt() string {
	return `Grade AI accessibility of a single chunk for RAG retrieval. Follow the exact order for chain-of-thought reasoning.

Quality Dimensions:
- Standalone: comprehensible without external context (40% weight)
- Structure: scannable with clear formatting (30% weight)
- One Idea: single clear focus, no topic drift (20% weight)
- Right Size: appropriate scope, 200-450 tokens ideal (10% weight)

Algorithm (follow this exact order):

STEP 1 - IDENTIFY ISSUES:
A. Detect barriers and create the issues list. Common barriers:
   - vague_refs: unclear references requiring external context
   - wall_of_text: poor structure, hard to scan
   - topic_confusion: multiple unrelated topics
   - misleading_headers: header does not match content
   - jargon: excessive undefined technical terms
   - too_short: under 100 tokens
   - too_long: over 600 tokens
   For each issue set barrier_type, severity (minor | moderate | severe), description, evidence.

STEP 2 - IDENTIFY STRENGTHS:
B. List 2-4 strengths related to AI accessibility.

STEP 3 - SYNTHESIZE ASSESSMENT:
C. Write the overall assessment (2-4 sentences) about the chunk's retrieval readiness.

STEP 4 - PROVIDE RECOMMENDATIONS:
D. List 2-3 specific improvements for AI accessibility.

STEP 5 - CALCULATE SCORE:
E. Weigh the four dimensions (40/30/20/10) against the issues found.
   Start at 95. Deduct per issue: minor -5, moderate -10, severe -20.
   Any severe issue caps the score at 65; three or more moderate issues cap it at 75.
   No issues at all means 100. Final bounds: min 10, max 100.

STEP 6 - DETERMINE PASSING:
F. passing = score >= threshold (typically 70).

Rules:
- Prioritize self-containment and structure over expertise.
- Focus on AI retrievability, not human readability.
- Provide structured data per the response schema.

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
