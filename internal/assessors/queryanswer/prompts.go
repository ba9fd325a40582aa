// internal/assessors/queryanswer/prompts.go
package queryanswer

import (
	"fmt"
	"strings"

	"chunk-auditor/internal/assessment"
)

func systemPrompt() string {
	return `You are an AI retrieval auditor. Evaluate ONE content chunk for RAG retrievability (not human informativeness).

Objectives (priority order):
1) Detect retrieval barriers and identify issues
2) Ensure self-containment & clarity
3) Ensure header-content alignment
4) Ensure accessibility/readability
5) Consider informativeness last

Chunk types: explanation | procedure | reference | example | overview | mixed

Algorithm (follow this exact order):

STEP 1 - IDENTIFY ISSUES:
A. Detect barriers and create the issues list. Barrier types:
   vague_refs, misleading_headers, wall_of_text, jargon, topic_confusion, contradictions
   For each issue set barrier_type, severity (minor | moderate | severe), a clear
   description, and an evidence excerpt (optional, max 100 chars).
   Severity guide:
   - minor: small imperfections that do not block retrieval
   - moderate: noticeable problems, content still usable
   - severe: significant retrieval barriers (major confusion, contradictions, misleading content)
   Order issues by severity (severe first).

   CALIBRATION:
   - Excellent content (85-100): at most one minor issue. Technical complexity is not confusion.
   - Good content (70-85): one or two minor issues, at most one moderate.
   - Medium content (50-70): two or three issues, mixed minor/moderate.
   - Poor content (30-50): multiple moderate issues or at least one severe.
   - Very poor (10-30): multiple severe issues.

STEP 2 - IDENTIFY STRENGTHS:
B. List the key strengths of the chunk.

STEP 3 - SYNTHESIZE ASSESSMENT:
C. Write the overall assessment based on the issues and strengths found.

STEP 4 - PROVIDE RECOMMENDATIONS:
D. List concrete improvements ordered by impact. Exclude low-impact items unless the chunk scores above 80.

STEP 5 - CALCULATE SCORE:
E. Start at 95. Deduct per issue: minor -5, moderate -10, severe -20.
   Any severe issue caps the score at 65; three or more moderate issues cap it at 75.
   No issues at all means 100. Final bounds: min 10, max 100.

STEP 6 - DETERMINE PASSING:
F. passing = score >= threshold (typically 75).

STEP 7 - CHUNK METADATA:
G. Set chunk_type from: explanation | procedure | reference | example | overview | mixed
H. List 3-8 likely_queries this chunk could answer.

Rules:
- Barriers dominate scoring; never compensate with informativeness.
- Build reasoning progressively: issues, then assessment, then score.
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
	"required": ["issues", "strengths", "assessment", "recommendations", "score", "passing", "chunk_type", "likely_queries"],
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
		"passing": {"type": "boolean"},
		"chunk_type": {"type": "string", "enum": ["explanation", "procedure", "reference", "example", "overview", "mixed"]},
		"likely_queries": {"type": "array", "items": {"type": "string"}, "minItems": 3, "maxItems": 8}
	}
}`
