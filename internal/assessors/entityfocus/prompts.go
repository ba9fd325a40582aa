// internal/assessors/entityfocus/prompts.go
package entityfocus

import (
	"fmt"
	"strings"

	"chunk-auditor/internal/assessment"
)

func systemPrompt() string {
	return `Extract entities and evaluate focus coherence for RAG retrieval. Follow the exact order for chain-of-thought reasoning.

Entity Types:
- person: people, authors, developers, researchers
- org: organizations, companies, institutions
- product: software products, tools, services
- concept: abstract concepts, principles, ideas
- location: places, regions, facilities
- other: anything that fits no other type

Specificity Levels:
- specific: concrete or named instances (e.g., "PostgreSQL", "relational database")
- generic: broad terms (e.g., "database", "software")

Algorithm (follow this exact order):

STEP 1 - IDENTIFY ISSUES:
A. Analyze entity-related problems and create the issues list. Common barriers:
   missing critical entities, poor entity alignment with the topic, overly generic
   entities, entity sprawl across unrelated subjects, unclear entity relationships.
   For each issue set barrier_type, severity (minor | moderate | severe), description, evidence.

STEP 2 - IDENTIFY STRENGTHS:
B. List entity-related strengths (good coverage, clear focus, specific entities).

STEP 3 - SYNTHESIZE ASSESSMENT:
C. Write the overall assessment of entity focus and coherence.

STEP 4 - PROVIDE RECOMMENDATIONS:
D. List specific improvements for entity clarity and focus.

STEP 5 - CALCULATE SCORE:
E. Start at 95. Deduct per issue: minor -5, moderate -10, severe -20.
   Any severe issue caps the score at 65; three or more moderate issues cap it at 75.
   No issues at all means 100. Final bounds: min 10, max 100.

STEP 6 - DETERMINE PASSING:
F. passing = score >= threshold (typically 70).

STEP 7 - ENTITY METADATA:
G. Extract the entities list with text, type, and specificity, exactly as they appear in the text.
H. Identify the primary_topic of the chunk.
I. Calculate entity_coverage, the 0.0-1.0 ratio of critical entities actually present.

Rules:
- Focus on entity clarity and alignment for RAG retrieval.
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
	"required": ["issues", "strengths", "assessment", "recommendations", "score", "passing", "entities", "primary_topic", "entity_coverage"],
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
		"entities": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["text", "type", "specificity"],
				"properties": {
					"text": {"type": "string"},
					"type": {"type": "string", "enum": ["person", "org", "product", "concept", "location", "other"]},
					"specificity": {"type": "string", "enum": ["specific", "generic"]}
				}
			}
		},
		"primary_topic": {"type": "string"},
		"entity_coverage": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`
