// internal/assessors/queryanswer/assessor.go

// Package queryanswer assesses how completely a chunk answers the user
// queries it is likely to be retrieved for. It is the strictest of the four
// dimensions: quality gates cap the score for barrier types that break
// query-answer alignment, and severe gate issues veto the composite verdict.
package queryanswer

import (
	"context"
	"encoding/json"
	"errors"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/reasoning"
)

const AssessorName = "query_answer"

// Dimension is the catalog description of what this assessor measures.
const Dimension = "how completely the chunk answers the queries it is likely to be retrieved for"

// Defensive caps on answer list fields.
const (
	maxIssues          = 10
	maxStrengths       = 5
	maxRecommendations = 5
	maxLikelyQueries   = 8
)

// gateCaps lowers the score for barrier types that defeat query-answer
// matching, at moderate or worse severity.
var gateCaps = map[string]int{
	"vague_refs":         50,
	"misleading_headers": 50,
	"wall_of_text":       45,
	"topic_confusion":    50,
}

// hardGateBarriers lists the barrier types whose severe issues veto the
// composite verdict.
var hardGateBarriers = []string{
	"vague_refs",
	"misleading_headers",
	"wall_of_text",
	"topic_confusion",
}

// Reasoner is the single reasoning exchange the assessor depends on.
type Reasoner interface {
	Ask(ctx context.Context, q *reasoning.Question) (json.RawMessage, error)
}

// Logger interface definition
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Assessor struct {
	config   *Config
	reasoner Reasoner
	logger   Logger
	policy   assessment.PolicyFunc
}

func NewAssessor(config *Config, reasoner Reasoner, log Logger) *Assessor {
	return &Assessor{
		config:   config,
		reasoner: reasoner,
		logger:   log,
		policy:   assessment.GatedThresholdPolicy(config.Threshold, hardGateBarriers...),
	}
}

func (a *Assessor) Name() string {
	return AssessorName
}

// ResponseSchema returns the JSON Schema every answer must satisfy.
func ResponseSchema() json.RawMessage {
	return json.RawMessage(responseSchema)
}

// HardGateBarriers returns the barrier types whose severe issues veto the
// composite verdict.
func HardGateBarriers() []string {
	return append([]string(nil), hardGateBarriers...)
}

// Assess runs one reasoning exchange for the chunk and maps the structured
// answer onto the canonical result shape.
func (a *Assessor) Assess(ctx context.Context, chunk *assessment.Chunk) (*assessment.Result, error) {
	text := assessment.TruncateForPrompt(chunk.Text, a.config.TruncationLength)

	raw, err := a.reasoner.Ask(ctx, &reasoning.Question{
		System:         systemPrompt(),
		Prompt:         buildPrompt(chunk.Heading, text),
		ResponseSchema: json.RawMessage(responseSchema),
	})
	if err != nil {
		return nil, a.wrapError(err)
	}

	if err := reasoning.Validate(responseSchema, raw); err != nil {
		return nil, assessment.NewAssessorError(AssessorName, assessment.ErrorKindSchemaInvalid, err.Error(), err)
	}

	var answer Answer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, assessment.NewAssessorError(AssessorName, assessment.ErrorKindSchemaInvalid, "decode answer: "+err.Error(), err)
	}

	result := a.normalize(&answer)

	a.logger.Debug("assessment complete", map[string]interface{}{
		"assessor":   AssessorName,
		"score":      result.Score,
		"passing":    result.Passing,
		"issueCount": len(result.Issues),
	})

	return result, nil
}

// normalize converts the wire answer into a Result, reapplying the scoring
// rules the prompt asks for so a verdict never rides on an unfilled field.
func (a *Assessor) normalize(answer *Answer) *assessment.Result {
	issues := convertIssues(capIssues(answer.Issues))

	score := assessment.ClampScore(answer.Score)
	if answer.Score == 0 && len(issues) > 0 {
		score = assessment.ScoreFromIssues(issues)
		a.logger.Warn("zero score with issues present, rescored from issues", map[string]interface{}{
			"assessor": AssessorName,
			"rescored": score,
		})
	}
	score = assessment.ApplyScoreCaps(score, issues, gateCaps)
	issues = assessment.MarkHardGates(issues, hardGateBarriers)

	return &assessment.Result{
		Name:            AssessorName,
		Score:           score,
		Passing:         a.policy(score, issues),
		Issues:          issues,
		Strengths:       capStrings(answer.Strengths, maxStrengths),
		Assessment:      answer.Assessment,
		Recommendations: capStrings(answer.Recommendations, maxRecommendations),
		SchemaVersion:   assessment.SchemaQueryAware,
		ChunkType:       answer.ChunkType,
		LikelyQueries:   capStrings(answer.LikelyQueries, maxLikelyQueries),
	}
}

func (a *Assessor) wrapError(err error) *assessment.AssessorError {
	switch {
	case errors.Is(err, reasoning.ErrTimeout) || errors.Is(err, context.DeadlineExceeded):
		return assessment.NewAssessorError(AssessorName, assessment.ErrorKindTimeout, "reasoning call timed out", err)
	case errors.Is(err, reasoning.ErrRefusal):
		return assessment.NewAssessorError(AssessorName, assessment.ErrorKindRefusal, err.Error(), err)
	case errors.Is(err, reasoning.ErrSchemaMismatch):
		return assessment.NewAssessorError(AssessorName, assessment.ErrorKindSchemaInvalid, err.Error(), err)
	default:
		return assessment.NewAssessorError(AssessorName, assessment.ErrorKindTransport, err.Error(), err)
	}
}

func capIssues(issues []AnswerIssue) []AnswerIssue {
	if len(issues) > maxIssues {
		return issues[:maxIssues]
	}
	return issues
}

func capStrings(values []string, max int) []string {
	if len(values) > max {
		return values[:max]
	}
	return values
}

func convertIssues(raw []AnswerIssue) []assessment.Issue {
	issues := make([]assessment.Issue, 0, len(raw))
	for _, issue := range raw {
		issues = append(issues, assessment.Issue{
			BarrierType: issue.BarrierType,
			Severity:    assessment.Severity(issue.Severity),
			Description: issue.Description,
			Evidence:    issue.Evidence,
		})
	}
	return issues
}
