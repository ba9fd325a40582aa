// internal/assessors/structure/assessor.go

// Package structure assesses formatting and scannability of a chunk.
package structure

import (
	"context"
	"encoding/json"
	"errors"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/reasoning"
)

const AssessorName = "structure_quality"

// Dimension is the catalog description of what this assessor measures.
const Dimension = "formatting and scannability of the chunk body"

const (
	maxIssues          = 10
	maxStrengths       = 5
	maxRecommendations = 5
)

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
		policy:   assessment.ThresholdPolicy(config.Threshold),
	}
}

func (a *Assessor) Name() string {
	return AssessorName
}

// ResponseSchema returns the JSON Schema every answer must satisfy.
func ResponseSchema() json.RawMessage {
	return json.RawMessage(responseSchema)
}

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
		"score":      result.Score,
		"passing":    result.Passing,
		"issueCount": len(result.Issues),
	})

	return result, nil
}

func (a *Assessor) normalize(answer *Answer) *assessment.Result {
	issues := convertIssues(answer.Issues)
	if len(issues) > maxIssues {
		issues = issues[:maxIssues]
	}

	score := assessment.ClampScore(answer.Score)
	if answer.Score == 0 && len(issues) > 0 {
		score = assessment.ScoreFromIssues(issues)
		a.logger.Warn("zero score with issues present, rescored from issues", map[string]interface{}{
			"rescored": score,
		})
	}

	return &assessment.Result{
		Name:            AssessorName,
		Score:           score,
		Passing:         a.policy(score, issues),
		Issues:          issues,
		Strengths:       capStrings(answer.Strengths, maxStrengths),
		Assessment:      answer.Assessment,
		Recommendations: capStrings(answer.Recommendations, maxRecommendations),
		SchemaVersion:   assessment.SchemaBase,
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
