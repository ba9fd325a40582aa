// test/e2e/e2e_test.go

// End-to-end tests driving the whole stack against a fake reasoning service:
// document pipeline, concurrent composite evaluation, run aggregation and
// report generation, with no external dependencies.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/assessors/entityfocus"
	"chunk-auditor/internal/assessors/queryanswer"
	"chunk-auditor/internal/assessors/rubric"
	"chunk-auditor/internal/assessors/structure"
	"chunk-auditor/internal/common/config"
	commonhttp "chunk-auditor/internal/common/http"
	"chunk-auditor/internal/composite"
	"chunk-auditor/internal/pipeline"
	"chunk-auditor/internal/reasoning"
	"chunk-auditor/internal/render"
	"chunk-auditor/internal/report"
)

// ==========================
// Test Logger Implementation
// ==========================

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t *testing.T
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Debug(msg string, fields map[string]interface{}) {
	l.t.Logf("DEBUG: %s %v", msg, fields)
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

// ==========================
// Fake Reasoning Service
// ==========================

// reasoningFake answers every assessor question with a canned verdict. The
// assessor is identified from the question itself (response schema fields,
// then system prompt), the same way a real service would see it.
type reasoningFake struct {
	scores map[string]int
	// refusals maps assessor name to a refusal reason; matching questions
	// get a refusal envelope instead of an answer.
	refusals map[string]string
	// severeIssues maps assessor name to a barrier type reported as one
	// severe issue alongside the canned score.
	severeIssues map[string]string
}

type askRequest struct {
	System         string          `json:"system"`
	Prompt         string          `json:"prompt"`
	ResponseSchema json.RawMessage `json:"response_schema"`
	Temperature    float64         `json:"temperature"`
}

func classify(req *askRequest) string {
	schema := string(req.ResponseSchema)
	switch {
	case strings.Contains(schema, `"likely_queries"`):
		return queryanswer.AssessorName
	case strings.Contains(schema, `"entity_coverage"`):
		return entityfocus.AssessorName
	case strings.Contains(req.System, "structural quality"):
		return structure.AssessorName
	default:
		return rubric.AssessorName
	}
}

func (f *reasoningFake) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/answers", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req askRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Zero(t, req.Temperature, "assessors must request the lowest-variance sampling mode")

		name := classify(&req)

		w.Header().Set("Content-Type", "application/json")

		if reason, ok := f.refusals[name]; ok {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":      "resp-" + name,
				"model":   "test-reasoner",
				"refusal": reason,
			})
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "resp-" + name,
			"model":  "test-reasoner",
			"output": f.answer(name),
		})
	}
}

// answer builds a schema-valid canned answer for the named assessor.
func (f *reasoningFake) answer(name string) map[string]interface{} {
	score := f.scores[name]

	issues := []map[string]interface{}{}
	if barrier, ok := f.severeIssues[name]; ok {
		issues = append(issues, map[string]interface{}{
			"barrier_type": barrier,
			"severity":     "severe",
			"description":  "the chunk cannot stand alone",
			"evidence":     "as mentioned above",
		})
	}

	answer := map[string]interface{}{
		"issues":          issues,
		"strengths":       []string{"clear topic sentence", "concrete example"},
		"assessment":      fmt.Sprintf("Canned %s verdict for testing.", name),
		"recommendations": []string{"add a definition for the acronym"},
		"score":           score,
		"passing":         score >= 70,
	}

	switch name {
	case queryanswer.AssessorName:
		answer["chunk_type"] = "explanation"
		answer["likely_queries"] = []string{
			"how do I configure the cache",
			"what is the default cache ttl",
			"where does the audit report go",
		}
	case entityfocus.AssessorName:
		answer["entities"] = []map[string]interface{}{
			{"text": "cache.ttl", "type": "concept", "specificity": "specific"},
		}
		answer["primary_topic"] = "cache configuration"
		answer["entity_coverage"] = 0.8
	}

	return answer
}

// ==========================
// Stack Assembly
// ==========================

type stack struct {
	pipe      *pipeline.Pipeline
	runner    *report.Runner
	generator *report.Generator
	outDir    string
}

func newStack(t *testing.T, serviceURL string) *stack {
	t.Helper()
	log := NewTestLogger(t)

	cfg := &config.Config{
		Chunking: config.ChunkingConfig{
			HeaderBased:     true,
			TargetChunkSize: 1500,
			MaxChunkSize:    4000,
			MinChunkSize:    40,
		},
		Filtering: config.FilteringConfig{
			Enabled:      true,
			MinWords:     5,
			SkipPatterns: []string{`copyright|all rights reserved`},
		},
	}

	reasoner := reasoning.NewClient(&reasoning.Config{
		BaseURL:         serviceURL,
		APIKey:          "test-key",
		Model:           "test-reasoner",
		Timeout:         5 * time.Second,
		MaxOutputTokens: 2000,
	}, log)

	qaCfg := queryanswer.LoadConfig()
	qaCfg.Timeout = 5 * time.Second
	ruCfg := rubric.LoadConfig()
	ruCfg.Timeout = 5 * time.Second
	efCfg := entityfocus.LoadConfig()
	efCfg.Timeout = 5 * time.Second
	sqCfg := structure.LoadConfig()
	sqCfg.Timeout = 5 * time.Second

	registrations := []composite.Registration{
		{Assessor: queryanswer.NewAssessor(qaCfg, reasoner, log), Weight: 0.25, Timeout: qaCfg.Timeout},
		{Assessor: rubric.NewAssessor(ruCfg, reasoner, log), Weight: 0.25, Timeout: ruCfg.Timeout},
		{Assessor: entityfocus.NewAssessor(efCfg, reasoner, log), Weight: 0.25, Timeout: efCfg.Timeout},
		{Assessor: structure.NewAssessor(sqCfg, reasoner, log), Weight: 0.25, Timeout: sqCfg.Timeout},
	}

	orchestrator, err := composite.New(
		&composite.Config{Threshold: 70, Policy: composite.PolicyVeto},
		registrations, nil, log,
	)
	require.NoError(t, err)

	pipe, err := pipeline.New(cfg, commonhttp.NewClient(5*time.Second), log)
	require.NoError(t, err)

	runner, err := report.NewRunner(orchestrator, render.FormattingOptions{
		Verbosity: render.VerbosityDetailed,
		MaxItems:  5,
	}, 2, log)
	require.NoError(t, err)

	outDir := t.TempDir()
	generator := report.NewGenerator(config.ReportingConfig{
		Format:    report.FormatBoth,
		OutputDir: outDir,
		Verbosity: "detailed",
	}, log)

	return &stack{pipe: pipe, runner: runner, generator: generator, outDir: outDir}
}

const sampleDocument = `This guide explains how the audit service caches verdicts and how to deploy it safely.

## Configuring the cache

Set the TTL in seconds under cache.ttl in the config file. The default is 3600 seconds,
which keeps verdicts for one hour. Lower values trade recomputation cost for freshness.

## Deployment checklist

Run the registry sync tool before every release, confirm the health endpoint answers,
and watch the composite score histogram for the first hour after rollout.

## Legal

Copyright 2026 Example Corp. All rights reserved.
`

// ==========================
// End-to-End Tests
// ==========================

func TestEndToEnd_FullAudit(t *testing.T) {
	fake := &reasoningFake{
		scores: map[string]int{
			queryanswer.AssessorName: 85,
			rubric.AssessorName:      85,
			entityfocus.AssessorName: 85,
			structure.AssessorName:   85,
		},
	}
	ts := httptest.NewServer(fake.handler(t))
	defer ts.Close()

	st := newStack(t, ts.URL)

	batch, err := st.pipe.ProcessString(sampleDocument)
	require.NoError(t, err)
	require.NotEmpty(t, batch.Chunks)
	require.Len(t, batch.Skipped, 1, "the copyright section should be filtered before any assessor call")

	runReport, err := st.runner.Run(context.Background(), batch)
	require.NoError(t, err)

	assert.NotEmpty(t, runReport.RunID)
	assert.Equal(t, len(batch.Chunks), runReport.Totals.TotalChunks)
	assert.Equal(t, 1, runReport.Totals.SkippedChunks)
	assert.Zero(t, runReport.Totals.FailedChunks)
	assert.True(t, runReport.Passing)

	for _, cr := range runReport.Chunks {
		require.NotNil(t, cr.Record, "chunk %d should carry a verdict", cr.Index)
		assert.Equal(t, 85, cr.Record.OverallScore)
		assert.True(t, cr.Record.OverallPassing)
		assert.False(t, cr.Record.Degraded)
		assert.Len(t, cr.Record.PerAssessor, 4)

		weightSum := 0.0
		for _, w := range cr.Record.EffectiveWeights {
			weightSum += w
		}
		assert.InDelta(t, 1.0, weightSum, 1e-6)

		assert.Contains(t, cr.Record.HumanView, "85/100")
	}

	files, err := st.generator.WriteReports(runReport)
	require.NoError(t, err)
	require.Len(t, files, 2)

	md, err := os.ReadFile(files[report.FormatMarkdown])
	require.NoError(t, err)
	assert.Contains(t, string(md), "Audit Report")
	assert.Contains(t, string(md), "Skipped Chunks")

	raw, err := os.ReadFile(files[report.FormatJSON])
	require.NoError(t, err)
	var decoded report.RunReport
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, runReport.RunID, decoded.RunID)
	assert.Equal(t, runReport.Totals.TotalChunks, decoded.Totals.TotalChunks)

	for _, path := range files {
		assert.Equal(t, st.outDir, filepath.Dir(path))
	}
}

func TestEndToEnd_DegradedRun(t *testing.T) {
	fake := &reasoningFake{
		scores: map[string]int{
			queryanswer.AssessorName: 80,
			rubric.AssessorName:      60,
			structure.AssessorName:   90,
		},
		refusals: map[string]string{
			entityfocus.AssessorName: "content policy",
		},
	}
	ts := httptest.NewServer(fake.handler(t))
	defer ts.Close()

	st := newStack(t, ts.URL)

	batch, err := st.pipe.ProcessString("The audit service caches verdicts in Redis keyed by chunk fingerprint, so repeated runs over unchanged content cost nothing.")
	require.NoError(t, err)
	require.Len(t, batch.Chunks, 1)

	runReport, err := st.runner.Run(context.Background(), batch)
	require.NoError(t, err)

	record := runReport.Chunks[0].Record
	require.NotNil(t, record)

	// Weights renormalize over the three survivors: round((80+60+90)/3) = 77.
	assert.Equal(t, 77, record.OverallScore)
	assert.True(t, record.OverallPassing)
	assert.True(t, record.Degraded)

	outcome := record.PerAssessor[entityfocus.AssessorName]
	require.False(t, outcome.Succeeded())
	assert.Equal(t, assessment.ErrorKindRefusal, outcome.Failure.Kind)
	assert.Zero(t, record.EffectiveWeights[entityfocus.AssessorName])

	weightSum := 0.0
	for _, w := range record.EffectiveWeights {
		weightSum += w
	}
	assert.InDelta(t, 1.0, weightSum, 1e-6)

	assert.Equal(t, 1, runReport.Totals.DegradedChunks)
	assert.Contains(t, record.HumanView, "Degraded")
}

func TestEndToEnd_SevereIssueVeto(t *testing.T) {
	fake := &reasoningFake{
		scores: map[string]int{
			queryanswer.AssessorName: 85,
			rubric.AssessorName:      90,
			entityfocus.AssessorName: 90,
			structure.AssessorName:   90,
		},
		severeIssues: map[string]string{
			queryanswer.AssessorName: "vague_refs",
		},
	}
	ts := httptest.NewServer(fake.handler(t))
	defer ts.Close()

	st := newStack(t, ts.URL)

	batch, err := st.pipe.ProcessString("As mentioned above, the process continues the same way and the remaining settings follow the earlier pattern.")
	require.NoError(t, err)
	require.Len(t, batch.Chunks, 1)

	runReport, err := st.runner.Run(context.Background(), batch)
	require.NoError(t, err)

	record := runReport.Chunks[0].Record
	require.NotNil(t, record)

	// The severe vague_refs issue caps query_answer at 50, so the blend is
	// round(0.25*50 + 0.25*90*3) = 80: above the threshold, yet the hard
	// gate still vetoes the verdict.
	assert.Equal(t, 80, record.OverallScore)
	assert.False(t, record.OverallPassing)
	assert.False(t, record.Degraded)

	qa := record.PerAssessor[queryanswer.AssessorName]
	require.True(t, qa.Succeeded())
	assert.Equal(t, 50, qa.Result.Score)
	require.NotEmpty(t, qa.Result.HardGateViolations())

	assert.Zero(t, runReport.Totals.PassingChunks)
	assert.False(t, runReport.Passing)
}
