// internal/report/generator_test.go
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/common/config"
	"chunk-auditor/internal/pipeline"
	"chunk-auditor/internal/render"
)

// ==========================
// Test Helper Functions
// ==========================

func testReportingConfig(outDir string) config.ReportingConfig {
	return config.ReportingConfig{
		Format:    FormatBoth,
		OutputDir: outDir,
		Verbosity: "normal",
		MaxItems:  5,
	}
}

// reportFixture builds a three-chunk run: one well optimized, one poorly
// optimized and degraded, one whose evaluation failed outright.
func reportFixture(t *testing.T) *RunReport {
	t.Helper()
	opts := render.DefaultOptions()

	fragmentIssue := assessment.Issue{
		BarrierType: "fragmented_info",
		Severity:    assessment.SeverityModerate,
		Description: "steps continue in the next section",
	}

	comp0 := healthyComposite("section_0", 85)
	_, rec0, err := render.Render(comp0, opts)
	require.NoError(t, err)

	comp1 := degradedComposite("section_1", 45, fragmentIssue)
	_, rec1, err := render.Render(comp1, opts)
	require.NoError(t, err)

	chunks := []ChunkReport{
		{
			Index:       0,
			ChunkID:     "section_0",
			Heading:     "Getting started",
			TextPreview: "The widget service schedules batch jobs across regions.",
			WordCount:   9,
			Record:      rec0,
			Composite:   comp0,
		},
		{
			Index:       1,
			ChunkID:     "section_1",
			Heading:     "Footer",
			TextPreview: "See above for details.",
			WordCount:   4,
			Record:      rec1,
			Composite:   comp1,
		},
		{
			Index:   2,
			ChunkID: "section_2",
			Heading: "Broken",
			Err:     "ALL_ASSESSORS_FAILED: query_answer=transport",
		},
	}

	skipped := []pipeline.SkippedChunk{
		{ID: "section_3", Heading: "Legal", Reason: `matched skip pattern "all rights reserved"`},
	}

	totals := summarize(chunks, len(skipped))
	return &RunReport{
		RunID:       "run-0001",
		StartedAt:   "2026-08-21T10:00:00Z",
		CompletedAt: "2026-08-21T10:00:05Z",
		Source: SourceInfo{
			Origin: "https://docs.example.com/guide",
			Type:   "markdown",
			Title:  "Widget Handbook",
		},
		Totals:  totals,
		Passing: totals.FailedChunks == 0 && totals.PassingChunks == totals.TotalChunks,
		Chunks:  chunks,
		Skipped: skipped,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestGenerator_Markdown(t *testing.T) {
	gen := NewGenerator(testReportingConfig(t.TempDir()), NewTestLogger(t))
	report := reportFixture(t)

	md := gen.Markdown(report)

	assert.Contains(t, md, "# Chunk Retrieval Readiness Audit Report")
	assert.Contains(t, md, "- **Origin**: https://docs.example.com/guide")
	assert.Contains(t, md, "- **Title**: Widget Handbook")

	assert.Contains(t, md, "## Executive Summary")
	assert.Contains(t, md, "- **Total Chunks**: 3")
	assert.Contains(t, md, "- **Average Score**: 65.0/100")
	assert.Contains(t, md, "- **Passing Chunks**: 1/3 (33.3%)")
	assert.Contains(t, md, "- **Skipped Chunks**: 1 (filtered before evaluation)")
	assert.Contains(t, md, "- **Degraded Chunks**: 1 (partial assessor coverage)")
	assert.Contains(t, md, "- **Failed Evaluations**: 1")

	assert.Contains(t, md, "### Score Distribution")
	assert.Contains(t, md, "- 🟢 **Well Optimized** (≥80): 1 chunks")
	assert.Contains(t, md, "- 🟡 **Needs Work** (60-79): 0 chunks")
	assert.Contains(t, md, "- 🔴 **Poorly Optimized** (<60): 1 chunks")

	assert.Contains(t, md, "## How to Read This Report")

	assert.Contains(t, md, "## Chunk Performance Overview")
	assert.Contains(t, md, "| # | Chunk Heading | Overall | Q-A | Struct | Status |")
	assert.Contains(t, md, "| 1 | [Getting started](#chunk-1-getting-started) | 85 | 85 | 85 | 🟢 Well optimized |")
	assert.Contains(t, md, "| 2 | [Footer](#chunk-2-footer) | 45 | 45 | — | 🔴 Poorly optimized |")
	assert.Contains(t, md, "| 3 | [Broken](#chunk-3-broken) | — | — | — | ⚠️ Evaluation failed |")

	assert.Contains(t, md, "## Detailed Chunk Analysis")
	assert.Contains(t, md, "### Chunk 1: Getting started {#chunk-1-getting-started}")
	assert.Contains(t, md, "⭐ **Overall Score:** 85/100 ✅ - Well Optimized")
	assert.Contains(t, md, "**Chunk Content**:")
	assert.Contains(t, md, "The widget service schedules batch jobs across regions.")
	assert.Contains(t, md, "### Chunk 3: Broken {#chunk-3-broken}")
	assert.Contains(t, md, "**Evaluation failed**: ALL_ASSESSORS_FAILED")

	assert.Contains(t, md, "## Skipped Chunks")
	assert.Contains(t, md, "- `section_3` Legal: matched skip pattern \"all rights reserved\"")
}

func TestGenerator_JSON(t *testing.T) {
	gen := NewGenerator(testReportingConfig(t.TempDir()), NewTestLogger(t))
	report := reportFixture(t)

	data, err := gen.JSON(report)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "run-0001", decoded["run_id"])

	summary, ok := decoded["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), summary["total_chunks"])
	assert.Equal(t, float64(1), summary["passing_chunks"])

	chunks, ok := decoded["chunks"].([]interface{})
	require.True(t, ok)
	require.Len(t, chunks, 3)

	first, ok := chunks[0].(map[string]interface{})
	require.True(t, ok)
	record, ok := first["record"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(85), record["overall_score"])
	assert.NotEmpty(t, record["human_view"])

	failed, ok := chunks[2].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, failed["error"], "ALL_ASSESSORS_FAILED")
	_, hasRecord := failed["record"]
	assert.False(t, hasRecord)
}

func TestGenerator_Summary(t *testing.T) {
	gen := NewGenerator(testReportingConfig(t.TempDir()), NewTestLogger(t))
	report := reportFixture(t)

	summary := gen.Summary(report)

	assert.Contains(t, summary, "CHUNK AUDIT SUMMARY")
	assert.Contains(t, summary, "Source: https://docs.example.com/guide")
	assert.Contains(t, summary, "Date: 2026-08-21 10:00:05")
	assert.Contains(t, summary, "Total Chunks: 3")
	assert.Contains(t, summary, "Average Score: 65.0/100")
	assert.Contains(t, summary, "Passing Rate: 33.3%")
	assert.Contains(t, summary, "Failed Evaluations: 1")
	assert.Contains(t, summary, "Well Optimized (≥80): 1")
	assert.Contains(t, summary, "TOP ISSUES")
	assert.Contains(t, summary, "- fragmented_info: 1x")
	assert.Contains(t, summary, "CHUNKS NEEDING MOST ATTENTION")
	assert.Contains(t, summary, "- Chunk 2: Footer (45/100)")
	assert.Contains(t, summary, "  Fix: Name the subject in the first sentence.")

	// Worst chunks are listed lowest score first.
	footerPos := strings.Index(summary, "Chunk 2: Footer")
	startedPos := strings.Index(summary, "Chunk 1: Getting started")
	require.GreaterOrEqual(t, footerPos, 0)
	require.GreaterOrEqual(t, startedPos, 0)
	assert.Less(t, footerPos, startedPos)
}

func TestGenerator_WriteReports_Both(t *testing.T) {
	outDir := t.TempDir()
	gen := NewGenerator(testReportingConfig(outDir), NewTestLogger(t))
	report := reportFixture(t)

	files, err := gen.WriteReports(report)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "audit_docs-example-com_20260821_100005.md", filepath.Base(files[FormatMarkdown]))
	assert.Equal(t, "audit_docs-example-com_20260821_100005.json", filepath.Base(files[FormatJSON]))

	mdData, err := os.ReadFile(files[FormatMarkdown])
	require.NoError(t, err)
	assert.Contains(t, string(mdData), "# Chunk Retrieval Readiness Audit Report")

	jsonData, err := os.ReadFile(files[FormatJSON])
	require.NoError(t, err)
	var decoded map[string]interface{}
	assert.NoError(t, json.Unmarshal(jsonData, &decoded))
}

func TestGenerator_WriteReports_MarkdownOnly(t *testing.T) {
	cfg := testReportingConfig(t.TempDir())
	cfg.Format = FormatMarkdown
	gen := NewGenerator(cfg, NewTestLogger(t))

	files, err := gen.WriteReports(reportFixture(t))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files, FormatMarkdown)
}

func TestGenerator_WriteReports_UnknownFormat(t *testing.T) {
	cfg := testReportingConfig(t.TempDir())
	cfg.Format = "pdf"
	gen := NewGenerator(cfg, NewTestLogger(t))

	_, err := gen.WriteReports(reportFixture(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdf")
}

// ==========================
// Unit Tests
// ==========================

func TestAnchorID(t *testing.T) {
	tests := []struct {
		name    string
		num     int
		heading string
		want    string
	}{
		{"simple heading", 1, "Getting Started", "chunk-1-getting-started"},
		{"punctuation stripped", 2, "What's new? (2026)", "chunk-2-whats-new-2026"},
		{"empty heading", 3, "", "chunk-3"},
		{"symbols only", 4, "???", "chunk-4"},
		{"long heading capped", 5, strings.Repeat("section name ", 10), "chunk-5-" + strings.Repeat("section-name-", 10)[:50]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, anchorID(tt.num, tt.heading))
		})
	}
}

func TestBaseName(t *testing.T) {
	report := &RunReport{
		CompletedAt: "2026-08-21T10:00:05Z",
		Source:      SourceInfo{Origin: "https://www.example.com/guide"},
	}
	assert.Equal(t, "audit_example-com_20260821_100005", baseName(report))

	report.Source.Origin = "inline"
	assert.Equal(t, "audit_20260821_100005", baseName(report))

	report.Source.Origin = "/tmp/handbook.md"
	assert.Equal(t, "audit_20260821_100005", baseName(report))
}

func TestWorstChunks_FilterCapsAtThree(t *testing.T) {
	var chunks []ChunkReport
	for i, score := range []int{90, 30, 60, 75} {
		comp := healthyComposite("c", score)
		_, rec, err := render.Render(comp, render.DefaultOptions())
		require.NoError(t, err)
		chunks = append(chunks, ChunkReport{Index: i, Record: rec})
	}
	report := &RunReport{Chunks: chunks}

	capped := worstChunks(report, true)
	require.Len(t, capped, 3)
	assert.Equal(t, 30, capped[0].Record.OverallScore)
	assert.Equal(t, 60, capped[1].Record.OverallScore)
	assert.Equal(t, 75, capped[2].Record.OverallScore)

	full := worstChunks(report, false)
	require.Len(t, full, 4)
	assert.Equal(t, 90, full[3].Record.OverallScore)
}
