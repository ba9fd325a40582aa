// internal/report/runner.go

// Package report drives a full audit run: every kept chunk is evaluated under
// bounded concurrency, the verdicts are aggregated into run totals, and the
// result is fanned out to the configured sinks (report files, Postgres,
// Elasticsearch, notifications).
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/composite"
	"chunk-auditor/internal/pipeline"
	"chunk-auditor/internal/render"
)

const (
	defaultMaxConcurrentChunks = 3
	previewLength              = 500
)

// Logger interface definition
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// SourceInfo describes where the audited content came from.
type SourceInfo struct {
	Origin string `json:"origin"`
	Type   string `json:"type"`
	Title  string `json:"title,omitempty"`
}

// ChunkReport is the per-chunk slice of a run: the evaluated chunk, its
// machine record and, when evaluation failed outright, the error text.
type ChunkReport struct {
	Index       int            `json:"index"`
	ChunkID     string         `json:"chunk_id,omitempty"`
	Heading     string         `json:"heading,omitempty"`
	TextPreview string         `json:"text_preview,omitempty"`
	WordCount   int            `json:"word_count"`
	Record      *render.Record `json:"record,omitempty"`
	Err         string         `json:"error,omitempty"`

	// Composite keeps the raw verdict reachable for in-process consumers.
	// The serialized form lives in Record.
	Composite *composite.CompositeResult `json:"-"`
}

// IssueCount is one aggregated issue row, keyed by barrier type.
type IssueCount struct {
	BarrierType string `json:"barrier_type"`
	Count       int    `json:"count"`
}

// Totals are the run-level aggregates.
type Totals struct {
	TotalChunks     int            `json:"total_chunks"`
	PassingChunks   int            `json:"passing_chunks"`
	PassingRate     float64        `json:"passing_rate"`
	AverageScore    float64        `json:"average_score"`
	WellOptimized   int            `json:"well_optimized"`
	NeedsWork       int            `json:"needs_work"`
	PoorlyOptimized int            `json:"poorly_optimized"`
	DegradedChunks  int            `json:"degraded_chunks"`
	FailedChunks    int            `json:"failed_chunks"`
	SkippedChunks   int            `json:"skipped_chunks"`
	AssessorPasses  map[string]int `json:"assessor_passes,omitempty"`
	TopIssues       []IssueCount   `json:"top_issues,omitempty"`
}

// RunReport is the complete outcome of one audit run.
type RunReport struct {
	RunID       string                  `json:"run_id"`
	StartedAt   string                  `json:"started_at"`
	CompletedAt string                  `json:"completed_at"`
	Source      SourceInfo              `json:"source"`
	Totals      Totals                  `json:"summary"`
	Passing     bool                    `json:"passing"`
	Chunks      []ChunkReport           `json:"chunks"`
	Skipped     []pipeline.SkippedChunk `json:"skipped_chunks,omitempty"`
}

// Runner evaluates every chunk of a batch and assembles the run report.
type Runner struct {
	evaluator     composite.Evaluator
	opts          render.FormattingOptions
	maxConcurrent int
	logger        Logger
}

// NewRunner validates the rendering options up front so Run never has to
// surface a formatting error per chunk. A non-positive concurrency bound
// falls back to the default.
func NewRunner(evaluator composite.Evaluator, opts render.FormattingOptions, maxConcurrent int, log Logger) (*Runner, error) {
	if opts.Verbosity == "" {
		opts.Verbosity = render.DefaultOptions().Verbosity
	}
	if !opts.Verbosity.Valid() {
		return nil, fmt.Errorf("unknown verbosity %q", opts.Verbosity)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentChunks
	}
	return &Runner{
		evaluator:     evaluator,
		opts:          opts,
		maxConcurrent: maxConcurrent,
		logger:        log,
	}, nil
}

// Run evaluates every chunk in the batch and returns the assembled report.
// Chunk order in the report follows document order regardless of completion
// order. A canceled context discards the whole run; per-chunk evaluation
// failures are recorded and the remaining chunks still complete.
func (r *Runner) Run(ctx context.Context, batch *pipeline.Batch) (*RunReport, error) {
	runID := uuid.New().String()
	startedAt := time.Now().UTC()

	r.logger.Info("audit run started", map[string]interface{}{
		"runId":         runID,
		"chunks":        len(batch.Chunks),
		"skipped":       len(batch.Skipped),
		"maxConcurrent": r.maxConcurrent,
	})

	if len(batch.Chunks) == 0 {
		r.logger.Warn("no chunks to evaluate", map[string]interface{}{
			"runId":   runID,
			"skipped": len(batch.Skipped),
		})
	}

	reports := make([]ChunkReport, len(batch.Chunks))
	sem := make(chan struct{}, r.maxConcurrent)
	var wg sync.WaitGroup

	for i := range batch.Chunks {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			reports[i] = r.evaluateChunk(ctx, i, batch.Chunks[i])
		}()
	}
	wg.Wait()

	// A caller that walked away invalidates the run the same way it
	// invalidates a single composite verdict.
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}

	completedAt := time.Now().UTC()
	totals := summarize(reports, len(batch.Skipped))

	report := &RunReport{
		RunID:       runID,
		StartedAt:   startedAt.Format(time.RFC3339),
		CompletedAt: completedAt.Format(time.RFC3339),
		Source:      sourceInfo(batch.Source),
		Totals:      totals,
		Passing:     totals.FailedChunks == 0 && totals.PassingChunks == totals.TotalChunks,
		Chunks:      reports,
		Skipped:     batch.Skipped,
	}

	r.logger.Info("audit run complete", map[string]interface{}{
		"runId":        runID,
		"chunks":       totals.TotalChunks,
		"passing":      totals.PassingChunks,
		"failed":       totals.FailedChunks,
		"averageScore": totals.AverageScore,
		"durationMs":   completedAt.Sub(startedAt).Milliseconds(),
	})

	return report, nil
}

func (r *Runner) evaluateChunk(ctx context.Context, index int, chunk assessment.Chunk) ChunkReport {
	cr := ChunkReport{
		Index:       index,
		ChunkID:     chunk.ID,
		Heading:     chunk.Heading,
		TextPreview: assessment.TruncateForPrompt(chunk.Text, previewLength),
		WordCount:   chunk.WordCount(),
	}

	result, err := r.evaluator.Evaluate(ctx, &chunk)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error("chunk evaluation failed", map[string]interface{}{
				"chunkId": chunk.ID,
				"index":   index,
				"error":   err.Error(),
			})
		}
		cr.Err = err.Error()
		return cr
	}

	_, record, renderErr := render.Render(result, r.opts)
	if renderErr != nil {
		// Verbosity is validated at construction, so this only trips on a
		// future option the renderer does not know yet.
		cr.Err = renderErr.Error()
		return cr
	}

	cr.Composite = result
	cr.Record = record
	return cr
}

// summarize folds the per-chunk reports into run totals. Failed evaluations
// count toward TotalChunks but are excluded from the score average and the
// distribution buckets.
func summarize(reports []ChunkReport, skipped int) Totals {
	totals := Totals{
		TotalChunks:   len(reports),
		SkippedChunks: skipped,
	}

	evaluated := 0
	scoreSum := 0
	issueCounts := make(map[string]int)

	for _, cr := range reports {
		if cr.Record == nil {
			totals.FailedChunks++
			continue
		}
		evaluated++
		scoreSum += cr.Record.OverallScore

		switch {
		case cr.Record.OverallScore >= 80:
			totals.WellOptimized++
		case cr.Record.OverallScore >= 60:
			totals.NeedsWork++
		default:
			totals.PoorlyOptimized++
		}

		if cr.Record.OverallPassing {
			totals.PassingChunks++
		}
		if cr.Record.Degraded {
			totals.DegradedChunks++
		}

		for name, outcome := range cr.Record.PerAssessor {
			if !outcome.Succeeded() {
				continue
			}
			if outcome.Result.Passing {
				if totals.AssessorPasses == nil {
					totals.AssessorPasses = make(map[string]int)
				}
				totals.AssessorPasses[name]++
			}
			for _, issue := range outcome.Result.Issues {
				issueCounts[issue.BarrierType]++
			}
		}
	}

	if evaluated > 0 {
		totals.AverageScore = float64(scoreSum) / float64(evaluated)
	}
	if totals.TotalChunks > 0 {
		totals.PassingRate = float64(totals.PassingChunks) / float64(totals.TotalChunks) * 100
	}
	totals.TopIssues = rankIssues(issueCounts)

	return totals
}

// rankIssues orders aggregated issues by frequency, ties broken by name so
// the report is stable across runs.
func rankIssues(counts map[string]int) []IssueCount {
	if len(counts) == 0 {
		return nil
	}
	ranked := make([]IssueCount, 0, len(counts))
	for barrier, count := range counts {
		ranked = append(ranked, IssueCount{BarrierType: barrier, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].BarrierType < ranked[j].BarrierType
	})
	return ranked
}

func sourceInfo(doc *pipeline.Document) SourceInfo {
	if doc == nil {
		return SourceInfo{}
	}
	return SourceInfo{
		Origin: doc.Origin,
		Type:   doc.SourceType,
		Title:  doc.Title,
	}
}
