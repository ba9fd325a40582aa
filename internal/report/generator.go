// internal/report/generator.go
package report

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"chunk-auditor/internal/common/config"
)

// Report output formats accepted by configuration and the CLI.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatBoth     = "both"
)

const defaultOutputDir = "output"

var (
	anchorStrip  = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)
	anchorSpaces = regexp.MustCompile(`\s+`)
)

// shortNames abbreviates assessor identifiers for the overview table.
var shortNames = map[string]string{
	"query_answer":      "Q-A",
	"semantic_rubric":   "Rubric",
	"structure_quality": "Struct",
	"entity_focus":      "Entity",
}

// Generator turns a run report into the configured output documents.
type Generator struct {
	cfg    config.ReportingConfig
	logger Logger
}

func NewGenerator(cfg config.ReportingConfig, log Logger) *Generator {
	return &Generator{cfg: cfg, logger: log}
}

// WriteReports writes the configured report files and returns a map of
// format name to file path.
func (g *Generator) WriteReports(report *RunReport) (map[string]string, error) {
	outDir := g.cfg.OutputDir
	if outDir == "" {
		outDir = defaultOutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	format := g.cfg.Format
	if format == "" {
		format = FormatBoth
	}
	if format != FormatMarkdown && format != FormatJSON && format != FormatBoth {
		return nil, fmt.Errorf("unknown report format %q", format)
	}

	base := baseName(report)
	files := make(map[string]string)

	if format == FormatMarkdown || format == FormatBoth {
		path := filepath.Join(outDir, base+".md")
		if err := os.WriteFile(path, []byte(g.Markdown(report)), 0o644); err != nil {
			return nil, fmt.Errorf("write markdown report: %w", err)
		}
		files[FormatMarkdown] = path
	}

	if format == FormatJSON || format == FormatBoth {
		data, err := g.JSON(report)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(outDir, base+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write json report: %w", err)
		}
		files[FormatJSON] = path
	}

	g.logger.Info("reports generated", map[string]interface{}{
		"runId":     report.RunID,
		"outputDir": outDir,
		"files":     len(files),
	})

	return files, nil
}

// JSON marshals the run report as the machine-readable document.
func (g *Generator) JSON(report *RunReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json report: %w", err)
	}
	return data, nil
}

// Markdown renders the full audit document: executive summary, score
// distribution, the chunk overview table and one detailed section per chunk.
func (g *Generator) Markdown(report *RunReport) string {
	var b strings.Builder

	b.WriteString("# Chunk Retrieval Readiness Audit Report\n\n")

	b.WriteString("## Source Information\n\n")
	if report.Source.Origin != "" {
		fmt.Fprintf(&b, "- **Origin**: %s\n", report.Source.Origin)
	}
	if report.Source.Title != "" {
		fmt.Fprintf(&b, "- **Title**: %s\n", report.Source.Title)
	}
	fmt.Fprintf(&b, "- **Analyzed**: %s\n", report.CompletedAt)
	b.WriteString("\n")

	totals := report.Totals
	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "- **Total Chunks**: %d\n", totals.TotalChunks)
	fmt.Fprintf(&b, "- **Average Score**: %.1f/100\n", totals.AverageScore)
	fmt.Fprintf(&b, "- **Passing Chunks**: %d/%d (%.1f%%)\n",
		totals.PassingChunks, totals.TotalChunks, totals.PassingRate)
	if totals.SkippedChunks > 0 {
		fmt.Fprintf(&b, "- **Skipped Chunks**: %d (filtered before evaluation)\n", totals.SkippedChunks)
	}
	if totals.DegradedChunks > 0 {
		fmt.Fprintf(&b, "- **Degraded Chunks**: %d (partial assessor coverage)\n", totals.DegradedChunks)
	}
	if totals.FailedChunks > 0 {
		fmt.Fprintf(&b, "- **Failed Evaluations**: %d\n", totals.FailedChunks)
	}
	b.WriteString("\n")

	b.WriteString("### Score Distribution\n\n")
	fmt.Fprintf(&b, "- 🟢 **Well Optimized** (≥80): %d chunks\n", totals.WellOptimized)
	fmt.Fprintf(&b, "- 🟡 **Needs Work** (60-79): %d chunks\n", totals.NeedsWork)
	fmt.Fprintf(&b, "- 🔴 **Poorly Optimized** (<60): %d chunks\n", totals.PoorlyOptimized)
	b.WriteString("\n")

	b.WriteString(terminologySection)

	b.WriteString("## Chunk Performance Overview\n\n")
	b.WriteString("Click any chunk heading to jump to its detailed analysis.\n\n")
	g.writeOverviewTable(&b, report)
	b.WriteString("\n")

	b.WriteString("## Detailed Chunk Analysis\n\n")
	for _, cr := range report.Chunks {
		num := cr.Index + 1
		heading := cr.Heading
		if heading == "" {
			heading = "[No Heading]"
		}
		fmt.Fprintf(&b, "### Chunk %d: %s {#%s}\n\n", num, heading, anchorID(num, cr.Heading))

		if cr.Record == nil {
			fmt.Fprintf(&b, "**Evaluation failed**: %s\n\n", cr.Err)
			b.WriteString("---\n\n")
			continue
		}

		b.WriteString(cr.Record.HumanView)
		b.WriteString("\n\n")

		if cr.TextPreview != "" {
			b.WriteString("**Chunk Content**:\n")
			fmt.Fprintf(&b, "```\n%s\n```\n\n", cr.TextPreview)
		}

		b.WriteString("---\n\n")
	}

	if len(report.Skipped) > 0 {
		b.WriteString("## Skipped Chunks\n\n")
		for _, sk := range report.Skipped {
			if sk.Heading != "" {
				fmt.Fprintf(&b, "- `%s` %s: %s\n", sk.ID, sk.Heading, sk.Reason)
			} else {
				fmt.Fprintf(&b, "- `%s`: %s\n", sk.ID, sk.Reason)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Summary renders the short plain-text digest printed by the CLI and sent in
// notification emails.
func (g *Generator) Summary(report *RunReport) string {
	var b strings.Builder

	b.WriteString("CHUNK AUDIT SUMMARY\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	if report.Source.Origin != "" {
		fmt.Fprintf(&b, "Source: %s\n", report.Source.Origin)
	}
	fmt.Fprintf(&b, "Date: %s\n\n", completedAtDisplay(report))

	totals := report.Totals
	b.WriteString("OVERALL METRICS\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	fmt.Fprintf(&b, "Total Chunks: %d\n", totals.TotalChunks)
	fmt.Fprintf(&b, "Average Score: %.1f/100\n", totals.AverageScore)
	fmt.Fprintf(&b, "Passing Rate: %.1f%%\n", totals.PassingRate)
	if totals.SkippedChunks > 0 {
		fmt.Fprintf(&b, "Skipped Chunks: %d\n", totals.SkippedChunks)
	}
	if totals.FailedChunks > 0 {
		fmt.Fprintf(&b, "Failed Evaluations: %d\n", totals.FailedChunks)
	}
	b.WriteString("\n")

	b.WriteString("SCORE DISTRIBUTION\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	fmt.Fprintf(&b, "Well Optimized (≥80): %d\n", totals.WellOptimized)
	fmt.Fprintf(&b, "Needs Work (60-79): %d\n", totals.NeedsWork)
	fmt.Fprintf(&b, "Poorly Optimized (<60): %d\n", totals.PoorlyOptimized)
	b.WriteString("\n")

	if len(totals.TopIssues) > 0 {
		b.WriteString("TOP ISSUES\n")
		b.WriteString(strings.Repeat("-", 30) + "\n")
		issues := totals.TopIssues
		if g.cfg.FilterOutput && len(issues) > 5 {
			issues = issues[:5]
		}
		for _, issue := range issues {
			fmt.Fprintf(&b, "- %s: %dx\n", issue.BarrierType, issue.Count)
		}
		b.WriteString("\n")
	}

	worst := worstChunks(report, g.cfg.FilterOutput)
	if len(worst) > 0 {
		b.WriteString("CHUNKS NEEDING MOST ATTENTION\n")
		b.WriteString(strings.Repeat("-", 30) + "\n")
		for _, cr := range worst {
			heading := cr.Heading
			if heading == "" {
				heading = "[No Heading]"
			}
			fmt.Fprintf(&b, "- Chunk %d: %s (%d/100)\n", cr.Index+1, heading, cr.Record.OverallScore)
			if rec := firstRecommendation(cr); rec != "" {
				fmt.Fprintf(&b, "  Fix: %s\n", rec)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (g *Generator) writeOverviewTable(b *strings.Builder, report *RunReport) {
	assessors := assessorColumns(report)

	b.WriteString("| # | Chunk Heading | Overall |")
	for _, name := range assessors {
		short, ok := shortNames[name]
		if !ok {
			short = name
		}
		fmt.Fprintf(b, " %s |", short)
	}
	b.WriteString(" Status |\n")

	b.WriteString("|---|---------------|---------|")
	for range assessors {
		b.WriteString("---|")
	}
	b.WriteString("--------|\n")

	for _, cr := range report.Chunks {
		num := cr.Index + 1
		heading := cr.Heading
		if heading == "" {
			heading = "[No Heading]"
		}
		if len(heading) > 40 {
			heading = heading[:37] + "..."
		}
		fmt.Fprintf(b, "| %d | [%s](#%s) |", num, heading, anchorID(num, cr.Heading))

		if cr.Record == nil {
			b.WriteString(" — |")
			for range assessors {
				b.WriteString(" — |")
			}
			b.WriteString(" ⚠️ Evaluation failed |\n")
			continue
		}

		fmt.Fprintf(b, " %d |", cr.Record.OverallScore)
		for _, name := range assessors {
			outcome, ok := cr.Record.PerAssessor[name]
			if ok && outcome.Succeeded() {
				fmt.Fprintf(b, " %d |", outcome.Result.Score)
			} else {
				b.WriteString(" — |")
			}
		}
		fmt.Fprintf(b, " %s |\n", statusCell(cr.Record.OverallScore))
	}
}

const terminologySection = `## How to Read This Report

### Scoring Dimensions

Each chunk is scored across independent dimensions:

- **Query-Answer**: how completely the chunk answers the search queries it is likely to surface for
- **Semantic Rubric**: standalone readability, focus and structure judged against a fixed rubric
- **Structure Quality**: structural effectiveness of headings, lists and formatting
- **Entity Focus**: topic coherence and entity concentration

### Score Interpretation

- **80-100 (🟢 Well Optimized)**: ready for retrieval, minimal improvements needed
- **60-79 (🟡 Needs Work)**: moderate issues, some improvements recommended
- **0-59 (🔴 Poorly Optimized)**: significant revision needed for effective retrieval

`

// assessorColumns returns the sorted union of assessor names across every
// evaluated chunk, so the table stays correct when an assessor is disabled
// or failed for part of the run.
func assessorColumns(report *RunReport) []string {
	seen := make(map[string]bool)
	for _, cr := range report.Chunks {
		if cr.Record == nil {
			continue
		}
		for name := range cr.Record.PerAssessor {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func statusCell(score int) string {
	switch {
	case score >= 80:
		return "🟢 Well optimized"
	case score >= 60:
		return "🟡 Needs work"
	default:
		return "🔴 Poorly optimized"
	}
}

// worstChunks returns evaluated chunks sorted by ascending score. When
// filtering is on, only the three lowest are kept.
func worstChunks(report *RunReport, filterOutput bool) []ChunkReport {
	var evaluated []ChunkReport
	for _, cr := range report.Chunks {
		if cr.Record != nil {
			evaluated = append(evaluated, cr)
		}
	}
	sort.SliceStable(evaluated, func(i, j int) bool {
		return evaluated[i].Record.OverallScore < evaluated[j].Record.OverallScore
	})
	if filterOutput && len(evaluated) > 3 {
		evaluated = evaluated[:3]
	}
	return evaluated
}

// firstRecommendation returns the first recommendation any surviving
// assessor produced, scanning assessors in name order for stability.
func firstRecommendation(cr ChunkReport) string {
	if cr.Record == nil {
		return ""
	}
	names := make([]string, 0, len(cr.Record.PerAssessor))
	for name := range cr.Record.PerAssessor {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		outcome := cr.Record.PerAssessor[name]
		if outcome.Succeeded() && len(outcome.Result.Recommendations) > 0 {
			return outcome.Result.Recommendations[0]
		}
	}
	return ""
}

// anchorID builds a URL-friendly anchor for a chunk heading.
func anchorID(num int, heading string) string {
	if heading == "" {
		return fmt.Sprintf("chunk-%d", num)
	}
	clean := anchorStrip.ReplaceAllString(heading, "")
	clean = anchorSpaces.ReplaceAllString(strings.TrimSpace(clean), "-")
	clean = strings.ToLower(clean)
	if len(clean) > 50 {
		clean = clean[:50]
	}
	if clean == "" {
		return fmt.Sprintf("chunk-%d", num)
	}
	return fmt.Sprintf("chunk-%d-%s", num, clean)
}

// baseName derives the report filename stem from the source and the run
// completion time, so repeated runs against one source sort together.
func baseName(report *RunReport) string {
	ts := time.Now().UTC()
	if parsed, err := time.Parse(time.RFC3339, report.CompletedAt); err == nil {
		ts = parsed
	}
	stamp := ts.Format("20060102_150405")

	if u, err := url.Parse(report.Source.Origin); err == nil && u.Host != "" {
		domain := strings.ReplaceAll(u.Host, ".", "-")
		domain = strings.TrimPrefix(domain, "www-")
		return fmt.Sprintf("audit_%s_%s", domain, stamp)
	}
	return fmt.Sprintf("audit_%s", stamp)
}

func completedAtDisplay(report *RunReport) string {
	if parsed, err := time.Parse(time.RFC3339, report.CompletedAt); err == nil {
		return parsed.Format("2006-01-02 15:04:05")
	}
	return report.CompletedAt
}
