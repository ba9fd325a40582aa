// internal/render/render.go

// Package render turns one composite verdict into a human-readable markdown
// view and a machine record. Render is a pure function: identical inputs
// produce identical output, and no assessor is ever re-invoked.
package render

import (
	"fmt"
	"strings"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/composite"
)

// displayNames maps assessor identifiers to their report headings.
var displayNames = map[string]string{
	"query_answer":      "Query-Answer",
	"semantic_rubric":   "Semantic Rubric",
	"entity_focus":      "Entity Focus",
	"structure_quality": "Structure Quality",
}

// Render produces the human view and the machine record for one verdict.
// Verbosity controls the human view only; the record always carries the full
// outcome data.
func Render(result *composite.CompositeResult, opts FormattingOptions) (string, *Record, error) {
	if !opts.Verbosity.Valid() {
		return "", nil, fmt.Errorf("unknown verbosity %q", opts.Verbosity)
	}

	var b strings.Builder
	writeHeader(&b, result)

	if opts.Verbosity != VerbosityConcise {
		for _, name := range result.AssessorNames() {
			outcome := result.PerAssessor[name]
			if outcome.Succeeded() {
				writeAssessorSection(&b, name, outcome.Result, opts)
			} else if opts.Verbosity == VerbosityDetailed {
				writeFailureSection(&b, name, outcome.Failure)
			}
		}
	}

	if opts.Verbosity == VerbosityDetailed {
		writeWeightTable(&b, result)
		writeDegraded(&b, result)
	}

	humanView := strings.TrimRight(b.String(), "\n") + "\n"
	return humanView, buildRecord(result, humanView), nil
}

func writeHeader(b *strings.Builder, result *composite.CompositeResult) {
	status := "✅"
	if !result.OverallPassing {
		status = "❌"
	}
	fmt.Fprintf(b, "⭐ **Overall Score:** %d/100 %s - %s\n", result.OverallScore, status, scoreLabel(result.OverallScore))
	if line := primaryAssessment(result); line != "" {
		fmt.Fprintf(b, "📋 **Assessment:** %s\n", line)
	}
	b.WriteString("\n")
}

func writeAssessorSection(b *strings.Builder, name string, r *assessment.Result, opts FormattingOptions) {
	status := "✅"
	if !r.Passing {
		status = "❌"
	}
	fmt.Fprintf(b, "### %s\n\n", displayName(name))
	fmt.Fprintf(b, "⭐ **Score:** %d/100 %s\n\n", r.Score, status)
	if r.Assessment != "" {
		fmt.Fprintf(b, "📋 **Assessment:**\n%s\n\n", r.Assessment)
	}

	if strengths := capStrings(r.Strengths, opts); len(strengths) > 0 {
		b.WriteString("✅ **Strengths:**\n")
		for _, strength := range strengths {
			fmt.Fprintf(b, "- %s\n", strength)
		}
		b.WriteString("\n")
	}

	if issues := capIssues(r.Issues, opts); len(issues) > 0 {
		b.WriteString("⚠️ **Issues:**\n")
		for _, issue := range issues {
			fmt.Fprintf(b, "- %s %s\n", severityMarker(issue.Severity), issue.Description)
			if opts.Verbosity == VerbosityDetailed && issue.Evidence != "" {
				fmt.Fprintf(b, "  > \"%s\"\n", issue.Evidence)
			}
		}
		b.WriteString("\n")
	}

	if recommendations := capStrings(r.Recommendations, opts); len(recommendations) > 0 {
		b.WriteString("🎯 **Recommendations:**\n")
		for _, rec := range recommendations {
			fmt.Fprintf(b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}
}

func writeFailureSection(b *strings.Builder, name string, failure *assessment.Failure) {
	fmt.Fprintf(b, "### %s\n\n", displayName(name))
	if failure == nil {
		b.WriteString("❌ **Assessment failed**\n\n")
		return
	}
	fmt.Fprintf(b, "❌ **Assessment failed:** %s", failure.Kind)
	if failure.Detail != "" {
		fmt.Fprintf(b, " (%s)", failure.Detail)
	}
	b.WriteString("\n\n")
}

func writeWeightTable(b *strings.Builder, result *composite.CompositeResult) {
	b.WriteString("### Effective Weights\n\n")
	b.WriteString("| Assessor | Weight |\n")
	b.WriteString("|----------|--------|\n")
	for _, name := range result.AssessorNames() {
		fmt.Fprintf(b, "| %s | %.2f |\n", displayName(name), result.EffectiveWeights[name])
	}
	b.WriteString("\n")
}

func writeDegraded(b *strings.Builder, result *composite.CompositeResult) {
	if result.Degraded {
		fmt.Fprintf(b, "⚠️ **Degraded:** true (missing: %s)\n", strings.Join(result.FailedAssessors(), ", "))
		return
	}
	b.WriteString("**Degraded:** false\n")
}

// primaryAssessment picks the assessment sentence of the heaviest surviving
// assessor, so the concise view leads with the most authoritative summary the
// verdict carries.
func primaryAssessment(result *composite.CompositeResult) string {
	best := ""
	bestWeight := -1.0
	for _, name := range result.AssessorNames() {
		outcome := result.PerAssessor[name]
		if !outcome.Succeeded() || outcome.Result.Assessment == "" {
			continue
		}
		if weight := result.EffectiveWeights[name]; weight > bestWeight {
			bestWeight = weight
			best = outcome.Result.Assessment
		}
	}
	return firstLine(best)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func scoreLabel(score int) string {
	switch {
	case score >= 80:
		return "Well Optimized"
	case score >= 60:
		return "Needs Work"
	default:
		return "Poorly Optimized"
	}
}

func severityMarker(severity assessment.Severity) string {
	switch severity {
	case assessment.SeveritySevere:
		return "🔴"
	case assessment.SeverityModerate:
		return "🟡"
	default:
		return "⚪"
	}
}

func displayName(name string) string {
	if display, ok := displayNames[name]; ok {
		return display
	}
	words := strings.Split(name, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func capStrings(items []string, opts FormattingOptions) []string {
	if opts.FilterOutput && opts.MaxItems > 0 && len(items) > opts.MaxItems {
		return items[:opts.MaxItems]
	}
	return items
}

func capIssues(items []assessment.Issue, opts FormattingOptions) []assessment.Issue {
	if opts.FilterOutput && opts.MaxItems > 0 && len(items) > opts.MaxItems {
		return items[:opts.MaxItems]
	}
	return items
}
