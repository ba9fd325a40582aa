// internal/pipeline/filter.go
package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/common/config"
	"chunk-auditor/internal/common/metrics"
)

var ErrInvalidSkipPattern = errors.New("INVALID_SKIP_PATTERN")

// SkippedChunk records one chunk the filter dropped, so the report can say
// what was excluded and why.
type SkippedChunk struct {
	ID      string `json:"id"`
	Heading string `json:"heading,omitempty"`
	Reason  string `json:"reason"`
}

// Filter drops chunks that would waste assessor calls: fragments, bare
// headings, link farms and anything matching a configured skip pattern.
type Filter struct {
	cfg      config.FilteringConfig
	patterns []*regexp.Regexp
	logger   Logger
}

// NewFilter compiles the configured skip patterns. Patterns match
// case-insensitively anywhere in the chunk body.
func NewFilter(cfg config.FilteringConfig, log Logger) (*Filter, error) {
	patterns := make([]*regexp.Regexp, 0, len(cfg.SkipPatterns))
	for _, p := range cfg.SkipPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSkipPattern, p, err)
		}
		patterns = append(patterns, re)
	}
	return &Filter{cfg: cfg, patterns: patterns, logger: log}, nil
}

// Apply returns the chunks worth evaluating and the ones it dropped. With
// filtering disabled every chunk passes through untouched.
func (f *Filter) Apply(chunks []assessment.Chunk) ([]assessment.Chunk, []SkippedChunk) {
	if !f.cfg.Enabled {
		return chunks, nil
	}

	kept := make([]assessment.Chunk, 0, len(chunks))
	var skipped []SkippedChunk

	for _, chunk := range chunks {
		reason := f.check(&chunk)
		if reason == "" {
			kept = append(kept, chunk)
			continue
		}

		metrics.ChunksFiltered.Inc()
		skipped = append(skipped, SkippedChunk{
			ID:      chunk.ID,
			Heading: chunk.Heading,
			Reason:  reason,
		})
		f.logger.Debug("chunk filtered", map[string]interface{}{
			"chunkId": chunk.ID,
			"heading": chunk.Heading,
			"reason":  reason,
		})
	}

	if len(skipped) > 0 {
		f.logger.Info("chunk filtering complete", map[string]interface{}{
			"total":   len(chunks),
			"kept":    len(kept),
			"skipped": len(skipped),
		})
	}
	return kept, skipped
}

var (
	markdownLink = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
	bulletLine   = regexp.MustCompile(`^\s*([-*•]|\d+[.)])\s`)
)

// check returns an empty string for chunks worth evaluating, or the reason
// the chunk should be dropped.
func (f *Filter) check(chunk *assessment.Chunk) string {
	text := strings.TrimSpace(chunk.Text)

	if words := chunk.WordCount(); words < f.cfg.MinWords {
		return fmt.Sprintf("too short (%d words, minimum %d)", words, f.cfg.MinWords)
	}

	lines := nonEmptyLines(text)
	if len(lines) == 1 && len(lines[0]) < 100 {
		return "heading without body"
	}

	if len(text) < 200 && allBullets(lines) {
		return "list fragment without surrounding context"
	}

	if f.cfg.MaxLinkDensity > 0 {
		if density := linkDensity(text); density > f.cfg.MaxLinkDensity {
			return fmt.Sprintf("link density %.2f exceeds %.2f", density, f.cfg.MaxLinkDensity)
		}
	}

	for i, re := range f.patterns {
		if re.MatchString(text) {
			return fmt.Sprintf("matched skip pattern %q", f.cfg.SkipPatterns[i])
		}
	}

	return ""
}

// linkDensity reports the share of the text occupied by markdown links.
func linkDensity(text string) float64 {
	if len(text) == 0 {
		return 0
	}
	linked := 0
	for _, loc := range markdownLink.FindAllStringIndex(text, -1) {
		linked += loc[1] - loc[0]
	}
	return float64(linked) / float64(len(text))
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func allBullets(lines []string) bool {
	if len(lines) == 0 {
		return false
	}
	for _, line := range lines {
		if !bulletLine.MatchString(line) {
			return false
		}
	}
	return true
}
