// internal/pipeline/chunker.go
package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/common/config"
)

// Heading levels deeper than this stay inside their parent section instead
// of opening a new chunk.
const maxHeadingDepth = 3

var (
	atxHeading = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+?)[ \t]*#*[ \t]*$`)
	setextH1   = regexp.MustCompile(`(?m)^([^\n]+)\n={3,}[ \t]*$`)
	setextH2   = regexp.MustCompile(`(?m)^([^\n]+)\n-{3,}[ \t]*$`)
)

type section struct {
	level   int
	heading string
	start   int
	end     int
}

// Chunker splits a document along its heading structure so every chunk is a
// section a reader would recognize, instead of a fixed-size window.
type Chunker struct {
	cfg    config.ChunkingConfig
	logger Logger
}

func NewChunker(cfg config.ChunkingConfig, log Logger) *Chunker {
	return &Chunker{cfg: cfg, logger: log}
}

// Split turns a document into evaluation-ready chunks. Sections shorter than
// min_chunk_size merge into the preceding chunk; sections over max_chunk_size
// split at paragraph boundaries with the heading repeated on each part.
func (c *Chunker) Split(doc *Document) []assessment.Chunk {
	content := strings.TrimSpace(doc.Content)
	if content == "" {
		return nil
	}

	var sections []section
	if c.cfg.HeaderBased {
		sections = parseSections(content)
	}
	if len(sections) == 0 {
		chunks := c.emitFlat(doc, content)
		c.logger.Info("document chunked", map[string]interface{}{
			"origin":   doc.Origin,
			"sections": 0,
			"chunks":   len(chunks),
		})
		return chunks
	}

	var chunks []assessment.Chunk

	// Content before the first heading becomes an introduction chunk when it
	// is substantial enough to stand alone.
	if intro := strings.TrimSpace(content[:sections[0].start]); len(intro) >= c.cfg.MinChunkSize {
		chunks = append(chunks, c.newChunk(doc, len(chunks), introHeading(doc), intro, "introduction", 0))
	}

	for _, sec := range sections {
		body := strings.TrimSpace(content[sec.start:sec.end])
		if body == "" {
			continue
		}

		if len(body) < c.cfg.MinChunkSize && len(chunks) > 0 {
			last := &chunks[len(chunks)-1]
			last.Text = last.Text + "\n\n" + body
			continue
		}

		if c.cfg.MaxChunkSize > 0 && len(body) > c.cfg.MaxChunkSize {
			parts := c.splitLargeSection(sec, body)
			for i, part := range parts {
				chunk := c.newChunk(doc, len(chunks), sec.heading, part, "section", sec.level)
				chunk.Metadata["subsection"] = fmt.Sprintf("%d/%d", i+1, len(parts))
				chunks = append(chunks, chunk)
			}
			continue
		}

		chunks = append(chunks, c.newChunk(doc, len(chunks), sec.heading, body, "section", sec.level))
	}

	c.logger.Info("document chunked", map[string]interface{}{
		"origin":   doc.Origin,
		"sections": len(sections),
		"chunks":   len(chunks),
	})
	return chunks
}

// emitFlat handles documents without usable headings: one chunk when the
// content fits, otherwise paragraph-packed windows.
func (c *Chunker) emitFlat(doc *Document, content string) []assessment.Chunk {
	if c.cfg.MaxChunkSize <= 0 || len(content) <= c.cfg.MaxChunkSize {
		return []assessment.Chunk{c.newChunk(doc, 0, introHeading(doc), content, "content", 0)}
	}

	var chunks []assessment.Chunk
	for _, part := range c.packParagraphs(content, "") {
		chunks = append(chunks, c.newChunk(doc, len(chunks), introHeading(doc), part, "content", 0))
	}
	return chunks
}

func (c *Chunker) newChunk(doc *Document, position int, heading, body, sectionType string, level int) assessment.Chunk {
	return assessment.Chunk{
		ID:      fmt.Sprintf("section_%d", position),
		Heading: heading,
		Text:    body,
		Metadata: map[string]string{
			"section_type":  sectionType,
			"level":         strconv.Itoa(level),
			"position":      strconv.Itoa(position),
			"source_format": doc.SourceType,
			"origin":        doc.Origin,
		},
	}
}

func introHeading(doc *Document) string {
	if doc.Title != "" {
		return doc.Title
	}
	return ""
}

// parseSections finds ATX (# Title) and Setext (underlined) headings up to
// maxHeadingDepth and assigns each the span of content running to the next
// heading.
func parseSections(content string) []section {
	var sections []section

	for _, m := range atxHeading.FindAllStringSubmatchIndex(content, -1) {
		level := m[3] - m[2]
		if level > maxHeadingDepth {
			continue
		}
		sections = append(sections, section{
			level:   level,
			heading: strings.TrimSpace(content[m[4]:m[5]]),
			start:   m[0],
		})
	}

	for _, m := range setextH1.FindAllStringSubmatchIndex(content, -1) {
		heading := strings.TrimSpace(content[m[2]:m[3]])
		if heading == "" || strings.HasPrefix(heading, "#") {
			continue
		}
		sections = append(sections, section{
			level:   1,
			heading: heading,
			start:   m[0],
		})
	}
	for _, m := range setextH2.FindAllStringSubmatchIndex(content, -1) {
		heading := strings.TrimSpace(content[m[2]:m[3]])
		// An underline beneath an ATX heading, a table row or a list item is
		// not a heading of its own.
		if heading == "" || strings.HasPrefix(heading, "#") ||
			strings.HasPrefix(heading, "|") || strings.HasPrefix(heading, "-") {
			continue
		}
		sections = append(sections, section{
			level:   2,
			heading: heading,
			start:   m[0],
		})
	}

	sort.Slice(sections, func(i, j int) bool { return sections[i].start < sections[j].start })

	for i := range sections {
		if i < len(sections)-1 {
			sections[i].end = sections[i+1].start
		} else {
			sections[i].end = len(content)
		}
	}
	return sections
}

// splitLargeSection breaks an oversized section at paragraph boundaries,
// repeating the heading on every continuation part so each chunk still names
// its topic.
func (c *Chunker) splitLargeSection(sec section, body string) []string {
	headingLine := strings.Repeat("#", sec.level) + " " + sec.heading + " (continued)"
	return c.packParagraphs(body, headingLine)
}

// packParagraphs accumulates paragraphs into parts no larger than
// max_chunk_size, aiming for target_chunk_size per part. continuation is
// prepended to every part after the first.
func (c *Chunker) packParagraphs(body, continuation string) []string {
	target := c.cfg.TargetChunkSize
	if target <= 0 || target > c.cfg.MaxChunkSize {
		target = c.cfg.MaxChunkSize
	}

	prefix := ""
	var parts []string
	var current strings.Builder

	flush := func() {
		if current.Len() > len(prefix) {
			parts = append(parts, strings.TrimSpace(current.String()))
		}
		current.Reset()
		if continuation != "" {
			prefix = continuation + "\n\n"
			current.WriteString(prefix)
		}
	}

	for _, paragraph := range strings.Split(body, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		// A single paragraph beyond the hard cap gets sliced directly.
		for len(paragraph) > c.cfg.MaxChunkSize {
			if current.Len() > len(prefix) {
				flush()
			}
			take := c.cfg.MaxChunkSize - len(prefix)
			current.WriteString(paragraph[:take])
			paragraph = paragraph[take:]
			flush()
		}
		if paragraph == "" {
			continue
		}

		if current.Len() > len(prefix) && current.Len()+len(paragraph)+2 > target {
			flush()
		}
		current.WriteString(paragraph + "\n\n")
	}
	flush()

	return parts
}
