// internal/pipeline/loader.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	commonhttp "chunk-auditor/internal/common/http"
)

const (
	SourceHTML     = "html"
	SourceMarkdown = "markdown"
	SourceText     = "text"

	userAgent = "chunk-auditor/1.0 (retrieval readiness audit)"

	defaultMaxContentLength = 500000
)

var ErrDocumentLoad = errors.New("DOCUMENT_LOAD_FAILED")

// Document is loaded source material ready for chunking. HTML input is
// converted to markdown-shaped text before it gets here, so downstream
// splitting only ever sees one structure vocabulary.
type Document struct {
	Content    string
	SourceType string
	Origin     string
	Title      string
}

type Loader struct {
	client     *commonhttp.Client
	maxContent int
	logger     Logger
}

func NewLoader(client *commonhttp.Client, maxContentLength int, log Logger) *Loader {
	if maxContentLength <= 0 {
		maxContentLength = defaultMaxContentLength
	}
	return &Loader{
		client:     client,
		maxContent: maxContentLength,
		logger:     log,
	}
}

// FromURL fetches a page and converts it to chunkable text. Responses that
// declare or sniff as HTML are stripped down to headings, paragraphs and
// lists; anything else passes through as markdown or plain text.
func (l *Loader) FromURL(ctx context.Context, rawURL string) (*Document, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %v", ErrDocumentLoad, rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrDocumentLoad, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrDocumentLoad, rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrDocumentLoad, rawURL, err)
	}

	content := string(body)
	sourceType := sniffSourceType(resp.Header.Get("Content-Type"), content)

	title := ""
	if sourceType == SourceHTML {
		content, title, err = htmlToText(content)
		if err != nil {
			return nil, fmt.Errorf("%w: parse html from %s: %v", ErrDocumentLoad, rawURL, err)
		}
	}

	originalLength := len(content)
	content = l.truncate(content)
	if len(content) < originalLength {
		l.logger.Warn("document truncated", map[string]interface{}{
			"url":            rawURL,
			"originalLength": originalLength,
			"keptLength":     len(content),
		})
	}

	l.logger.Info("document loaded", map[string]interface{}{
		"url":           rawURL,
		"sourceType":    sourceType,
		"contentLength": len(content),
	})

	return &Document{
		Content:    content,
		SourceType: sourceType,
		Origin:     rawURL,
		Title:      title,
	}, nil
}

// FromFile loads a local file, deciding the format from its extension.
func (l *Loader) FromFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read file %s: %v", ErrDocumentLoad, path, err)
	}

	sourceType := SourceText
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		sourceType = SourceHTML
	case ".md", ".markdown":
		sourceType = SourceMarkdown
	}

	content := string(data)
	title := ""
	if sourceType == SourceHTML {
		content, title, err = htmlToText(content)
		if err != nil {
			return nil, fmt.Errorf("%w: parse html from %s: %v", ErrDocumentLoad, path, err)
		}
	}
	content = l.truncate(content)

	l.logger.Info("document loaded", map[string]interface{}{
		"file":          path,
		"sourceType":    sourceType,
		"contentLength": len(content),
	})

	return &Document{
		Content:    content,
		SourceType: sourceType,
		Origin:     path,
		Title:      title,
	}, nil
}

// FromString wraps raw content, sniffing whether it is HTML, markdown or
// plain text.
func (l *Loader) FromString(content string) (*Document, error) {
	sourceType := sniffSourceType("", content)

	title := ""
	if sourceType == SourceHTML {
		var err error
		content, title, err = htmlToText(content)
		if err != nil {
			return nil, fmt.Errorf("%w: parse inline html: %v", ErrDocumentLoad, err)
		}
	}

	return &Document{
		Content:    l.truncate(content),
		SourceType: sourceType,
		Origin:     "inline",
		Title:      title,
	}, nil
}

var markdownMarker = regexp.MustCompile(`(?m)^(#{1,6}[ \t]+\S|[-*][ \t]+\S|\d+\.[ \t]+\S|>[ \t])`)

func sniffSourceType(contentType, content string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "text/html"), strings.Contains(ct, "application/xhtml"):
		return SourceHTML
	case strings.Contains(ct, "markdown"):
		return SourceMarkdown
	}

	head := strings.ToLower(strings.TrimSpace(content))
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<body") || strings.Contains(head, "<div") || strings.Contains(head, "<p>") {
		return SourceHTML
	}
	if markdownMarker.MatchString(content) {
		return SourceMarkdown
	}
	return SourceText
}

var repeatedBlankLines = regexp.MustCompile(`\n{3,}`)

// htmlToText strips chrome elements and rebuilds the page as markdown-shaped
// text, keeping headings, paragraphs, list items and code blocks in document
// order.
func htmlToText(rawHTML string) (content, title string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", "", err
	}

	doc.Find("script, style, nav, footer, header, aside, noscript").Remove()

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	var b strings.Builder
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, pre").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		switch tag := goquery.NodeName(s); tag {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(tag[1] - '0')
			b.WriteString(strings.Repeat("#", level) + " " + text + "\n\n")
		case "li":
			b.WriteString("- " + text + "\n")
		case "pre":
			b.WriteString("```\n" + text + "\n```\n\n")
		default:
			// Paragraphs nested in list items already surfaced via their li.
			if s.ParentsFiltered("li").Length() > 0 {
				return
			}
			b.WriteString(text + "\n\n")
		}
	})

	content = repeatedBlankLines.ReplaceAllString(strings.TrimSpace(b.String()), "\n\n")
	return content, title, nil
}

// truncate cuts oversized content at the most natural boundary found in the
// final fifth of the allowed window: paragraph break, then sentence end, then
// line break, then a hard cut.
func (l *Loader) truncate(content string) string {
	if len(content) <= l.maxContent {
		return content
	}

	cut := content[:l.maxContent]
	floor := l.maxContent * 4 / 5

	if i := strings.LastIndex(cut, "\n\n"); i > floor {
		return cut[:i]
	}

	sentence := strings.LastIndex(cut, ". ")
	for _, punct := range []string{"! ", "? "} {
		if i := strings.LastIndex(cut, punct); i > sentence {
			sentence = i
		}
	}
	if sentence > floor {
		return cut[:sentence+1]
	}

	if i := strings.LastIndex(cut, "\n"); i > floor {
		return cut[:i]
	}
	return cut
}
