// internal/assessment/truncate.go
package assessment

import "strings"

const truncationMarker = " (...truncated)"

// TruncateForPrompt shortens chunk text before it is embedded in a reasoning
// prompt. The cut never lands inside a code fence and prefers the last
// sentence or line boundary when one sits close enough to the limit.
func TruncateForPrompt(text string, maxLength int) string {
	if maxLength <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	cut := string(runes[:maxLength])

	// An odd number of fences means the cut landed inside a code block.
	if strings.Count(cut, "```")%2 == 1 {
		if back := strings.LastIndex(cut, "```"); back > 0 {
			cut = cut[:back]
		}
	}

	lastPeriod := strings.LastIndex(cut, ".")
	lastNewline := strings.LastIndex(cut, "\n")
	boundary := lastPeriod
	if lastNewline > boundary {
		boundary = lastNewline
	}
	if boundary+1 > len(cut)*7/10 {
		cut = cut[:boundary+1]
	}

	return strings.TrimSpace(cut) + truncationMarker
}

// WasTruncated reports whether TruncateForPrompt would shorten the text.
func WasTruncated(text string, maxLength int) bool {
	return maxLength > 0 && len([]rune(text)) > maxLength
}
