// internal/pipeline/filter_test.go
package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunk-auditor/internal/assessment"
	"chunk-auditor/internal/common/config"
)

func testFilterConfig() config.FilteringConfig {
	return config.FilteringConfig{
		Enabled:        true,
		MinWords:       10,
		MaxLinkDensity: 0.5,
		SkipPatterns:   []string{"privacy policy", `all rights reserved`},
	}
}

func substantiveChunk(id string) assessment.Chunk {
	return assessment.Chunk{
		ID:      id,
		Heading: "Queue sizing",
		Text: "## Queue sizing\n\nSize the queue for peak traffic, not average traffic. " +
			"A queue that fills during a deploy will shed jobs exactly when the system is most fragile, " +
			"so provision twice the largest burst observed in the last month.",
	}
}

func TestNewFilter_RejectsBadPattern(t *testing.T) {
	cfg := testFilterConfig()
	cfg.SkipPatterns = []string{"(["}

	filter, err := NewFilter(cfg, NewTestLogger(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSkipPattern)
	assert.Nil(t, filter)
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantKept     bool
		reasonSubstr string
	}{
		{
			name:     "substantive section survives",
			text:     substantiveChunk("a").Text,
			wantKept: true,
		},
		{
			name:         "too few words",
			text:         "Short note only.",
			wantKept:     false,
			reasonSubstr: "too short",
		},
		{
			name:         "heading without body",
			text:         "one two three four five six seven eight nine ten",
			wantKept:     false,
			reasonSubstr: "heading without body",
		},
		{
			name: "list fragment without context",
			text: "- alpha beta gamma delta\n" +
				"- epsilon zeta eta theta\n" +
				"- iota kappa lambda mu",
			wantKept:     false,
			reasonSubstr: "list fragment",
		},
		{
			name:         "link farm",
			text:         strings.Repeat("- [Documentation home](https://example.com/docs/home)\n", 8),
			wantKept:     false,
			reasonSubstr: "link density",
		},
		{
			name: "skip pattern matches case-insensitively",
			text: "## Legal\n\nUse of this service is governed by the Privacy Policy published on our site, " +
				"which explains retention, processing and deletion of customer submitted material.",
			wantKept:     false,
			reasonSubstr: `skip pattern "privacy policy"`,
		},
	}

	filter, err := NewFilter(testFilterConfig(), NewTestLogger(t))
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := assessment.Chunk{ID: "chunk-1", Heading: "Heading", Text: tt.text}
			kept, skipped := filter.Apply([]assessment.Chunk{chunk})

			if tt.wantKept {
				require.Len(t, kept, 1)
				assert.Empty(t, skipped)
				return
			}

			assert.Empty(t, kept)
			require.Len(t, skipped, 1)
			assert.Equal(t, "chunk-1", skipped[0].ID)
			assert.Equal(t, "Heading", skipped[0].Heading)
			assert.Contains(t, skipped[0].Reason, tt.reasonSubstr)
		})
	}
}

func TestFilter_DisabledKeepsEverything(t *testing.T) {
	cfg := testFilterConfig()
	cfg.Enabled = false
	filter, err := NewFilter(cfg, NewTestLogger(t))
	require.NoError(t, err)

	chunks := []assessment.Chunk{
		{ID: "a", Text: "tiny"},
		substantiveChunk("b"),
	}
	kept, skipped := filter.Apply(chunks)

	assert.Equal(t, chunks, kept)
	assert.Nil(t, skipped)
}

func TestFilter_MixedBatchKeepsOrder(t *testing.T) {
	filter, err := NewFilter(testFilterConfig(), NewTestLogger(t))
	require.NoError(t, err)

	chunks := []assessment.Chunk{
		substantiveChunk("first"),
		{ID: "junk", Text: "Short."},
		substantiveChunk("second"),
	}
	kept, skipped := filter.Apply(chunks)

	require.Len(t, kept, 2)
	assert.Equal(t, "first", kept[0].ID)
	assert.Equal(t, "second", kept[1].ID)
	require.Len(t, skipped, 1)
	assert.Equal(t, "junk", skipped[0].ID)
}

func TestLinkDensity(t *testing.T) {
	assert.Zero(t, linkDensity(""))
	assert.Zero(t, linkDensity("plain prose with no links at all"))

	mostlyLinks := "[a](https://example.com/a) [b](https://example.com/b)"
	assert.Greater(t, linkDensity(mostlyLinks), 0.9)
}
