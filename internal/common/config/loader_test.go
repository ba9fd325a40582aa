// internal/common/config/loader_test.go
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "chunk-auditor/internal/common/errors"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfigYAML = `
app:
  name: chunk-auditor
  environment: test
reasoning:
  base_url: http://localhost:9090
  api_key: test-key
assessors:
  query_answer:
    enabled: true
    weight: 0.25
    threshold: 75
  semantic_rubric:
    enabled: true
    weight: 0.25
    threshold: 70
  entity_focus:
    enabled: true
    weight: 0.25
    threshold: 70
  structure_quality:
    enabled: true
    weight: 0.25
    threshold: 70
scoring:
  composite_threshold: 70
  policy: veto
`

func TestLoadFromFile_Valid(t *testing.T) {
	path := writeConfigFile(t, validConfigYAML)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "chunk-auditor", cfg.App.Name)
	assert.Equal(t, "http://localhost:9090", cfg.Reasoning.BaseURL)
	assert.Equal(t, 4, len(cfg.Assessors))
	assert.Equal(t, 75, cfg.Assessors["query_answer"].Threshold)

	// Defaults filled in
	assert.Equal(t, 60000, cfg.Reasoning.Timeout)
	assert.Equal(t, 3000, cfg.Scoring.TruncationLength)
	assert.Equal(t, "markdown", cfg.Reporting.Format)
	assert.Equal(t, 3, cfg.Reporting.MaxItems)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60000, cfg.Assessors["query_answer"].Timeout)
	assert.Equal(t, float64(0), cfg.Reasoning.Temperature)
}

func TestLoadFromFile_DefaultAssessors(t *testing.T) {
	path := writeConfigFile(t, `
reasoning:
  base_url: http://localhost:9090
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, 4, len(cfg.Assessors))

	var sum float64
	for _, a := range cfg.Assessors {
		assert.True(t, a.Enabled)
		sum += a.Weight
	}
	assert.InDelta(t, 1.0, sum, WeightTolerance)
	assert.Equal(t, 75, cfg.Assessors["query_answer"].Threshold)
	assert.Equal(t, 70, cfg.Assessors["structure_quality"].Threshold)
}

func TestLoadFromFile_WeightTableValidation(t *testing.T) {
	tests := []struct {
		name      string
		assessors string
		wantErr   bool
		wantCode  apperrors.ErrorCode
	}{
		{
			name: "weights sum below one",
			assessors: `
assessors:
  query_answer: {enabled: true, weight: 0.25, threshold: 75}
  semantic_rubric: {enabled: true, weight: 0.25, threshold: 70}
`,
			wantErr:  true,
			wantCode: apperrors.ErrCodeInvalidWeightTable,
		},
		{
			name: "weights sum above one",
			assessors: `
assessors:
  query_answer: {enabled: true, weight: 0.60, threshold: 75}
  semantic_rubric: {enabled: true, weight: 0.60, threshold: 70}
`,
			wantErr:  true,
			wantCode: apperrors.ErrCodeInvalidWeightTable,
		},
		{
			name: "zero weight rejected",
			assessors: `
assessors:
  query_answer: {enabled: true, weight: 0.0, threshold: 75}
  semantic_rubric: {enabled: true, weight: 1.0, threshold: 70}
`,
			wantErr:  true,
			wantCode: apperrors.ErrCodeInvalidWeightTable,
		},
		{
			name: "weight above one rejected",
			assessors: `
assessors:
  query_answer: {enabled: true, weight: 1.5, threshold: 75}
`,
			wantErr:  true,
			wantCode: apperrors.ErrCodeInvalidWeightTable,
		},
		{
			name: "disabled assessor weight excluded from sum",
			assessors: `
assessors:
  query_answer: {enabled: true, weight: 0.5, threshold: 75}
  semantic_rubric: {enabled: true, weight: 0.5, threshold: 70}
  entity_focus: {enabled: false, weight: 0.25, threshold: 70}
`,
			wantErr: false,
		},
		{
			name: "drift within tolerance accepted",
			assessors: `
assessors:
  query_answer: {enabled: true, weight: 0.2500001, threshold: 75}
  semantic_rubric: {enabled: true, weight: 0.2500001, threshold: 70}
  entity_focus: {enabled: true, weight: 0.2500001, threshold: 70}
  structure_quality: {enabled: true, weight: 0.2499999, threshold: 70}
`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, `
reasoning:
  base_url: http://localhost:9090
`+tt.assessors)

			cfg, err := LoadFromFile(path)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, cfg)
				var stdErr *apperrors.StandardError
				require.True(t, errors.As(err, &stdErr))
				assert.Equal(t, tt.wantCode, stdErr.Code)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)
			}
		})
	}
}

func TestLoadFromFile_InvalidPolicy(t *testing.T) {
	path := writeConfigFile(t, `
reasoning:
  base_url: http://localhost:9090
scoring:
  policy: majority
`)

	_, err := LoadFromFile(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scoring.policy")
}

func TestLoadFromFile_MissingReasoningURL(t *testing.T) {
	path := writeConfigFile(t, `
app:
  name: chunk-auditor
`)

	_, err := LoadFromFile(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reasoning.base_url")
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_REASONING_KEY", "secret-from-env")

	path := writeConfigFile(t, `
reasoning:
  base_url: http://localhost:9090
  api_key: ${TEST_REASONING_KEY}
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.Reasoning.APIKey)
}

func TestLoadFromFile_EnabledFlagsValidation(t *testing.T) {
	path := writeConfigFile(t, `
reasoning:
  base_url: http://localhost:9090
cache:
  enabled: true
`)

	_, err := LoadFromFile(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.redis.address")
}

func TestGetAssessorConfig_Fallback(t *testing.T) {
	cfg := &Config{Assessors: map[string]AssessorConfig{
		"query_answer": {Enabled: true, Weight: 1.0, Threshold: 75, Timeout: 1000},
	}}

	known := GetAssessorConfig(cfg, "query_answer")
	assert.Equal(t, 75, known.Threshold)

	unknown := GetAssessorConfig(cfg, "nonexistent")
	assert.False(t, unknown.Enabled)
	assert.Equal(t, 60, unknown.Threshold)

	assert.True(t, IsAssessorEnabled(cfg, "query_answer"))
	assert.False(t, IsAssessorEnabled(cfg, "nonexistent"))
}
