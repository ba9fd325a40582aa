// internal/composite/weights_test.go
package composite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights map[string]float64
		valid   bool
	}{
		{
			name:    "even quarters",
			weights: map[string]float64{"a": 0.25, "b": 0.25, "c": 0.25, "d": 0.25},
			valid:   true,
		},
		{
			name:    "uneven but complete",
			weights: map[string]float64{"a": 0.4, "b": 0.3, "c": 0.2, "d": 0.1},
			valid:   true,
		},
		{
			name:    "single assessor",
			weights: map[string]float64{"a": 1.0},
			valid:   true,
		},
		{
			name:    "within tolerance",
			weights: map[string]float64{"a": 0.5, "b": 0.4999999},
			valid:   true,
		},
		{
			name:    "off by more than tolerance",
			weights: map[string]float64{"a": 0.5, "b": 0.49},
			valid:   false,
		},
		{
			name:    "sum above one",
			weights: map[string]float64{"a": 0.75, "b": 0.75},
			valid:   false,
		},
		{
			name:    "zero weight",
			weights: map[string]float64{"a": 0.0, "b": 1.0},
			valid:   false,
		},
		{
			name:    "negative weight",
			weights: map[string]float64{"a": -0.5, "b": 1.5},
			valid:   false,
		},
		{
			name:    "empty table",
			weights: map[string]float64{},
			valid:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWeights(tt.weights)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidWeightTable)
			}
		})
	}
}

func TestRenormalize(t *testing.T) {
	weights := map[string]float64{"a": 0.4, "b": 0.3, "c": 0.2, "d": 0.1}

	tests := []struct {
		name      string
		survivors []string
	}{
		{name: "all survive", survivors: []string{"a", "b", "c", "d"}},
		{name: "one lost", survivors: []string{"a", "c", "d"}},
		{name: "heaviest lost", survivors: []string{"b", "c", "d"}},
		{name: "two lost", survivors: []string{"b", "d"}},
		{name: "single survivor", survivors: []string{"d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			effective := renormalize(weights, tt.survivors)

			require.Len(t, effective, len(weights), "every configured assessor keeps an entry")

			sum := 0.0
			for _, name := range tt.survivors {
				assert.Greater(t, effective[name], 0.0)
				sum += effective[name]
			}
			assert.InDelta(t, 1.0, sum, WeightTolerance)

			survived := make(map[string]bool, len(tt.survivors))
			for _, name := range tt.survivors {
				survived[name] = true
			}
			for name := range weights {
				if !survived[name] {
					assert.Zero(t, effective[name])
				}
			}
		})
	}
}

func TestRenormalize_PreservesProportions(t *testing.T) {
	weights := map[string]float64{"a": 0.4, "b": 0.3, "c": 0.2, "d": 0.1}

	effective := renormalize(weights, []string{"a", "b"})

	// a:b stays 4:3 after redistribution.
	assert.InDelta(t, 0.4/0.7, effective["a"], WeightTolerance)
	assert.InDelta(t, 0.3/0.7, effective["b"], WeightTolerance)
}

func TestConfigFingerprint(t *testing.T) {
	weights := map[string]float64{"a": 0.5, "b": 0.5}

	base := ConfigFingerprint(weights, 70, PolicyVeto)

	assert.Equal(t, base, ConfigFingerprint(map[string]float64{"b": 0.5, "a": 0.5}, 70, PolicyVeto),
		"map iteration order must not leak into the fingerprint")
	assert.NotEqual(t, base, ConfigFingerprint(weights, 80, PolicyVeto))
	assert.NotEqual(t, base, ConfigFingerprint(weights, 70, PolicyAllPass))
	assert.NotEqual(t, base, ConfigFingerprint(map[string]float64{"a": 0.6, "b": 0.4}, 70, PolicyVeto))
	assert.Len(t, base, 16)
}
