// internal/composite/weights.go
package composite

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
)

// WeightTolerance is the permitted drift when checking that weights sum to 1.
const WeightTolerance = 1e-6

var (
	ErrInvalidWeightTable = errors.New("INVALID_WEIGHT_TABLE")
	ErrAllAssessorsFailed = errors.New("ALL_ASSESSORS_FAILED")
)

// ValidateWeights checks that every weight lies in (0, 1] and that the table
// sums to 1.0 within WeightTolerance. A bad table is reported, never
// silently normalized.
func ValidateWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("%w: no assessors configured", ErrInvalidWeightTable)
	}

	sum := 0.0
	for name, weight := range weights {
		if weight <= 0 || weight > 1 {
			return fmt.Errorf("%w: weight %v for %s outside (0, 1]", ErrInvalidWeightTable, weight, name)
		}
		sum += weight
	}

	if math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("%w: weights sum to %v, expected 1.0", ErrInvalidWeightTable, sum)
	}
	return nil
}

// renormalize redistributes the configured weights across the surviving
// assessors so they sum to 1 again. Assessors outside the survivor set keep
// an entry with effective weight 0.
func renormalize(weights map[string]float64, survivors []string) map[string]float64 {
	total := 0.0
	for _, name := range survivors {
		total += weights[name]
	}

	effective := make(map[string]float64, len(weights))
	for name := range weights {
		effective[name] = 0
	}
	if total == 0 {
		return effective
	}
	for _, name := range survivors {
		effective[name] = weights[name] / total
	}
	return effective
}

// ConfigFingerprint hashes the settings that influence a verdict, so cached
// results are keyed to the configuration that produced them.
func ConfigFingerprint(weights map[string]float64, threshold int, policy VerdictPolicy) string {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		fmt.Fprintf(h, "%s=%.6f;", name, weights[name])
	}
	fmt.Fprintf(h, "threshold=%d;policy=%s", threshold, policy)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
