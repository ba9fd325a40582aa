// internal/assessment/score.go
package assessment

// Deduction and cap constants for issue-derived scoring.
const (
	scoreBase         = 95
	deductMinor       = 5
	deductModerate    = 10
	deductSevere      = 20
	capWithSevere     = 65
	capManyModerate   = 75
	manyModerateCount = 3
	scoreFloor        = 10
	scorePerfect      = 100
)

// ScoreMin and ScoreMax bound every reported score.
const (
	ScoreMin = 0
	ScoreMax = 100
)

// ScoreFromIssues derives a score from the issue list alone. Used when the
// reasoning service reports issues but returns a zero score, so a verdict
// never rides on an obviously unfilled field.
func ScoreFromIssues(issues []Issue) int {
	if len(issues) == 0 {
		return scorePerfect
	}

	score := scoreBase
	severeCount := 0
	moderateCount := 0
	for _, issue := range issues {
		switch issue.Severity {
		case SeveritySevere:
			score -= deductSevere
			severeCount++
		case SeverityModerate:
			score -= deductModerate
			moderateCount++
		case SeverityMinor:
			score -= deductMinor
		}
	}

	if severeCount > 0 {
		if score > capWithSevere {
			score = capWithSevere
		}
	} else if moderateCount >= manyModerateCount {
		if score > capManyModerate {
			score = capManyModerate
		}
	}

	if score < scoreFloor {
		score = scoreFloor
	}
	return score
}

// ClampScore forces a reported score into the valid range.
func ClampScore(score int) int {
	if score < ScoreMin {
		return ScoreMin
	}
	if score > ScoreMax {
		return ScoreMax
	}
	return score
}

// ApplyScoreCaps lowers the score to the configured ceiling for every capped
// barrier type present at moderate or worse severity. Caps only ever lower a
// score.
func ApplyScoreCaps(score int, issues []Issue, caps map[string]int) int {
	for _, issue := range issues {
		ceiling, ok := caps[issue.BarrierType]
		if !ok {
			continue
		}
		if issue.Severity != SeverityModerate && issue.Severity != SeveritySevere {
			continue
		}
		if score > ceiling {
			score = ceiling
		}
	}
	return score
}

// MarkHardGates flags severe issues of the named barrier types as composite
// vetoes. The slice is updated in place and returned for chaining.
func MarkHardGates(issues []Issue, barriers []string) []Issue {
	if len(barriers) == 0 {
		return issues
	}
	gated := make(map[string]bool, len(barriers))
	for _, b := range barriers {
		gated[b] = true
	}
	for i := range issues {
		if issues[i].Severity == SeveritySevere && gated[issues[i].BarrierType] {
			issues[i].HardGate = true
		}
	}
	return issues
}

// PolicyFunc decides assessor-local passing from the final score and issues.
type PolicyFunc func(score int, issues []Issue) bool

// ThresholdPolicy passes when the score meets the threshold.
func ThresholdPolicy(threshold int) PolicyFunc {
	return func(score int, _ []Issue) bool {
		return score >= threshold
	}
}

// GatedThresholdPolicy passes when the score meets the threshold and no
// severe issue of a gated barrier type is present.
func GatedThresholdPolicy(threshold int, barriers ...string) PolicyFunc {
	gated := make(map[string]bool, len(barriers))
	for _, b := range barriers {
		gated[b] = true
	}
	return func(score int, issues []Issue) bool {
		if score < threshold {
			return false
		}
		for _, issue := range issues {
			if issue.Severity == SeveritySevere && gated[issue.BarrierType] {
				return false
			}
		}
		return true
	}
}
