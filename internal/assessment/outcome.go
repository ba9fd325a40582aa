// internal/assessment/outcome.go
package assessment

import (
	"context"
	"errors"
)

// OutcomeStatus tags the two states an attempted assessment can end in.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Failure records why a single assessment produced no result.
type Failure struct {
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail"`
}

// Outcome is the per-assessor slot in a composite result. Exactly one of
// Result and Failure is set, matching Status.
type Outcome struct {
	Assessor string        `json:"assessor"`
	Status   OutcomeStatus `json:"status"`
	Result   *Result       `json:"result,omitempty"`
	Failure  *Failure      `json:"failure,omitempty"`
}

// Succeed wraps a completed result as an outcome.
func Succeed(assessor string, result *Result) Outcome {
	return Outcome{
		Assessor: assessor,
		Status:   OutcomeSucceeded,
		Result:   result,
	}
}

// Fail records an assessment that produced no result.
func Fail(assessor string, kind ErrorKind, detail string) Outcome {
	return Outcome{
		Assessor: assessor,
		Status:   OutcomeFailed,
		Failure:  &Failure{Kind: kind, Detail: detail},
	}
}

// FailFromError maps an assessor error onto a failed outcome. Errors that are
// not an *AssessorError fall back to the timeout kind when a deadline fired
// and the transport kind otherwise.
func FailFromError(assessor string, err error) Outcome {
	var ae *AssessorError
	if errors.As(err, &ae) {
		return Fail(assessor, ae.Kind, ae.Detail)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Fail(assessor, ErrorKindTimeout, err.Error())
	}
	return Fail(assessor, ErrorKindTransport, err.Error())
}

// Succeeded reports whether the assessment completed with a result.
func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeSucceeded
}
