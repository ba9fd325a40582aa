// Package assessment defines the contract every quality assessor implements
// and the canonical result model shared by the orchestrator and renderers.
package assessment

import (
	"context"
	"fmt"
)

// ErrorKind classifies why a single assessment failed.
type ErrorKind string

const (
	ErrorKindTimeout       ErrorKind = "TIMEOUT"
	ErrorKindRefusal       ErrorKind = "REFUSAL"
	ErrorKindSchemaInvalid ErrorKind = "SCHEMA_INVALID"
	ErrorKindTransport     ErrorKind = "TRANSPORT"
)

// AssessorError is the only error type an Assessor may return. Every fault in
// the reasoning exchange (declined answer, unparseable shape, deadline,
// transport) is converted to one of the four kinds; partially formed results
// are never returned alongside it.
type AssessorError struct {
	Assessor string
	Kind     ErrorKind
	Detail   string
	Err      error
}

func (e *AssessorError) Error() string {
	return fmt.Sprintf("assessor %s failed [%s]: %s", e.Assessor, e.Kind, e.Detail)
}

func (e *AssessorError) Unwrap() error {
	return e.Err
}

// NewAssessorError builds a typed assessment failure.
func NewAssessorError(assessor string, kind ErrorKind, detail string, err error) *AssessorError {
	return &AssessorError{
		Assessor: assessor,
		Kind:     kind,
		Detail:   detail,
		Err:      err,
	}
}

// Assessor is one pluggable quality dimension. Implementations wrap a single
// call to the external reasoning service: build the procedural question, send
// it with the expected response shape, validate the answer against that shape
// and map it onto a Result. The chunk is read-only; returned Results must not
// be mutated after Assess returns. Implementations must not retry failed
// calls: a fault is reported once as *AssessorError so the orchestrator sees
// true failure rates.
type Assessor interface {
	Name() string
	Assess(ctx context.Context, chunk *Chunk) (*Result, error)
}
