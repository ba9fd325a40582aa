// internal/render/options.go
package render

// Verbosity selects how much of a verdict the human view carries.
type Verbosity string

const (
	// VerbosityConcise renders the score line and one assessment sentence.
	VerbosityConcise Verbosity = "concise"
	// VerbosityNormal adds per-assessor strengths, issues and recommendations.
	VerbosityNormal Verbosity = "normal"
	// VerbosityDetailed adds issue evidence, the effective weight table and
	// the degraded flag with the failed assessor names.
	VerbosityDetailed Verbosity = "detailed"
)

func (v Verbosity) Valid() bool {
	switch v {
	case VerbosityConcise, VerbosityNormal, VerbosityDetailed:
		return true
	}
	return false
}

// FormattingOptions is pure configuration for Render. It carries no identity
// and is never mutated.
type FormattingOptions struct {
	Verbosity    Verbosity
	FilterOutput bool
	MaxItems     int
}

func DefaultOptions() FormattingOptions {
	return FormattingOptions{
		Verbosity:    VerbosityNormal,
		FilterOutput: false,
		MaxItems:     5,
	}
}
