// internal/composite/config.go
package composite

// VerdictPolicy selects how overall_passing is derived from the outcomes.
type VerdictPolicy string

const (
	// PolicyVeto passes when the blended score clears the threshold and no
	// surviving assessor reported a severe hard-gate issue.
	PolicyVeto VerdictPolicy = "veto"

	// PolicyAllPass additionally requires every configured assessor to have
	// succeeded and passed its own threshold.
	PolicyAllPass VerdictPolicy = "all_pass"
)

func (p VerdictPolicy) Valid() bool {
	return p == PolicyVeto || p == PolicyAllPass
}

type Config struct {
	Threshold int
	Policy    VerdictPolicy
}

func LoadConfig() *Config {
	return &Config{
		Threshold: 70,
		Policy:    PolicyVeto,
	}
}
