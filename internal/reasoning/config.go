// internal/reasoning/config.go
package reasoning

import "time"

type Config struct {
	BaseURL         string
	APIKey          string
	Model           string
	Timeout         time.Duration
	MaxOutputTokens int
	Temperature     float64
}

func LoadConfig() *Config {
	return &Config{
		Model:           "reasoner-large",
		Timeout:         60 * time.Second,
		MaxOutputTokens: 2000,
	}
}
