// internal/assessors/structure/config.go
package structure

import "time"

type Config struct {
	Weight           float64
	Threshold        int
	Timeout          time.Duration
	TruncationLength int
}

func LoadConfig() *Config {
	return &Config{
		Weight:           0.25,
		Threshold:        70,
		Timeout:          60 * time.Second,
		TruncationLength: 3000,
	}
}
