// internal/assessors/queryanswer/config.go
package queryanswer

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
		Threshold:        75,
		Timeout:          60 * time.Second,
		TruncationLength: 3000,
	}
}
