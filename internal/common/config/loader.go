// internal/common/config/loader.go
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "chunk-auditor/internal/common/errors"
)

// WeightTolerance bounds the allowed drift of the assessor weight sum from 1.0.
const WeightTolerance = 1e-6

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like REASONING_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when absent
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from multiple possible locations
func loadEnvFile() {
	// Try multiple paths (for running from different directories)
	possiblePaths := []string{
		".env",          // Current directory
		"../.env",       // Parent directory
		"../../.env",    // Two levels up (for tests in test/e2e/)
		"../../../.env", // Three levels up
	}

	// Also try to find project root by looking for go.mod
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Printf("✅ Loaded .env from: %s\n", path)
				return
			}
		}
	}

	fmt.Printf("⚠️  .env file not found in any location, using system environment variables\n")
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Walk up directories looking for go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars expands ${VAR} placeholders in string values
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		// Only process string values
		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills secrets from the environment when the file left them empty
func overrideEmptyConfig(cfg *Config) {
	if cfg.Reasoning.APIKey == "" {
		if val := os.Getenv("REASONING_API_KEY"); val != "" {
			cfg.Reasoning.APIKey = val
		}
	}
	if cfg.Reasoning.BaseURL == "" {
		if val := os.Getenv("REASONING_BASE_URL"); val != "" {
			cfg.Reasoning.BaseURL = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}

	if cfg.Database.Elasticsearch.Password == "" {
		if val := os.Getenv("ES_PASSWORD"); val != "" {
			cfg.Database.Elasticsearch.Password = val
		}
	}

	if cfg.Notifications.SNS.TopicARN == "" {
		if val := os.Getenv("AUDIT_SNS_TOPIC_ARN"); val != "" {
			cfg.Notifications.SNS.TopicARN = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile() // Load env file first

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Expand environment variables before unmarshal
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DefaultAssessors returns the stock assessor table used when the config names none.
func DefaultAssessors() map[string]AssessorConfig {
	return map[string]AssessorConfig{
		"query_answer":      {Enabled: true, Weight: 0.25, Threshold: 75, Timeout: 60000},
		"semantic_rubric":   {Enabled: true, Weight: 0.25, Threshold: 70, Timeout: 60000},
		"entity_focus":      {Enabled: true, Weight: 0.25, Threshold: 70, Timeout: 60000},
		"structure_quality": {Enabled: true, Weight: 0.25, Threshold: 70, Timeout: 60000},
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "chunk-auditor"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	// Reasoning defaults; temperature stays at its zero value for low variance
	if cfg.Reasoning.Timeout == 0 {
		cfg.Reasoning.Timeout = 60000
	}
	if cfg.Reasoning.MaxOutputTokens == 0 {
		cfg.Reasoning.MaxOutputTokens = 2000
	}
	if cfg.Reasoning.Model == "" {
		cfg.Reasoning.Model = "reasoner-large"
	}

	// Assessor defaults
	if len(cfg.Assessors) == 0 {
		cfg.Assessors = DefaultAssessors()
	}
	for key, assessor := range cfg.Assessors {
		if assessor.Threshold == 0 {
			assessor.Threshold = 60
		}
		if assessor.Timeout == 0 {
			assessor.Timeout = 60000
		}
		cfg.Assessors[key] = assessor
	}

	// Scoring defaults
	if cfg.Scoring.CompositeThreshold == 0 {
		cfg.Scoring.CompositeThreshold = 70
	}
	if cfg.Scoring.Policy == "" {
		cfg.Scoring.Policy = "veto"
	}
	if cfg.Scoring.TruncationLength == 0 {
		cfg.Scoring.TruncationLength = 3000
	}
	if cfg.Scoring.MaxConcurrentChunks == 0 {
		cfg.Scoring.MaxConcurrentChunks = 3
	}

	// Chunking defaults
	if cfg.Chunking.TargetChunkSize == 0 {
		cfg.Chunking.TargetChunkSize = 800
	}
	if cfg.Chunking.MaxChunkSize == 0 {
		cfg.Chunking.MaxChunkSize = 1500
	}
	if cfg.Chunking.MinChunkSize == 0 {
		cfg.Chunking.MinChunkSize = 100
	}

	// Filtering defaults
	if cfg.Filtering.MinWords == 0 {
		cfg.Filtering.MinWords = 10
	}
	if cfg.Filtering.MaxLinkDensity == 0 {
		cfg.Filtering.MaxLinkDensity = 0.5
	}

	// Reporting defaults
	if cfg.Reporting.Format == "" {
		cfg.Reporting.Format = "markdown"
	}
	if cfg.Reporting.OutputDir == "" {
		cfg.Reporting.OutputDir = "./reports"
	}
	if cfg.Reporting.Verbosity == "" {
		cfg.Reporting.Verbosity = "normal"
	}
	if cfg.Reporting.MaxItems == 0 {
		cfg.Reporting.MaxItems = 3
	}

	// Cache defaults
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 3600
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "chunk-audits"
	}

	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	// Tracing defaults
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1.0
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields.
// The assessor weight table is checked here so a bad table never reaches dispatch.
func validateConfig(cfg *Config) error {
	if cfg.Reasoning.BaseURL == "" {
		return fmt.Errorf("reasoning.base_url is required")
	}

	enabled := 0
	var weightSum float64
	for name, assessor := range cfg.Assessors {
		if !assessor.Enabled {
			continue
		}
		enabled++
		if assessor.Weight <= 0 || assessor.Weight > 1 {
			return apperrors.NewInvalidWeightTableError(
				fmt.Sprintf("assessor %q weight %.6f outside (0,1]", name, assessor.Weight))
		}
		if assessor.Threshold < 0 || assessor.Threshold > 100 {
			return fmt.Errorf("assessor %q threshold %d outside [0,100]", name, assessor.Threshold)
		}
		weightSum += assessor.Weight
	}
	if enabled == 0 {
		return fmt.Errorf("at least one assessor must be enabled")
	}
	if math.Abs(weightSum-1.0) > WeightTolerance {
		return apperrors.NewInvalidWeightTableError(
			fmt.Sprintf("enabled assessor weights sum to %.6f, want 1.0", weightSum))
	}

	if cfg.Scoring.CompositeThreshold < 0 || cfg.Scoring.CompositeThreshold > 100 {
		return fmt.Errorf("scoring.composite_threshold %d outside [0,100]", cfg.Scoring.CompositeThreshold)
	}
	if cfg.Scoring.Policy != "veto" && cfg.Scoring.Policy != "all_pass" {
		return fmt.Errorf("scoring.policy must be \"veto\" or \"all_pass\", got %q", cfg.Scoring.Policy)
	}

	if cfg.Reporting.FilterOutput && cfg.Reporting.MaxItems <= 0 {
		return fmt.Errorf("reporting.max_items must be positive when filter_output is set")
	}

	if cfg.Cache.Enabled && cfg.Cache.Redis.Address == "" {
		return fmt.Errorf("cache.redis.address is required when cache is enabled")
	}

	if cfg.Database.Postgres.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}

	if cfg.Database.Elasticsearch.Enabled {
		if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required")
		}
	}

	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when SNS is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetAssessorConfig retrieves assessor-specific configuration with fallback to defaults
func GetAssessorConfig(cfg *Config, assessorName string) AssessorConfig {
	if assessor, exists := cfg.Assessors[assessorName]; exists {
		return assessor
	}

	// Return default assessor config if not found
	return AssessorConfig{
		Enabled:   false,
		Weight:    0,
		Threshold: 60,
		Timeout:   60000,
	}
}

// IsAssessorEnabled checks if a specific assessor is enabled
func IsAssessorEnabled(cfg *Config, assessorName string) bool {
	if assessor, exists := cfg.Assessors[assessorName]; exists {
		return assessor.Enabled
	}
	return false
}
