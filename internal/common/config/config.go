// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig                 `mapstructure:"app"`
	Reasoning     ReasoningConfig           `mapstructure:"reasoning"`
	Assessors     map[string]AssessorConfig `mapstructure:"assessors"`
	Scoring       ScoringConfig             `mapstructure:"scoring"`
	Chunking      ChunkingConfig            `mapstructure:"chunking"`
	Filtering     FilteringConfig           `mapstructure:"filtering"`
	Reporting     ReportingConfig           `mapstructure:"reporting"`
	Cache         CacheConfig               `mapstructure:"cache"`
	Database      DatabaseConfig            `mapstructure:"database"`
	Notifications NotificationConfig        `mapstructure:"notifications"`
	Server        ServerConfig              `mapstructure:"server"`
	Tracing       TracingConfig             `mapstructure:"tracing"`
	Logging       LoggingConfig             `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ReasoningConfig holds settings for the external reasoning service.
type ReasoningConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	APIKey          string  `mapstructure:"api_key"`
	Model           string  `mapstructure:"model"`
	Timeout         int     `mapstructure:"timeout"` // milliseconds
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
}

// AssessorConfig holds the core settings applicable to every assessor.
type AssessorConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Weight    float64 `mapstructure:"weight"`
	Threshold int     `mapstructure:"threshold"`
	Timeout   int     `mapstructure:"timeout"` // milliseconds
}

// ScoringConfig holds composite verdict settings.
type ScoringConfig struct {
	CompositeThreshold  int    `mapstructure:"composite_threshold"`
	Policy              string `mapstructure:"policy"` // "veto" or "all_pass"
	TruncationLength    int    `mapstructure:"truncation_length"`
	MaxConcurrentChunks int    `mapstructure:"max_concurrent_chunks"`
}

// ChunkingConfig holds document splitting settings.
type ChunkingConfig struct {
	HeaderBased     bool `mapstructure:"header_based"`
	TargetChunkSize int  `mapstructure:"target_chunk_size"` // characters
	MaxChunkSize    int  `mapstructure:"max_chunk_size"`
	MinChunkSize    int  `mapstructure:"min_chunk_size"`
}

// FilteringConfig holds chunk filtering settings.
type FilteringConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	MinWords       int      `mapstructure:"min_words"`
	MaxLinkDensity float64  `mapstructure:"max_link_density"`
	SkipPatterns   []string `mapstructure:"skip_patterns"`
}

// ReportingConfig holds report rendering settings.
type ReportingConfig struct {
	Format       string `mapstructure:"format"` // "markdown", "json", "both"
	OutputDir    string `mapstructure:"output_dir"`
	Verbosity    string `mapstructure:"verbosity"` // "concise", "normal", "detailed"
	FilterOutput bool   `mapstructure:"filter_output"`
	MaxItems     int    `mapstructure:"max_items"`
}

// CacheConfig holds composite result cache settings.
type CacheConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	TTL     int         `mapstructure:"ttl"` // seconds
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	Index      string   `mapstructure:"index"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

// NotificationConfig holds settings for run completion notifications.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	AWS     struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	Email struct {
		Enabled   bool     `mapstructure:"enabled"`
		FromEmail string   `mapstructure:"from_email"`
		ToEmails  []string `mapstructure:"to_emails"`
	} `mapstructure:"email"`
}

// ServerConfig holds HTTP service mode settings.
type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// TracingConfig holds distributed tracing settings.
type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
