package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstreams UpstreamConfig  `mapstructure:"upstreams"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	MCP       MCPConfig       `mapstructure:"mcp"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// UpstreamConfig holds the base URLs and resilience settings of every
// external service the genome layer talks to. It is passed explicitly into
// the clients; nothing is read from the process environment.
type UpstreamConfig struct {
	UCSCBaseURL        string        `mapstructure:"ucsc_base_url"`
	GeneSearchBaseURL  string        `mapstructure:"gene_search_base_url"`
	EutilsBaseURL      string        `mapstructure:"eutils_base_url"`
	NCBIAPIKey         string        `mapstructure:"ncbi_api_key"`
	PredictionBaseURL  string        `mapstructure:"prediction_base_url"`
	UserAgent          string        `mapstructure:"user_agent"`
	Timeout            time.Duration `mapstructure:"timeout"`
	AnalysisTimeout    time.Duration `mapstructure:"analysis_timeout"`
	UCSCRateLimit      float64       `mapstructure:"ucsc_rate_limit"`
	NCBIRateLimit      float64       `mapstructure:"ncbi_rate_limit"`
	MaxRetries         int           `mapstructure:"max_retries"`
	RetryBaseDelay     time.Duration `mapstructure:"retry_base_delay"`
	AnalysisAttempts   int           `mapstructure:"analysis_max_attempts"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
}

// AnalysisConfig controls the variant analysis fan-out.
type AnalysisConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	MemorySize int           `mapstructure:"memory_size"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	RedisURL   string        `mapstructure:"redis_url"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
}

// DatabaseConfig represents the user store connection configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // "sqlite", "postgres"
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// WebhookConfig represents identity-provider webhook verification settings
type WebhookConfig struct {
	SigningSecret string        `mapstructure:"signing_secret"`
	Tolerance     time.Duration `mapstructure:"tolerance"`
}

// RateLimitConfig represents per-client rate limiting on the HTTP surface
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl"`
}
