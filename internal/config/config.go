package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/genome-variant-explorer/internal/domain"
)

// EnvPrefix is prepended to every environment override, e.g.
// GENOME_EXPLORER_SERVER_PORT or GENOME_EXPLORER_UPSTREAMS_NCBI_API_KEY.
const EnvPrefix = "GENOME_EXPLORER"

// Manager loads the application configuration from defaults, an optional
// config file and the environment.
type Manager struct {
	v      *viper.Viper
	file   string
	config *domain.Config
}

var _ domain.ConfigManager = (*Manager)(nil)

// NewManager creates a new configuration manager. configFile may be empty, in
// which case config.yaml is looked up in the usual places.
func NewManager(configFile string) (*Manager, error) {
	m := &Manager{file: configFile}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.file != "" {
		v.SetConfigFile(m.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/genome-explorer/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// A missing config file is fine; defaults and environment still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "150s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Upstreams
	v.SetDefault("upstreams.ucsc_base_url", "https://api.genome.ucsc.edu")
	v.SetDefault("upstreams.gene_search_base_url", "https://clinicaltables.nlm.nih.gov/api/ncbi_genes/v3")
	v.SetDefault("upstreams.eutils_base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("upstreams.ncbi_api_key", "")
	v.SetDefault("upstreams.prediction_base_url", "")
	v.SetDefault("upstreams.user_agent", "genome-variant-explorer/1.0")
	v.SetDefault("upstreams.timeout", "15s")
	v.SetDefault("upstreams.analysis_timeout", "120s")
	v.SetDefault("upstreams.ucsc_rate_limit", 5)
	v.SetDefault("upstreams.ncbi_rate_limit", 0)
	v.SetDefault("upstreams.max_retries", 3)
	v.SetDefault("upstreams.retry_base_delay", "200ms")
	v.SetDefault("upstreams.analysis_max_attempts", 3)
	v.SetDefault("upstreams.breaker_max_failures", 5)
	v.SetDefault("upstreams.breaker_timeout", "30s")

	// Analysis
	v.SetDefault("analysis.concurrency", 4)

	// Cache
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.memory_size", 1000)
	v.SetDefault("cache.default_ttl", "1h")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.key_prefix", "genome-explorer")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// MCP
	v.SetDefault("mcp.server_name", "genome-variant-explorer")
	v.SetDefault("mcp.server_version", "1.0.0")

	// Database
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", DefaultSQLitePath())
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.auto_migrate", true)

	// Webhook
	v.SetDefault("webhook.signing_secret", "")
	v.SetDefault("webhook.tolerance", "5m")

	// Rate limit
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.idle_ttl", "10m")

	v.SetDefault("environment", "development")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetUpstreamConfig returns the upstream service configuration
func (m *Manager) GetUpstreamConfig() *domain.UpstreamConfig {
	return &m.config.Upstreams
}

// ConfigFileUsed returns the path of the config file read, or "".
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// Settings returns every resolved setting as a nested map.
func (m *Manager) Settings() map[string]any {
	return m.v.AllSettings()
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	for name, raw := range map[string]string{
		"ucsc_base_url":        config.Upstreams.UCSCBaseURL,
		"gene_search_base_url": config.Upstreams.GeneSearchBaseURL,
		"eutils_base_url":      config.Upstreams.EutilsBaseURL,
	} {
		if err := validateURL(name, raw, true); err != nil {
			return err
		}
	}
	if err := validateURL("prediction_base_url", config.Upstreams.PredictionBaseURL, false); err != nil {
		return err
	}
	if config.Upstreams.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative: %d", config.Upstreams.MaxRetries)
	}
	if config.Upstreams.UCSCRateLimit < 0 || config.Upstreams.NCBIRateLimit < 0 {
		return fmt.Errorf("upstream rate limits must not be negative")
	}

	if config.Analysis.Concurrency < 1 {
		return fmt.Errorf("analysis concurrency must be at least 1: %d", config.Analysis.Concurrency)
	}

	if config.Cache.Enabled && config.Cache.MemorySize < 1 {
		return fmt.Errorf("cache memory_size must be at least 1 when the cache is enabled")
	}

	switch strings.ToLower(config.Database.Driver) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}
	if config.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}

	if config.RateLimit.Enabled && (config.RateLimit.RequestsPerSecond <= 0 || config.RateLimit.Burst < 1) {
		return fmt.Errorf("rate limit needs a positive requests_per_second and burst")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

func validateURL(name, raw string, required bool) error {
	if raw == "" {
		if required {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s is not an absolute URL: %q", name, raw)
	}
	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.v.GetString("environment")) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.v.GetString("environment"))
	return env == "development" || env == "dev" || env == ""
}
