package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genome-variant-explorer/internal/domain"
)

func TestNewManager_Defaults(t *testing.T) {
	t.Setenv(DataDirEnv, "/tmp/genome-explorer-test")
	t.Chdir(t.TempDir())

	m, err := NewManager("")
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	cfg := m.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.genome.ucsc.edu", cfg.Upstreams.UCSCBaseURL)
	assert.Equal(t, "https://eutils.ncbi.nlm.nih.gov/entrez/eutils", cfg.Upstreams.EutilsBaseURL)
	assert.Equal(t, 15*time.Second, cfg.Upstreams.Timeout)
	assert.Equal(t, 3, cfg.Upstreams.AnalysisAttempts)
	assert.Equal(t, uint32(5), cfg.Upstreams.BreakerMaxFailures)
	assert.Equal(t, 4, cfg.Analysis.Concurrency)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/genome-explorer-test/users.db", cfg.Database.URL)
	assert.Equal(t, 5*time.Minute, cfg.Webhook.Tolerance)
	assert.Empty(t, m.ConfigFileUsed())
	assert.True(t, m.IsDevelopment())
	assert.False(t, m.IsProduction())
}

func TestNewManager_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GENOME_EXPLORER_SERVER_PORT", "9090")
	t.Setenv("GENOME_EXPLORER_UPSTREAMS_NCBI_API_KEY", "test-key")
	t.Setenv("GENOME_EXPLORER_UPSTREAMS_PREDICTION_BASE_URL", "https://modal.example/analyze")
	t.Setenv("GENOME_EXPLORER_ANALYSIS_CONCURRENCY", "8")
	t.Setenv("GENOME_EXPLORER_LOGGING_LEVEL", "debug")
	t.Setenv("GENOME_EXPLORER_ENVIRONMENT", "production")

	m, err := NewManager("")
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	cfg := m.GetConfig()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "test-key", m.GetUpstreamConfig().NCBIAPIKey)
	assert.Equal(t, "https://modal.example/analyze", cfg.Upstreams.PredictionBaseURL)
	assert.Equal(t, 8, cfg.Analysis.Concurrency)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, m.IsProduction())
}

func TestNewManager_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "explorer.yaml")
	content := `
server:
  port: 7070
upstreams:
  max_retries: 1
cache:
  enabled: false
  redis_url: redis://cache:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 1, cfg.Upstreams.MaxRetries)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis://cache:6379", cfg.Cache.RedisURL)
	assert.Equal(t, path, m.ConfigFileUsed())

	server, ok := m.Settings()["server"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 7070, server["port"])
}

func TestNewManager_BrokenConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [port"), 0644))

	_, err := NewManager(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Config)
	}{
		{"bad port", func(c *domain.Config) { c.Server.Port = 70000 }},
		{"missing ucsc url", func(c *domain.Config) { c.Upstreams.UCSCBaseURL = "" }},
		{"relative prediction url", func(c *domain.Config) { c.Upstreams.PredictionBaseURL = "/analyze" }},
		{"negative retries", func(c *domain.Config) { c.Upstreams.MaxRetries = -1 }},
		{"zero concurrency", func(c *domain.Config) { c.Analysis.Concurrency = 0 }},
		{"unknown driver", func(c *domain.Config) { c.Database.Driver = "mysql" }},
		{"rate limit without burst", func(c *domain.Config) { c.RateLimit.Burst = 0 }},
		{"bad log level", func(c *domain.Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			m, err := NewManager("")
			require.NoError(t, err)

			tt.mutate(m.GetConfig())
			assert.Error(t, m.Validate())
		})
	}
}

func TestEnsureDataDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "users.db")

	require.NoError(t, EnsureDataDir(dbPath))

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(domain.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	fallback := newLogger(domain.LoggingConfig{Level: "nonsense", Format: "text"}, &buf)
	assert.Equal(t, logrus.InfoLevel, fallback.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, fallback.Formatter)
}
