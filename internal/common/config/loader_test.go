package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: translation-workers
  environment: test
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: translations
    user: matcher
    password: ${TEST_PG_PASSWORD}
  redis:
    address: localhost:6379
workers:
  recommend-translators:
    enabled: true
    max_jobs_active: 8
  filter-translators:
    enabled: false
recommendation:
  content_weight: 0.7
  collaborative_weight: 0.3
catalog:
  cache_ttl_ms: 60000
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// Loading
// ==========================

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "s3cret")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "localhost:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, 60000, cfg.Catalog.CacheTTLMs)
	assert.Equal(t, 8, cfg.Workers["recommend-translators"].MaxJobsActive)
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, CatalogBackendPostgres, cfg.Catalog.Backend)
	assert.Equal(t, uint32(5), cfg.Catalog.Breaker.FailureThreshold)
	assert.Equal(t, 5000, cfg.Recommendation.TimeoutMs)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30000, cfg.Workers["recommend-translators"].Timeout)
	assert.Equal(t, 5, cfg.Events.TopN)
	assert.False(t, cfg.Events.Enabled())
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("DATABASE_POSTGRES_HOST", "db.internal")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

// ==========================
// Validation
// ==========================

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			Camunda: CamundaConfig{BrokerAddress: "localhost:26500"},
			Database: DatabaseConfig{
				Postgres: PostgresConfig{Host: "localhost", Database: "translations", User: "matcher"},
			},
		}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing broker", func(c *Config) { c.Camunda.BrokerAddress = "" }, "camunda.broker_address"},
		{"missing postgres host", func(c *Config) { c.Database.Postgres.Host = "" }, "database.postgres.host"},
		{"unknown backend", func(c *Config) { c.Catalog.Backend = "mongo" }, "catalog.backend"},
		{"elasticsearch without addresses", func(c *Config) { c.Catalog.Backend = CatalogBackendElasticsearch }, "database.elasticsearch.addresses"},
		{"cache without redis", func(c *Config) { c.Catalog.CacheTTLMs = 1000 }, "database.redis.address"},
		{"cache ttl above cap", func(c *Config) {
			c.Catalog.CacheTTLMs = MaxCatalogCacheTTLMs + 1
			c.Database.Redis.Address = "localhost:6379"
		}, "catalog.cache_ttl_ms"},
		{"tracing without endpoint", func(c *Config) { c.Tracing.Enabled = true }, "tracing.jaeger_endpoint"},
		{"hybrid weights above one", func(c *Config) { c.Recommendation.ContentWeight = floatPtr(0.9) }, "hybrid weights"},
		{"negative weight", func(c *Config) { c.Recommendation.RatingWeight = floatPtr(-0.1) }, "rating weight"},
		{"zero unavailable penalty", func(c *Config) { c.Recommendation.UnavailablePenalty = floatPtr(0) }, "unavailable_penalty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// ==========================
// Helpers
// ==========================

func floatPtr(v float64) *float64 { return &v }

func TestRecommendationConfig_Scoring(t *testing.T) {
	scoring := RecommendationConfig{ContentWeight: floatPtr(0.7), CollaborativeWeight: floatPtr(0.3), TimeoutMs: 250}.Scoring()

	assert.Equal(t, 0.7, scoring.ContentWeight)
	assert.Equal(t, 0.3, scoring.CollaborativeWeight)
	assert.Equal(t, 0.5, scoring.LanguageMatchBase)
	assert.Equal(t, 250*time.Millisecond, scoring.Timeout)

	unset := RecommendationConfig{}.Scoring()
	assert.Equal(t, 0.6, unset.ContentWeight)
	assert.Equal(t, 0.4, unset.CollaborativeWeight)
	assert.Equal(t, 0.5, unset.UnavailablePenalty)
}

func TestLoadFromFile_ExplicitZeroWeight(t *testing.T) {
	body := strings.Replace(baseYAML, "  content_weight: 0.7\n  collaborative_weight: 0.3\n", "  collaborative_weight: 0\n", 1)
	require.NotEqual(t, baseYAML, body)

	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)
	require.NotNil(t, cfg.Recommendation.CollaborativeWeight)

	scoring := cfg.Recommendation.Scoring()
	assert.Equal(t, 0.0, scoring.CollaborativeWeight)
	assert.Equal(t, 0.6, scoring.ContentWeight)

	// the recommender applies defaults again; the zero must survive
	again := scoring.WithDefaults()
	assert.Equal(t, 0.0, again.CollaborativeWeight)
	assert.Equal(t, 0.6, again.ContentWeight)
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"filter-translators": {Enabled: false, MaxJobsActive: 2},
	}}

	assert.Equal(t, 2, GetWorkerConfig(cfg, "filter-translators").MaxJobsActive)
	assert.True(t, GetWorkerConfig(cfg, "recommend-translators").Enabled)
	assert.False(t, IsWorkerEnabled(cfg, "filter-translators"))
	assert.True(t, IsWorkerEnabled(cfg, "recommend-translators"))
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
