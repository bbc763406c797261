// internal/common/config/config.go
package config

import (
	"fmt"

	"translation-workers/internal/recommendation"
)

// Config is the main application configuration struct.
type Config struct {
	App            AppConfig               `mapstructure:"app"`
	Camunda        CamundaConfig           `mapstructure:"camunda"`
	Database       DatabaseConfig          `mapstructure:"database"`
	Workers        map[string]WorkerConfig `mapstructure:"workers"`
	Logging        LoggingConfig           `mapstructure:"logging"`
	Recommendation RecommendationConfig    `mapstructure:"recommendation"`
	Catalog        CatalogConfig           `mapstructure:"catalog"`
	Events         EventsConfig            `mapstructure:"events"`
	Tracing        TracingConfig           `mapstructure:"tracing"`
	RegistryPath   string                  `mapstructure:"registry_path"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
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
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RecommendationConfig mirrors the scoring weights. Weights are pointers so
// an explicit 0 (content_weight or collaborative_weight alone, say) is kept
// apart from an absent key, which takes the recommender default.
type RecommendationConfig struct {
	LanguageMatchBase   *float64 `mapstructure:"language_match_base"`
	TagMatchWeight      *float64 `mapstructure:"tag_match_weight"`
	RatingWeight        *float64 `mapstructure:"rating_weight"`
	UnavailablePenalty  *float64 `mapstructure:"unavailable_penalty"`
	ContentWeight       *float64 `mapstructure:"content_weight"`
	CollaborativeWeight *float64 `mapstructure:"collaborative_weight"`
	MaxRating           float64  `mapstructure:"max_rating"`
	StoredRatingScale   float64  `mapstructure:"stored_rating_scale"`
	TimeoutMs           int      `mapstructure:"timeout_ms"`
}

// Scoring converts the section into the recommender's tuning config.
func (r RecommendationConfig) Scoring() *recommendation.Config {
	cfg := recommendation.DefaultConfig()
	override(&cfg.LanguageMatchBase, r.LanguageMatchBase)
	override(&cfg.TagMatchWeight, r.TagMatchWeight)
	override(&cfg.RatingWeight, r.RatingWeight)
	override(&cfg.UnavailablePenalty, r.UnavailablePenalty)
	override(&cfg.ContentWeight, r.ContentWeight)
	override(&cfg.CollaborativeWeight, r.CollaborativeWeight)
	if r.MaxRating > 0 {
		cfg.MaxRating = r.MaxRating
	}
	if r.StoredRatingScale > 0 {
		cfg.StoredRatingScale = r.StoredRatingScale
	}
	if r.TimeoutMs > 0 {
		cfg.Timeout = GetDuration(r.TimeoutMs)
	}
	return cfg.WithDefaults()
}

func override(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// MaxCatalogCacheTTLMs caps how stale a cached availability flag may be.
const MaxCatalogCacheTTLMs = 5 * 60 * 1000

const (
	CatalogBackendPostgres      = "postgres"
	CatalogBackendElasticsearch = "elasticsearch"
)

type CatalogConfig struct {
	Backend    string        `mapstructure:"backend"`
	CacheTTLMs int           `mapstructure:"cache_ttl_ms"` // 0 disables the redis cache; bounds availability staleness
	Breaker    BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxRequests      uint32 `mapstructure:"max_requests"`
	IntervalMs       int    `mapstructure:"interval_ms"`
	TimeoutMs        int    `mapstructure:"timeout_ms"`
	FailureThreshold uint32 `mapstructure:"failure_threshold"`
}

type EventsConfig struct {
	Region      string `mapstructure:"region"`
	SNSTopicARN string `mapstructure:"sns_topic_arn"`
	TopN        int    `mapstructure:"top_n"`
}

// Enabled reports whether recommendation events are published.
func (e EventsConfig) Enabled() bool {
	return e.SNSTopicARN != ""
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
