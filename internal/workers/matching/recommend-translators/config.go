// internal/workers/matching/recommend-translators/config.go
package recommendtranslators

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxJobsActive    int           `mapstructure:"max_jobs_active"`
	JobTimeout       time.Duration `mapstructure:"timeout"`
	RecommendTimeout time.Duration `mapstructure:"recommend_timeout"`
	FallbackTimeout  time.Duration `mapstructure:"fallback_timeout"`
	EventTimeout     time.Duration `mapstructure:"event_timeout"`
	EventTopN        int           `mapstructure:"event_top_n"`

	// InputSchema is taken from the activity registry, not the config file.
	InputSchema map[string]interface{} `mapstructure:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:          true,
		MaxJobsActive:    5,
		JobTimeout:       30 * time.Second,
		RecommendTimeout: 5 * time.Second,
		FallbackTimeout:  2 * time.Second,
		EventTimeout:     2 * time.Second,
		EventTopN:        5,
	}
}

func (c *Config) Validate() error {
	if c.JobTimeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RecommendTimeout <= 0 {
		return fmt.Errorf("recommend_timeout must be positive")
	}
	if c.RecommendTimeout > c.JobTimeout {
		return fmt.Errorf("recommend_timeout must not exceed the job timeout")
	}
	if c.FallbackTimeout <= 0 {
		return fmt.Errorf("fallback_timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}
