// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"translation-workers/internal/common/logger"
	"translation-workers/internal/common/metrics"
	"translation-workers/internal/models"
	"translation-workers/internal/recommendation"
)

const catalogKeyPrefix = "catalog:"

// CachedCatalog serves catalog reads from Redis, falling through to the
// backing reader on a miss or any cache error. Cached profiles, including
// their availability flag, can be up to one TTL old; Invalidate drops a pair
// immediately when availability changes.
type CachedCatalog struct {
	next   recommendation.CatalogReader
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

var _ recommendation.CatalogReader = (*CachedCatalog)(nil)

func NewCachedCatalog(next recommendation.CatalogReader, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedCatalog {
	return &CachedCatalog{next: next, redis: client, ttl: ttl, logger: log}
}

func CatalogKey(sourceLanguage, targetLanguage string) string {
	return catalogKeyPrefix + sourceLanguage + ":" + targetLanguage
}

func (c *CachedCatalog) FindTranslators(ctx context.Context, sourceLanguage, targetLanguage string) ([]models.TranslatorProfile, error) {
	key := CatalogKey(sourceLanguage, targetLanguage)

	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cached []models.TranslatorProfile
		if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
			metrics.CatalogCacheLookups.WithLabelValues(metrics.CacheHit).Inc()
			return cached, nil
		}
		metrics.CatalogCacheLookups.WithLabelValues(metrics.CacheError).Inc()
		c.logger.Warn("discarding undecodable catalog cache entry", map[string]interface{}{"key": key})
	case errors.Is(err, redis.Nil):
		metrics.CatalogCacheLookups.WithLabelValues(metrics.CacheMiss).Inc()
	default:
		metrics.CatalogCacheLookups.WithLabelValues(metrics.CacheError).Inc()
		c.logger.Warn("catalog cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	translators, err := c.next.FindTranslators(ctx, sourceLanguage, targetLanguage)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(translators)
	if err != nil {
		return translators, nil
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return translators, nil
}

// Invalidate drops the cached catalog of one pair.
func (c *CachedCatalog) Invalidate(ctx context.Context, sourceLanguage, targetLanguage string) error {
	return c.redis.Del(ctx, CatalogKey(sourceLanguage, targetLanguage)).Err()
}
