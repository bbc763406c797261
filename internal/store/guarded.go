// internal/store/guarded.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"translation-workers/internal/common/logger"
	"translation-workers/internal/common/metrics"
	"translation-workers/internal/models"
	"translation-workers/internal/recommendation"
)

// ErrStoreUnavailable is returned without touching the backend while a
// breaker is open.
var ErrStoreUnavailable = errors.New("STORE_UNAVAILABLE")

type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Breaker fails reads fast once a backend keeps erroring.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[interface{}]
}

func NewBreaker(name string, settings BreakerSettings, log logger.Logger) *Breaker {
	metrics.StoreBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		// A cancelled request says nothing about backend health. A deadline
		// does: a hung backend only ever surfaces as one.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.StoreBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			log.Warn("store breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &Breaker{name: name, cb: cb}
}

func (b *Breaker) State() string {
	return b.cb.State().String()
}

func (b *Breaker) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.StoreRequests.WithLabelValues(b.name, metrics.ResultRejected).Inc()
			return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, b.name, err)
		}
		metrics.StoreRequests.WithLabelValues(b.name, metrics.ResultFailure).Inc()
		return nil, err
	}
	metrics.StoreRequests.WithLabelValues(b.name, metrics.ResultSuccess).Inc()
	return result, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// GuardedStore routes catalog and history reads through their own breakers
// so a failing search backend does not block history reads.
type GuardedStore struct {
	catalog        recommendation.CatalogReader
	history        recommendation.HistoryReader
	catalogBreaker *Breaker
	historyBreaker *Breaker
}

var _ recommendation.Store = (*GuardedStore)(nil)

func NewGuardedStore(catalog recommendation.CatalogReader, history recommendation.HistoryReader, catalogBreaker, historyBreaker *Breaker) *GuardedStore {
	return &GuardedStore{
		catalog:        catalog,
		history:        history,
		catalogBreaker: catalogBreaker,
		historyBreaker: historyBreaker,
	}
}

func (s *GuardedStore) FindTranslators(ctx context.Context, sourceLanguage, targetLanguage string) ([]models.TranslatorProfile, error) {
	result, err := s.catalogBreaker.execute(func() (interface{}, error) {
		return s.catalog.FindTranslators(ctx, sourceLanguage, targetLanguage)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.TranslatorProfile), nil
}

func (s *GuardedStore) FindCustomerOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	result, err := s.historyBreaker.execute(func() (interface{}, error) {
		return s.history.FindCustomerOrders(ctx, customerID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Order), nil
}

func (s *GuardedStore) FindCompletedOrders(ctx context.Context, sourceLanguage, targetLanguage string) ([]models.Order, error) {
	result, err := s.historyBreaker.execute(func() (interface{}, error) {
		return s.history.FindCompletedOrders(ctx, sourceLanguage, targetLanguage)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Order), nil
}
