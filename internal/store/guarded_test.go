package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"translation-workers/internal/common/logger"
	"translation-workers/internal/models"
)

type stubHistory struct {
	orders []models.Order
	err    error
	calls  int
}

func (s *stubHistory) FindCustomerOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	s.calls++
	return s.orders, s.err
}

func (s *stubHistory) FindCompletedOrders(ctx context.Context, sourceLanguage, targetLanguage string) ([]models.Order, error) {
	s.calls++
	return s.orders, s.err
}

func testBreaker(t *testing.T, name string) *Breaker {
	return NewBreaker(name, BreakerSettings{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}, logger.NewTestLogger(t))
}

func TestGuardedStore_PassesThrough(t *testing.T) {
	catalog := &stubCatalog{translators: catalogFixture()}
	history := &stubHistory{orders: []models.Order{{ID: "o-1", Status: models.OrderStatusCompleted}}}
	s := NewGuardedStore(catalog, history, testBreaker(t, "catalog-pass"), testBreaker(t, "history-pass"))

	translators, err := s.FindTranslators(context.Background(), "English", "Spanish")
	require.NoError(t, err)
	assert.Len(t, translators, 2)

	orders, err := s.FindCompletedOrders(context.Background(), "English", "Spanish")
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = s.FindCustomerOrders(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestGuardedStore_OpensAfterConsecutiveFailures(t *testing.T) {
	catalog := &stubCatalog{err: errors.New("connection refused")}
	history := &stubHistory{}
	catalogBreaker := testBreaker(t, "catalog-trip")
	s := NewGuardedStore(catalog, history, catalogBreaker, testBreaker(t, "history-trip"))

	for i := 0; i < 2; i++ {
		_, err := s.FindTranslators(context.Background(), "English", "Spanish")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrStoreUnavailable)
	}
	assert.Equal(t, "open", catalogBreaker.State())

	_, err := s.FindTranslators(context.Background(), "English", "Spanish")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 2, catalog.calls, "open breaker does not reach the backend")

	_, err = s.FindCompletedOrders(context.Background(), "English", "Spanish")
	assert.NoError(t, err, "history breaker is independent")
}

type hangingCatalog struct {
	calls int
}

func (h *hangingCatalog) FindTranslators(ctx context.Context, sourceLanguage, targetLanguage string) ([]models.TranslatorProfile, error) {
	h.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGuardedStore_CancellationDoesNotTrip(t *testing.T) {
	history := &stubHistory{err: context.Canceled}
	historyBreaker := testBreaker(t, "history-ctx")
	s := NewGuardedStore(&stubCatalog{}, history, testBreaker(t, "catalog-ctx"), historyBreaker)

	for i := 0; i < 5; i++ {
		_, err := s.FindCompletedOrders(context.Background(), "English", "Spanish")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", historyBreaker.State())
	assert.Equal(t, 5, history.calls)
}

func TestGuardedStore_HungBackendTrips(t *testing.T) {
	catalog := &hangingCatalog{}
	catalogBreaker := testBreaker(t, "catalog-hung")
	s := NewGuardedStore(catalog, &stubHistory{}, catalogBreaker, testBreaker(t, "history-hung"))

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := s.FindTranslators(ctx, "English", "Spanish")
		cancel()
		require.Error(t, err)
	}

	assert.Equal(t, "open", catalogBreaker.State())
	assert.Equal(t, 2, catalog.calls, "reads fail fast once the breaker opens")

	_, err := s.FindTranslators(context.Background(), "English", "Spanish")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
