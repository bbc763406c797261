// internal/recommendation/collaborative_test.go
package recommendation

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

// ==========================
// Test Helper Functions
// ==========================

var enEs = models.LanguagePair{Source: "English", Target: "Spanish"}

func completedOrder(id, src, tgt string, translatorIDs ...string) models.Order {
	o := models.Order{
		ID:             id,
		CustomerID:     "someone",
		SourceLanguage: src,
		TargetLanguage: tgt,
		Status:         models.OrderStatusCompleted,
	}
	for i, tid := range translatorIDs {
		o.Assignments = append(o.Assignments, models.Assignment{
			ID:           id + "-a" + string(rune('0'+i)),
			OrderID:      id,
			TranslatorID: tid,
			AssignedAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return o
}

// scenarioFourHistory has 2 completions by A and 1 by B.
func scenarioFourHistory() []models.Order {
	return []models.Order{
		completedOrder("o1", "English", "Spanish", "translator-a"),
		completedOrder("o2", "English", "Spanish", "translator-a"),
		completedOrder("o3", "English", "Spanish", "translator-b"),
	}
}

type fakeStore struct {
	translators    []models.TranslatorProfile
	customerOrders []models.Order
	completed      []models.Order
	catalogErr     error
	customerErr    error
	completedErr   error
	delay          time.Duration
	catalogCalls   int
}

func (f *fakeStore) FindTranslators(ctx context.Context, src, tgt string) ([]models.TranslatorProfile, error) {
	f.catalogCalls++
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	var out []models.TranslatorProfile
	pair := models.LanguagePair{Source: src, Target: tgt}
	for i := range f.translators {
		if f.translators[i].SpeaksPair(pair) {
			out = append(out, f.translators[i])
		}
	}
	return out, nil
}

func (f *fakeStore) FindCustomerOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return f.customerOrders, nil
}

func (f *fakeStore) FindCompletedOrders(ctx context.Context, src, tgt string) ([]models.Order, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.completedErr != nil {
		return nil, f.completedErr
	}
	return f.completed, nil
}

// ==========================
// Aggregation Tests
// ==========================

func TestAggregate_RelativeFrequency(t *testing.T) {
	ev := Aggregate(enEs, scenarioFourHistory())

	assert.Equal(t, 3, ev.TotalAssignments)
	assert.Equal(t, 3, ev.EvidenceOrders)
	assert.InDelta(t, 0.667, ev.Score("translator-a"), 0.001)
	assert.InDelta(t, 0.333, ev.Score("translator-b"), 0.001)
	assert.Equal(t, 0.0, ev.Score("translator-c"))
}

func TestAggregate_SumsToAtMostOne(t *testing.T) {
	orders := append(scenarioFourHistory(),
		completedOrder("o4", "English", "Spanish", "translator-c", "translator-a"),
		completedOrder("o5", "English", "Spanish", "translator-d"),
	)
	ev := Aggregate(enEs, orders)

	sum := 0.0
	for _, s := range ev.Scores() {
		sum += s
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 6, ev.TotalAssignments)
}

func TestAggregate_NoEvidence(t *testing.T) {
	ev := Aggregate(models.LanguagePair{Source: "Japanese", Target: "Korean"}, scenarioFourHistory())

	assert.Equal(t, 0, ev.TotalAssignments)
	assert.Equal(t, 0.0, ev.Score("translator-a"))
	assert.Empty(t, ev.Scores())
}

func TestAggregate_IgnoresNonEvidence(t *testing.T) {
	pending := completedOrder("p1", "English", "Spanish", "translator-z")
	pending.Status = models.OrderStatusAssigned
	reversed := completedOrder("r1", "Spanish", "English", "translator-z")
	noAssignments := completedOrder("n1", "English", "Spanish")
	unassigned := completedOrder("u1", "English", "Spanish", "")

	orders := append(scenarioFourHistory(), pending, reversed, noAssignments, unassigned)
	ev := Aggregate(enEs, orders)

	assert.Equal(t, 3, ev.TotalAssignments)
	assert.Equal(t, 5, ev.EvidenceOrders)
	assert.Equal(t, 1, ev.AnomalousOrders)
	assert.NotContains(t, ev.Frequencies, "translator-z")
	assert.NotContains(t, ev.Frequencies, "")
}

// ==========================
// Collect Tests
// ==========================

func TestCollaborativeScorer_Collect(t *testing.T) {
	store := &fakeStore{
		completed:      scenarioFourHistory(),
		customerOrders: []models.Order{{ID: "old", CustomerID: "customer-1"}},
	}
	scorer := NewCollaborativeScorer(store, logger.NewTestLogger(t))

	ev, err := scorer.Collect(context.Background(), enEs, "customer-1")
	require.NoError(t, err)
	assert.False(t, ev.FirstTimeCustomer)
	assert.InDelta(t, 2.0/3.0, ev.Score("translator-a"), 1e-9)
}

func TestCollaborativeScorer_FirstTimeCustomerStillScores(t *testing.T) {
	store := &fakeStore{completed: scenarioFourHistory()}
	scorer := NewCollaborativeScorer(store, logger.NewTestLogger(t))

	ev, err := scorer.Collect(context.Background(), enEs, "new-customer")
	require.NoError(t, err)
	assert.True(t, ev.FirstTimeCustomer)
	assert.InDelta(t, 1.0/3.0, ev.Score("translator-b"), 1e-9)
}

func TestCollaborativeScorer_ReadFailures(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
	}{
		{"customer orders", &fakeStore{customerErr: errors.New("connection refused")}},
		{"completed orders", &fakeStore{completedErr: errors.New("connection refused")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := NewCollaborativeScorer(tt.store, logger.NewNoOpLogger())
			ev, err := scorer.Collect(context.Background(), enEs, "customer-1")
			assert.Nil(t, ev)
			assert.ErrorIs(t, err, ErrHistoryUnavailable)
		})
	}
}
