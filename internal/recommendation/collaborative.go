// internal/recommendation/collaborative.go
package recommendation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"translation-workers/internal/common/logger"
	"translation-workers/internal/models"
)

// Evidence is the aggregated history of one language pair.
type Evidence struct {
	Pair             models.LanguagePair
	Frequencies      map[string]int
	TotalAssignments int
	EvidenceOrders   int
	// AnomalousOrders counts completed orders without any assignment.
	AnomalousOrders   int
	FirstTimeCustomer bool
}

// Score returns the relative completion frequency of a translator, 0 when
// the translator never completed an order of the pair.
func (e *Evidence) Score(translatorID string) float64 {
	if e.TotalAssignments == 0 {
		return 0
	}
	return float64(e.Frequencies[translatorID]) / float64(e.TotalAssignments)
}

// Scores returns the score of every credited translator.
func (e *Evidence) Scores() map[string]float64 {
	scores := make(map[string]float64, len(e.Frequencies))
	for id := range e.Frequencies {
		scores[id] = e.Score(id)
	}
	return scores
}

// CollaborativeScorer derives a population-level success signal from
// completed orders of the same language pair. It is not personalized: the
// requesting customer's history only feeds diagnostics.
type CollaborativeScorer struct {
	history HistoryReader
	logger  logger.Logger
}

func NewCollaborativeScorer(history HistoryReader, log logger.Logger) *CollaborativeScorer {
	return &CollaborativeScorer{
		history: history,
		logger:  log,
	}
}

// Collect reads the customer's history and the completed orders of the pair
// concurrently and aggregates them. Any failed read aborts the whole call.
func (s *CollaborativeScorer) Collect(ctx context.Context, pair models.LanguagePair, customerID string) (*Evidence, error) {
	var (
		customerOrders  []models.Order
		completedOrders []models.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := s.history.FindCustomerOrders(gctx, customerID)
		if err != nil {
			return fmt.Errorf("%w: customer orders: %v", ErrHistoryUnavailable, err)
		}
		customerOrders = orders
		return nil
	})
	g.Go(func() error {
		orders, err := s.history.FindCompletedOrders(gctx, pair.Source, pair.Target)
		if err != nil {
			return fmt.Errorf("%w: completed orders: %v", ErrHistoryUnavailable, err)
		}
		completedOrders = orders
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	evidence := Aggregate(pair, completedOrders)
	evidence.FirstTimeCustomer = len(customerOrders) == 0

	if evidence.FirstTimeCustomer {
		s.logger.Info("no personal order history, using population evidence", map[string]interface{}{
			"customerId": customerID,
			"pair":       pair.String(),
		})
	}
	if evidence.AnomalousOrders > 0 {
		s.logger.Warn("completed orders without assignments", map[string]interface{}{
			"pair":  pair.String(),
			"count": evidence.AnomalousOrders,
		})
	}
	s.logger.Info("collaborative evidence aggregated", map[string]interface{}{
		"pair":             pair.String(),
		"evidenceOrders":   evidence.EvidenceOrders,
		"totalAssignments": evidence.TotalAssignments,
		"translators":      len(evidence.Frequencies),
	})

	return evidence, nil
}

// Aggregate counts credited assignments per translator across the completed
// orders of pair. Orders that are not completed or belong to another pair are
// ignored; a pending assignment is never evidence.
func Aggregate(pair models.LanguagePair, orders []models.Order) *Evidence {
	evidence := &Evidence{
		Pair:        pair,
		Frequencies: make(map[string]int),
	}

	for i := range orders {
		order := &orders[i]
		if !order.IsEvidence() || order.LanguagePair() != pair {
			continue
		}
		evidence.EvidenceOrders++

		if len(order.Assignments) == 0 {
			evidence.AnomalousOrders++
			continue
		}
		for _, a := range order.Assignments {
			if !a.Credited() {
				continue
			}
			evidence.Frequencies[a.TranslatorID]++
			evidence.TotalAssignments++
		}
	}

	return evidence
}
