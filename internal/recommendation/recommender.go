// internal/recommendation/recommender.go
package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"translation-workers/internal/common/logger"
	"translation-workers/internal/common/metrics"
	"translation-workers/internal/models"
)

const tracerName = "translation-workers/recommendation"

// Recommender ranks catalog translators for one order. It keeps no state
// between calls; each call is a pure function of its inputs and the store
// snapshot it reads.
type Recommender struct {
	config        *Config
	catalog       CatalogReader
	content       *ContentScorer
	collaborative *CollaborativeScorer
	ranker        *HybridRanker
	logger        logger.Logger
	tracer        trace.Tracer
}

func NewRecommender(config *Config, catalog CatalogReader, history HistoryReader, log logger.Logger) *Recommender {
	cfg := config.WithDefaults()
	log = log.WithFields(map[string]interface{}{"component": "recommender"})
	return &Recommender{
		config:        cfg,
		catalog:       catalog,
		content:       NewContentScorer(cfg),
		collaborative: NewCollaborativeScorer(history, log),
		ranker:        NewHybridRanker(cfg),
		logger:        log,
		tracer:        otel.Tracer(tracerName),
	}
}

// Config returns the effective configuration.
func (r *Recommender) Config() *Config {
	return r.config
}

// Recommend returns every catalog translator for the order's language pair,
// ranked by hybrid score. customerID falls back to order.CustomerID when empty.
func (r *Recommender) Recommend(ctx context.Context, order *models.Order, customerID string) (*Result, error) {
	start := time.Now()
	requestID := uuid.NewString()

	if order == nil || !order.LanguagePair().Valid() {
		metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, fmt.Errorf("%w: source and target language are required", ErrInvalidOrder)
	}
	if customerID == "" {
		customerID = order.CustomerID
	}
	pair := order.LanguagePair()

	ctx, span := r.tracer.Start(ctx, "recommendation.recommend", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.String("order.id", order.ID),
		attribute.String("language.pair", pair.String()),
	))
	defer span.End()

	result, err := r.recommend(ctx, order, pair, customerID)
	if err != nil {
		err = r.classify(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("recommendation failed", map[string]interface{}{
			"requestId": requestID,
			"orderId":   order.ID,
			"pair":      pair.String(),
			"error":     err.Error(),
		})
		return nil, err
	}

	result.RequestID = requestID
	result.Diagnostics.DurationMs = time.Since(start).Milliseconds()
	metrics.RecommendationDuration.WithLabelValues(metrics.StageTotal).Observe(time.Since(start).Seconds())

	outcome := metrics.OutcomeSuccess
	if len(result.Recommendations) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.RecommendationsTotal.WithLabelValues(outcome).Inc()

	span.SetAttributes(
		attribute.Int("candidates", result.Diagnostics.CandidateCount),
		attribute.Int("evidence.assignments", result.Diagnostics.TotalAssignments),
	)
	r.logger.Info("ranking completed", map[string]interface{}{
		"requestId":         requestID,
		"orderId":           order.ID,
		"pair":              pair.String(),
		"candidates":        result.Diagnostics.CandidateCount,
		"totalAssignments":  result.Diagnostics.TotalAssignments,
		"firstTimeCustomer": result.Diagnostics.FirstTimeCustomer,
		"durationMs":        result.Diagnostics.DurationMs,
	})

	return result, nil
}

func (r *Recommender) recommend(ctx context.Context, order *models.Order, pair models.LanguagePair, customerID string) (*Result, error) {
	candidates, err := r.loadCandidates(ctx, pair)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Result{Recommendations: []Recommendation{}}, nil
	}

	scoringStart := time.Now()
	var (
		contentScores map[string]float64
		evidence      *Evidence
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, span := r.tracer.Start(gctx, "recommendation.content")
		defer span.End()
		contentScores = r.content.ScoreAll(order, candidates)
		return nil
	})
	g.Go(func() error {
		spanCtx, span := r.tracer.Start(gctx, "recommendation.collaborative")
		defer span.End()
		ev, err := r.collaborative.Collect(spanCtx, pair, customerID)
		if err != nil {
			span.RecordError(err)
			return err
		}
		span.SetAttributes(attribute.Int("evidence.orders", ev.EvidenceOrders))
		evidence = ev
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	metrics.RecommendationDuration.WithLabelValues(metrics.StageScoring).Observe(time.Since(scoringStart).Seconds())

	if evidence.TotalAssignments == 0 {
		metrics.CollaborativeEvidenceMissing.Inc()
	}

	rankStart := time.Now()
	_, span := r.tracer.Start(ctx, "recommendation.rank")
	ranked := r.ranker.Rank(candidates, contentScores, evidence.Scores())
	span.End()
	metrics.RecommendationDuration.WithLabelValues(metrics.StageRanking).Observe(time.Since(rankStart).Seconds())

	return &Result{
		Recommendations: ranked,
		Diagnostics: Diagnostics{
			CandidateCount:    len(candidates),
			EvidenceOrders:    evidence.EvidenceOrders,
			TotalAssignments:  evidence.TotalAssignments,
			AnomalousOrders:   evidence.AnomalousOrders,
			FirstTimeCustomer: evidence.FirstTimeCustomer,
		},
	}, nil
}

func (r *Recommender) loadCandidates(ctx context.Context, pair models.LanguagePair) ([]models.TranslatorProfile, error) {
	ctx, span := r.tracer.Start(ctx, "recommendation.catalog")
	defer span.End()

	start := time.Now()
	candidates, err := r.catalog.FindTranslators(ctx, pair.Source, pair.Target)
	metrics.RecommendationDuration.WithLabelValues(metrics.StageCatalog).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	metrics.RecommendationCandidates.Observe(float64(len(candidates)))
	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	r.logger.Debug("catalog loaded", map[string]interface{}{
		"pair":       pair.String(),
		"candidates": len(candidates),
	})
	return candidates, nil
}

// classify maps a deadline hit onto ErrRecommendationTimeout and records the
// failure outcome.
func (r *Recommender) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeTimeout).Inc()
		return fmt.Errorf("%w: %v", ErrRecommendationTimeout, err)
	}
	metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
	return err
}

// Fallback ranks the catalog by content score alone. Callers use it when
// Recommend fails on history reads or runs out of time.
func (r *Recommender) Fallback(ctx context.Context, order *models.Order) ([]Recommendation, error) {
	if order == nil || !order.LanguagePair().Valid() {
		return nil, fmt.Errorf("%w: source and target language are required", ErrInvalidOrder)
	}
	candidates, err := r.loadCandidates(ctx, order.LanguagePair())
	if err != nil {
		return nil, err
	}
	return r.ranker.Rank(candidates, r.content.ScoreAll(order, candidates), nil), nil
}
