// internal/recommendation/types.go
package recommendation

import (
	"context"
	"errors"

	"translation-workers/internal/models"
)

var (
	ErrInvalidOrder          = errors.New("INVALID_ORDER")
	ErrCatalogUnavailable    = errors.New("CATALOG_READ_FAILED")
	ErrHistoryUnavailable    = errors.New("HISTORY_READ_FAILED")
	ErrRecommendationTimeout = errors.New("RECOMMENDATION_TIMEOUT")
)

// CatalogReader returns every translator speaking both languages of a pair.
type CatalogReader interface {
	FindTranslators(ctx context.Context, sourceLanguage, targetLanguage string) ([]models.TranslatorProfile, error)
}

// HistoryReader exposes the order history used by collaborative scoring.
type HistoryReader interface {
	FindCustomerOrders(ctx context.Context, customerID string) ([]models.Order, error)
	// FindCompletedOrders returns completed orders of the pair with their
	// assignments embedded.
	FindCompletedOrders(ctx context.Context, sourceLanguage, targetLanguage string) ([]models.Order, error)
}

// Store is the full read surface the recommender depends on.
type Store interface {
	CatalogReader
	HistoryReader
}

// ScoreRecord is the per-translator score set of one request.
type ScoreRecord struct {
	ContentScore       float64 `json:"contentScore"`
	CollaborativeScore float64 `json:"collaborativeScore"`
	HybridScore        float64 `json:"hybridScore"`
}

type Recommendation struct {
	Translator models.TranslatorProfile `json:"translator"`
	ScoreRecord
}

// Diagnostics describes the evidence behind one ranking.
type Diagnostics struct {
	CandidateCount    int   `json:"candidateCount"`
	EvidenceOrders    int   `json:"evidenceOrders"`
	TotalAssignments  int   `json:"totalAssignments"`
	AnomalousOrders   int   `json:"anomalousOrders"`
	FirstTimeCustomer bool  `json:"firstTimeCustomer"`
	DurationMs        int64 `json:"durationMs"`
}

type Result struct {
	RequestID       string           `json:"requestId"`
	Recommendations []Recommendation `json:"recommendations"`
	Diagnostics     Diagnostics      `json:"diagnostics"`
}
