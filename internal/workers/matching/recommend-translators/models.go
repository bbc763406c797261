// internal/workers/matching/recommend-translators/models.go
package recommendtranslators

import (
	"fmt"

	"translation-workers/internal/models"
	"translation-workers/internal/recommendation"
)

type Input struct {
	OrderID         string   `json:"orderId"`
	CustomerID      string   `json:"customerId"`
	SourceLanguage  string   `json:"sourceLanguage"`
	TargetLanguage  string   `json:"targetLanguage"`
	Tags            []string `json:"tags"`
	ComplexityScore *float64 `json:"complexityScore,omitempty"`
	Limit           int      `json:"limit,omitempty"`
}

func (i *Input) Validate() error {
	if i.OrderID == "" {
		return fmt.Errorf("%w: orderId is required", recommendation.ErrInvalidOrder)
	}
	if i.SourceLanguage == "" || i.TargetLanguage == "" {
		return fmt.Errorf("%w: sourceLanguage and targetLanguage are required", recommendation.ErrInvalidOrder)
	}
	if i.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", recommendation.ErrInvalidOrder)
	}
	return nil
}

// ToOrder builds the pending order the recommender scores.
func (i *Input) ToOrder() *models.Order {
	tags := i.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.Order{
		ID:              i.OrderID,
		CustomerID:      i.CustomerID,
		SourceLanguage:  i.SourceLanguage,
		TargetLanguage:  i.TargetLanguage,
		Tags:            tags,
		ComplexityScore: i.ComplexityScore,
		Status:          models.OrderStatusPending,
	}
}

type RecommendedTranslator struct {
	TranslatorID       string  `json:"translatorId"`
	Name               string  `json:"name"`
	ContentScore       float64 `json:"contentScore"`
	CollaborativeScore float64 `json:"collaborativeScore"`
	HybridScore        float64 `json:"hybridScore"`
}

type Output struct {
	Recommendations   []RecommendedTranslator `json:"recommendations"`
	Fallback          bool                    `json:"fallback"`
	FallbackReason    string                  `json:"fallbackReason,omitempty"`
	RequestID         string                  `json:"requestId"`
	FirstTimeCustomer bool                    `json:"firstTimeCustomer"`
}

const (
	ReasonTimeout            = "timeout"
	ReasonCatalogUnavailable = "catalog_unavailable"
	ReasonHistoryUnavailable = "history_unavailable"
	ReasonUnexpected         = "unexpected_error"
)

func toOutput(ranked []recommendation.Recommendation, limit int) []RecommendedTranslator {
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]RecommendedTranslator, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, RecommendedTranslator{
			TranslatorID:       r.Translator.ID,
			Name:               r.Translator.Name,
			ContentScore:       r.ContentScore,
			CollaborativeScore: r.CollaborativeScore,
			HybridScore:        r.HybridScore,
		})
	}
	return out
}
