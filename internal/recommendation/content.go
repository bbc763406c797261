// internal/recommendation/content.go
package recommendation

import (
	"translation-workers/internal/models"
)

// ContentScorer rates one translator against one order from static profile
// attributes only.
type ContentScorer struct {
	config *Config
}

func NewContentScorer(config *Config) *ContentScorer {
	return &ContentScorer{config: config.WithDefaults()}
}

// Score returns the content score of t for order. A translator missing either
// language of the pair scores 0.
func (s *ContentScorer) Score(order *models.Order, t *models.TranslatorProfile) float64 {
	if !t.SpeaksPair(order.LanguagePair()) {
		return 0
	}

	score := s.config.LanguageMatchBase
	score += s.config.TagMatchWeight * s.tagMatchRatio(order.Tags, t)

	rating := models.NormalizeRating(t.Rating, s.config.StoredRatingScale, s.config.MaxRating)
	score += s.config.RatingWeight * (rating / s.config.MaxRating)

	if !t.Available {
		score *= s.config.UnavailablePenalty
	}
	return score
}

// ScoreAll scores every candidate, keyed by translator id.
func (s *ContentScorer) ScoreAll(order *models.Order, candidates []models.TranslatorProfile) map[string]float64 {
	scores := make(map[string]float64, len(candidates))
	for i := range candidates {
		scores[candidates[i].ID] = s.Score(order, &candidates[i])
	}
	return scores
}

// tagMatchRatio is |orderTags ∩ translatorTags| / |orderTags|, 0 for no order tags.
func (s *ContentScorer) tagMatchRatio(orderTags []string, t *models.TranslatorProfile) float64 {
	required := make(map[string]struct{}, len(orderTags))
	for _, tag := range orderTags {
		required[tag] = struct{}{}
	}
	if len(required) == 0 {
		return 0
	}

	offered := t.TagSet()
	matching := 0
	for tag := range required {
		if _, ok := offered[tag]; ok {
			matching++
		}
	}
	return float64(matching) / float64(len(required))
}
