// internal/recommendation/ranker.go
package recommendation

import (
	"sort"

	"translation-workers/internal/models"
)

// HybridRanker merges content and collaborative scores with fixed weights.
type HybridRanker struct {
	config *Config
}

func NewHybridRanker(config *Config) *HybridRanker {
	return &HybridRanker{config: config.WithDefaults()}
}

// Hybrid combines the two scores.
func (r *HybridRanker) Hybrid(content, collaborative float64) float64 {
	return r.config.ContentWeight*content + r.config.CollaborativeWeight*collaborative
}

// Rank scores every candidate and orders them by hybrid score descending,
// then translator id ascending. Missing scores count as 0. Duplicate
// candidates keep their first occurrence. The list is never truncated.
func (r *HybridRanker) Rank(candidates []models.TranslatorProfile, content, collaborative map[string]float64) []Recommendation {
	seen := make(map[string]bool, len(candidates))
	ranked := make([]Recommendation, 0, len(candidates))

	for _, t := range candidates {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true

		c := content[t.ID]
		cf := collaborative[t.ID]
		ranked = append(ranked, Recommendation{
			Translator: t,
			ScoreRecord: ScoreRecord{
				ContentScore:       c,
				CollaborativeScore: cf,
				HybridScore:        r.Hybrid(c, cf),
			},
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].HybridScore != ranked[j].HybridScore {
			return ranked[i].HybridScore > ranked[j].HybridScore
		}
		return ranked[i].Translator.ID < ranked[j].Translator.ID
	})

	return ranked
}
