// internal/workers/matching/filter-translators/models.go
package filtertranslators

import (
	"fmt"
	"sort"

	"translation-workers/internal/models"
	"translation-workers/internal/recommendation"
)

type Input struct {
	SourceLanguage     string `json:"sourceLanguage"`
	TargetLanguage     string `json:"targetLanguage"`
	IncludeUnavailable bool   `json:"includeUnavailable,omitempty"`
}

func (i *Input) Validate() error {
	if i.SourceLanguage == "" || i.TargetLanguage == "" {
		return fmt.Errorf("%w: sourceLanguage and targetLanguage are required", recommendation.ErrInvalidOrder)
	}
	return nil
}

type Translator struct {
	TranslatorID string   `json:"translatorId"`
	Name         string   `json:"name"`
	Expertise    []string `json:"expertise"`
	Rating       float64  `json:"rating"`
	Available    bool     `json:"available"`
}

type Output struct {
	Translators []Translator `json:"translators"`
	Count       int          `json:"count"`
}

// filterAndSort drops duplicate ids (first occurrence wins) and, unless
// includeUnavailable is set, unavailable translators. The result is ordered
// available first, then by rating descending, then by id.
func filterAndSort(profiles []models.TranslatorProfile, includeUnavailable bool) []Translator {
	seen := make(map[string]bool, len(profiles))
	out := make([]Translator, 0, len(profiles))
	for _, p := range profiles {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		if !p.Available && !includeUnavailable {
			continue
		}
		expertise := p.Expertise
		if expertise == nil {
			expertise = []string{}
		}
		out = append(out, Translator{
			TranslatorID: p.ID,
			Name:         p.Name,
			Expertise:    expertise,
			Rating:       p.Rating,
			Available:    p.Available,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Available != b.Available {
			return a.Available
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.TranslatorID < b.TranslatorID
	})
	return out
}
