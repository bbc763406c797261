// internal/models/translator.go
package models

const (
	// StoredRatingScale is the upper bound of ratings as persisted.
	StoredRatingScale = 100.0
	// ScoringRatingScale is the upper bound of ratings used for scoring.
	ScoringRatingScale = 5.0
)

// TranslatorProfile is a candidate worker. Rating is stored on a 0-100 scale.
type TranslatorProfile struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Languages  []string `json:"languages"`
	Expertise  []string `json:"expertise"`
	CustomTags []string `json:"customTags,omitempty"`
	Rating     float64  `json:"rating"`
	Available  bool     `json:"available"`
}

// SpeaksPair reports whether the translator covers both sides of the pair.
func (t *TranslatorProfile) SpeaksPair(pair LanguagePair) bool {
	var hasSource, hasTarget bool
	for _, lang := range t.Languages {
		if lang == pair.Source {
			hasSource = true
		}
		if lang == pair.Target {
			hasTarget = true
		}
	}
	return hasSource && hasTarget
}

// TagSet returns expertise and custom tags as a set.
func (t *TranslatorProfile) TagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(t.Expertise)+len(t.CustomTags))
	for _, tag := range t.Expertise {
		set[tag] = struct{}{}
	}
	for _, tag := range t.CustomTags {
		set[tag] = struct{}{}
	}
	return set
}

// NormalizedRating maps the stored rating onto the 0-5 scoring scale.
func (t *TranslatorProfile) NormalizedRating() float64 {
	return NormalizeRating(t.Rating, StoredRatingScale, ScoringRatingScale)
}

// NormalizeRating rescales a rating from storedScale onto scoringScale,
// clamping out-of-range values.
func NormalizeRating(rating, storedScale, scoringScale float64) float64 {
	if rating <= 0 || storedScale <= 0 {
		return 0
	}
	normalized := rating / (storedScale / scoringScale)
	if normalized > scoringScale {
		return scoringScale
	}
	return normalized
}
