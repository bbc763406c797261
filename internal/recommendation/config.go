// internal/recommendation/config.go
package recommendation

import (
	"fmt"
	"time"
)

// Default weights. Changing them changes every ranking, so keep them in sync
// with configs/config.yaml.
const (
	DefaultLanguageMatchBase   = 0.5
	DefaultTagMatchWeight      = 0.3
	DefaultRatingWeight        = 0.2
	DefaultUnavailablePenalty  = 0.5
	DefaultContentWeight       = 0.6
	DefaultCollaborativeWeight = 0.4
	DefaultMaxRating           = 5.0
	DefaultStoredRatingScale   = 100.0
	DefaultTimeout             = 5 * time.Second
)

// Config holds the scoring constants. The content weights and the hybrid
// weights each default as a group: a group left entirely zero takes the
// defaults above, while a group with any weight set is used as given, so a
// single zero weight is honoured. The remaining fields default when <= 0.
type Config struct {
	LanguageMatchBase   float64
	TagMatchWeight      float64
	RatingWeight        float64
	UnavailablePenalty  float64
	ContentWeight       float64
	CollaborativeWeight float64
	MaxRating           float64
	StoredRatingScale   float64
	Timeout             time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		LanguageMatchBase:   DefaultLanguageMatchBase,
		TagMatchWeight:      DefaultTagMatchWeight,
		RatingWeight:        DefaultRatingWeight,
		UnavailablePenalty:  DefaultUnavailablePenalty,
		ContentWeight:       DefaultContentWeight,
		CollaborativeWeight: DefaultCollaborativeWeight,
		MaxRating:           DefaultMaxRating,
		StoredRatingScale:   DefaultStoredRatingScale,
		Timeout:             DefaultTimeout,
	}
}

// WithDefaults returns a copy of c with every unset field defaulted.
func (c *Config) WithDefaults() *Config {
	out := DefaultConfig()
	if c == nil {
		return out
	}
	if c.LanguageMatchBase != 0 || c.TagMatchWeight != 0 || c.RatingWeight != 0 {
		out.LanguageMatchBase = c.LanguageMatchBase
		out.TagMatchWeight = c.TagMatchWeight
		out.RatingWeight = c.RatingWeight
	}
	if c.ContentWeight != 0 || c.CollaborativeWeight != 0 {
		out.ContentWeight = c.ContentWeight
		out.CollaborativeWeight = c.CollaborativeWeight
	}
	if c.UnavailablePenalty > 0 {
		out.UnavailablePenalty = c.UnavailablePenalty
	}
	if c.MaxRating > 0 {
		out.MaxRating = c.MaxRating
	}
	if c.StoredRatingScale > 0 {
		out.StoredRatingScale = c.StoredRatingScale
	}
	if c.Timeout > 0 {
		out.Timeout = c.Timeout
	}
	return out
}

// Validate rejects weight sets that can no longer produce scores in [0,1].
func (c *Config) Validate() error {
	for name, w := range map[string]float64{
		"language match base":  c.LanguageMatchBase,
		"tag match weight":     c.TagMatchWeight,
		"rating weight":        c.RatingWeight,
		"content weight":       c.ContentWeight,
		"collaborative weight": c.CollaborativeWeight,
	} {
		if w < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, w)
		}
	}
	if c.UnavailablePenalty > 1 {
		return fmt.Errorf("unavailable penalty must be <= 1, got %v", c.UnavailablePenalty)
	}
	if sum := c.LanguageMatchBase + c.TagMatchWeight + c.RatingWeight; sum > 1+1e-9 {
		return fmt.Errorf("content weights sum to %v, must be <= 1", sum)
	}
	if sum := c.ContentWeight + c.CollaborativeWeight; sum > 1+1e-9 {
		return fmt.Errorf("hybrid weights sum to %v, must be <= 1", sum)
	}
	return nil
}
