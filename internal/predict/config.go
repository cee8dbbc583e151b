// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package predict

import "errors"

// Config holds the liking-percentage policy. The shape of the policy is
// deliberately pessimistic: a high prediction requires actual evidence
// in the user's history, and evidence-free predictions are capped low
// no matter how well rated the movie is.
type Config struct {
	// LikedThreshold and DislikedThreshold split evidence ratings (out
	// of 5) into liked and disliked for reason generation.
	// Defaults: 4.0 and 2.5.
	LikedThreshold    float64 `json:"liked_threshold" koanf:"liked_threshold"`
	DislikedThreshold float64 `json:"disliked_threshold" koanf:"disliked_threshold"`

	// NoHistoryMin and NoHistoryMax clamp the rating-only prediction
	// used when the user has no rated history. Defaults: 35 and 45.
	NoHistoryMin float64 `json:"no_history_min" koanf:"no_history_min"`
	NoHistoryMax float64 `json:"no_history_max" koanf:"no_history_max"`

	// SourceBlend is the weight of the user's source-movie ratings when
	// blended with the catalog rating; the catalog gets the remainder.
	// Default: 0.7.
	SourceBlend float64 `json:"source_blend" koanf:"source_blend"`

	// SourceCapLoved and SourceCapLiked cap source-based predictions by
	// how much the user liked the seeds. Defaults: 85 and 75.
	SourceCapLoved float64 `json:"source_cap_loved" koanf:"source_cap_loved"`
	SourceCapLiked float64 `json:"source_cap_liked" koanf:"source_cap_liked"`

	// SourceLovedAvg and SourceLikedAvg are the average seed ratings
	// that trigger the caps above. Defaults: 4.5 and 4.0.
	SourceLovedAvg float64 `json:"source_loved_avg" koanf:"source_loved_avg"`
	SourceLikedAvg float64 `json:"source_liked_avg" koanf:"source_liked_avg"`

	// SourceLowMin and SourceLowMax clamp the prediction when the user
	// disliked the seeds (average at or below DislikedThreshold).
	// Defaults: 25 and 45.
	SourceLowMin float64 `json:"source_low_min" koanf:"source_low_min"`
	SourceLowMax float64 `json:"source_low_max" koanf:"source_low_max"`

	// SourceFinalMin and SourceFinalMax bound every source-based
	// prediction. Defaults: 25 and 85.
	SourceFinalMin float64 `json:"source_final_min" koanf:"source_final_min"`
	SourceFinalMax float64 `json:"source_final_max" koanf:"source_final_max"`

	// YearWindow is the release-year distance for era matching;
	// YearMinMatches is how many era matches make the tier usable.
	// Defaults: 5 and 3.
	YearWindow     int `json:"year_window" koanf:"year_window"`
	YearMinMatches int `json:"year_min_matches" koanf:"year_min_matches"`

	// YearBlend weights the era-match average against the catalog
	// rating. Default: 0.5.
	YearBlend float64 `json:"year_blend" koanf:"year_blend"`

	// YearMin and YearMax bound era-based predictions.
	// Defaults: 30 and 70.
	YearMin float64 `json:"year_min" koanf:"year_min"`
	YearMax float64 `json:"year_max" koanf:"year_max"`

	// NoMatchMin and NoMatchMax bound the evidence-free fallback.
	// Defaults: 25 and 40.
	NoMatchMin float64 `json:"no_match_min" koanf:"no_match_min"`
	NoMatchMax float64 `json:"no_match_max" koanf:"no_match_max"`

	// MaxEvidence caps the matched titles reported per result.
	// Default: 3.
	MaxEvidence int `json:"max_evidence" koanf:"max_evidence"`
}

// DefaultConfig returns the production prediction policy.
func DefaultConfig() Config {
	return Config{
		LikedThreshold:    4.0,
		DislikedThreshold: 2.5,
		NoHistoryMin:      35,
		NoHistoryMax:      45,
		SourceBlend:       0.7,
		SourceCapLoved:    85,
		SourceCapLiked:    75,
		SourceLovedAvg:    4.5,
		SourceLikedAvg:    4.0,
		SourceLowMin:      25,
		SourceLowMax:      45,
		SourceFinalMin:    25,
		SourceFinalMax:    85,
		YearWindow:        5,
		YearMinMatches:    3,
		YearBlend:         0.5,
		YearMin:           30,
		YearMax:           70,
		NoMatchMin:        25,
		NoMatchMax:        40,
		MaxEvidence:       3,
	}
}

// Validate checks the configuration for correctness.
func (c Config) Validate() error {
	if c.LikedThreshold < c.DislikedThreshold {
		return errors.New("predict: liked_threshold must be at least disliked_threshold")
	}
	if c.SourceBlend < 0 || c.SourceBlend > 1 {
		return errors.New("predict: source_blend must be in [0, 1]")
	}
	if c.YearBlend < 0 || c.YearBlend > 1 {
		return errors.New("predict: year_blend must be in [0, 1]")
	}
	if c.NoHistoryMin > c.NoHistoryMax || c.SourceLowMin > c.SourceLowMax ||
		c.SourceFinalMin > c.SourceFinalMax || c.YearMin > c.YearMax ||
		c.NoMatchMin > c.NoMatchMax {
		return errors.New("predict: clamp minimums must not exceed maximums")
	}
	if c.YearWindow < 0 || c.YearMinMatches <= 0 {
		return errors.New("predict: year_window must not be negative and year_min_matches must be positive")
	}
	if c.MaxEvidence <= 0 {
		return errors.New("predict: max_evidence must be positive")
	}
	return nil
}
