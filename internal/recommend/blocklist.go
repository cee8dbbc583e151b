// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package recommend

import "strings"

// isBlocked applies the franchise-action heuristic: a keyword hit in
// the lowercase title, or a genre signature of at least two blocked ids
// out of at most four total. The second clause targets pure
// action/sci-fi/adventure combos while sparing films where those genres
// are one flavor among many.
func (c Config) isBlocked(title string, genreIDs []int64) bool {
	lower := strings.ToLower(title)
	for _, kw := range c.BlockedKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	blocked := 0
	for _, g := range genreIDs {
		for _, b := range c.BlockedGenres {
			if g == b {
				blocked++
				break
			}
		}
	}
	return blocked >= 2 && len(genreIDs) <= 4
}
