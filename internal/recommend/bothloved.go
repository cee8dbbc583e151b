// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package recommend

import (
	"sort"

	"github.com/tomtom215/reelpair/internal/models"
	"github.com/tomtom215/reelpair/internal/titles"
)

// BothLoved returns the films both users rated at or above threshold,
// matched on normalized titles and ordered by average rating
// descending. The title reported is user A's spelling; ordering ties
// keep A's history order so repeated runs agree.
func BothLoved(filmsA, filmsB []models.WatchedFilm, threshold float64) []models.BothLoved {
	byNorm := make(map[string]models.WatchedFilm, len(filmsB))
	for _, f := range filmsB {
		norm := titles.Normalize(f.Title)
		if _, seen := byNorm[norm]; !seen {
			byNorm[norm] = f
		}
	}

	var loved []models.BothLoved
	for _, a := range filmsA {
		if a.Rating == nil || *a.Rating < threshold {
			continue
		}
		b, ok := byNorm[titles.Normalize(a.Title)]
		if !ok || b.Rating == nil || *b.Rating < threshold {
			continue
		}
		loved = append(loved, models.BothLoved{
			Title:   a.Title,
			RatingA: *a.Rating,
			RatingB: *b.Rating,
			Average: (*a.Rating + *b.Rating) / 2,
		})
	}

	sort.SliceStable(loved, func(i, j int) bool {
		return loved[i].Average > loved[j].Average
	})
	return loved
}
