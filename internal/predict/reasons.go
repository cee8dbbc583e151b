// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package predict

import (
	"sort"
	"strings"

	"github.com/tomtom215/reelpair/internal/models"
	"github.com/tomtom215/reelpair/internal/titles"
)

// reasons builds exactly three distinct, non-empty justification
// strings. Evidence-backed reasons come first; honest fallbacks and
// neutral fillers pad the list when evidence runs out. Nothing here is
// fabricated: a low-confidence prediction says so instead of inventing
// a similarity.
func (e *Engine) reasons(percent float64, evidence []Evidence, rated []models.WatchedFilm) []string {
	c := e.cfg

	ranked := make([]Evidence, len(evidence))
	copy(ranked, evidence)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rating > ranked[j].Rating
	})

	var out []string
	seen := make(map[string]struct{})
	add := func(r string) {
		if r == "" || len(out) >= 3 {
			return
		}
		if _, dup := seen[r]; dup {
			return
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}

	var liked, disliked []string
	for _, ev := range ranked {
		switch {
		case ev.Rating >= c.LikedThreshold:
			liked = append(liked, ev.Title)
		case ev.Rating <= c.DislikedThreshold:
			disliked = append(disliked, ev.Title)
		}
	}

	usedTitles := make(map[string]struct{})
	use := func(ts []string) {
		for _, t := range ts {
			usedTitles[t] = struct{}{}
		}
	}

	if percent >= 60 && len(liked) > 0 {
		n := len(liked)
		if n > 3 {
			n = 3
		}
		add("You liked " + strings.Join(liked[:n], ", "))
		use(liked[:n])
	}
	if percent <= 50 && len(disliked) > 0 {
		n := len(disliked)
		if n > 2 {
			n = 2
		}
		add("You rated " + strings.Join(disliked[:n], ", ") + " low")
		use(disliked[:n])
	}

	// Backfill from individual evidence titles not yet surfaced.
	for _, ev := range ranked {
		if len(out) >= 3 {
			break
		}
		if _, used := usedTitles[ev.Title]; used {
			continue
		}
		if percent >= 60 && ev.Rating >= c.LikedThreshold {
			add("You liked " + ev.Title)
			use([]string{ev.Title})
		} else if percent <= 50 && ev.Rating <= c.DislikedThreshold {
			add("You rated " + ev.Title + " low")
			use([]string{ev.Title})
		}
	}

	if len(out) < 3 {
		if percent <= 45 {
			add("No similar movies in your history")
		} else if top := topLoved(rated, c.LikedThreshold); len(top) > 0 {
			add("You liked " + strings.Join(top, ", "))
		}
	}

	fillers := []string{"Based on movie rating", "Based on rating history"}
	if percent <= 45 {
		fillers[1] = "Different genre/style"
	}
	fillers = append(fillers, "Limited overlap with your history")
	for _, f := range fillers {
		add(f)
	}
	return out
}

// topLoved returns the user's two highest-rated loved films, display
// titles with the year suffix stripped.
func topLoved(rated []models.WatchedFilm, threshold float64) []string {
	loved := make([]models.WatchedFilm, 0, len(rated))
	for _, f := range rated {
		if *f.Rating >= threshold {
			loved = append(loved, f)
		}
	}
	sort.SliceStable(loved, func(i, j int) bool {
		return *loved[i].Rating > *loved[j].Rating
	})
	if len(loved) > 2 {
		loved = loved[:2]
	}
	out := make([]string, 0, len(loved))
	for _, f := range loved {
		out = append(out, titles.StripYear(f.Title))
	}
	return out
}
