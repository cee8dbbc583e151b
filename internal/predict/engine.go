// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

// Package predict computes per-user liking percentages for recommended
// items. Predictions are tiered by evidence strength: an actual rating
// of the item itself beats the user's ratings of the films that seeded
// the recommendation, which beat same-era rating averages, which beat
// the evidence-free catalog fallback.
package predict

import (
	"math"

	"github.com/tomtom215/reelpair/internal/models"
	"github.com/tomtom215/reelpair/internal/titles"
)

// Item is one recommendation row under prediction.
type Item struct {
	// Title is the item's display title.
	Title string

	// Year is the release year, 0 when unknown.
	Year int

	// Rating is the catalog rating out of 10.
	Rating float64

	// Sources are the history titles that seeded the recommendation,
	// empty for discovery rows.
	Sources []string
}

// Evidence is one history title that informed a prediction, with the
// user's rating of it.
type Evidence struct {
	Title  string  `json:"title"`
	Rating float64 `json:"rating"`
}

// Result is the prediction for one (item, user) pair.
type Result struct {
	Percent  int        `json:"percent"`
	Reasons  []string   `json:"reasons"`
	Evidence []Evidence `json:"matched_evidence"`
}

// Engine computes predictions against one policy.
type Engine struct {
	cfg Config
}

// NewEngine creates a prediction engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Predict returns the liking percentage, justification strings, and
// evidence for one user. Only rated history entries count as evidence;
// a film the user logged without rating proves nothing about taste.
func (e *Engine) Predict(item Item, history []models.WatchedFilm) Result {
	rated := ratedOnly(history)

	percent, evidence := e.percentFor(item, rated)
	reasons := e.reasons(percent, evidence, rated)
	if len(evidence) > e.cfg.MaxEvidence {
		evidence = evidence[:e.cfg.MaxEvidence]
	}
	return Result{
		Percent:  int(math.Round(percent)),
		Reasons:  reasons,
		Evidence: evidence,
	}
}

func (e *Engine) percentFor(item Item, rated []models.WatchedFilm) (float64, []Evidence) {
	c := e.cfg
	tmdbBase := (item.Rating / 10.0) * 100

	// Tier 1: no rated history at all.
	if len(rated) == 0 {
		return clamp(tmdbBase, c.NoHistoryMin, c.NoHistoryMax), nil
	}

	byNorm := make(map[string]models.WatchedFilm, len(rated))
	for _, f := range rated {
		norm := titles.Normalize(f.Title)
		if _, seen := byNorm[norm]; !seen {
			byNorm[norm] = f
		}
	}

	// Tier 2: the user already rated this exact item. Their rating is
	// ground truth, no clamping.
	if f, ok := byNorm[titles.Normalize(item.Title)]; ok {
		return (*f.Rating / 5.0) * 100, []Evidence{{Title: f.Title, Rating: *f.Rating}}
	}

	// Tier 3: the user rated films that seeded this recommendation.
	var sourceEvidence []Evidence
	var sourceSum float64
	for _, src := range item.Sources {
		if f, ok := byNorm[titles.Normalize(src)]; ok {
			sourceEvidence = append(sourceEvidence, Evidence{Title: f.Title, Rating: *f.Rating})
			sourceSum += *f.Rating
		}
	}
	if len(sourceEvidence) > 0 {
		avg := sourceSum / float64(len(sourceEvidence))
		prediction := (avg/5.0*100)*c.SourceBlend + tmdbBase*(1-c.SourceBlend)
		switch {
		case avg >= c.SourceLovedAvg:
			prediction = math.Min(c.SourceCapLoved, prediction)
		case avg >= c.SourceLikedAvg:
			prediction = math.Min(c.SourceCapLiked, prediction)
		case avg <= c.DislikedThreshold:
			prediction = clamp(prediction, c.SourceLowMin, c.SourceLowMax)
		}
		return clamp(prediction, c.SourceFinalMin, c.SourceFinalMax), sourceEvidence
	}

	// Tier 4: enough rated films from the same era.
	if item.Year > 0 {
		var yearEvidence []Evidence
		var yearSum float64
		for _, f := range rated {
			y, ok := titles.Year(f.Title)
			if !ok {
				continue
			}
			if abs(y-item.Year) <= c.YearWindow {
				yearEvidence = append(yearEvidence, Evidence{Title: f.Title, Rating: *f.Rating})
				yearSum += *f.Rating
			}
		}
		if len(yearEvidence) >= c.YearMinMatches {
			avg := yearSum / float64(len(yearEvidence))
			prediction := (avg/5.0*100)*c.YearBlend + tmdbBase*(1-c.YearBlend)
			return clamp(prediction, c.YearMin, c.YearMax), yearEvidence
		}
	}

	// Tier 5: no evidence. Step down from the catalog rating, capped
	// low: without a match the user probably won't love it.
	var prediction float64
	switch {
	case item.Rating >= 8.5:
		prediction = 40
	case item.Rating >= 7.5:
		prediction = 38
	case item.Rating >= 7.0:
		prediction = 35
	case item.Rating >= 6.0:
		prediction = 32
	default:
		prediction = 28
	}
	return clamp(prediction, c.NoMatchMin, c.NoMatchMax), nil
}

func ratedOnly(history []models.WatchedFilm) []models.WatchedFilm {
	rated := make([]models.WatchedFilm, 0, len(history))
	for _, f := range history {
		if f.Rating != nil {
			rated = append(rated, f)
		}
	}
	return rated
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
