// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package titles

import "strings"

// MatchConfig tunes the fuzzy-containment fallback of WatchSet.Contains.
// The defaults are heuristics carried over from production behavior, not
// derived values; they are configurable precisely because they are not
// known to be load-bearing.
type MatchConfig struct {
	// FuzzyRatio is the minimum shorter/longer length ratio for a
	// substring containment to count as a match. Default: 0.7.
	FuzzyRatio float64 `json:"fuzzy_ratio" koanf:"fuzzy_ratio"`

	// MinFuzzyLen is the minimum normalized length (exclusive) both
	// titles must exceed before fuzzy containment applies. Guards short
	// generic words against false positives. Default: 8.
	MinFuzzyLen int `json:"min_fuzzy_len" koanf:"min_fuzzy_len"`
}

// DefaultMatchConfig returns the production matching thresholds.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		FuzzyRatio:  0.7,
		MinFuzzyLen: 8,
	}
}

// WatchSet holds one or more users' watched titles in the two forms the
// matcher needs: normalized and raw-lowercased. Catalog services return
// alternate-edition titles ("Title: Director's Cut") that exact matching
// misses, so Contains falls back to bounded substring containment.
type WatchSet struct {
	cfg      MatchConfig
	norm     map[string]struct{}
	rawLower map[string]struct{}
}

// NewWatchSet creates an empty watch set with the given match thresholds.
func NewWatchSet(cfg MatchConfig) *WatchSet {
	if cfg.FuzzyRatio <= 0 {
		cfg.FuzzyRatio = DefaultMatchConfig().FuzzyRatio
	}
	if cfg.MinFuzzyLen <= 0 {
		cfg.MinFuzzyLen = DefaultMatchConfig().MinFuzzyLen
	}
	return &WatchSet{
		cfg:      cfg,
		norm:     make(map[string]struct{}),
		rawLower: make(map[string]struct{}),
	}
}

// Add records a watched title in both matching forms.
func (s *WatchSet) Add(title string) {
	if title == "" {
		return
	}
	s.norm[Normalize(title)] = struct{}{}
	s.rawLower[strings.ToLower(strings.TrimSpace(title))] = struct{}{}
}

// AddSet merges another watch set into this one.
func (s *WatchSet) AddSet(other *WatchSet) {
	if other == nil {
		return
	}
	for t := range other.norm {
		s.norm[t] = struct{}{}
	}
	for t := range other.rawLower {
		s.rawLower[t] = struct{}{}
	}
}

// Len returns the number of distinct normalized titles.
func (s *WatchSet) Len() int {
	return len(s.norm)
}

// ContainsExact reports whether the candidate's normalized form is in the
// set. Used for the defensive re-check at emission time, where fuzzy
// positives have already been filtered upstream.
func (s *WatchSet) ContainsExact(candidate string) bool {
	_, ok := s.norm[Normalize(candidate)]
	return ok
}

// Contains decides whether a candidate title counts as watched.
// Checks, short-circuiting on first hit:
//  1. normalized exact match
//  2. raw-lowercase match (catches cases normalization over-corrects)
//  3. fuzzy containment: either normalized string contains the other,
//     both longer than MinFuzzyLen, length ratio above FuzzyRatio
//
// This is a heuristic, not a guarantee.
func (s *WatchSet) Contains(candidate string) bool {
	norm := Normalize(candidate)
	if _, ok := s.norm[norm]; ok {
		return true
	}
	if _, ok := s.rawLower[strings.ToLower(strings.TrimSpace(candidate))]; ok {
		return true
	}
	if len(norm) <= s.cfg.MinFuzzyLen {
		return false
	}
	for watched := range s.norm {
		if len(watched) <= s.cfg.MinFuzzyLen {
			continue
		}
		if !strings.Contains(norm, watched) && !strings.Contains(watched, norm) {
			continue
		}
		shorter, longer := len(norm), len(watched)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		if float64(shorter)/float64(longer) > s.cfg.FuzzyRatio {
			return true
		}
	}
	return false
}
