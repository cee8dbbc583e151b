// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

// Package titles canonicalizes film titles and decides whether a candidate
// title is already in a user's watch set.
//
// Every place in the codebase that compares two titles must go through
// Normalize. Matching drift between call sites is a correctness bug: a
// candidate that normalizes differently in the aggregator than in the
// prediction engine would be recommended and simultaneously reported as
// watched.
package titles

import (
	"regexp"
	"strings"
)

var (
	yearSuffix  = regexp.MustCompile(`\s*\(\d{4}\)\s*`)
	yearCapture = regexp.MustCompile(`\((\d{4})\)`)
	nonWord     = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// Normalize canonicalizes a title for matching: lowercase, parenthesized
// year removed, punctuation stripped, internal whitespace collapsed.
// Punctuation must go before the collapse: a freestanding "&" would
// otherwise leave a double space behind, breaking idempotence.
// Total and idempotent; empty input yields the empty string.
func Normalize(title string) string {
	t := strings.ToLower(title)
	t = yearSuffix.ReplaceAllString(t, " ")
	t = nonWord.ReplaceAllString(t, "")
	return strings.Join(strings.Fields(t), " ")
}

// StripYear removes a trailing "(YYYY)" suffix, preserving case.
func StripYear(title string) string {
	return strings.TrimSpace(yearSuffix.ReplaceAllString(title, " "))
}

// Year extracts a parenthesized four-digit year from a title.
// Returns 0, false when no year is present.
func Year(title string) (int, bool) {
	m := yearCapture.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	year := 0
	for _, r := range m[1] {
		year = year*10 + int(r-'0')
	}
	return year, true
}
