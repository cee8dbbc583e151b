// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package letterboxd

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tomtom215/reelpair/internal/models"
)

// parsePage extracts the films from one history page. Each film sits in
// a poster div carrying data-item-slug; the user's rating, when
// present, lives in the enclosing list item in one of three forms,
// checked in order:
//  1. a "rated-N" class on a rating span, N in half-star units out of 10
//  2. a data-rating attribute on the poster div
//  3. star glyphs in the rating span's text
func parsePage(r io.Reader) ([]models.WatchedFilm, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var films []models.WatchedFilm
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "div" {
			return
		}
		slug := attr(n, "data-item-slug")
		if slug == "" {
			return
		}
		title := attr(n, "data-item-name")
		if title == "" {
			title = titleFromSlug(slug)
		}
		film := models.WatchedFilm{Title: title}
		if rating, stars, ok := extractRating(n); ok {
			film.Rating = &rating
			film.RatingStars = stars
		}
		films = append(films, film)
	})
	return films, nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// extractRating resolves the rating for a poster div, looking in the
// enclosing li so sibling films never bleed into each other.
func extractRating(poster *html.Node) (rating float64, stars string, ok bool) {
	item := poster
	for item != nil && !(item.Type == html.ElementNode && item.Data == "li") {
		item = item.Parent
	}
	if item == nil {
		item = poster
	}

	var span *html.Node
	walk(item, func(n *html.Node) {
		if span == nil && n.Type == html.ElementNode && n.Data == "span" && hasClass(n, "rating") {
			span = n
		}
	})

	if span != nil {
		for _, class := range strings.Fields(attr(span, "class")) {
			if v, found := strings.CutPrefix(class, "rated-"); found {
				if halves, err := strconv.Atoi(v); err == nil {
					r := float64(halves) / 2.0
					return r, starsFor(r), true
				}
			}
		}
	}
	if v := attr(poster, "data-rating"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			return r, starsFor(r), true
		}
	}
	if span != nil {
		if r, found := ratingFromStars(text(span)); found {
			return r, starsFor(r), true
		}
	}
	return 0, "", false
}

func text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return strings.TrimSpace(b.String())
}

func ratingFromStars(s string) (float64, bool) {
	full := strings.Count(s, "★")
	half := strings.Count(s, "½")
	if full == 0 && half == 0 {
		return 0, false
	}
	return float64(full) + 0.5*float64(half), true
}

func starsFor(rating float64) string {
	full := int(rating)
	var b strings.Builder
	for i := 0; i < full; i++ {
		b.WriteString("★")
	}
	if rating-float64(full) >= 0.5 {
		b.WriteString("½")
	}
	return b.String()
}

func titleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
