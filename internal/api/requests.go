// Reelpair - Paired Letterboxd Recommendations and Taste Predictions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelpair

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. validator.Validate caches
// struct metadata, so one instance serves all requests.
var validate = validator.New()

// RecommendationsRequest holds the validated query parameters for the
// /recommendations endpoint.
type RecommendationsRequest struct {
	Type     string `validate:"oneof=all movies tv"`
	Decade   int    `validate:"omitempty,min=1870,max=2100"`
	Genre    string `validate:"omitempty,max=64"`
	SortBy   string `validate:"oneof=default rating year year_oldest title rec_count"`
	Surprise bool
}

// SearchRequest holds the validated query parameters for the /search
// endpoint.
type SearchRequest struct {
	Query string `validate:"required,min=1,max=200"`
	Limit int    `validate:"min=1,max=50"`
}

func parseRecommendationsRequest(r *http.Request) (RecommendationsRequest, error) {
	q := r.URL.Query()
	req := RecommendationsRequest{
		Type:     q.Get("type"),
		Genre:    strings.TrimSpace(q.Get("genre")),
		SortBy:   q.Get("sort_by"),
		Surprise: q.Get("surprise") == "true",
	}
	if req.Type == "" {
		req.Type = "all"
	}
	if req.SortBy == "" {
		req.SortBy = "default"
	}
	if raw := q.Get("decade"); raw != "" {
		decade, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("decade must be a year, got %q", raw)
		}
		req.Decade = decade
	}
	return req, validateRequest(&req)
}

func parseSearchRequest(r *http.Request) (SearchRequest, error) {
	q := r.URL.Query()
	req := SearchRequest{
		Query: strings.TrimSpace(q.Get("query")),
		Limit: 20,
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("limit must be an integer, got %q", raw)
		}
		req.Limit = limit
	}
	return req, validateRequest(&req)
}

// validateRequest validates a request struct and converts validator
// errors to a readable message.
func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return fmt.Errorf("invalid parameter %s: failed %s constraint", strings.ToLower(fe.Field()), fe.Tag())
}
