// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

// Package validation holds the request parameter structs for the HTTP API
// and a shared validator instance.
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// AnalyticsParams are the query parameters of the single-country
// analytics endpoints.
type AnalyticsParams struct {
	Country string `validate:"required,min=1,max=100"`
	TopN    int    `validate:"min=1,max=100"`
}

// ComparisonParams are the query parameters of the two-country genre
// comparison endpoint.
type ComparisonParams struct {
	Country1 string `validate:"required,min=1,max=100"`
	Country2 string `validate:"required,min=1,max=100"`
	TopN     int    `validate:"min=1,max=100"`
}

// ChartRunParams are the parameters of a chart ingestion trigger.
type ChartRunParams struct {
	Country string `validate:"required,min=1,max=100"`
	Limit   int    `validate:"min=1,max=200"`
}

// EnrichmentRunParams are the parameters of an enrichment trigger.
type EnrichmentRunParams struct {
	Limit int `validate:"min=1,max=200"`
}

// ValidateStruct validates v and flattens any violations into one
// human-readable message suitable for a 400 response.
func ValidateStruct(v interface{}) error {
	err := GetValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	ok := false
	if e, isVErrs := err.(validator.ValidationErrors); isVErrs {
		verrs, ok = e, true
	}
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
