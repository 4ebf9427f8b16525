// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package validation

import (
	"strings"
	"testing"
)

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		wantErr string // substring, empty for valid
	}{
		{
			name:  "valid analytics params",
			input: AnalyticsParams{Country: "spain", TopN: 10},
		},
		{
			name:    "missing country",
			input:   AnalyticsParams{TopN: 10},
			wantErr: "country is required",
		},
		{
			name:    "top_n too small",
			input:   AnalyticsParams{Country: "spain", TopN: 0},
			wantErr: "topn must be at least 1",
		},
		{
			name:    "top_n too large",
			input:   AnalyticsParams{Country: "spain", TopN: 101},
			wantErr: "topn must be at most 100",
		},
		{
			name:  "valid comparison params",
			input: ComparisonParams{Country1: "spain", Country2: "france", TopN: 10},
		},
		{
			name:    "comparison missing second country",
			input:   ComparisonParams{Country1: "spain", TopN: 10},
			wantErr: "country2 is required",
		},
		{
			name:  "valid chart run",
			input: ChartRunParams{Country: "spain", Limit: 20},
		},
		{
			name:    "chart run limit over cap",
			input:   ChartRunParams{Country: "spain", Limit: 201},
			wantErr: "limit must be at most 200",
		},
		{
			name:  "valid enrichment run",
			input: EnrichmentRunParams{Limit: 50},
		},
		{
			name:    "enrichment limit zero",
			input:   EnrichmentRunParams{Limit: 0},
			wantErr: "limit must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateStruct() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateStructMultipleViolations(t *testing.T) {
	err := ValidateStruct(ComparisonParams{TopN: 0})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"country1 is required", "country2 is required", "topn must be at least 1"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err.Error(), want)
		}
	}
}
