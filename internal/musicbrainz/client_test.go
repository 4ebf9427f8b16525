// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package musicbrainz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/musicscope/musicscope/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.MusicBrainzConfig{
		BaseURL:         srv.URL,
		UserAgent:       "MusicScope-Test/1.0 (test@example.com)",
		Timeout:         5 * time.Second,
		RequestInterval: time.Millisecond, // keep tests fast
	})
}

func TestSearchArtist(t *testing.T) {
	var gotUA, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"artists": [{"id": "mbid-123", "name": "Miley Cyrus"}]}`))
	})

	match, err := client.SearchArtist(context.Background(), "Miley Cyrus")
	if err != nil {
		t.Fatalf("SearchArtist() error = %v", err)
	}
	if match == nil {
		t.Fatal("SearchArtist() = nil, want match")
	}
	if match.MBID != "mbid-123" || match.Name != "Miley Cyrus" {
		t.Errorf("unexpected match: %+v", match)
	}
	if gotUA != "MusicScope-Test/1.0 (test@example.com)" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if want := `artist:"Miley Cyrus"`; gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}
}

func TestSearchArtistNoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"artists": []}`))
	})

	match, err := client.SearchArtist(context.Background(), "Nobody Anyone Knows")
	if err != nil {
		t.Fatalf("SearchArtist() error = %v", err)
	}
	if match != nil {
		t.Errorf("SearchArtist() = %+v, want nil for no match", match)
	}
}

func TestGetArtistDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artist/mbid-123" {
			t.Errorf("path = %q, want /artist/mbid-123", r.URL.Path)
		}
		if inc := r.URL.Query().Get("inc"); inc != "tags" {
			t.Errorf("inc = %q, want tags", inc)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"country": "US",
			"tags": [{"name": "pop"}, {"name": "Rock"}, {"name": "pop"}]
		}`))
	})

	detail, err := client.GetArtistDetail(context.Background(), "mbid-123")
	if err != nil {
		t.Fatalf("GetArtistDetail() error = %v", err)
	}
	if detail.Country == nil || *detail.Country != "US" {
		t.Errorf("country = %v, want US", detail.Country)
	}
	// Order and duplicates are preserved; casing is untouched.
	if want := []string{"pop", "Rock", "pop"}; !reflect.DeepEqual(detail.Tags, want) {
		t.Errorf("tags = %v, want %v", detail.Tags, want)
	}
}

func TestGetArtistDetailNoCountryNoTags(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	detail, err := client.GetArtistDetail(context.Background(), "mbid-456")
	if err != nil {
		t.Fatalf("GetArtistDetail() error = %v", err)
	}
	if detail.Country != nil {
		t.Errorf("country = %v, want nil", detail.Country)
	}
	if len(detail.Tags) != 0 {
		t.Errorf("tags = %v, want empty", detail.Tags)
	}
}

func TestUpstreamHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusServiceUnavailable)
	})

	_, err := client.SearchArtist(context.Background(), "anyone")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if ue.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", ue.StatusCode)
	}
}

func TestRequestPacing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"artists": []}`))
	})
	client.limiter.SetLimit(10) // 100ms interval

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.SearchArtist(context.Background(), "x"); err != nil {
			t.Fatalf("SearchArtist() error = %v", err)
		}
	}
	// Burst of 1, so requests 2 and 3 each wait ~100ms.
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("3 requests took %v, expected pacing of at least 150ms", elapsed)
	}
}
