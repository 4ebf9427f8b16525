// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

// Package analytics computes the chart aggregations served by the API:
// genre distribution, top artists, artist nationality distribution, and
// two-country genre comparison. All computations read the latest snapshot
// per country from the store and aggregate in memory; nothing is cached
// or precomputed.
package analytics

import (
	"math"
	"sort"
	"strings"
)

// Counter is an insertion-ordered frequency counter. Keys iterate in
// first-seen order, which gives MostCommon its stable tie-break: among
// equal counts, the key encountered first ranks first. A plain map plus
// sort would make tie order depend on map iteration and is not acceptable
// here.
type Counter struct {
	keys   []string
	counts map[string]int
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add increments the count for key, registering it on first sight.
func (c *Counter) Add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key]++
}

// Update adds every key in keys.
func (c *Counter) Update(keys []string) {
	for _, k := range keys {
		c.Add(k)
	}
}

// Get returns the count for key (0 if absent).
func (c *Counter) Get(key string) int {
	return c.counts[key]
}

// Len returns the number of distinct keys.
func (c *Counter) Len() int {
	return len(c.keys)
}

// Total returns the sum of all counts.
func (c *Counter) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Entry is one key with its count.
type Entry struct {
	Key   string
	Count int
}

// MostCommon returns up to n entries ordered by descending count, ties in
// first-seen order. n < 0 returns all entries.
func (c *Counter) MostCommon(n int) []Entry {
	entries := make([]Entry, 0, len(c.keys))
	for _, k := range c.keys {
		entries = append(entries, Entry{Key: k, Count: c.counts[k]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n >= 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// Merge returns a new Counter with the summed counts of a and b. Key order
// is a's keys first, then b's keys not present in a, so tie-breaks of the
// merged ranking follow the same first-seen rule as a single counter.
func Merge(a, b *Counter) *Counter {
	m := NewCounter()
	for _, k := range a.keys {
		m.keys = append(m.keys, k)
		m.counts[k] = a.counts[k]
	}
	for _, k := range b.keys {
		if _, ok := m.counts[k]; !ok {
			m.keys = append(m.keys, k)
		}
		m.counts[k] += b.counts[k]
	}
	return m
}

// ParseTags splits a comma-separated genre string into trimmed, non-empty
// tags with their original casing preserved.
func ParseTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// NormalizeTags is ParseTags with each tag lower-cased, the form used for
// frequency counting.
func NormalizeTags(raw string) []string {
	tags := ParseTags(raw)
	for i, t := range tags {
		tags[i] = strings.ToLower(t)
	}
	return tags
}

// RoundPercent rounds to 2 decimal places using round-half-to-even,
// matching IEEE 754 default rounding.
func RoundPercent(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}

// Percentage returns count/total*100 rounded to 2 decimals, or 0 when
// total is zero.
func Percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return RoundPercent(float64(count) / float64(total) * 100)
}
