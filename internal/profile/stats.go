// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/litwatch/pkg/types"
)

// frequencies tallies author and venue counts across the whole library.
// Venue keys are normalized; author names are trimmed but otherwise
// kept verbatim.
func frequencies(items []itemMeta) (authorFreq, venueFreq map[string]int) {
	authorFreq = make(map[string]int)
	venueFreq = make(map[string]int)
	for _, it := range items {
		for _, a := range it.authors {
			a = strings.TrimSpace(a)
			if a != "" {
				authorFreq[a]++
			}
		}
		if v := types.NormalizeVenue(it.venue); v != "" {
			venueFreq[v]++
		}
	}
	return authorFreq, venueFreq
}

// computeHotVenues returns the venues whose frequency within the recent
// publication window exceeds the configured percentile of windowed
// venue counts. The window is anchored at the newest publication date
// observed in the library, not at wall-clock time, so a stale library
// still produces a stable answer. When the window holds fewer than
// HotVenueMinItems items the computation falls back to all-time counts.
func computeHotVenues(items []itemMeta, cfg types.ProfileConfig) []string {
	if len(items) == 0 {
		return nil
	}

	windowDays := cfg.HotVenueWindowDays
	if windowDays <= 0 {
		windowDays = 7
	}
	percentile := cfg.HotVenuePercentile
	if percentile <= 0 || percentile >= 1 {
		percentile = 0.9
	}
	minItems := cfg.HotVenueMinItems
	if minItems <= 0 {
		minItems = 10
	}

	var newest time.Time
	for _, it := range items {
		if it.publishedAt.After(newest) {
			newest = it.publishedAt
		}
	}

	cutoff := newest.Add(-time.Duration(windowDays) * 24 * time.Hour)
	windowed := make(map[string]int)
	windowedItems := 0
	for _, it := range items {
		if it.publishedAt.IsZero() || it.publishedAt.Before(cutoff) {
			continue
		}
		windowedItems++
		if v := types.NormalizeVenue(it.venue); v != "" {
			windowed[v]++
		}
	}

	counts := windowed
	if windowedItems < minItems {
		_, counts = frequencies(items)
	}
	if len(counts) == 0 {
		return nil
	}

	vals := make([]int, 0, len(counts))
	for _, c := range counts {
		vals = append(vals, c)
	}
	sort.Ints(vals)

	idx := int(math.Ceil(percentile*float64(len(vals)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(vals) {
		idx = len(vals) - 1
	}
	threshold := vals[idx]

	var hot []string
	for venue, c := range counts {
		if c > threshold {
			hot = append(hot, venue)
		}
	}
	sort.Strings(hot)
	return hot
}

func topAuthors(freq map[string]int, n int) []types.AuthorCount {
	out := make([]types.AuthorCount, 0, len(freq))
	for a, c := range freq {
		out = append(out, types.AuthorCount{Author: a, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Author < out[j].Author
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func topVenues(freq map[string]int, n int) []types.VenueCount {
	out := make([]types.VenueCount, 0, len(freq))
	for v, c := range freq {
		out = append(out, types.VenueCount{Venue: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Venue < out[j].Venue
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
