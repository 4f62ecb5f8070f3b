// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank applies the hard filters and deterministic ordering that
// turn scored candidates into the final shortlist.
package rank

import (
	"sort"
	"time"

	"github.com/pdiddy/litwatch/pkg/types"
)

// Options holds the filter parameters for one ranking pass.
type Options struct {
	// TopN caps the shortlist length. Zero or negative means no cap.
	TopN int

	// MaxPreprintRatio caps the preprint fraction of the final list.
	// Zero or negative disables the cap entirely; to exclude preprints
	// use a small positive value below 1/TopN.
	MaxPreprintRatio float64

	// RecencyWindowDays drops candidates published more than this many
	// days before RefTime. The boundary is inclusive: a candidate
	// published exactly RecencyWindowDays ago survives. Zero or
	// negative disables the filter.
	RecencyWindowDays int

	// RefTime is the run's reference time for the recency window.
	RefTime time.Time
}

// Rank filters, orders, and truncates scored candidates:
//
//  1. Candidates outside the recency window are dropped.
//  2. Descending composite score, ties broken by newer publication
//     date, then ascending canonical ID, so the order is fully
//     deterministic.
//  3. The preprint cap drops the lowest-scoring excess preprints and
//     backfills with the next best non-preprints; published work is
//     never dropped to make room for a preprint.
//
// An empty result is a valid outcome, not an error.
func Rank(scored []types.ScoredCandidate, opts Options) []types.ScoredCandidate {
	kept := make([]types.ScoredCandidate, 0, len(scored))
	for _, c := range scored {
		if inWindow(c.PublishedAt, opts) {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].CompositeScore != kept[j].CompositeScore {
			return kept[i].CompositeScore > kept[j].CompositeScore
		}
		if !kept[i].PublishedAt.Equal(kept[j].PublishedAt) {
			return kept[i].PublishedAt.After(kept[j].PublishedAt)
		}
		return kept[i].CanonicalID < kept[j].CanonicalID
	})

	topN := opts.TopN
	if topN <= 0 {
		topN = len(kept)
	}

	maxPreprints := len(kept)
	if opts.MaxPreprintRatio > 0 {
		maxPreprints = int(opts.MaxPreprintRatio * float64(topN))
	}

	// Walk the sorted list: non-preprints are taken freely, preprints
	// only while under the cap. Lower-scoring non-preprints backfill
	// the slots that capped preprints vacate.
	out := make([]types.ScoredCandidate, 0, topN)
	preprints := 0
	for _, c := range kept {
		if len(out) >= topN {
			break
		}
		if c.IsPreprint {
			if preprints >= maxPreprints {
				continue
			}
			preprints++
		}
		out = append(out, c)
	}
	return out
}

// inWindow applies the inclusive recency boundary.
func inWindow(published time.Time, opts Options) bool {
	if opts.RecencyWindowDays <= 0 {
		return true
	}
	if published.IsZero() {
		return false
	}
	cutoff := opts.RefTime.Add(-time.Duration(opts.RecencyWindowDays) * 24 * time.Hour)
	return !published.Before(cutoff)
}
