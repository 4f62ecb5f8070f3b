// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceName identifies the external feed a candidate record came from.
type SourceName string

const (
	SourceCrossref  SourceName = "crossref"
	SourceArxiv     SourceName = "arxiv"
	SourceBiorxiv   SourceName = "biorxiv"
	SourceMedrxiv   SourceName = "medrxiv"
	SourceAltmetric SourceName = "altmetric"
)

// RawCandidateRecord is one observation of a publication as reported by a
// single source. Records are ephemeral: they exist only between fetching
// and deduplication within one run.
type RawCandidateRecord struct {
	Source     SourceName `json:"source"`
	ExternalID string     `json:"external_id"`

	// DOI and ArxivID are strong identifiers used for exact-match
	// deduplication. Either or both may be empty.
	DOI     string `json:"doi,omitempty"`
	ArxivID string `json:"arxiv_id,omitempty"`

	Title       string    `json:"title"`
	Abstract    string    `json:"abstract,omitempty"`
	Authors     []string  `json:"authors,omitempty"`
	Venue       string    `json:"venue,omitempty"`
	PublishedAt time.Time `json:"published_at"`

	// Zero values mean the source did not report the metric.
	CitationCount  int     `json:"citation_count,omitempty"`
	AltmetricScore float64 `json:"altmetric_score,omitempty"`
	SJRScore       float64 `json:"sjr_score,omitempty"`

	IsPreprint bool `json:"is_preprint,omitempty"`
}

// Identifier is one (source, external id) pair attached to a canonical
// candidate, kept for provenance and report links.
type Identifier struct {
	Source     SourceName `json:"source"`
	ExternalID string     `json:"external_id"`
}

// CanonicalCandidate is the merge of every raw record presumed to denote
// the same work. Metric fields carry the maximum seen across sources;
// PublishedAt carries the earliest.
type CanonicalCandidate struct {
	CanonicalID string       `json:"canonical_id"`
	Title       string       `json:"title"`
	Abstract    string       `json:"abstract,omitempty"`
	Authors     []string     `json:"authors,omitempty"`
	Venue       string       `json:"venue,omitempty"`
	PublishedAt time.Time    `json:"published_at"`
	Identifiers []Identifier `json:"identifiers"`

	DOI     string `json:"doi,omitempty"`
	ArxivID string `json:"arxiv_id,omitempty"`

	CitationCount  int     `json:"citation_count,omitempty"`
	AltmetricScore float64 `json:"altmetric_score,omitempty"`
	SJRScore       float64 `json:"sjr_score,omitempty"`

	// IsPreprint is true only when every contributing source tags the
	// work as a preprint.
	IsPreprint bool `json:"is_preprint"`
}

// ScoredCandidate is a canonical candidate with every score component
// exposed so reports can show why a paper ranked where it did.
type ScoredCandidate struct {
	CanonicalCandidate

	Similarity     float64 `json:"similarity"`
	RecencyWeight  float64 `json:"recency_weight"`
	MetricWeight   float64 `json:"metric_weight"`
	JournalWeight  float64 `json:"journal_weight"`
	WhitelistBonus float64 `json:"whitelist_bonus"`
	CompositeScore float64 `json:"composite_score"`
}
