// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe collapses raw candidate records from multiple sources
// into canonical candidates. Matching prefers strong identifiers (DOI,
// arXiv ID) and falls back to normalized-title plus author-overlap
// fuzzy matching only when neither side carries a strong identifier.
package dedupe

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/litwatch/pkg/types"
)

// Merge collapses records into canonical candidates. The input is
// sorted into a fixed order first, so the canonical set is independent
// of arrival order. Re-merging output records expressed as raw records
// yields the same set (idempotence).
//
// Two records that fuzzy-matched are never un-merged later in the same
// run, even if conflicting strong identifiers arrive afterwards.
func Merge(records []types.RawCandidateRecord, cfg types.DedupeConfig) []types.CanonicalCandidate {
	if cfg.TitleThreshold <= 0 {
		cfg.TitleThreshold = 0.9
	}
	if cfg.AuthorOverlap <= 0 {
		cfg.AuthorOverlap = 0.5
	}

	ordered := make([]types.RawCandidateRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return recordKey(ordered[i]) < recordKey(ordered[j])
	})

	var (
		canonicals []types.CanonicalCandidate
		byStrongID = make(map[string]int) // "doi:…" / "arxiv:…" → index
	)

	for _, rec := range ordered {
		idx := matchStrong(rec, byStrongID)
		if idx < 0 && !hasStrongID(rec) {
			idx = matchFuzzy(rec, canonicals, cfg)
		}

		if idx >= 0 {
			mergeInto(&canonicals[idx], rec)
		} else {
			idx = len(canonicals)
			canonicals = append(canonicals, newCanonical(rec))
		}

		registerStrongIDs(canonicals[idx], idx, byStrongID)
	}

	sort.Slice(canonicals, func(i, j int) bool {
		return canonicals[i].CanonicalID < canonicals[j].CanonicalID
	})
	return canonicals
}

// recordKey orders records deterministically before merging.
func recordKey(r types.RawCandidateRecord) string {
	switch {
	case r.DOI != "":
		return "0doi:" + normalizeDOI(r.DOI) + "|" + string(r.Source) + "|" + r.ExternalID
	case r.ArxivID != "":
		return "1arxiv:" + r.ArxivID + "|" + string(r.Source) + "|" + r.ExternalID
	default:
		return "2title:" + NormalizeTitle(r.Title) + "|" + string(r.Source) + "|" + r.ExternalID
	}
}

func hasStrongID(r types.RawCandidateRecord) bool {
	return r.DOI != "" || r.ArxivID != ""
}

func matchStrong(r types.RawCandidateRecord, byStrongID map[string]int) int {
	if r.DOI != "" {
		if idx, ok := byStrongID["doi:"+normalizeDOI(r.DOI)]; ok {
			return idx
		}
	}
	if r.ArxivID != "" {
		if idx, ok := byStrongID["arxiv:"+r.ArxivID]; ok {
			return idx
		}
	}
	return -1
}

// matchFuzzy scans canonicals without strong identifiers for a title
// and author match. Resolution is deterministic: the first canonical in
// index order above both thresholds wins.
func matchFuzzy(r types.RawCandidateRecord, canonicals []types.CanonicalCandidate, cfg types.DedupeConfig) int {
	title := NormalizeTitle(r.Title)
	if title == "" {
		return -1
	}
	for i, c := range canonicals {
		if c.DOI != "" || c.ArxivID != "" {
			continue
		}
		if titleSimilarity(title, NormalizeTitle(c.Title)) < cfg.TitleThreshold {
			continue
		}
		if len(r.Authors) > 0 && len(c.Authors) > 0 &&
			authorOverlap(r.Authors, c.Authors) < cfg.AuthorOverlap {
			continue
		}
		return i
	}
	return -1
}

func registerStrongIDs(c types.CanonicalCandidate, idx int, byStrongID map[string]int) {
	if c.DOI != "" {
		byStrongID["doi:"+normalizeDOI(c.DOI)] = idx
	}
	if c.ArxivID != "" {
		byStrongID["arxiv:"+c.ArxivID] = idx
	}
}

func newCanonical(r types.RawCandidateRecord) types.CanonicalCandidate {
	return types.CanonicalCandidate{
		CanonicalID:    canonicalID(r),
		Title:          r.Title,
		Abstract:       r.Abstract,
		Authors:        append([]string(nil), r.Authors...),
		Venue:          r.Venue,
		PublishedAt:    r.PublishedAt,
		Identifiers:    []types.Identifier{{Source: r.Source, ExternalID: r.ExternalID}},
		DOI:            normalizeDOI(r.DOI),
		ArxivID:        r.ArxivID,
		CitationCount:  r.CitationCount,
		AltmetricScore: r.AltmetricScore,
		SJRScore:       r.SJRScore,
		IsPreprint:     r.IsPreprint,
	}
}

// canonicalID prefers the DOI, then the arXiv ID, then the normalized title.
func canonicalID(r types.RawCandidateRecord) string {
	switch {
	case r.DOI != "":
		return "doi:" + normalizeDOI(r.DOI)
	case r.ArxivID != "":
		return "arxiv:" + r.ArxivID
	default:
		return "title:" + NormalizeTitle(r.Title)
	}
}

// mergeInto folds one more observation of the same work into dst.
// Earliest publication date wins; numeric metrics take the maximum
// since sources under-report independently; authors are unioned in
// first-seen order; preprint status survives only if every source
// agrees.
func mergeInto(dst *types.CanonicalCandidate, src types.RawCandidateRecord) {
	dst.Identifiers = appendIdentifier(dst.Identifiers, types.Identifier{
		Source: src.Source, ExternalID: src.ExternalID,
	})

	if dst.Title == "" {
		dst.Title = src.Title
	}
	if src.Abstract != "" && len(src.Abstract) > len(dst.Abstract) {
		dst.Abstract = src.Abstract
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if !src.PublishedAt.IsZero() &&
		(dst.PublishedAt.IsZero() || src.PublishedAt.Before(dst.PublishedAt)) {
		dst.PublishedAt = src.PublishedAt
	}

	if dst.DOI == "" {
		dst.DOI = normalizeDOI(src.DOI)
	}
	if dst.ArxivID == "" {
		dst.ArxivID = src.ArxivID
	}

	if src.CitationCount > dst.CitationCount {
		dst.CitationCount = src.CitationCount
	}
	if src.AltmetricScore > dst.AltmetricScore {
		dst.AltmetricScore = src.AltmetricScore
	}
	if src.SJRScore > dst.SJRScore {
		dst.SJRScore = src.SJRScore
	}

	dst.IsPreprint = dst.IsPreprint && src.IsPreprint

	dst.Authors = unionAuthors(dst.Authors, src.Authors)
}

func appendIdentifier(ids []types.Identifier, id types.Identifier) []types.Identifier {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	ids = append(ids, id)
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Source != ids[j].Source {
			return ids[i].Source < ids[j].Source
		}
		return ids[i].ExternalID < ids[j].ExternalID
	})
	return ids
}

// unionAuthors merges src into dst preserving first-seen order. Names
// are compared case-insensitively after whitespace folding.
func unionAuthors(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, a := range dst {
		seen[foldAuthor(a)] = struct{}{}
	}
	for _, a := range src {
		key := foldAuthor(a)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			dst = append(dst, a)
		}
	}
	return dst
}

func foldAuthor(a string) string {
	return strings.ToLower(strings.Join(strings.Fields(a), " "))
}

// NormalizeTitle returns a case-folded, punctuation-stripped,
// whitespace-collapsed version of the title.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// titleSimilarity is the Jaccard overlap of title tokens. Identical
// normalized titles score 1.
func titleSimilarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var intersect int
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersect++
		}
	}
	union := len(setA) + len(setB) - intersect
	return float64(intersect) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// authorOverlap is the fraction of the smaller author set also present
// in the larger one.
func authorOverlap(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, name := range a {
		if key := foldAuthor(name); key != "" {
			setA[key] = struct{}{}
		}
	}
	setB := make(map[string]struct{}, len(b))
	for _, name := range b {
		if key := foldAuthor(name); key != "" {
			setB[key] = struct{}{}
		}
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	smaller, larger := setA, setB
	if len(setB) < len(setA) {
		smaller, larger = setB, setA
	}
	var shared int
	for key := range smaller {
		if _, ok := larger[key]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(smaller))
}

// normalizeDOI lowercases a DOI and strips the resolver prefix so
// "https://doi.org/10.1/X" and "10.1/x" compare equal.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(strings.ToLower(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return doi
}
