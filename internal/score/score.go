// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes the composite relevance score for canonical
// candidates against the interest profile. Scoring is deterministic:
// identical (candidate, profile, weights) always yields the same
// composite score.
package score

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/litwatch/internal/encoder"
	"github.com/pdiddy/litwatch/pkg/types"
)

// Index answers nearest-neighbor queries against the stored library
// vectors. The profile store implements it.
type Index interface {
	QuerySimilarity(vec []float32, topK int) float64
}

// Scorer holds everything needed to score one run's candidates.
type Scorer struct {
	Encoder encoder.Encoder
	Index   Index
	Weights types.ScoringConfig

	// Workers bounds concurrent encoder calls in ScoreAll.
	Workers int

	// SJR maps normalized venue names to scores already scaled to [0,1].
	SJR map[string]float64

	// RefTime anchors the recency decay; the pipeline fixes it once per
	// run so repeated scoring is reproducible.
	RefTime time.Time

	venueWhitelist  map[string]struct{}
	authorWhitelist map[string]struct{}
}

// New returns a Scorer with precomputed whitelist lookups.
func New(enc encoder.Encoder, index Index, weights types.ScoringConfig, sjr map[string]float64, refTime time.Time) *Scorer {
	s := &Scorer{
		Encoder:         enc,
		Index:           index,
		Weights:         weights,
		SJR:             sjr,
		RefTime:         refTime,
		venueWhitelist:  make(map[string]struct{}, len(weights.VenueWhitelist)),
		authorWhitelist: make(map[string]struct{}, len(weights.AuthorWhitelist)),
	}
	for _, v := range weights.VenueWhitelist {
		s.venueWhitelist[types.NormalizeVenue(v)] = struct{}{}
	}
	for _, a := range weights.AuthorWhitelist {
		s.authorWhitelist[foldName(a)] = struct{}{}
	}
	return s
}

// SanityWarning returns a non-empty message when the four linear
// weights do not sum to 1. Misconfiguration is a user error, not a
// fault: the caller logs the warning and proceeds with the given
// weights.
func (s *Scorer) SanityWarning() string {
	if s.Weights.WeightsBalanced() {
		return ""
	}
	return fmt.Sprintf("scoring weights sum to %.3f, expected 1.0", s.Weights.WeightSum())
}

// Score computes every signal and the composite score for one
// candidate. The only failure mode is the encoder; all other signals
// are pure functions of the candidate and configuration.
func (s *Scorer) Score(ctx context.Context, c types.CanonicalCandidate) (types.ScoredCandidate, error) {
	vec, err := s.Encoder.Encode(ctx, embeddingText(c))
	if err != nil {
		return types.ScoredCandidate{}, fmt.Errorf("encoding candidate %s: %w", c.CanonicalID, err)
	}
	return s.scoreWithVector(c, vec), nil
}

// ScoreAll encodes all candidates with a bounded worker pool, then
// scores each. The encoder call dominates latency; everything after it
// is pure arithmetic.
func (s *Scorer) ScoreAll(ctx context.Context, candidates []types.CanonicalCandidate) ([]types.ScoredCandidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = embeddingText(c)
	}
	vectors, err := encoder.EncodeBatch(ctx, s.Encoder, texts, s.Workers)
	if err != nil {
		return nil, fmt.Errorf("encoding %d candidates: %w", len(candidates), err)
	}

	scored := make([]types.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = s.scoreWithVector(c, vectors[i])
	}
	return scored, nil
}

func (s *Scorer) scoreWithVector(c types.CanonicalCandidate, vec []float32) types.ScoredCandidate {
	w := s.Weights

	similarity := s.Index.QuerySimilarity(vec, w.SimilarityTopK)
	recency := recencyWeight(c.PublishedAt, s.RefTime, w.DecayLambda)
	metric := metricWeight(c.CitationCount, c.AltmetricScore, w)
	journal := s.journalWeight(c)
	bonus := s.whitelistBonus(c)

	composite := w.SimilarityWeight*similarity +
		w.RecencyWeight*recency +
		w.MetricWeight*metric +
		w.JournalWeight*journal +
		bonus

	return types.ScoredCandidate{
		CanonicalCandidate: c,
		Similarity:         similarity,
		RecencyWeight:      recency,
		MetricWeight:       metric,
		JournalWeight:      journal,
		WhitelistBonus:     bonus,
		CompositeScore:     composite,
	}
}

// recencyWeight decays exponentially with age: a paper published at the
// reference time scores 1.0.
func recencyWeight(published, ref time.Time, lambda float64) float64 {
	if published.IsZero() {
		return 0
	}
	if lambda <= 0 {
		lambda = 0.1
	}
	ageDays := ref.Sub(published).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-lambda * ageDays)
}

// metricWeight combines citation count and Altmetric attention with a
// log-scaled saturating transform. A missing metric contributes 0, not
// a penalty; the transform is monotonic in both inputs.
func metricWeight(citations int, altmetric float64, w types.ScoringConfig) float64 {
	sub := w.CitationSubWeight
	if sub <= 0 || sub > 1 {
		sub = 0.6
	}
	c := saturate(float64(citations), w.CitationSaturation)
	a := saturate(altmetric, w.AltmetricSaturation)
	return sub*c + (1-sub)*a
}

// saturate maps v into [0,1] via log1p scaling that reaches 1 at the
// saturation point.
func saturate(v, saturation float64) float64 {
	if v <= 0 {
		return 0
	}
	if saturation <= 0 {
		saturation = 100
	}
	scaled := math.Log1p(v) / math.Log1p(saturation)
	if scaled > 1 {
		return 1
	}
	return scaled
}

// journalWeight looks up the candidate's venue in the SJR table. A
// score already merged onto the candidate by enrichment wins; unknown
// venues get the configured neutral default so missing table entries
// are not punished.
func (s *Scorer) journalWeight(c types.CanonicalCandidate) float64 {
	if c.SJRScore > 0 {
		if c.SJRScore > 1 {
			return 1
		}
		return c.SJRScore
	}
	if v, ok := s.SJR[types.NormalizeVenue(c.Venue)]; ok {
		return v
	}
	neutral := s.Weights.JournalNeutral
	if neutral <= 0 {
		neutral = 0.5
	}
	return neutral
}

// whitelistBonus applies the fixed user-override bonus when the venue
// or any author is whitelisted. The bonus is additive after the
// weighted sum and may push the composite score above 1.
func (s *Scorer) whitelistBonus(c types.CanonicalCandidate) float64 {
	if len(s.venueWhitelist) == 0 && len(s.authorWhitelist) == 0 {
		return 0
	}
	matched := false
	if _, ok := s.venueWhitelist[types.NormalizeVenue(c.Venue)]; ok {
		matched = true
	}
	if !matched {
		for _, a := range c.Authors {
			if _, ok := s.authorWhitelist[foldName(a)]; ok {
				matched = true
				break
			}
		}
	}
	if !matched {
		return 0
	}
	bonus := s.Weights.WhitelistBonus
	if bonus <= 0 {
		bonus = 0.2
	}
	return bonus
}

func embeddingText(c types.CanonicalCandidate) string {
	if c.Abstract == "" {
		return c.Title
	}
	return c.Title + "\n\n" + c.Abstract
}

func foldName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
