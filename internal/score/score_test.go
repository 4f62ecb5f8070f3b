// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litwatch/pkg/types"
)

// keywordEncoder emits a unit vector along axis 0 when the text
// mentions graph networks, axis 1 otherwise.
type keywordEncoder struct{}

func (keywordEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	if strings.Contains(strings.ToLower(text), "gnn") ||
		strings.Contains(strings.ToLower(text), "graph neural") {
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

// axisIndex simulates a profile built from graph-neural-network papers:
// vectors along axis 0 are similar, everything else is not.
type axisIndex struct{}

func (axisIndex) QuerySimilarity(vec []float32, _ int) float64 {
	if len(vec) == 2 && vec[0] > vec[1] {
		return 0.95
	}
	return 0.05
}

func defaultWeights() types.ScoringConfig {
	return types.ScoringConfig{
		SimilarityWeight:    0.5,
		RecencyWeight:       0.2,
		MetricWeight:        0.15,
		JournalWeight:       0.15,
		DecayLambda:         0.1,
		CitationSubWeight:   0.6,
		CitationSaturation:  100,
		AltmetricSaturation: 100,
		JournalNeutral:      0.5,
		WhitelistBonus:      0.2,
		SimilarityTopK:      1,
	}
}

var refTime = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func newTestScorer(w types.ScoringConfig) *Scorer {
	return New(keywordEncoder{}, axisIndex{}, w, nil, refTime)
}

func TestScore_Deterministic(t *testing.T) {
	s := newTestScorer(defaultWeights())
	c := types.CanonicalCandidate{
		CanonicalID: "doi:10.1/x", Title: "Scalable GNN Training",
		PublishedAt: refTime.AddDate(0, 0, -2), CitationCount: 40,
	}

	first, err := s.Score(context.Background(), c)
	require.NoError(t, err)
	second, err := s.Score(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScore_SimilarityAndWhitelistDominateCitations(t *testing.T) {
	w := defaultWeights()
	w.VenueWhitelist = []string{"JMLR"}
	s := newTestScorer(w)

	relevant := types.CanonicalCandidate{
		CanonicalID: "doi:10.1/gnn", Title: "Scalable GNN Training",
		Venue: "JMLR", PublishedAt: refTime, CitationCount: 50,
	}
	unrelated := types.CanonicalCandidate{
		CanonicalID: "doi:10.1/botany", Title: "Unrelated Topic in Botany",
		Venue: "Annals of Botany", PublishedAt: refTime, CitationCount: 500,
	}

	scored, err := s.ScoreAll(context.Background(), []types.CanonicalCandidate{relevant, unrelated})
	require.NoError(t, err)
	require.Len(t, scored, 2)

	assert.Greater(t, scored[0].CompositeScore, scored[1].CompositeScore,
		"similarity and whitelist must outweigh raw citation count")
	assert.Equal(t, 0.2, scored[0].WhitelistBonus)
	assert.Equal(t, 0.0, scored[1].WhitelistBonus)
}

func TestScore_CitationMonotonicity(t *testing.T) {
	s := newTestScorer(defaultWeights())
	base := types.CanonicalCandidate{
		CanonicalID: "doi:10.1/x", Title: "Scalable GNN Training", PublishedAt: refTime,
	}

	var prev float64
	for _, citations := range []int{0, 1, 5, 25, 100, 1000} {
		c := base
		c.CitationCount = citations
		sc, err := s.Score(context.Background(), c)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sc.MetricWeight, prev,
			"citations=%d must not decrease metric weight", citations)
		prev = sc.MetricWeight
	}
}

func TestScore_MissingMetricsContributeZero(t *testing.T) {
	s := newTestScorer(defaultWeights())
	sc, err := s.Score(context.Background(), types.CanonicalCandidate{
		CanonicalID: "doi:10.1/x", Title: "Scalable GNN Training", PublishedAt: refTime,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sc.MetricWeight)
}

func TestScore_RecencyDecay(t *testing.T) {
	s := newTestScorer(defaultWeights())

	today, err := s.Score(context.Background(), types.CanonicalCandidate{
		CanonicalID: "a", Title: "GNN now", PublishedAt: refTime,
	})
	require.NoError(t, err)
	old, err := s.Score(context.Background(), types.CanonicalCandidate{
		CanonicalID: "b", Title: "GNN then", PublishedAt: refTime.AddDate(0, 0, -5),
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, today.RecencyWeight, 1e-9)
	assert.Less(t, old.RecencyWeight, today.RecencyWeight)
	assert.Greater(t, old.RecencyWeight, 0.0)
}

func TestScore_UnknownVenueGetsNeutralJournalWeight(t *testing.T) {
	w := defaultWeights()
	sjr := map[string]float64{"nature methods": 1.0}
	s := New(keywordEncoder{}, axisIndex{}, w, sjr, refTime)

	known, err := s.Score(context.Background(), types.CanonicalCandidate{
		CanonicalID: "a", Title: "GNN", Venue: "Nature Methods", PublishedAt: refTime,
	})
	require.NoError(t, err)
	unknown, err := s.Score(context.Background(), types.CanonicalCandidate{
		CanonicalID: "b", Title: "GNN", Venue: "Obscure Journal", PublishedAt: refTime,
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, known.JournalWeight)
	assert.Equal(t, 0.5, unknown.JournalWeight, "unknown venue takes the neutral default, not 0")
}

func TestScore_EnrichedSJRBeatsTableLookup(t *testing.T) {
	s := newTestScorer(defaultWeights())
	sc, err := s.Score(context.Background(), types.CanonicalCandidate{
		CanonicalID: "a", Title: "GNN", Venue: "Whatever", SJRScore: 0.8, PublishedAt: refTime,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.8, sc.JournalWeight)
}

func TestScore_AuthorWhitelist(t *testing.T) {
	w := defaultWeights()
	w.AuthorWhitelist = []string{"Jane   Doe"}
	s := newTestScorer(w)

	sc, err := s.Score(context.Background(), types.CanonicalCandidate{
		CanonicalID: "a", Title: "GNN", Authors: []string{"jane doe"}, PublishedAt: refTime,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.2, sc.WhitelistBonus)
}

func TestScore_BonusCanExceedNormalizedRange(t *testing.T) {
	w := defaultWeights()
	w.VenueWhitelist = []string{"JMLR"}
	w.WhitelistBonus = 0.5
	s := newTestScorer(w)

	sc, err := s.Score(context.Background(), types.CanonicalCandidate{
		CanonicalID: "a", Title: "Scalable GNN Training", Venue: "JMLR",
		PublishedAt: refTime, CitationCount: 1000, AltmetricScore: 1000, SJRScore: 1,
	})
	require.NoError(t, err)
	assert.Greater(t, sc.CompositeScore, 1.0)
}

func TestSanityWarning(t *testing.T) {
	s := newTestScorer(defaultWeights())
	assert.Empty(t, s.SanityWarning())

	w := defaultWeights()
	w.SimilarityWeight = 0.9
	s = newTestScorer(w)
	assert.Contains(t, s.SanityWarning(), "1.0")
}

func TestSaturate(t *testing.T) {
	assert.Equal(t, 0.0, saturate(0, 100))
	assert.Equal(t, 0.0, saturate(-3, 100))
	assert.InDelta(t, 1.0, saturate(100, 100), 1e-9)
	assert.Equal(t, 1.0, saturate(100000, 100))
}
