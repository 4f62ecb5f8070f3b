// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litwatch/pkg/types"
)

func sampleRanked() []types.ScoredCandidate {
	return []types.ScoredCandidate{
		{
			CanonicalCandidate: types.CanonicalCandidate{
				CanonicalID: "doi:10.1234/abc",
				Title:       "Attention Mechanisms in Genomics",
				Abstract:    "We study attention.",
				Venue:       "Nature Methods",
				DOI:         "10.1234/abc",
				PublishedAt: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			},
			Similarity:     0.91,
			RecencyWeight:  0.95,
			MetricWeight:   0.2,
			JournalWeight:  1.0,
			WhitelistBonus: 0.2,
			CompositeScore: 1.01,
		},
		{
			CanonicalCandidate: types.CanonicalCandidate{
				CanonicalID: "arxiv:2608.01234",
				Title:       "Graph Neural Networks for Protein Folding",
				ArxivID:     "2608.01234",
				Venue:       "arXiv",
				PublishedAt: time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
				IsPreprint:  true,
			},
			Similarity:     0.8,
			CompositeScore: 0.62,
		},
	}
}

func sampleMeta() Meta {
	return Meta{
		Title:       "litwatch recommendations",
		Link:        "https://example.org/litwatch",
		GeneratedAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestLink(t *testing.T) {
	assert.Equal(t, "https://doi.org/10.1/x", Link(types.CanonicalCandidate{DOI: "10.1/x", ArxivID: "123"}))
	assert.Equal(t, "https://arxiv.org/abs/2608.01234", Link(types.CanonicalCandidate{ArxivID: "2608.01234"}))
	assert.Equal(t, "", Link(types.CanonicalCandidate{}))
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleRanked()))

	out := buf.String()
	assert.Contains(t, out, "Attention Mechanisms in Genomics")
	assert.Contains(t, out, "1.010")
	assert.Contains(t, out, "preprint")
	assert.Contains(t, out, "whitelist")
}

func TestWriteTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, nil))
	assert.Contains(t, buf.String(), "No candidates ranked.")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRanked()))

	var decoded []types.ScoredCandidate
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, 1.01, decoded[0].CompositeScore)
	assert.Equal(t, "doi:10.1234/abc", decoded[0].CanonicalID)
}

func TestWriteRSS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRSS(&buf, sampleRanked(), sampleMeta()))

	var feed rssFeed
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &feed))
	assert.Equal(t, "2.0", feed.Version)
	assert.Equal(t, "litwatch recommendations", feed.Channel.Title)
	require.Len(t, feed.Channel.Items, 2)

	first := feed.Channel.Items[0]
	assert.Equal(t, "doi:10.1234/abc", first.GUID.Value)
	assert.False(t, first.GUID.IsPermaLink)
	assert.Equal(t, "https://doi.org/10.1234/abc", first.Link)
	assert.Contains(t, first.Title, "#1")
	assert.Contains(t, first.Description, "similarity=0.910")

	assert.Equal(t, "https://arxiv.org/abs/2608.01234", feed.Channel.Items[1].Link)
}

func TestWriteRSS_EmptyShortlist(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRSS(&buf, nil, sampleMeta()))

	var feed rssFeed
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &feed))
	assert.Empty(t, feed.Channel.Items)
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleRanked(), sampleMeta()))

	out := buf.String()
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "Attention Mechanisms in Genomics")
	assert.Contains(t, out, `href="https://doi.org/10.1234/abc"`)
	assert.Contains(t, out, "preprint")
}

func TestWriteHTML_EscapesMarkup(t *testing.T) {
	ranked := sampleRanked()
	ranked[0].Title = "<script>alert(1)</script>"

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, ranked, sampleMeta()))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WriteFiles(dir, sampleRanked(), sampleMeta()))

	feed, err := os.ReadFile(filepath.Join(dir, "feed.xml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(feed), xml.Header))

	page, err := os.ReadFile(filepath.Join(dir, "report.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<!DOCTYPE html>")
}
