// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litwatch/pkg/types"
)

var testWindow = Window{
	From: time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
}

func testSourcesConfig() types.SourcesConfig {
	return types.SourcesConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "litwatch-test/0.1"},
		MaxResults: 50,
	}
}

const crossrefSample = `{
	"message": {
		"items": [
			{
				"DOI": "10.1234/abc",
				"type": "journal-article",
				"title": ["Attention Mechanisms in Genomics"],
				"container-title": ["Nature Methods"],
				"abstract": "<jats:p>We study attention.</jats:p>",
				"author": [
					{"given": "Jane", "family": "Doe"},
					{"given": "", "family": "Smith"}
				],
				"is-referenced-by-count": 12,
				"published": {"date-parts": [[2026, 8, 15]]}
			},
			{
				"DOI": "10.1234/posted",
				"type": "posted-content",
				"title": ["A Preprint"],
				"issued": {"date-parts": [[2026, 8]]}
			},
			{
				"DOI": "",
				"title": ["No DOI, dropped"]
			}
		]
	}
}`

func TestCrossrefFetch(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(crossrefSample))
	}))
	defer server.Close()

	oldBase := crossrefAPIBase
	crossrefAPIBase = server.URL
	defer func() { crossrefAPIBase = oldBase }()

	cfg := testSourcesConfig()
	cfg.CrossrefEmail = "jane@example.org"

	src := &CrossrefSource{Client: server.Client()}
	records, err := src.Fetch(context.Background(), testWindow, cfg)
	require.NoError(t, err)
	require.Len(t, records, 2, "the item without a DOI is dropped")

	assert.Equal(t, []string{"from-index-date:2026-08-13,until-index-date:2026-08-20"}, gotQuery["filter"])
	assert.Equal(t, []string{"jane@example.org"}, gotQuery["mailto"])

	article := records[0]
	assert.Equal(t, types.SourceCrossref, article.Source)
	assert.Equal(t, "10.1234/abc", article.DOI)
	assert.Equal(t, "Attention Mechanisms in Genomics", article.Title)
	assert.Equal(t, "We study attention.", article.Abstract, "JATS markup is stripped")
	assert.Equal(t, "Nature Methods", article.Venue)
	assert.Equal(t, []string{"Jane Doe", "Smith"}, article.Authors)
	assert.Equal(t, 12, article.CitationCount)
	assert.False(t, article.IsPreprint)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), article.PublishedAt)

	posted := records[1]
	assert.True(t, posted.IsPreprint, "posted-content is a preprint")
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), posted.PublishedAt,
		"missing day defaults to the first of the month")
}

func TestCrossrefFetch_HotVenueQueries(t *testing.T) {
	var venueQueries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.URL.Query().Get("query.container-title"); v != "" {
			venueQueries = append(venueQueries, v)
		}
		w.Write([]byte(`{"message": {"items": []}}`))
	}))
	defer server.Close()

	oldBase := crossrefAPIBase
	crossrefAPIBase = server.URL
	defer func() { crossrefAPIBase = oldBase }()

	src := &CrossrefSource{Client: server.Client(), Venues: []string{"Nature Methods", "Cell"}}
	_, err := src.Fetch(context.Background(), testWindow, testSourcesConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"Nature Methods", "Cell"}, venueQueries)
}

func TestCrossrefFetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	oldBase := crossrefAPIBase
	crossrefAPIBase = server.URL
	defer func() { crossrefAPIBase = oldBase }()

	src := &CrossrefSource{Client: server.Client()}
	_, err := src.Fetch(context.Background(), testWindow, testSourcesConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestStripJATS(t *testing.T) {
	assert.Equal(t, "", stripJATS(""))
	assert.Equal(t, "plain text", stripJATS("plain text"))
	assert.Equal(t, "nested markup", stripJATS("<jats:p><i>nested</i> markup</jats:p>"))
}
