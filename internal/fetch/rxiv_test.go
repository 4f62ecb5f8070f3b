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

const rxivSample = `{
	"collection": [
		{
			"doi": "10.1101/2026.08.14.123456",
			"title": "Single-cell atlas of something",
			"abstract": "An atlas.",
			"authors": "Doe, J.; Chen, A.;",
			"date": "2026-08-14"
		},
		{
			"doi": "",
			"title": "Dropped, no DOI"
		}
	]
}`

func TestRxivFetch(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(rxivSample))
	}))
	defer server.Close()

	oldBase := rxivAPIBase
	rxivAPIBase = server.URL
	defer func() { rxivAPIBase = oldBase }()

	src := &RxivSource{Client: server.Client(), Server: "biorxiv"}
	records, err := src.Fetch(context.Background(), testWindow, testSourcesConfig())
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "/biorxiv/2026-08-13/2026-08-20/0", gotPath)

	r := records[0]
	assert.Equal(t, types.SourceBiorxiv, r.Source)
	assert.Equal(t, "10.1101/2026.08.14.123456", r.DOI)
	assert.Equal(t, []string{"Doe, J.", "Chen, A."}, r.Authors, "semicolon list split, empties dropped")
	assert.True(t, r.IsPreprint)
	assert.Equal(t, time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC), r.PublishedAt)
}

func TestRxivFetch_MedrxivSourceTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rxivSample))
	}))
	defer server.Close()

	oldBase := rxivAPIBase
	rxivAPIBase = server.URL
	defer func() { rxivAPIBase = oldBase }()

	src := &RxivSource{Client: server.Client(), Server: "medrxiv"}
	records, err := src.Fetch(context.Background(), testWindow, testSourcesConfig())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.SourceMedrxiv, records[0].Source)
}

func TestSplitRxivAuthors(t *testing.T) {
	assert.Nil(t, splitRxivAuthors(""))
	assert.Equal(t, []string{"Doe, J."}, splitRxivAuthors("Doe, J."))
}
