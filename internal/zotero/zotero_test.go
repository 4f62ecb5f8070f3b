// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litwatch/pkg/types"
)

func testConfig() types.ZoteroConfig {
	return types.ZoteroConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "litwatch-test/0.1"},
		UserID:     "12345",
		APIKey:     "secret",
		PageSize:   100,
	}
}

const zoteroSample = `[
	{
		"key": "ABCD1234",
		"data": {
			"itemType": "journalArticle",
			"title": "Deep Learning for Variant Calling",
			"abstractNote": "We call variants.",
			"publicationTitle": "Nature Methods",
			"date": "2026-03-15",
			"creators": [
				{"creatorType": "author", "firstName": "Jane", "lastName": "Doe"},
				{"creatorType": "editor", "firstName": "Ed", "lastName": "Itor"},
				{"creatorType": "author", "name": "DeepVariant Consortium"}
			]
		}
	},
	{
		"key": "ATTACH01",
		"data": {"itemType": "attachment", "title": "paper.pdf"}
	},
	{
		"key": "NOTE0001",
		"data": {"itemType": "note"}
	},
	{
		"key": "CONF0001",
		"data": {
			"itemType": "conferencePaper",
			"title": "Graph Transformers",
			"proceedingsTitle": "NeurIPS",
			"date": "2025"
		}
	}
]`

func TestFetchAll(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Zotero-API-Key")
		w.Header().Set("Last-Modified-Version", "412")
		w.Write([]byte(zoteroSample))
	}))
	defer server.Close()

	oldBase := zoteroAPIBase
	zoteroAPIBase = server.URL
	defer func() { zoteroAPIBase = oldBase }()

	client := NewClient(testConfig())
	client.HTTP = server.Client()

	result, err := client.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "secret", gotAuth)
	assert.Equal(t, 412, result.LibraryVersion)
	require.Len(t, result.Items, 2, "attachments and notes are skipped")

	article := result.Items[0]
	assert.Equal(t, "ABCD1234", article.ID)
	assert.Equal(t, "Deep Learning for Variant Calling", article.Title)
	assert.Equal(t, "We call variants.", article.Abstract)
	assert.Equal(t, "Nature Methods", article.Venue)
	assert.Equal(t, []string{"Jane Doe", "DeepVariant Consortium"}, article.Authors,
		"editors are not authors; single-field names pass through")
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), article.PublishedAt)

	conf := result.Items[1]
	assert.Equal(t, "NeurIPS", conf.Venue, "proceedings title used when publication title is absent")
	assert.Equal(t, 2025, conf.PublishedAt.Year())
}

func TestFetchAll_Pagination(t *testing.T) {
	// Two full pages of 2 then a final short page.
	var starts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		starts = append(starts, r.URL.Query().Get("start"))

		count := 2
		if start >= 4 {
			count = 1
		}
		var page []map[string]any
		for i := 0; i < count; i++ {
			page = append(page, map[string]any{
				"key": fmt.Sprintf("KEY%04d", start+i),
				"data": map[string]any{
					"itemType": "journalArticle",
					"title":    fmt.Sprintf("Paper %d", start+i),
				},
			})
		}
		w.Header().Set("Last-Modified-Version", "7")
		json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	oldBase := zoteroAPIBase
	zoteroAPIBase = server.URL
	defer func() { zoteroAPIBase = oldBase }()

	cfg := testConfig()
	cfg.PageSize = 2
	client := NewClient(cfg)
	client.HTTP = server.Client()

	result, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "2", "4"}, starts)
	assert.Len(t, result.Items, 5)
}

func TestFetchSince(t *testing.T) {
	var gotSince string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSince = r.URL.Query().Get("since")
		w.Header().Set("Last-Modified-Version", "413")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	oldBase := zoteroAPIBase
	zoteroAPIBase = server.URL
	defer func() { zoteroAPIBase = oldBase }()

	client := NewClient(testConfig())
	client.HTTP = server.Client()

	result, err := client.FetchSince(context.Background(), 412)
	require.NoError(t, err)
	assert.Equal(t, "412", gotSince)
	assert.Empty(t, result.Items)
	assert.Equal(t, 413, result.LibraryVersion)
}

func TestFetch_MissingUserID(t *testing.T) {
	cfg := testConfig()
	cfg.UserID = ""
	client := NewClient(cfg)
	_, err := client.FetchAll(context.Background())
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), parseDate("2026-03-15"))
	assert.Equal(t, 2026, parseDate("2026-03").Year())
	assert.Equal(t, 2024, parseDate("March 2024 edition").Year())
	assert.True(t, parseDate("").IsZero())
	assert.True(t, parseDate("n.d.").IsZero())
}
