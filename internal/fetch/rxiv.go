// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/litwatch/internal/httputil"
	"github.com/pdiddy/litwatch/pkg/types"
)

// rxivAPIBase is the bioRxiv/medRxiv details endpoint. Declared as a
// var so tests can substitute an httptest server.
var rxivAPIBase = "https://api.biorxiv.org/details"

// RxivSource queries the shared bioRxiv/medRxiv API. Server selects the
// archive ("biorxiv" or "medrxiv"); both serve preprints only.
type RxivSource struct {
	Client *http.Client
	Server string
}

// Name returns the source identifier.
func (s *RxivSource) Name() string { return s.Server }

// Fetch returns preprints posted within the window.
func (s *RxivSource) Fetch(ctx context.Context, window Window, cfg types.SourcesConfig) ([]types.RawCandidateRecord, error) {
	client := s.Client
	if client == nil {
		client = httputil.NewClient(cfg.Timeout)
	}

	url := fmt.Sprintf("%s/%s/%s/%s/0", rxivAPIBase, s.Server,
		window.From.Format("2006-01-02"), window.To.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("%s API request: %w", s.Server, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s API returned HTTP %d", s.Server, resp.StatusCode)
	}

	var rr rxivResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", s.Server, err)
	}

	max := cfg.MaxResults
	if max <= 0 {
		max = 200
	}

	var records []types.RawCandidateRecord
	for _, item := range rr.Collection {
		if len(records) >= max {
			break
		}
		if item.DOI == "" || item.Title == "" {
			continue
		}

		src := types.SourceBiorxiv
		if s.Server == "medrxiv" {
			src = types.SourceMedrxiv
		}

		r := types.RawCandidateRecord{
			Source:     src,
			ExternalID: item.DOI,
			DOI:        item.DOI,
			Title:      strings.TrimSpace(item.Title),
			Abstract:   strings.TrimSpace(item.Abstract),
			Venue:      s.Server,
			Authors:    splitRxivAuthors(item.Authors),
			IsPreprint: true,
		}
		if t, parseErr := time.Parse("2006-01-02", item.Date); parseErr == nil {
			r.PublishedAt = t
		}

		records = append(records, r)
	}
	return records, nil
}

// bioRxiv/medRxiv API JSON structures.
type rxivResponse struct {
	Collection []rxivItem `json:"collection"`
}

type rxivItem struct {
	DOI      string `json:"doi"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Authors  string `json:"authors"`
	Date     string `json:"date"`
}

// splitRxivAuthors splits the API's semicolon-separated author string.
func splitRxivAuthors(s string) []string {
	var authors []string
	for _, part := range strings.Split(s, ";") {
		if name := strings.TrimSpace(part); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}
