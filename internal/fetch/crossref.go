// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/litwatch/internal/httputil"
	"github.com/pdiddy/litwatch/pkg/types"
)

// crossrefAPIBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// CrossrefSource queries the Crossref REST API for freshly indexed
// works. When Venues is non-empty it additionally issues one targeted
// query per venue, which is how the profile's hot venues feed back into
// fetching.
type CrossrefSource struct {
	Client *http.Client
	Venues []string
}

// Name returns the source identifier.
func (s *CrossrefSource) Name() string { return string(types.SourceCrossref) }

// Fetch returns works indexed within the window, plus targeted results
// for each hot venue.
func (s *CrossrefSource) Fetch(ctx context.Context, window Window, cfg types.SourcesConfig) ([]types.RawCandidateRecord, error) {
	client := s.Client
	if client == nil {
		client = httputil.NewClient(cfg.Timeout)
	}

	records, err := s.query(ctx, client, window, cfg, "")
	if err != nil {
		return nil, err
	}

	for _, venue := range s.Venues {
		targeted, err := s.query(ctx, client, window, cfg, venue)
		if err != nil {
			// Targeted queries are a bonus on top of the main sweep;
			// losing one venue is not worth failing the source.
			continue
		}
		records = append(records, targeted...)
	}
	return records, nil
}

func (s *CrossrefSource) query(ctx context.Context, client *http.Client, window Window, cfg types.SourcesConfig, venue string) ([]types.RawCandidateRecord, error) {
	rows := cfg.MaxResults
	if rows <= 0 {
		rows = 200
	}

	filter := fmt.Sprintf("from-index-date:%s,until-index-date:%s",
		window.From.Format("2006-01-02"), window.To.Format("2006-01-02"))

	params := url.Values{
		"filter": {filter},
		"rows":   {fmt.Sprintf("%d", rows)},
		"sort":   {"indexed"},
		"order":  {"desc"},
	}
	if venue != "" {
		params.Set("query.container-title", venue)
	}
	if cfg.CrossrefEmail != "" {
		params.Set("mailto", cfg.CrossrefEmail)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}

	var records []types.RawCandidateRecord
	for _, item := range cr.Message.Items {
		if item.DOI == "" || len(item.Title) == 0 {
			continue
		}

		r := types.RawCandidateRecord{
			Source:        types.SourceCrossref,
			ExternalID:    item.DOI,
			DOI:           item.DOI,
			Title:         strings.TrimSpace(item.Title[0]),
			Abstract:      stripJATS(item.Abstract),
			CitationCount: item.IsReferencedByCount,
			IsPreprint:    item.Type == "posted-content",
		}
		if len(item.ContainerTitle) > 0 {
			r.Venue = item.ContainerTitle[0]
		}
		for _, a := range item.Author {
			name := strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
			if name != "" {
				r.Authors = append(r.Authors, name)
			}
		}
		r.PublishedAt = item.publishedDate()

		records = append(records, r)
	}
	return records, nil
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	DOI                 string           `json:"DOI"`
	Type                string           `json:"type"`
	Title               []string         `json:"title"`
	ContainerTitle      []string         `json:"container-title"`
	Abstract            string           `json:"abstract"`
	Author              []crossrefAuthor `json:"author"`
	IsReferencedByCount int              `json:"is-referenced-by-count"`
	Published           crossrefDate     `json:"published"`
	Issued              crossrefDate     `json:"issued"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// publishedDate prefers the published field, falling back to issued.
// Missing month or day default to 1.
func (i crossrefItem) publishedDate() time.Time {
	for _, d := range []crossrefDate{i.Published, i.Issued} {
		if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
			continue
		}
		parts := d.DateParts[0]
		year := parts[0]
		month, day := 1, 1
		if len(parts) > 1 {
			month = parts[1]
		}
		if len(parts) > 2 {
			day = parts[2]
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

// stripJATS removes the JATS XML tags Crossref embeds in abstracts.
func stripJATS(abstract string) string {
	if abstract == "" {
		return ""
	}
	var b strings.Builder
	inTag := false
	for _, r := range abstract {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
