// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/litwatch/internal/httputil"
	"github.com/pdiddy/litwatch/pkg/types"
)

// altmetricAPIBase is the Altmetric DOI lookup endpoint. Declared as a
// var so tests can substitute an httptest server.
var altmetricAPIBase = "https://api.altmetric.com/v1/doi"

// AltmetricClient looks up attention scores by DOI. Altmetric returns
// 404 for any DOI it has never seen, which is the common case and not
// an error.
type AltmetricClient struct {
	Client *http.Client
	APIKey string
}

// Enrich fills in AltmetricScore for every candidate with a DOI. A
// lookup failure leaves that candidate untouched; an already-present
// higher score is kept.
func (a *AltmetricClient) Enrich(ctx context.Context, candidates []types.CanonicalCandidate, cfg types.SourcesConfig) []types.CanonicalCandidate {
	client := a.Client
	if client == nil {
		client = httputil.NewClient(cfg.Timeout)
	}

	for i := range candidates {
		if candidates[i].DOI == "" {
			continue
		}
		score, err := a.lookup(ctx, client, candidates[i].DOI, cfg)
		if err != nil {
			continue
		}
		if score > candidates[i].AltmetricScore {
			candidates[i].AltmetricScore = score
		}
	}
	return candidates
}

// lookup returns the attention score for one DOI, 0 when Altmetric has
// no record of it.
func (a *AltmetricClient) lookup(ctx context.Context, client *http.Client, doi string, cfg types.SourcesConfig) (float64, error) {
	u := altmetricAPIBase + "/" + url.PathEscape(doi)
	if a.APIKey != "" {
		u += "?key=" + url.QueryEscape(a.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return 0, fmt.Errorf("Altmetric API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("Altmetric API returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("parsing Altmetric response: %w", err)
	}
	return body.Score, nil
}
