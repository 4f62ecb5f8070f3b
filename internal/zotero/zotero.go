// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package zotero syncs the reference library from the Zotero Web API.
// Items map onto the profile store's library items; attachments and
// notes are skipped because only bibliographic entries carry the text
// the interest profile is built from.
package zotero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/litwatch/internal/httputil"
	"github.com/pdiddy/litwatch/pkg/types"
)

// zoteroAPIBase is the Zotero Web API root. Declared as a var so tests
// can substitute an httptest server.
var zoteroAPIBase = "https://api.zotero.org"

// Client talks to one user's Zotero library.
type Client struct {
	HTTP *http.Client
	Cfg  types.ZoteroConfig
}

// NewClient returns a client for the configured library.
func NewClient(cfg types.ZoteroConfig) *Client {
	return &Client{HTTP: httputil.NewClient(cfg.Timeout), Cfg: cfg}
}

// SyncResult carries one library sync: the items fetched and the
// library version they correspond to, for the next incremental sync.
type SyncResult struct {
	Items          []types.LibraryItem
	LibraryVersion int
}

// FetchAll retrieves every bibliographic item in the library.
func (c *Client) FetchAll(ctx context.Context) (SyncResult, error) {
	return c.fetch(ctx, 0)
}

// FetchSince retrieves items modified after the given library version.
// Zotero's since parameter makes this an incremental sync: an unchanged
// library returns zero items.
func (c *Client) FetchSince(ctx context.Context, version int) (SyncResult, error) {
	return c.fetch(ctx, version)
}

func (c *Client) fetch(ctx context.Context, since int) (SyncResult, error) {
	if c.Cfg.UserID == "" {
		return SyncResult{}, fmt.Errorf("zotero user ID not configured")
	}

	pageSize := c.Cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	var result SyncResult
	for start := 0; ; start += pageSize {
		page, version, err := c.fetchPage(ctx, since, start, pageSize)
		if err != nil {
			return SyncResult{}, err
		}
		if version > result.LibraryVersion {
			result.LibraryVersion = version
		}

		for _, entry := range page {
			item, ok := mapItem(entry)
			if !ok {
				continue
			}
			result.Items = append(result.Items, item)
		}

		if len(page) < pageSize {
			return result, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, since, start, limit int) ([]zoteroItem, int, error) {
	params := url.Values{
		"format": {"json"},
		"start":  {strconv.Itoa(start)},
		"limit":  {strconv.Itoa(limit)},
		"sort":   {"dateAdded"},
	}
	if since > 0 {
		params.Set("since", strconv.Itoa(since))
	}

	u := fmt.Sprintf("%s/users/%s/items?%s", zoteroAPIBase, c.Cfg.UserID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Cfg.UserAgent)
	if c.Cfg.APIKey != "" {
		req.Header.Set("Zotero-API-Key", c.Cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("Zotero API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("Zotero API returned HTTP %d", resp.StatusCode)
	}

	version, _ := strconv.Atoi(resp.Header.Get("Last-Modified-Version"))

	var page []zoteroItem
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, 0, fmt.Errorf("parsing Zotero response: %w", err)
	}
	return page, version, nil
}

// Zotero Web API JSON structures.
type zoteroItem struct {
	Key  string     `json:"key"`
	Data zoteroData `json:"data"`
}

type zoteroData struct {
	ItemType         string          `json:"itemType"`
	Title            string          `json:"title"`
	AbstractNote     string          `json:"abstractNote"`
	PublicationTitle string          `json:"publicationTitle"`
	ProceedingsTitle string          `json:"proceedingsTitle"`
	ConferenceName   string          `json:"conferenceName"`
	Date             string          `json:"date"`
	Creators         []zoteroCreator `json:"creators"`
}

type zoteroCreator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Name        string `json:"name"`
}

// mapItem converts one API entry to a library item. Attachments, notes,
// and untitled entries are skipped.
func mapItem(entry zoteroItem) (types.LibraryItem, bool) {
	switch entry.Data.ItemType {
	case "attachment", "note", "annotation":
		return types.LibraryItem{}, false
	}
	title := strings.TrimSpace(entry.Data.Title)
	if title == "" {
		return types.LibraryItem{}, false
	}

	item := types.LibraryItem{
		ID:       entry.Key,
		Title:    title,
		Abstract: strings.TrimSpace(entry.Data.AbstractNote),
		Venue:    venueOf(entry.Data),
	}
	for _, cr := range entry.Data.Creators {
		if cr.CreatorType != "" && cr.CreatorType != "author" {
			continue
		}
		name := cr.Name
		if name == "" {
			name = strings.TrimSpace(cr.FirstName + " " + cr.LastName)
		}
		if name != "" {
			item.Authors = append(item.Authors, name)
		}
	}
	item.PublishedAt = parseDate(entry.Data.Date)
	return item, true
}

func venueOf(d zoteroData) string {
	for _, v := range []string{d.PublicationTitle, d.ProceedingsTitle, d.ConferenceName} {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseDate copes with the loose date strings Zotero stores. Anything
// unparseable maps to the zero time, which the recency logic treats as
// unknown.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "2006-01", "2006", "January 2, 2006", "Jan 2006", "January 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	// Fall back to a bare year anywhere in the string.
	for _, field := range strings.Fields(s) {
		if len(field) == 4 {
			if year, err := strconv.Atoi(field); err == nil && year > 1500 && year < 3000 {
				return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
			}
		}
	}
	return time.Time{}
}
