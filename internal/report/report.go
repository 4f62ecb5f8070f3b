// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a ranked shortlist as a console table, JSON,
// an RSS 2.0 feed, and a standalone HTML page. Every renderer exposes
// the score components so a reader can see why a paper ranked where it
// did.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/litwatch/pkg/types"
)

// Meta carries the feed-level fields shared by the RSS and HTML
// renderers.
type Meta struct {
	Title       string
	Link        string
	GeneratedAt time.Time
}

// Link returns the canonical URL for a candidate: the DOI resolver when
// a DOI exists, the arXiv abstract page otherwise, empty when neither
// identifier is known.
func Link(c types.CanonicalCandidate) string {
	if c.DOI != "" {
		return "https://doi.org/" + c.DOI
	}
	if c.ArxivID != "" {
		return "https://arxiv.org/abs/" + c.ArxivID
	}
	return ""
}

// WriteTable renders the shortlist as an aligned console table.
func WriteTable(w io.Writer, ranked []types.ScoredCandidate) error {
	if len(ranked) == 0 {
		_, err := fmt.Fprintln(w, "No candidates ranked.")
		return err
	}

	fmt.Fprintf(w, "%-4s  %-6s  %-50s  %-25s  %-10s  %s\n",
		"Rank", "Score", "Title", "Venue", "Date", "Flags")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, c := range ranked {
		title := c.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		venue := c.Venue
		if len(venue) > 25 {
			venue = venue[:22] + "..."
		}

		date := ""
		if !c.PublishedAt.IsZero() {
			date = c.PublishedAt.Format("2006-01-02")
		}

		var flags []string
		if c.IsPreprint {
			flags = append(flags, "preprint")
		}
		if c.WhitelistBonus > 0 {
			flags = append(flags, "whitelist")
		}

		fmt.Fprintf(w, "%-4d  %-6.3f  %-50s  %-25s  %-10s  %s\n",
			i+1, c.CompositeScore, title, venue, date, strings.Join(flags, ","))
	}
	return nil
}

// WriteJSON renders the shortlist as indented JSON with every score
// component included.
func WriteJSON(w io.Writer, ranked []types.ScoredCandidate) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ranked)
}

// WriteFiles writes feed.xml and report.html into dir, creating it if
// needed.
func WriteFiles(dir string, ranked []types.ScoredCandidate, meta Meta) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	feed, err := os.Create(filepath.Join(dir, "feed.xml"))
	if err != nil {
		return fmt.Errorf("creating feed: %w", err)
	}
	defer feed.Close()
	if err := WriteRSS(feed, ranked, meta); err != nil {
		return err
	}

	page, err := os.Create(filepath.Join(dir, "report.html"))
	if err != nil {
		return fmt.Errorf("creating report page: %w", err)
	}
	defer page.Close()
	return WriteHTML(page, ranked, meta)
}
