// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/litwatch/pkg/types"
)

// RSS 2.0 structures. The guid carries the canonical ID so feed readers
// deduplicate across runs even when the link changes.
type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link,omitempty"`
	Description string  `xml:"description"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate,omitempty"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// WriteRSS renders the shortlist as an RSS 2.0 feed. An empty shortlist
// produces a valid feed with zero items.
func WriteRSS(w io.Writer, ranked []types.ScoredCandidate, meta Meta) error {
	channel := rssChannel{
		Title:         meta.Title,
		Link:          meta.Link,
		Description:   "Ranked publication candidates matching the interest profile",
		LastBuildDate: meta.GeneratedAt.Format(time.RFC1123Z),
	}

	for i, c := range ranked {
		item := rssItem{
			Title: fmt.Sprintf("#%d (%.3f) %s", i+1, c.CompositeScore, c.Title),
			Link:  Link(c.CanonicalCandidate),
			GUID:  rssGUID{IsPermaLink: false, Value: c.CanonicalID},
			Description: fmt.Sprintf(
				"score=%.3f similarity=%.3f recency=%.3f metrics=%.3f journal=%.3f bonus=%.2f venue=%s",
				c.CompositeScore, c.Similarity, c.RecencyWeight, c.MetricWeight,
				c.JournalWeight, c.WhitelistBonus, c.Venue),
		}
		if !c.PublishedAt.IsZero() {
			item.PubDate = c.PublishedAt.Format(time.RFC1123Z)
		}
		channel.Items = append(channel.Items, item)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(rssFeed{Version: "2.0", Channel: channel}); err != nil {
		return fmt.Errorf("encoding feed: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
