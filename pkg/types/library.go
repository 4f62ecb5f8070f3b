// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data model and configuration shared across
// litwatch stages.
package types

import (
	"strings"
	"time"
)

// LibraryItem is one entry of the user's reference library. Items are
// owned by the profile store; Vector is filled in during a profile
// build and is empty on items freshly fetched from the library source.
type LibraryItem struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Abstract    string    `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Authors     []string  `json:"authors,omitempty" yaml:"authors,omitempty"`
	Venue       string    `json:"venue,omitempty" yaml:"venue,omitempty"`
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`
	Vector      []float32 `json:"-" yaml:"-"`
}

// EmbeddingText returns the text unit handed to the encoder for this item.
func (it LibraryItem) EmbeddingText() string {
	if it.Abstract == "" {
		return it.Title
	}
	return it.Title + "\n\n" + it.Abstract
}

// VenueCount pairs a venue with its library frequency.
type VenueCount struct {
	Venue string `json:"venue"`
	Count int    `json:"count"`
}

// AuthorCount pairs an author with their library frequency.
type AuthorCount struct {
	Author string `json:"author"`
	Count  int    `json:"count"`
}

// ProfileSummary is the human-facing snapshot of a built profile.
type ProfileSummary struct {
	BuiltAt    time.Time     `json:"built_at"`
	ItemCount  int           `json:"item_count"`
	Model      string        `json:"model,omitempty"`
	TopAuthors []AuthorCount `json:"top_authors,omitempty"`
	TopVenues  []VenueCount  `json:"top_venues,omitempty"`
	HotVenues  []string      `json:"hot_venues,omitempty"`
}

// NormalizeVenue folds a venue name for table lookups and frequency
// counting. Case and surrounding whitespace are not significant.
func NormalizeVenue(venue string) string {
	return strings.ToLower(strings.TrimSpace(venue))
}
