// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/litwatch/pkg/types"
)

// CachedSource wraps a Source with a time-boxed file cache so repeated
// runs inside the TTL do not hammer the upstream APIs. Cache misses and
// unreadable entries fall through to the inner source; a failed cache
// write is ignored because the fetch already succeeded.
type CachedSource struct {
	Inner Source
	Dir   string
	TTL   time.Duration
}

type cacheEntry struct {
	FetchedAt time.Time                  `json:"fetched_at"`
	Records   []types.RawCandidateRecord `json:"records"`
}

// Name returns the inner source's identifier.
func (c *CachedSource) Name() string { return c.Inner.Name() }

// Fetch serves from the cache when a fresh entry exists, otherwise
// delegates to the inner source and stores the result.
func (c *CachedSource) Fetch(ctx context.Context, window Window, cfg types.SourcesConfig) ([]types.RawCandidateRecord, error) {
	path := c.entryPath(window)

	if records, ok := c.read(path); ok {
		return records, nil
	}

	records, err := c.Inner.Fetch(ctx, window, cfg)
	if err != nil {
		return nil, err
	}

	c.write(path, records)
	return records, nil
}

// entryPath keys the cache by source name and window dates, so the same
// window on the same day reuses one entry.
func (c *CachedSource) entryPath(window Window) string {
	name := fmt.Sprintf("%s_%s_%s.json", c.Inner.Name(),
		window.From.Format("2006-01-02"), window.To.Format("2006-01-02"))
	return filepath.Join(c.Dir, name)
}

func (c *CachedSource) read(path string) ([]types.RawCandidateRecord, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	ttl := c.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if time.Since(entry.FetchedAt) > ttl {
		return nil, false
	}
	return entry.Records, true
}

func (c *CachedSource) write(path string, records []types.RawCandidateRecord) {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return
	}
	data, err := json.Marshal(cacheEntry{FetchedAt: time.Now().UTC(), Records: records})
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o644)
}
