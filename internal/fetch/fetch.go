// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch pulls candidate publication records from the external
// feeds (Crossref, arXiv, bioRxiv, medRxiv) and enriches them with
// Altmetric and SJR metrics. Each source implements the Source
// interface; a failing source contributes zero records and a warning,
// never a fatal abort.
package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pdiddy/litwatch/pkg/types"
)

// Window is the publication lookback range for one fetch pass.
type Window struct {
	From time.Time
	To   time.Time
}

// WindowEnding returns a lookback window of days ending at ref.
func WindowEnding(ref time.Time, days int) Window {
	if days <= 0 {
		days = 7
	}
	return Window{From: ref.AddDate(0, 0, -days), To: ref}
}

// Source fetches raw candidate records from one external feed.
type Source interface {
	Name() string
	Fetch(ctx context.Context, window Window, cfg types.SourcesConfig) ([]types.RawCandidateRecord, error)
}

// Result carries the combined fetch output and per-source failures.
type Result struct {
	Records      []types.RawCandidateRecord
	SourceErrors []string
}

// FetchAll fans the window out to every source concurrently and
// collects the results. Source failures are partial: they are recorded
// in SourceErrors and the run proceeds with whatever the remaining
// sources returned.
func FetchAll(ctx context.Context, sources []Source, window Window, cfg types.SourcesConfig) Result {
	type sourceResult struct {
		name    string
		records []types.RawCandidateRecord
		err     error
	}

	ch := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup

	for _, src := range sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			records, err := src.Fetch(ctx, window, cfg)
			ch <- sourceResult{name: src.Name(), records: records, err: err}
		}(src)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var out Result
	for sr := range ch {
		if sr.err != nil {
			out.SourceErrors = append(out.SourceErrors, fmt.Sprintf("%s: %v", sr.name, sr.err))
			continue
		}
		out.Records = append(out.Records, sr.records...)
	}
	return out
}

// Enabled assembles the configured sources, wrapping each in the fetch
// cache when a cache directory is set. hotVenues drives the targeted
// Crossref queries for venues trending in the library.
func Enabled(cfg types.SourcesConfig, hotVenues []string) []Source {
	var sources []Source

	if cfg.EnableCrossref {
		sources = append(sources, &CrossrefSource{Venues: hotVenues})
	}
	if cfg.EnableArxiv {
		sources = append(sources, &ArxivSource{})
	}
	if cfg.EnableBiorxiv {
		sources = append(sources, &RxivSource{Server: "biorxiv"})
	}
	if cfg.EnableMedrxiv {
		sources = append(sources, &RxivSource{Server: "medrxiv"})
	}

	if cfg.CacheDir == "" {
		return sources
	}
	cached := make([]Source, len(sources))
	for i, src := range sources {
		cached[i] = &CachedSource{Inner: src, Dir: cfg.CacheDir, TTL: cfg.CacheTTL}
	}
	return cached
}
