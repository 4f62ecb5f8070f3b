// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch orchestrates one watching pass: sync the reference
// library into the profile, fetch candidates from every enabled source,
// deduplicate, enrich, score, and rank. Partial source failures degrade
// the pass; only profile and encoder failures abort it.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litwatch/internal/dedupe"
	"github.com/pdiddy/litwatch/internal/encoder"
	"github.com/pdiddy/litwatch/internal/fetch"
	"github.com/pdiddy/litwatch/internal/profile"
	"github.com/pdiddy/litwatch/internal/rank"
	"github.com/pdiddy/litwatch/internal/score"
	"github.com/pdiddy/litwatch/internal/zotero"
	"github.com/pdiddy/litwatch/pkg/types"
)

// Library is the reference-library sync surface the pipeline needs; the
// zotero client implements it.
type Library interface {
	FetchAll(ctx context.Context) (zotero.SyncResult, error)
	FetchSince(ctx context.Context, version int) (zotero.SyncResult, error)
}

// Enricher fills in metrics on canonical candidates; the Altmetric
// client implements it.
type Enricher interface {
	Enrich(ctx context.Context, candidates []types.CanonicalCandidate, cfg types.SourcesConfig) []types.CanonicalCandidate
}

// Pipeline wires the stages of one watching pass together.
type Pipeline struct {
	Cfg     types.PipelineConfig
	Profile *profile.Store
	Library Library
	Encoder encoder.Encoder
	Log     zerolog.Logger

	// Sources overrides the configured source set when non-nil.
	Sources []fetch.Source

	// Enricher is optional; nil skips metric enrichment.
	Enricher Enricher

	// Now anchors the run's reference time. Nil means time.Now.
	Now func() time.Time
}

// RunResult summarizes one completed pass.
type RunResult struct {
	Ranked []types.ScoredCandidate

	LibraryItems int
	Fetched      int
	Canonical    int

	// Warnings carries the non-fatal degradations of the pass, source
	// failures and configuration oddities alike.
	Warnings []string
}

// Run executes one full watching pass. An empty shortlist is a valid
// outcome and not an error.
func (p *Pipeline) Run(ctx context.Context) (RunResult, error) {
	refTime := time.Now().UTC()
	if p.Now != nil {
		refTime = p.Now()
	}

	var result RunResult

	if err := p.syncLibrary(ctx); err != nil {
		return result, err
	}
	result.LibraryItems = p.Profile.ItemCount()

	hot := p.Profile.HotVenues()
	p.Log.Info().
		Int("library_items", result.LibraryItems).
		Strs("hot_venues", hot).
		Msg("profile ready")

	sources := p.Sources
	if sources == nil {
		sources = fetch.Enabled(p.Cfg.Sources, hot)
	}
	window := fetch.WindowEnding(refTime, p.Cfg.Sources.LookbackDays)

	fetched := fetch.FetchAll(ctx, sources, window, p.Cfg.Sources)
	result.Fetched = len(fetched.Records)
	result.Warnings = append(result.Warnings, fetched.SourceErrors...)
	for _, w := range fetched.SourceErrors {
		p.Log.Warn().Str("source_error", w).Msg("source failed, continuing without it")
	}
	p.Log.Info().
		Int("records", result.Fetched).
		Time("window_from", window.From).
		Time("window_to", window.To).
		Msg("fetch complete")

	canonical := dedupe.Merge(fetched.Records, p.Cfg.Dedupe)
	result.Canonical = len(canonical)
	p.Log.Info().
		Int("raw", result.Fetched).
		Int("canonical", result.Canonical).
		Msg("deduplication complete")

	if p.Enricher != nil {
		canonical = p.Enricher.Enrich(ctx, canonical, p.Cfg.Sources)
	}

	sjr, warning := p.loadSJR()
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
		p.Log.Warn().Msg(warning)
	}

	scorer := score.New(p.Encoder, p.Profile, p.Cfg.Scoring, sjr, refTime)
	scorer.Workers = p.Cfg.Encoder.Workers
	if w := scorer.SanityWarning(); w != "" {
		result.Warnings = append(result.Warnings, w)
		p.Log.Warn().Msg(w)
	}

	scored, err := scorer.ScoreAll(ctx, canonical)
	if err != nil {
		return result, fmt.Errorf("scoring candidates: %w", err)
	}

	result.Ranked = rank.Rank(scored, rank.Options{
		TopN:              p.Cfg.Filter.TopN,
		MaxPreprintRatio:  p.Cfg.Filter.MaxPreprintRatio,
		RecencyWindowDays: p.Cfg.Filter.RecencyWindowDays,
		RefTime:           refTime,
	})
	p.Log.Info().Int("ranked", len(result.Ranked)).Msg("pass complete")

	return result, nil
}

// syncLibrary brings the profile up to date with the reference library.
// A fresh or stale profile triggers a full rebuild; otherwise unseen
// items are appended incrementally using the persisted sync cursor.
func (p *Pipeline) syncLibrary(ctx context.Context) error {
	if p.Library == nil {
		if p.Profile.ItemCount() == 0 {
			return profile.ErrEmptyLibrary
		}
		p.Log.Debug().Msg("no library client configured, using stored profile as-is")
		return nil
	}

	version := p.Profile.LibraryVersion(ctx)

	if version == 0 || p.Profile.ItemCount() == 0 {
		return p.rebuild(ctx)
	}

	sync, err := p.Library.FetchSince(ctx, version)
	if err != nil {
		return fmt.Errorf("syncing library: %w", err)
	}

	var fresh int
	for _, it := range sync.Items {
		if !p.Profile.Contains(it.ID) {
			fresh++
		}
	}

	if p.Profile.Stale(fresh) {
		p.Log.Info().Int("new_items", fresh).Msg("profile stale, rebuilding")
		return p.rebuild(ctx)
	}

	if fresh > 0 {
		if err := p.Profile.Update(ctx, sync.Items); err != nil {
			return fmt.Errorf("updating profile: %w", err)
		}
		p.Log.Info().Int("new_items", fresh).Msg("profile updated incrementally")
	}
	if sync.LibraryVersion > version {
		return p.Profile.SetLibraryVersion(ctx, sync.LibraryVersion)
	}
	return nil
}

func (p *Pipeline) rebuild(ctx context.Context) error {
	sync, err := p.Library.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetching library: %w", err)
	}
	if err := p.Profile.Rebuild(ctx, sync.Items); err != nil {
		return err
	}
	if err := p.Profile.SetModel(ctx, p.Cfg.Encoder.Model); err != nil {
		return err
	}
	p.Log.Info().Int("items", len(sync.Items)).Msg("profile rebuilt")
	return p.Profile.SetLibraryVersion(ctx, sync.LibraryVersion)
}

// loadSJR reads the configured SJR table. A missing or unreadable table
// degrades to neutral journal weights with a warning.
func (p *Pipeline) loadSJR() (map[string]float64, string) {
	path := p.Cfg.Sources.SJRTablePath
	if path == "" {
		return nil, ""
	}
	table, err := fetch.LoadSJRTable(path)
	if err != nil {
		return nil, fmt.Sprintf("SJR table unavailable, using neutral journal weights: %v", err)
	}
	return table, ""
}
