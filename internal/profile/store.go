// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile maintains the persistent research-interest profile:
// one vector per library item, aggregate author/venue statistics, and
// the hot-venue set. The store is rebuilt or incrementally updated
// before a run scores anything and is read-only afterwards.
package profile

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/litwatch/internal/encoder"
	"github.com/pdiddy/litwatch/pkg/types"
)

// ErrEmptyLibrary is returned by Rebuild when the reference library
// yields zero items. The store refuses to silently produce an empty
// profile.
var ErrEmptyLibrary = errors.New("reference library contains no items")

const (
	metaBuiltAt        = "built_at"
	metaUpdatedAt      = "updated_at"
	metaLibraryVersion = "library_version"
	metaEncoderModel   = "encoder_model"
	metaStats          = "stats"
)

// Store manages the profile SQLite database and an in-memory copy of
// the vectors and statistics used during scoring.
type Store struct {
	db  *sql.DB
	cfg types.ProfileConfig
	enc encoder.Encoder

	// Workers bounds concurrent encoder calls during Rebuild/Update.
	Workers int

	mu         sync.RWMutex
	items      []itemMeta
	vectors    [][]float32
	ids        map[string]struct{}
	authorFreq map[string]int
	venueFreq  map[string]int
	hotVenues  []string
	builtAt    time.Time
	model      string
}

type itemMeta struct {
	id          string
	authors     []string
	venue       string
	publishedAt time.Time
}

// Open opens or creates the profile database at cfg.DBPath, creates the
// schema if needed, and loads vectors and statistics into memory.
func Open(cfg types.ProfileConfig, enc encoder.Encoder) (*Store, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating profile directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening profile database: %w", err)
	}

	s := &Store{
		db:      db,
		cfg:     cfg,
		enc:     enc,
		Workers: 4,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := s.load(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			abstract TEXT,
			authors TEXT,
			venue TEXT,
			published_at TEXT,
			vector BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_published ON items(published_at)`,
		`CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Rebuild replaces the whole profile from the full reference library:
// every item is re-encoded and the statistics are recomputed from
// scratch. Zero items is ErrEmptyLibrary; an encoder failure aborts the
// rebuild and leaves the previous profile intact.
func (s *Store) Rebuild(ctx context.Context, items []types.LibraryItem) error {
	if len(items) == 0 {
		return ErrEmptyLibrary
	}

	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.EmbeddingText()
	}
	vectors, err := encoder.EncodeBatch(ctx, s.enc, texts, s.Workers)
	if err != nil {
		return fmt.Errorf("vectorizing %d library items: %w", len(items), err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}

	if err := insertItems(ctx, tx, items, vectors); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := setMetaTx(ctx, tx, metaBuiltAt, now.Format(time.RFC3339Nano)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rebuild: %w", err)
	}

	if err := s.load(ctx); err != nil {
		return fmt.Errorf("reloading profile: %w", err)
	}
	return s.persistStats(ctx)
}

// Update appends vectors and statistics for items not already present,
// keyed by ID, and recomputes the hot-venue set from the merged
// frequency table. Calling it repeatedly with overlapping input is
// idempotent: already-seen IDs are left untouched.
func (s *Store) Update(ctx context.Context, items []types.LibraryItem) error {
	s.mu.RLock()
	var fresh []types.LibraryItem
	for _, it := range items {
		if _, ok := s.ids[it.ID]; !ok {
			fresh = append(fresh, it)
		}
	}
	s.mu.RUnlock()

	if len(fresh) == 0 {
		return nil
	}

	texts := make([]string, len(fresh))
	for i, it := range fresh {
		texts[i] = it.EmbeddingText()
	}
	vectors, err := encoder.EncodeBatch(ctx, s.enc, texts, s.Workers)
	if err != nil {
		return fmt.Errorf("vectorizing %d new library items: %w", len(fresh), err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertItems(ctx, tx, fresh, vectors); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := setMetaTx(ctx, tx, metaUpdatedAt, now.Format(time.RFC3339Nano)); err != nil {
		return err
	}
	if s.BuiltAt().IsZero() {
		if err := setMetaTx(ctx, tx, metaBuiltAt, now.Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing update: %w", err)
	}

	if err := s.load(ctx); err != nil {
		return fmt.Errorf("reloading profile: %w", err)
	}
	return s.persistStats(ctx)
}

func insertItems(ctx context.Context, tx *sql.Tx, items []types.LibraryItem, vectors [][]float32) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (id, title, abstract, authors, venue, published_at, vector)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range items {
		authorsJSON, _ := json.Marshal(it.Authors)
		dateStr := ""
		if !it.PublishedAt.IsZero() {
			dateStr = it.PublishedAt.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx,
			it.ID, it.Title, it.Abstract, string(authorsJSON), it.Venue, dateStr,
			encodeVector(vectors[i]),
		); err != nil {
			return fmt.Errorf("inserting item %s: %w", it.ID, err)
		}
	}
	return nil
}

// load reads items and metadata from the database and recomputes the
// in-memory statistics.
func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, authors, venue, published_at, vector FROM items ORDER BY id`)
	if err != nil {
		return fmt.Errorf("reading items: %w", err)
	}
	defer rows.Close()

	var (
		items   []itemMeta
		vectors [][]float32
		ids     = make(map[string]struct{})
	)
	for rows.Next() {
		var (
			meta        itemMeta
			authorsJSON sql.NullString
			venue       sql.NullString
			dateStr     sql.NullString
			blob        []byte
		)
		if err := rows.Scan(&meta.id, &authorsJSON, &venue, &dateStr, &blob); err != nil {
			return fmt.Errorf("scanning item: %w", err)
		}
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &meta.authors)
		}
		if venue.Valid {
			meta.venue = venue.String
		}
		if dateStr.Valid && dateStr.String != "" {
			if t, parseErr := time.Parse(time.RFC3339, dateStr.String); parseErr == nil {
				meta.publishedAt = t
			}
		}
		items = append(items, meta)
		vectors = append(vectors, decodeVector(blob))
		ids[meta.id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var builtAt time.Time
	if v, err := s.getMeta(ctx, metaBuiltAt); err == nil && v != "" {
		if t, parseErr := time.Parse(time.RFC3339Nano, v); parseErr == nil {
			builtAt = t
		}
	}
	model, _ := s.getMeta(ctx, metaEncoderModel)

	authorFreq, venueFreq := frequencies(items)
	hot := computeHotVenues(items, s.cfg)

	s.mu.Lock()
	s.items = items
	s.vectors = vectors
	s.ids = ids
	s.authorFreq = authorFreq
	s.venueFreq = venueFreq
	s.hotVenues = hot
	s.builtAt = builtAt
	s.model = model
	s.mu.Unlock()

	return nil
}

// persistStats writes the frequency tables and hot-venue set to the
// metadata table so the derived profile survives process restarts even
// if the computation changes between versions.
func (s *Store) persistStats(ctx context.Context) error {
	s.mu.RLock()
	stats := struct {
		AuthorFreq map[string]int `json:"author_freq"`
		VenueFreq  map[string]int `json:"venue_freq"`
		HotVenues  []string       `json:"hot_venues"`
	}{s.authorFreq, s.venueFreq, s.hotVenues}
	s.mu.RUnlock()

	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	return s.setMeta(ctx, metaStats, string(data))
}

// QuerySimilarity returns the cosine similarity between vec and the
// stored item vectors, clamped to [0,1]. With topK <= 1 it is the
// maximum; otherwise the mean of the topK best matches. An empty
// profile yields 0.
func (s *Store) QuerySimilarity(vec []float32, topK int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.vectors) == 0 || len(vec) == 0 {
		return 0
	}

	sims := make([]float64, 0, len(s.vectors))
	for _, stored := range s.vectors {
		if len(stored) != len(vec) {
			continue
		}
		sims = append(sims, cosine(vec, stored))
	}
	if len(sims) == 0 {
		return 0
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(sims)))
	if topK <= 1 {
		return clamp01(sims[0])
	}
	if topK > len(sims) {
		topK = len(sims)
	}
	var sum float64
	for _, v := range sims[:topK] {
		sum += v
	}
	return clamp01(sum / float64(topK))
}

// Contains reports whether the item ID is already part of the profile.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// ItemCount returns the number of stored library items.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// BuiltAt returns the timestamp of the last full rebuild (or the first
// update on a previously empty store).
func (s *Store) BuiltAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builtAt
}

// HotVenues returns the venues publishing with outsized frequency in
// the recent slice of the library, sorted for determinism.
func (s *Store) HotVenues() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.hotVenues))
	copy(out, s.hotVenues)
	return out
}

// Stale reports whether pendingNew unseen library items warrant a full
// rebuild instead of an incremental update.
func (s *Store) Stale(pendingNew int) bool {
	threshold := s.cfg.RebuildThreshold
	if threshold <= 0 {
		threshold = 25
	}
	return pendingNew >= threshold
}

// Summary returns the human-facing profile snapshot.
func (s *Store) Summary() types.ProfileSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return types.ProfileSummary{
		BuiltAt:    s.builtAt,
		ItemCount:  len(s.items),
		Model:      s.model,
		TopAuthors: topAuthors(s.authorFreq, 20),
		TopVenues:  topVenues(s.venueFreq, 20),
		HotVenues:  append([]string(nil), s.hotVenues...),
	}
}

// SetModel records which encoder model produced the stored vectors.
// Vectors from different models are not comparable, so callers record
// the model at rebuild time and can spot a mismatch in the summary.
func (s *Store) SetModel(ctx context.Context, model string) error {
	if err := s.setMeta(ctx, metaEncoderModel, model); err != nil {
		return err
	}
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
	return nil
}

// LibraryVersion returns the persisted library sync cursor (0 when the
// library has never been synced).
func (s *Store) LibraryVersion(ctx context.Context) int {
	v, err := s.getMeta(ctx, metaLibraryVersion)
	if err != nil || v == "" {
		return 0
	}
	var n int
	fmt.Sscanf(v, "%d", &n)
	return n
}

// SetLibraryVersion persists the library sync cursor.
func (s *Store) SetLibraryVersion(ctx context.Context, version int) error {
	return s.setMeta(ctx, metaLibraryVersion, fmt.Sprintf("%d", version))
}

func (s *Store) getMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (s *Store) setMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

func setMetaTx(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing metadata %s: %w", key, err)
	}
	return nil
}

// encodeVector serializes a vector as little-endian float32.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
