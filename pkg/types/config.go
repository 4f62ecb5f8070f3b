// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"math"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litwatch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EncoderConfig holds settings for the embedding service client.
type EncoderConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the embedding service endpoint.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the embedding model identifier sent with each request.
	Model string `json:"model" yaml:"model"`

	// APIKey is an optional bearer token for the embedding service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Workers bounds concurrent encode calls (default 4).
	Workers int `json:"workers" yaml:"workers"`
}

// ZoteroConfig holds settings for the reference-library client.
type ZoteroConfig struct {
	HTTPConfig `yaml:",inline"`

	// UserID is the numeric Zotero user ID owning the library.
	UserID string `json:"user_id" yaml:"user_id"`

	// APIKey authenticates against the Zotero Web API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// PageSize is the item page size for library sync (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`
}

// SourcesConfig holds settings for the candidate feed fetchers.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// LookbackDays is the fetch window size in days (default 7).
	LookbackDays int `json:"lookback_days" yaml:"lookback_days"`

	// MaxResults caps the records requested per source (default 200).
	MaxResults int `json:"max_results" yaml:"max_results"`

	EnableCrossref bool `json:"enable_crossref" yaml:"enable_crossref"`
	EnableArxiv    bool `json:"enable_arxiv" yaml:"enable_arxiv"`
	EnableBiorxiv  bool `json:"enable_biorxiv" yaml:"enable_biorxiv"`
	EnableMedrxiv  bool `json:"enable_medrxiv" yaml:"enable_medrxiv"`

	// ArxivCategories limits the arXiv feed (e.g. "cs.LG", "q-bio.NC").
	ArxivCategories []string `json:"arxiv_categories" yaml:"arxiv_categories"`

	// CrossrefEmail is sent as the mailto parameter for Crossref's
	// polite pool.
	CrossrefEmail string `json:"crossref_email,omitempty" yaml:"crossref_email,omitempty"`

	// AltmetricAPIKey enables Altmetric enrichment when set.
	AltmetricAPIKey string `json:"altmetric_api_key,omitempty" yaml:"altmetric_api_key,omitempty"`

	// SJRTablePath points to the YAML venue-to-SJR table.
	SJRTablePath string `json:"sjr_table_path,omitempty" yaml:"sjr_table_path,omitempty"`

	// CacheDir enables the time-boxed fetch cache when non-empty.
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`

	// CacheTTL bounds fetch cache freshness (default 12h).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// DedupeConfig holds the fuzzy-match policy knobs. The thresholds are
// heuristic and deliberately configurable rather than hard-coded.
type DedupeConfig struct {
	// TitleThreshold is the minimum token overlap between normalized
	// titles for a fuzzy match (default 0.9).
	TitleThreshold float64 `json:"title_threshold" yaml:"title_threshold"`

	// AuthorOverlap is the minimum author-set overlap required in
	// addition to a title match (default 0.5).
	AuthorOverlap float64 `json:"author_overlap" yaml:"author_overlap"`
}

// ScoringConfig holds the composite-score weights and transforms.
// SimilarityWeight..JournalWeight are expected to sum to 1; a violation
// produces a warning, never an abort.
type ScoringConfig struct {
	SimilarityWeight float64 `json:"similarity_weight" yaml:"similarity_weight"`
	RecencyWeight    float64 `json:"recency_weight" yaml:"recency_weight"`
	MetricWeight     float64 `json:"metric_weight" yaml:"metric_weight"`
	JournalWeight    float64 `json:"journal_weight" yaml:"journal_weight"`

	// DecayLambda controls the exponential recency decay exp(-λ·age_days).
	DecayLambda float64 `json:"decay_lambda" yaml:"decay_lambda"`

	// CitationSubWeight splits the metric signal between citations and
	// Altmetric attention (default 0.6 citations / 0.4 Altmetric).
	CitationSubWeight float64 `json:"citation_sub_weight" yaml:"citation_sub_weight"`

	// CitationSaturation and AltmetricSaturation set where the
	// log-scaled metric transforms reach 1.0.
	CitationSaturation  float64 `json:"citation_saturation" yaml:"citation_saturation"`
	AltmetricSaturation float64 `json:"altmetric_saturation" yaml:"altmetric_saturation"`

	// JournalNeutral is the journal weight for venues missing from the
	// SJR table. Non-zero so unknown venues are not punished.
	JournalNeutral float64 `json:"journal_neutral" yaml:"journal_neutral"`

	// WhitelistBonus is added after the weighted sum when the venue or
	// any author matches a whitelist entry. It may push the composite
	// score above 1.
	WhitelistBonus  float64  `json:"whitelist_bonus" yaml:"whitelist_bonus"`
	VenueWhitelist  []string `json:"venue_whitelist,omitempty" yaml:"venue_whitelist,omitempty"`
	AuthorWhitelist []string `json:"author_whitelist,omitempty" yaml:"author_whitelist,omitempty"`

	// SimilarityTopK averages the top-k nearest library vectors instead
	// of taking the single maximum when greater than 1.
	SimilarityTopK int `json:"similarity_top_k" yaml:"similarity_top_k"`
}

// WeightSum returns the sum of the four linear weights.
func (c ScoringConfig) WeightSum() float64 {
	return c.SimilarityWeight + c.RecencyWeight + c.MetricWeight + c.JournalWeight
}

// WeightsBalanced reports whether the four linear weights sum to 1
// within a small tolerance.
func (c ScoringConfig) WeightsBalanced() bool {
	return math.Abs(c.WeightSum()-1.0) < 1e-6
}

// FilterConfig holds the hard ranking filters.
type FilterConfig struct {
	// TopN is the shortlist length (default 50).
	TopN int `json:"top_n" yaml:"top_n"`

	// MaxPreprintRatio caps the fraction of preprints in the final
	// shortlist (default 0.5).
	MaxPreprintRatio float64 `json:"max_preprint_ratio" yaml:"max_preprint_ratio"`

	// RecencyWindowDays excludes candidates older than this many days,
	// boundary inclusive (default 7).
	RecencyWindowDays int `json:"recency_window_days" yaml:"recency_window_days"`
}

// ProfileConfig holds settings for the profile store.
type ProfileConfig struct {
	// DBPath is the SQLite database location (default "data/profile.db").
	DBPath string `json:"db_path" yaml:"db_path"`

	// HotVenueWindowDays is the recent publication window scanned for
	// hot venues (default 7).
	HotVenueWindowDays int `json:"hot_venue_window_days" yaml:"hot_venue_window_days"`

	// HotVenuePercentile is the frequency percentile a venue must
	// exceed inside the window to count as hot (default 0.9).
	HotVenuePercentile float64 `json:"hot_venue_percentile" yaml:"hot_venue_percentile"`

	// HotVenueMinItems is the minimum windowed item count; below it the
	// hot-venue computation falls back to all-time frequencies (default 10).
	HotVenueMinItems int `json:"hot_venue_min_items" yaml:"hot_venue_min_items"`

	// RebuildThreshold is the number of unseen library items after
	// which the store reports itself stale (default 25).
	RebuildThreshold int `json:"rebuild_threshold" yaml:"rebuild_threshold"`
}

// ReportConfig holds settings for the RSS and HTML renderers.
type ReportConfig struct {
	// OutputDir receives feed.xml and report.html (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// FeedTitle and FeedLink fill the RSS channel header.
	FeedTitle string `json:"feed_title" yaml:"feed_title"`
	FeedLink  string `json:"feed_link" yaml:"feed_link"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Encoder EncoderConfig `json:"encoder" yaml:"encoder"`
	Zotero  ZoteroConfig  `json:"zotero" yaml:"zotero"`
	Sources SourcesConfig `json:"sources" yaml:"sources"`
	Dedupe  DedupeConfig  `json:"dedupe" yaml:"dedupe"`
	Scoring ScoringConfig `json:"scoring" yaml:"scoring"`
	Filter  FilterConfig  `json:"filter" yaml:"filter"`
	Profile ProfileConfig `json:"profile" yaml:"profile"`
	Report  ReportConfig  `json:"report" yaml:"report"`
}

// DefaultPipelineConfig returns the configuration used when no file or
// flag overrides a value.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Encoder: EncoderConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "litwatch/0.1"},
			Workers:    4,
		},
		Zotero: ZoteroConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "litwatch/0.1"},
			PageSize:   100,
		},
		Sources: SourcesConfig{
			HTTPConfig:     HTTPConfig{Timeout: 30 * time.Second, UserAgent: "litwatch/0.1"},
			LookbackDays:   7,
			MaxResults:     200,
			EnableCrossref: true,
			EnableArxiv:    true,
			CacheTTL:       12 * time.Hour,
		},
		Dedupe: DedupeConfig{
			TitleThreshold: 0.9,
			AuthorOverlap:  0.5,
		},
		Scoring: ScoringConfig{
			SimilarityWeight:    0.5,
			RecencyWeight:       0.2,
			MetricWeight:        0.15,
			JournalWeight:       0.15,
			DecayLambda:         0.1,
			CitationSubWeight:   0.6,
			CitationSaturation:  100,
			AltmetricSaturation: 100,
			JournalNeutral:      0.5,
			WhitelistBonus:      0.2,
			SimilarityTopK:      1,
		},
		Filter: FilterConfig{
			TopN:              50,
			MaxPreprintRatio:  0.5,
			RecencyWindowDays: 7,
		},
		Profile: ProfileConfig{
			DBPath:             "data/profile.db",
			HotVenueWindowDays: 7,
			HotVenuePercentile: 0.9,
			HotVenueMinItems:   10,
			RebuildThreshold:   25,
		},
		Report: ReportConfig{
			OutputDir: "output",
			FeedTitle: "litwatch recommendations",
			FeedLink:  "https://github.com/pdiddy/litwatch",
		},
	}
}
