// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litwatch/internal/encoder"
	"github.com/pdiddy/litwatch/internal/fetch"
	"github.com/pdiddy/litwatch/internal/report"
	"github.com/pdiddy/litwatch/internal/watch"
	"github.com/pdiddy/litwatch/internal/zotero"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run one watching pass: fetch, dedupe, score, rank, report",
	Long: `Watch runs the full pipeline once. The reference library is synced into
the profile, candidates are fetched from every enabled source,
deduplicated across sources, scored against the profile, and ranked.
The shortlist is printed as a table and written as an RSS feed and an
HTML page unless --no-report is given.

A source that fails contributes nothing for this pass; the run
continues with the remaining sources and reports the failure.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openProfile(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	pipeline := &watch.Pipeline{
		Cfg:     cfg,
		Profile: store,
		Library: zotero.NewClient(cfg.Zotero),
		Encoder: encoder.New(cfg.Encoder),
		Log:     log,
	}
	if cfg.Sources.AltmetricAPIKey != "" {
		pipeline.Enricher = &fetch.AltmetricClient{APIKey: cfg.Sources.AltmetricAPIKey}
	}

	result, err := pipeline.Run(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if err := report.WriteJSON(os.Stdout, result.Ranked); err != nil {
			return err
		}
	} else {
		if err := report.WriteTable(os.Stdout, result.Ranked); err != nil {
			return err
		}
	}

	if noReport, _ := cmd.Flags().GetBool("no-report"); !noReport {
		meta := report.Meta{
			Title:       cfg.Report.FeedTitle,
			Link:        cfg.Report.FeedLink,
			GeneratedAt: time.Now().UTC(),
		}
		if err := report.WriteFiles(cfg.Report.OutputDir, result.Ranked, meta); err != nil {
			return err
		}
		log.Info().Str("dir", cfg.Report.OutputDir).Msg("feed and report written")
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(os.Stderr, "%d warning(s) during this pass\n", len(result.Warnings))
	}
	return nil
}

func init() {
	watchCmd.Flags().Bool("json", false, "output the shortlist as JSON")
	watchCmd.Flags().Bool("no-report", false, "skip writing feed.xml and report.html")

	rootCmd.AddCommand(watchCmd)
}
