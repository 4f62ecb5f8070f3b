// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litwatch/internal/encoder"
	"github.com/pdiddy/litwatch/internal/profile"
	"github.com/pdiddy/litwatch/internal/zotero"
	"github.com/pdiddy/litwatch/pkg/types"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Build, update, and inspect the interest profile",
	Long: `Profile manages the persistent research-interest profile derived from
the Zotero reference library: one embedding vector per library item plus
author and venue statistics. Use subcommands to rebuild it from scratch,
sync it incrementally, or inspect its current state.`,
}

var profileBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the profile from the full reference library",
	Long: `Build fetches every bibliographic item from the Zotero library,
encodes each one, and replaces the stored profile. An encoder failure
aborts the rebuild and leaves the previous profile intact.`,
	RunE: runProfileBuild,
}

func runProfileBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openProfile(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	sync, err := zotero.NewClient(cfg.Zotero).FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetching library: %w", err)
	}
	log.Info().Int("items", len(sync.Items)).Msg("library fetched")

	if err := store.Rebuild(ctx, sync.Items); err != nil {
		return err
	}
	if err := store.SetModel(ctx, cfg.Encoder.Model); err != nil {
		return err
	}
	if err := store.SetLibraryVersion(ctx, sync.LibraryVersion); err != nil {
		return err
	}

	fmt.Printf("Profile rebuilt: %d items, library version %d\n",
		store.ItemCount(), sync.LibraryVersion)
	return nil
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Sync new library items into the profile incrementally",
	Long: `Update fetches only library items modified since the last sync and
appends vectors for the unseen ones. When enough new items have
accumulated, it performs a full rebuild instead.`,
	RunE: runProfileUpdate,
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openProfile(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	client := zotero.NewClient(cfg.Zotero)

	version := store.LibraryVersion(ctx)
	if version == 0 || store.ItemCount() == 0 {
		return fmt.Errorf("no profile to update, run \"litwatch profile build\" first")
	}

	sync, err := client.FetchSince(ctx, version)
	if err != nil {
		return fmt.Errorf("syncing library: %w", err)
	}

	var fresh int
	for _, it := range sync.Items {
		if !store.Contains(it.ID) {
			fresh++
		}
	}

	if store.Stale(fresh) {
		log.Info().Int("new_items", fresh).Msg("too many new items, rebuilding")
		full, err := client.FetchAll(ctx)
		if err != nil {
			return fmt.Errorf("fetching library: %w", err)
		}
		if err := store.Rebuild(ctx, full.Items); err != nil {
			return err
		}
		if err := store.SetModel(ctx, cfg.Encoder.Model); err != nil {
			return err
		}
		sync.LibraryVersion = full.LibraryVersion
	} else if fresh > 0 {
		if err := store.Update(ctx, sync.Items); err != nil {
			return err
		}
	}

	if sync.LibraryVersion > version {
		if err := store.SetLibraryVersion(ctx, sync.LibraryVersion); err != nil {
			return err
		}
	}

	fmt.Printf("Profile up to date: %d items (%d new)\n", store.ItemCount(), fresh)
	return nil
}

var profileStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the profile's size, top authors and venues, and hot venues",
	RunE:  runProfileStatus,
}

func runProfileStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openProfile(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary := store.Summary()

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	if summary.ItemCount == 0 {
		fmt.Println("Profile is empty. Run \"litwatch profile build\".")
		return nil
	}

	fmt.Printf("Items:       %d\n", summary.ItemCount)
	if !summary.BuiltAt.IsZero() {
		fmt.Printf("Built:       %s\n", summary.BuiltAt.Format("2006-01-02 15:04 MST"))
	}

	authors := make([]string, 0, len(summary.TopAuthors))
	for _, a := range summary.TopAuthors {
		authors = append(authors, fmt.Sprintf("%s (%d)", a.Author, a.Count))
	}
	venues := make([]string, 0, len(summary.TopVenues))
	for _, v := range summary.TopVenues {
		venues = append(venues, fmt.Sprintf("%s (%d)", v.Venue, v.Count))
	}

	fmt.Printf("Top authors: %s\n", strings.Join(authors, ", "))
	fmt.Printf("Top venues:  %s\n", strings.Join(venues, ", "))
	fmt.Printf("Hot venues:  %s\n", strings.Join(summary.HotVenues, ", "))
	return nil
}

// openProfile opens the store with the configured encoder wired in.
func openProfile(cfg types.PipelineConfig) (*profile.Store, error) {
	store, err := profile.Open(cfg.Profile, encoder.New(cfg.Encoder))
	if err != nil {
		return nil, err
	}
	if cfg.Encoder.Workers > 0 {
		store.Workers = cfg.Encoder.Workers
	}
	return store, nil
}

func init() {
	profileStatusCmd.Flags().Bool("json", false, "output the summary as JSON")

	profileCmd.AddCommand(profileBuildCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	profileCmd.AddCommand(profileStatusCmd)
	rootCmd.AddCommand(profileCmd)
}
