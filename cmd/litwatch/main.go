// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litwatch CLI: a personal
// literature watcher that ranks new publications against an interest
// profile derived from the user's reference library.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litwatch/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// log is the process-wide logger, configured in the root command.
var log zerolog.Logger

// secretDefault returns fallback when set, otherwise the secret value
// for key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the litwatch CLI.
var rootCmd = &cobra.Command{
	Use:   "litwatch",
	Short: "Watch the literature for papers matching your interests",
	Long: `litwatch builds a research-interest profile from your Zotero library and
ranks freshly published papers and preprints against it. Candidates are
pulled from Crossref, arXiv, bioRxiv, and medRxiv, deduplicated across
sources, scored on profile similarity, recency, citation and attention
metrics, and journal standing, then rendered as a console table, an RSS
feed, and an HTML report.

Use "profile" to build or inspect the interest profile and "watch" to
run a full watching pass.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Flat KEY=VALUE env files are the low-friction way to carry
		// local settings; absence is not an error.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		level := zerolog.InfoLevel
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = zerolog.DebugLevel
		}
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).
			With().Timestamp().Logger()
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./litwatch.yaml or ~/.config/litwatch/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("litwatch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "litwatch"))
		}
	}

	viper.SetEnvPrefix("LITWATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
