// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/pdiddy/litwatch/pkg/types"
)

// loadConfig merges defaults, the config file, and environment
// overrides into one pipeline configuration, then fills API keys from
// .secrets/ for anything the file left empty.
func loadConfig() (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()

	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}

	cfg.Zotero.APIKey = secretDefault("zotero-api-key", cfg.Zotero.APIKey)
	cfg.Encoder.APIKey = secretDefault("encoder-api-key", cfg.Encoder.APIKey)
	cfg.Sources.AltmetricAPIKey = secretDefault("altmetric-api-key", cfg.Sources.AltmetricAPIKey)
	cfg.Sources.CrossrefEmail = secretDefault("crossref-email", cfg.Sources.CrossrefEmail)

	return cfg, nil
}
