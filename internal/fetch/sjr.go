// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litwatch/pkg/types"
)

// LoadSJRTable reads a YAML venue-to-SJR mapping and normalizes the
// scores into [0, 1] by dividing by the table maximum. Venue names are
// normalized the same way the scorer normalizes candidate venues, so
// lookups are case and whitespace insensitive.
func LoadSJRTable(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading SJR table: %w", err)
	}

	var raw map[string]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing SJR table: %w", err)
	}

	var max float64
	for _, v := range raw {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return map[string]float64{}, nil
	}

	table := make(map[string]float64, len(raw))
	for venue, v := range raw {
		if v < 0 {
			v = 0
		}
		table[types.NormalizeVenue(venue)] = v / max
	}
	return table, nil
}
