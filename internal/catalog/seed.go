// Package catalog provides the identifier catalog consumed by tag
// resolution: the set of known concrete items plus the built-in item and
// block groups of the host.
package catalog

import (
	"context"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Seed is the serializable form of a catalog.
type Seed struct {
	Items  []string   `yaml:"items"`
	Groups SeedGroups `yaml:"groups"`
}

// SeedGroups holds built-in group members keyed by group key.
type SeedGroups struct {
	Items  map[string][]string `yaml:"items"`
	Blocks map[string][]string `yaml:"blocks"`
}

// SeedLoader produces a Seed, for example from a database.
type SeedLoader interface {
	LoadSeed(ctx context.Context) (Seed, error)
}

// ParseSeed decodes a YAML catalog seed.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse catalog seed: %w", err)
	}
	return seed, nil
}

// LoadSeedFile reads and decodes a YAML catalog seed from path.
func LoadSeedFile(path string) (Seed, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from config
	if err != nil {
		return Seed{}, fmt.Errorf("read catalog seed %s: %w", path, err)
	}
	return ParseSeed(data)
}

// Marshal encodes the seed as YAML with sorted, deduplicated entries.
func (s Seed) Marshal() ([]byte, error) {
	normalized := Seed{
		Items: dedupSorted(s.Items),
		Groups: SeedGroups{
			Items:  normalizeGroups(s.Groups.Items),
			Blocks: normalizeGroups(s.Groups.Blocks),
		},
	}
	data, err := yaml.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("marshal catalog seed: %w", err)
	}
	return data, nil
}

func normalizeGroups(groups map[string][]string) map[string][]string {
	if len(groups) == 0 {
		return nil
	}
	out := make(map[string][]string, len(groups))
	for k, v := range groups {
		out[k] = dedupSorted(v)
	}
	return out
}

func dedupSorted(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
