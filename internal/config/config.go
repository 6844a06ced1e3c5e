// Package config provides configuration types, defaults and validation for
// tagset.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/tagset/internal/domain/tags"
	"github.com/zjrosen/tagset/internal/log"
	"github.com/zjrosen/tagset/internal/tracing"
)

// Catalog sources.
const (
	CatalogSourceYAML   = "yaml"
	CatalogSourceSQLite = "sqlite"
)

// Config holds all configuration options for tagset.
type Config struct {
	Tags     TagsConfig          `mapstructure:"tags"`
	Catalog  CatalogConfig       `mapstructure:"catalog"`
	Watch    WatchConfig         `mapstructure:"watch"`
	Filter   FilterConfig        `mapstructure:"filter"`
	Tracing  tracing.Config      `mapstructure:"tracing"`
	Settings map[string][]string `mapstructure:"settings"`
}

// TagsConfig locates tag definition documents.
type TagsConfig struct {
	Dir       string `mapstructure:"dir"`       // directory of <name>.json documents
	Namespace string `mapstructure:"namespace"` // namespace of user tags
}

// CatalogConfig selects where known items and built-in groups come from.
type CatalogConfig struct {
	Source string `mapstructure:"source"`  // "yaml" (default) or "sqlite"
	Seed   string `mapstructure:"seed"`    // YAML seed file
	DBPath string `mapstructure:"db_path"` // SQLite database for source=sqlite
}

// WatchConfig tunes the tag directory watcher.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// FilterConfig configures the item filter. Entries are group references
// such as "#minecraft:logs" or "$slimefun:ores".
type FilterConfig struct {
	Allow    []string      `mapstructure:"allow"`
	Deny     []string      `mapstructure:"deny"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// DefaultDBPath returns ~/.tagset/catalog.db, or a relative path when the
// home directory is unavailable.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tagset", "catalog.db")
	}
	return filepath.Join(home, ".tagset", "catalog.db")
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Tags: TagsConfig{
			Dir:       "tags",
			Namespace: "slimefun",
		},
		Catalog: CatalogConfig{
			Source: CatalogSourceYAML,
			Seed:   "catalog.yaml",
			DBPath: DefaultDBPath(),
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
		Filter: FilterConfig{
			CacheTTL: 10 * time.Minute,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks enums, required paths and identifier syntax.
func (c Config) Validate() error {
	if c.Tags.Dir == "" {
		return fmt.Errorf("tags.dir is required")
	}
	if _, err := tags.ParseKey(c.Tags.Namespace + ":tag"); err != nil {
		return fmt.Errorf("tags.namespace %q is not a valid namespace", c.Tags.Namespace)
	}
	if err := ValidateCatalog(c.Catalog); err != nil {
		return err
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	if err := ValidateFilter(c.Filter); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	for key := range c.Settings {
		if key == "" || strings.Contains(key, ".") {
			return fmt.Errorf("settings keys must be non-empty and must not contain '.', got %q", key)
		}
	}
	return nil
}

// ValidateCatalog checks the catalog section.
func ValidateCatalog(cat CatalogConfig) error {
	switch cat.Source {
	case CatalogSourceYAML:
		if cat.Seed == "" {
			return fmt.Errorf("catalog.seed is required when source is %q", CatalogSourceYAML)
		}
	case CatalogSourceSQLite:
		if cat.DBPath == "" {
			return fmt.Errorf("catalog.db_path is required when source is %q", CatalogSourceSQLite)
		}
	default:
		return fmt.Errorf("catalog.source must be %q or %q, got %q", CatalogSourceYAML, CatalogSourceSQLite, cat.Source)
	}
	return nil
}

// ValidateFilter checks that every filter entry is a group reference.
func ValidateFilter(f FilterConfig) error {
	if f.CacheTTL < 0 {
		return fmt.Errorf("filter.cache_ttl must not be negative, got %s", f.CacheTTL)
	}
	for field, refs := range map[string][]string{"filter.allow": f.Allow, "filter.deny": f.Deny} {
		for _, ref := range refs {
			kind, err := tags.Classify(ref)
			if err != nil || kind == tags.ReferenceMaterial {
				return fmt.Errorf("%s entry %q must be a #group or $tag reference", field, ref)
			}
		}
	}
	return nil
}

// ValidateTracing checks the tracing section.
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled {
		if t.Exporter == "file" && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == "otlp" && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# tagset configuration

tags:
  dir: tags              # directory of <name>.json tag documents
  namespace: slimefun    # namespace of user tags ($slimefun:<name>)

catalog:
  source: yaml           # "yaml" (seed file) or "sqlite" (imported database)
  seed: catalog.yaml     # items and built-in groups
  # db_path: ~/.tagset/catalog.db

watch:
  debounce: 250ms        # quiet period before reloading changed tags

filter:
  # allow: ["#minecraft:logs"]
  # deny: ["$slimefun:ores"]
  cache_ttl: 10m

tracing:
  enabled: false
  exporter: stdout       # "none", "stdout", "file" or "otlp"
  # file_path: ~/.tagset/traces.jsonl
  # otlp_endpoint: localhost:4317
  # sample_rate: 1.0
  service_name: tagset

# Material list settings. Each defaults to the materials of the tag with the
# same name and may be overridden here.
# settings:
#   ores: [minecraft:iron_ore, minecraft:gold_ore]
`
}

// WriteDefaultConfig creates a config file at configPath with default settings and comments.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
