package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/tagset/internal/config"
	"github.com/zjrosen/tagset/internal/log"
)

var (
	version      = "dev"
	cfgFile      string
	cfg          config.Config
	debugFlag    bool
	outputFormat string
	logCleanup   func()
)

const localConfigPath = ".tagset/config.yaml"

var rootCmd = &cobra.Command{
	Use:   "tagset",
	Short: "Resolve and check material tag definitions",
	Long: `tagset resolves user-defined material tags against a catalog of known items
and built-in item/block groups.

Tags live as <name>.json documents in the tags directory and may reference
concrete items, built-in groups (#namespace:name) and other tags
($namespace:name).`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupRun,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .tagset/config.yaml or ~/.config/tagset/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write debug logs to debug.log (or $TAGSET_LOG)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text",
		"output format: text or json")
	rootCmd.PersistentFlags().String("tags-dir", "", "directory of tag documents (overrides tags.dir)")
	rootCmd.PersistentFlags().String("namespace", "", "namespace of user tags (overrides tags.namespace)")
}

func initConfig() {
	_ = viper.BindPFlag("tags.dir", rootCmd.PersistentFlags().Lookup("tags-dir"))
	_ = viper.BindPFlag("tags.namespace", rootCmd.PersistentFlags().Lookup("namespace"))

	defaults := config.Defaults()
	viper.SetDefault("tags.dir", defaults.Tags.Dir)
	viper.SetDefault("tags.namespace", defaults.Tags.Namespace)
	viper.SetDefault("catalog.source", defaults.Catalog.Source)
	viper.SetDefault("catalog.seed", defaults.Catalog.Seed)
	viper.SetDefault("catalog.db_path", defaults.Catalog.DBPath)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("filter.cache_ttl", defaults.Filter.CacheTTL)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .tagset/config.yaml (current directory)
		// 2. ~/.config/tagset/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "tagset"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config anywhere: write the default next to the working directory.
			if writeErr := config.WriteDefaultConfig(localConfigPath); writeErr == nil {
				viper.SetConfigFile(localConfigPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// setupRun enables logging and validates the loaded config before any
// subcommand runs.
func setupRun(cmd *cobra.Command, _ []string) error {
	if debugFlag || os.Getenv("TAGSET_DEBUG") != "" {
		logPath := os.Getenv("TAGSET_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logCleanup = cleanup
		log.Info(log.CatConfig, "tagset starting", "command", cmd.Name(), "config", viper.ConfigFileUsed())
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// configPath returns the file settings are written to.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return localConfigPath
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
