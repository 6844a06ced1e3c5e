package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tagset/internal/config"
	"github.com/zjrosen/tagset/internal/presentation"
	"github.com/zjrosen/tagset/internal/settings"
)

var settingReset bool

var settingsGetCmd = &cobra.Command{
	Use:   "settings:get <tag>",
	Short: "Show a material setting and whether it is overridden",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		setting, err := settings.New(a.service, a.catalog, cfg.Settings).Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return presentation.NewFormatter(cmd.OutOrStdout(), outputFormat).FormatSetting(presentation.FromSetting(setting))
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "settings:set <tag> [item]...",
	Short: "Override the material list of a setting",
	Long: `Override the material list a setting derives from the tag of the same
name. Items are validated against the catalog before the config is written.

Examples:
  tagset settings:set ores minecraft:iron_ore minecraft:copper_ore
  tagset settings:set ores --reset`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, items := args[0], args[1:]
		path := configPath()

		if settingReset {
			if err := config.DeleteSetting(path, key); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reset %s to its tag default\n", key)
			return nil
		}

		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		// Validate against a view without the stale override.
		setting, err := settings.New(a.service, a.catalog, nil).Get(cmd.Context(), key)
		if err != nil {
			return err
		}
		if err := setting.Set(items); err != nil {
			return err
		}
		if err := config.SaveSetting(path, key, setting.Value()); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d items) to %s\n", key, len(items), path)
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().BoolVar(&settingReset, "reset", false, "remove the override and use the tag default")
	rootCmd.AddCommand(settingsGetCmd)
	rootCmd.AddCommand(settingsSetCmd)
}
