package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tagset/internal/presentation"
	"github.com/zjrosen/tagset/internal/settings"
)

// errCheckFailed is returned when any tag or setting is invalid; details have
// already been printed.
var errCheckFailed = errors.New("check failed")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve every tag and validate setting overrides",
	Long: `Resolve every tag in the tags directory and validate the settings section
of the config. Prints one line per tag and exits non-zero if any tag is
misconfigured or any setting override names an unknown item.

Examples:
  tagset check
  tagset check -o json | jq '.failed'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		report, loadErr := a.service.LoadAll(cmd.Context())
		formatter := presentation.NewFormatter(cmd.OutOrStdout(), outputFormat)
		if err := formatter.FormatReport(presentation.FromReport(report)); err != nil {
			return err
		}

		settingsErr := settings.New(a.service, a.catalog, cfg.Settings).Validate(cmd.Context())
		if settingsErr != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "invalid settings:\n%v\n", settingsErr)
		}

		if loadErr != nil || settingsErr != nil {
			return errCheckFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
