package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tagset/internal/presentation"
)

var resolveValues bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <tag>...",
	Short: "Resolve tags and print their members",
	Long: `Resolve one or more tags and print their materials and referenced groups.

Tags may be named as "ores", "slimefun:ores" or "$slimefun:ores". Tags
referenced by the requested tags are resolved as well.

Examples:
  tagset resolve ores
  tagset resolve ores fuel --values
  tagset resolve smeltables -o json | jq '.values'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		formatter := presentation.NewFormatter(cmd.OutOrStdout(), outputFormat)
		var errs []error
		for _, name := range args {
			tag, err := a.service.Resolve(cmd.Context(), name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := formatter.FormatTag(presentation.FromTag(tag, resolveValues)); err != nil {
				return err
			}
		}
		return errors.Join(errs...)
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveValues, "values", false, "also print the flattened values, including nested groups")
	rootCmd.AddCommand(resolveCmd)
}
