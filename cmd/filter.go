package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/tagset/internal/filter"
	"github.com/zjrosen/tagset/internal/presentation"
)

var filterCheckCmd = &cobra.Command{
	Use:   "filter:check <item>...",
	Short: "Check items against the configured allow/deny filter",
	Long: `Check whether items pass the filter configured under filter.allow and
filter.deny. Deny entries win; an empty allow list admits everything not
denied.

Examples:
  tagset filter:check minecraft:oak_log minecraft:stone`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := filter.New(a.service, cfg.Filter, filter.WithTracer(a.tracer.Tracer()))
		if err != nil {
			return err
		}

		decisions := make([]presentation.DecisionDTO, 0, len(args))
		for _, item := range args {
			d, err := f.Permits(cmd.Context(), item)
			if err != nil {
				return err
			}
			decisions = append(decisions, presentation.FromDecision(item, d))
		}
		return presentation.NewFormatter(cmd.OutOrStdout(), outputFormat).FormatDecisions(decisions)
	},
}

func init() {
	rootCmd.AddCommand(filterCheckCmd)
}
