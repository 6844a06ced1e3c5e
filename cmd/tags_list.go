package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/tagset/internal/presentation"
)

var listResolve bool

var tagsListCmd = &cobra.Command{
	Use:   "tags:list",
	Short: "List the tags defined in the tags directory",
	Long: `List every tag with a document in the tags directory.

By default tags are listed without reading their documents. Use --resolve to
resolve them all and show member counts or failures.

Examples:
  tagset tags:list
  tagset tags:list --resolve
  tagset tags:list -o json | jq '.[].key'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		failures := map[string]string{}
		if listResolve {
			report, _ := a.service.LoadAll(cmd.Context())
			for _, f := range report.Failed {
				failures[f.Key.String()] = f.Err.Error()
			}
		}

		list := make([]presentation.TagDTO, 0, len(a.service.Tags()))
		for _, tag := range a.service.Tags() {
			dto := presentation.FromTag(tag, false)
			dto.Error = failures[dto.Key]
			list = append(list, dto)
		}
		return presentation.NewFormatter(cmd.OutOrStdout(), outputFormat).FormatTags(list)
	},
}

func init() {
	tagsListCmd.Flags().BoolVar(&listResolve, "resolve", false, "resolve every tag before listing")
	rootCmd.AddCommand(tagsListCmd)
}
