package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tagset/internal/catalog"
	"github.com/zjrosen/tagset/internal/infrastructure/sqlite"
)

var importSeed string

var catalogImportCmd = &cobra.Command{
	Use:   "catalog:import",
	Short: "Import a YAML catalog seed into the SQLite catalog",
	Long: `Import the items and built-in groups of a YAML seed file into the catalog
database at catalog.db_path, replacing its previous contents.

Set catalog.source to "sqlite" to resolve tags against the imported catalog.

Examples:
  tagset catalog:import
  tagset catalog:import --seed vanilla-1.21.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := importSeed
		if path == "" {
			path = cfg.Catalog.Seed
		}
		seed, err := catalog.LoadSeedFile(path)
		if err != nil {
			return err
		}

		db, err := sqlite.NewDB(cfg.Catalog.DBPath)
		if err != nil {
			return fmt.Errorf("opening catalog database: %w", err)
		}
		defer func() { _ = db.Close() }()

		record, err := db.CatalogStore().ImportSeed(cmd.Context(), path, seed)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d items and %d groups from %s into %s\n",
			record.Items, record.Groups, path, db.Path())
		return nil
	},
}

var catalogItemsCmd = &cobra.Command{
	Use:   "catalog:items",
	Short: "List the items known to the configured catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		mem, err := loadCatalog(cmd.Context(), cfg.Catalog)
		if err != nil {
			return err
		}
		for _, item := range mem.Items() {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), item.String())
		}
		return nil
	},
}

func init() {
	catalogImportCmd.Flags().StringVar(&importSeed, "seed", "", "seed file to import (default: catalog.seed)")
	rootCmd.AddCommand(catalogImportCmd)
	rootCmd.AddCommand(catalogItemsCmd)
}
