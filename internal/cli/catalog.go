package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/creastat/foodagent/catalog"
)

func init() {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the food-name catalog",
	}

	seed := &cobra.Command{
		Use:   "seed [file]",
		Short: "Embed and index food names from a YAML list",
		Long: `Reads a YAML list of {name, food_type} entries and upserts them into
the Qdrant catalog collection. Defaults to catalog.seed_file from the config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCatalogSeed,
	}

	catalogCmd.AddCommand(seed)
	RootCmd.AddCommand(catalogCmd)
}

func runCatalogSeed(cmd *cobra.Command, args []string) error {
	path := cfg.Catalog.SeedFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no seed file given")
	}
	if cfg.Catalog.QdrantURL == "" {
		return fmt.Errorf("catalog.qdrant_url is not set")
	}

	items, err := readCatalogItems(path)
	if err != nil {
		return err
	}

	embedder, vs, err := openCatalog(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer vs.Close()

	if err := catalog.Seed(cmd.Context(), embedder, vs, items); err != nil {
		return err
	}
	logger.Info("catalog seeded", zap.String("file", path), zap.Int("items", len(items)))
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"items":%d}`+"\n", len(items))
	return nil
}

func readCatalogItems(path string) ([]catalog.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var items []catalog.Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return items, nil
}
