// Command quotectl prices print configurations from the shell and follows the cart
// event stream.
package main

import (
	"fmt"
	"os"

	"github.com/example/printshop/internal/catalog"
	"github.com/spf13/cobra"
)

var catalogPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Print shop quoting and event tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&catalogPath, "catalog", os.Getenv("CATALOG_PATH"),
		"catalog YAML file (defaults to the built-in catalog)")

	root.AddCommand(newMaterialsCmd(), newPriceCmd(), newLeadTimeCmd(), newEventsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}
