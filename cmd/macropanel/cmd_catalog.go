package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/macropanel/internal/catalog"
)

var catalogFormat string

// catalogCmd prints the series catalog
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the series catalog",
	Long: `List every catalog series in declared order with its category and column name.

Examples:
  macropanel catalog
  macropanel catalog --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := selectedCatalog()
		if err != nil {
			return err
		}
		return writeCatalog(cmd.OutOrStdout(), c, catalogFormat)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().StringVar(&catalogFormat, "format", "table", "Output format (table|json)")
}

// selectedCatalog returns the default catalog narrowed to fetch.series when set.
func selectedCatalog() (catalog.Catalog, error) {
	c := catalog.Default()
	if err := c.Validate(); err != nil {
		return catalog.Catalog{}, fmt.Errorf("invalid catalog: %w", err)
	}
	if cfg != nil && len(cfg.Fetch.Series) > 0 {
		return c.Subset(cfg.Fetch.Series)
	}
	return c, nil
}

func writeCatalog(w io.Writer, c catalog.Catalog, format string) error {
	entries := c.Entries()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tCATEGORY\tID\tCOLUMN")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Position, e.Category, e.ID, e.DisplayName)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "\n%d series in %d categories\n", c.Len(), len(c.Categories))
		return err
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
