package main

import (
	"github.com/spf13/cobra"
)

// runCmd fetches and prepares in one pass
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the catalog and prepare the dataset",
	Long: `Fetch every catalog series, assemble the raw panel and prepare train and
test batch sources without reading the panel back from disk.

Examples:
  macropanel run
  macropanel run --config configs/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		p, err := fetchPanel(cmd.Context(), store)
		if err != nil {
			return err
		}
		res, err := preparePanel(store, p)
		if err != nil {
			return err
		}
		return writeSummary(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&fetchExportPath, "export", "", "Write the raw panel to a .csv or .xlsx file (default: fetch.export_path)")
	runCmd.Flags().StringVar(&prepareScalerName, "scaler-name", "", "Name to store the fitted scaler under (default: prepare.scaler_name)")
}
