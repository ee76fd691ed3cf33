package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/macropanel/internal/dataset"
	"github.com/rewired-gh/macropanel/internal/logger"
	"github.com/rewired-gh/macropanel/internal/panel"
	"github.com/rewired-gh/macropanel/internal/storage"
)

var (
	prepareInput      string
	prepareFromDB     bool
	prepareScalerName string
)

// prepareCmd turns a raw panel into scaled train and test batch sources
var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Clean, scale and split a raw panel",
	Long: `Load a raw panel from a file or from stored observations, apply the cleaning
policy, standardize every column, split chronologically and report the shapes.
The fitted scaler is stored for later inverse transforms.

Examples:
  macropanel prepare --input data/raw.csv
  macropanel prepare --from-db --scaler-name q-2024`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (prepareInput == "") == !prepareFromDB {
			return errors.New("exactly one of --input or --from-db is required")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		var p *panel.Panel
		if prepareFromDB {
			p, err = storedPanel(store)
		} else {
			p, err = panel.Load(prepareInput)
		}
		if err != nil {
			return fmt.Errorf("failed to load panel: %w", err)
		}

		res, err := preparePanel(store, p)
		if err != nil {
			return err
		}
		return writeSummary(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	prepareCmd.Flags().StringVar(&prepareInput, "input", "", "Raw panel file (.csv, .tsv or .xlsx)")
	prepareCmd.Flags().BoolVar(&prepareFromDB, "from-db", false, "Rebuild the raw panel from stored observations")
	prepareCmd.Flags().StringVar(&prepareScalerName, "scaler-name", "", "Name to store the fitted scaler under (default: prepare.scaler_name)")
}

func storedPanel(store *storage.Storage) (*panel.Panel, error) {
	c, err := selectedCatalog()
	if err != nil {
		return nil, err
	}
	results, err := store.LoadResults(c.Entries())
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if !r.OK() {
			logger.Warn("No stored data for %s (%s)", r.Spec.ID, r.Spec.DisplayName)
		}
	}
	return panel.Assemble(results)
}

// preparePanel runs dataset preparation and stores the fitted scaler.
func preparePanel(store *storage.Storage, p *panel.Panel) (*dataset.Result, error) {
	res, err := dataset.Prepare(p, cfg.DatasetOptions())
	if err != nil {
		return nil, err
	}

	name := prepareScalerName
	if name == "" {
		name = cfg.Prepare.ScalerName
	}
	if store != nil {
		if err := store.SaveScaler(name, res.Scaler); err != nil {
			return nil, fmt.Errorf("failed to store scaler: %w", err)
		}
		logger.Debug("Scaler stored as %q", name)
	}

	if notifier != nil {
		if err := notifier.SendPrepared(res); err != nil {
			logger.Warn("Failed to send preparation summary to Telegram: %v", err)
		}
	}
	return res, nil
}

func writeSummary(w io.Writer, res *dataset.Result) error {
	trainRows, cols := res.Train.Dims()
	testRows, _ := res.Test.Dims()
	_, err := fmt.Fprintf(w,
		"Original dataset shape: %s\nCleaned dataset shape: %s\nTraining dataset shape: %s\nTesting dataset shape: %s\nBatches per pass: train %d, test %d\n",
		res.CleanReport.Input,
		res.CleanReport.Output,
		panel.Shape{Rows: trainRows, Cols: cols},
		panel.Shape{Rows: testRows, Cols: cols},
		res.Train.NumBatches(),
		res.Test.NumBatches(),
	)
	return err
}
