package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/rewired-gh/macropanel/internal/dataset"
	"github.com/rewired-gh/macropanel/internal/logger"
	"github.com/rewired-gh/macropanel/internal/panel"
)

var (
	transformInput      string
	transformOutput     string
	transformScalerName string
	transformInverse    bool
)

// transformCmd applies a stored scaler to a new panel
var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Standardize a panel with a stored scaler",
	Long: `Load a scaler stored by prepare and apply it to a panel holding the same
columns. With --inverse, scaled values are mapped back to original units.
The result is written to --output, or as CSV to stdout.

Examples:
  macropanel transform --input data/new.csv
  macropanel transform --scaler-name q-2024 --input data/pred.csv --inverse --output data/pred.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if transformInput == "" {
			return errors.New("--input is required")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		name := transformScalerName
		if name == "" {
			name = cfg.Prepare.ScalerName
		}
		scaler, err := store.LoadScaler(name)
		if err != nil {
			return fmt.Errorf("failed to load scaler: %w", err)
		}
		if scaler == nil {
			return fmt.Errorf("no scaler stored under %q", name)
		}

		p, err := panel.Load(transformInput)
		if err != nil {
			return fmt.Errorf("failed to load panel: %w", err)
		}

		out, err := transformPanel(scaler, p, transformInverse)
		if err != nil {
			return err
		}
		logger.Debug("Applied scaler %q to panel of shape %s", name, out.Shape())

		if transformOutput == "" {
			return panel.WriteCSV(cmd.OutOrStdout(), out)
		}
		if err := exportPanel(transformOutput, out); err != nil {
			return err
		}
		logger.Info("Transformed panel written to %s", transformOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)
	transformCmd.Flags().StringVar(&transformInput, "input", "", "Panel file to transform (.csv, .tsv or .xlsx)")
	transformCmd.Flags().StringVar(&transformOutput, "output", "", "Write the result to a .csv or .xlsx file (default: stdout)")
	transformCmd.Flags().StringVar(&transformScalerName, "scaler-name", "", "Stored scaler to apply (default: prepare.scaler_name)")
	transformCmd.Flags().BoolVar(&transformInverse, "inverse", false, "Map scaled values back to original units")
}

// transformPanel applies the scaler to the scaler's columns of p, in the scaler's column order.
func transformPanel(scaler *dataset.Scaler, p *panel.Panel, inverse bool) (*panel.Panel, error) {
	if len(scaler.Columns) == 0 {
		return nil, errors.New("stored scaler has no column names")
	}
	picked, err := p.Pick(scaler.Columns)
	if err != nil {
		return nil, fmt.Errorf("panel does not match scaler: %w", err)
	}
	x, err := picked.Matrix()
	if err != nil {
		return nil, err
	}

	var y *mat.Dense
	if inverse {
		y, err = scaler.InverseTransform(x)
	} else {
		y, err = scaler.Transform(x)
	}
	if err != nil {
		return nil, err
	}
	return panel.FromMatrix(p.Index, scaler.Columns, y)
}
