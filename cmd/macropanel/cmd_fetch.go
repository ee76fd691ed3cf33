package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/macropanel/internal/fetcher"
	"github.com/rewired-gh/macropanel/internal/fred"
	"github.com/rewired-gh/macropanel/internal/logger"
	"github.com/rewired-gh/macropanel/internal/panel"
	"github.com/rewired-gh/macropanel/internal/storage"
)

var fetchExportPath string

// fetchCmd downloads the catalog and stores the raw panel
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch every catalog series from FRED",
	Long: `Fetch every catalog series at quarterly frequency (average aggregation),
store the observations and run report, and optionally export the raw panel.

Examples:
  macropanel fetch
  macropanel fetch --export data/raw.csv
  macropanel fetch --export data/raw.xlsx`,
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
		fmt.Fprintf(cmd.OutOrStdout(), "Raw panel shape: %s\n", p.Shape())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchExportPath, "export", "", "Write the raw panel to a .csv or .xlsx file (default: fetch.export_path)")
}

func openStore() (*storage.Storage, error) {
	store, err := storage.New(cfg.Storage.MaxRuns, cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func closeStore(store *storage.Storage) {
	if err := store.Close(); err != nil {
		logger.Error("Failed to close storage: %v", err)
	}
}

// fetchPanel runs one fetch over the selected catalog, persists it and assembles the raw panel.
func fetchPanel(ctx context.Context, store *storage.Storage) (*panel.Panel, error) {
	c, err := selectedCatalog()
	if err != nil {
		return nil, err
	}

	gate, err := fred.NewGate(cfg.FRED.RequestInterval)
	if err != nil {
		return nil, err
	}
	client, err := fred.NewClient(cfg.ClientConfig(), gate)
	if err != nil {
		return nil, err
	}

	f := fetcher.New(client, cfg.FetchOptions())
	results, report, err := f.FetchAll(ctx, c.Entries())
	if err != nil {
		return nil, fmt.Errorf("fetch interrupted: %w", err)
	}

	if store != nil {
		saved, err := store.SaveResults(results)
		if err != nil {
			return nil, fmt.Errorf("failed to store observations: %w", err)
		}
		if err := store.RecordRun(report); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
		logger.Debug("Stored %d series for run %s", saved, report.RunID)
	}

	if notifier != nil {
		if err := notifier.SendReport(report); err != nil {
			logger.Warn("Failed to send fetch report to Telegram: %v", err)
		}
	}

	if report.Succeeded == 0 {
		return nil, errors.New("no series could be fetched")
	}

	p, err := panel.Assemble(results)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble panel: %w", err)
	}
	logger.Info("Raw panel shape: %s (%d series failed)", p.Shape(), report.Failed())

	exportPath := fetchExportPath
	if exportPath == "" {
		exportPath = cfg.Fetch.ExportPath
	}
	if exportPath != "" {
		if err := exportPanel(exportPath, p); err != nil {
			return nil, err
		}
		logger.Info("Raw panel written to %s", exportPath)
	}
	return p, nil
}

func exportPanel(path string, p *panel.Panel) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		err = panel.WriteXLSXFile(path, "panel", p)
	case ".csv":
		err = panel.WriteCSVFile(path, p)
	default:
		return fmt.Errorf("unsupported export file type: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to export panel: %w", err)
	}
	return nil
}
