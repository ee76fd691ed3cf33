package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/macropanel/internal/config"
	"github.com/rewired-gh/macropanel/internal/logger"
	"github.com/rewired-gh/macropanel/internal/telegram"
)

var (
	configPath string

	cfg      *config.Config
	notifier *telegram.Client
)

// rootCmd is the base command for the macropanel CLI
var rootCmd = &cobra.Command{
	Use:   "macropanel",
	Short: "Quarterly macroeconomic panel builder",
	Long: `macropanel fetches a fixed catalog of FRED series at quarterly frequency,
assembles them into one date-indexed panel, cleans and standardizes it, and
splits it chronologically into train and test batch sources.

The FRED API key is read from MACROPANEL_FRED_API_KEY or fred.api_key.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		if configPath != "" {
			logger.Debug("Configuration loaded from %s", configPath)
		}

		if cfg.Telegram.Enabled {
			notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
				cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
			if err != nil {
				return fmt.Errorf("failed to initialize Telegram client: %w", err)
			}
			logger.Info("Telegram client initialized successfully")
		} else {
			logger.Debug("Telegram notifications disabled")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (default: environment only)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if notifier != nil {
			if sendErr := notifier.SendError(err); sendErr != nil {
				logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
			}
		}
		stop()
		logger.Fatal("%v", err)
	}
}
