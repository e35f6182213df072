package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stockpilot",
	Short: "StockPilot - favourite-stock rating pipeline",
	Long: `StockPilot watches a curated list of favourite tickers, filters them by
recent price trend and forwards candidates to the news-rating service.
When ratings come back it tags sell/hold recommendations and forwards the
rated batch onward.

Usage:
  go run ./cmd/stockpilot [command]

Examples:
  go run ./cmd/stockpilot serve
  go run ./cmd/stockpilot market
  go run ./cmd/stockpilot search tesla`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "path to the config file")
}
