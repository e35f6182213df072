package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jvorel/stockpilot/internal/external/tiingo"
	"github.com/jvorel/stockpilot/pkg/config"
	"github.com/jvorel/stockpilot/pkg/httputil"
	"github.com/jvorel/stockpilot/pkg/logger"
)

// searchCmd represents the search command.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search tickers on the market-data provider",
	Long: `Looks up tickers matching a free-text query directly against the
configured market-data provider.

Example:
  go run ./cmd/stockpilot search tesla
  go run ./cmd/stockpilot search "acme corp"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)
	client := tiingo.NewClient(
		httputil.New(log).WithRateLimit(cfg.Tiingo.RateLimit),
		log, cfg.Tiingo.BaseURL, cfg.Tiingo.APIKey,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := client.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	for _, company := range results {
		fmt.Printf("%-8s %s\n", company.Ticker, company.Name)
	}
	return nil
}
