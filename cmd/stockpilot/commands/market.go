package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jvorel/stockpilot/pkg/config"
)

// marketCmd represents the market command.
var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Trigger a market run on a running StockPilot instance",
	Long: `Triggers a manual market pipeline run by calling the running serve
instance. The run executes asynchronously; follow it in the activity log.

Example:
  go run ./cmd/stockpilot market
  go run ./cmd/stockpilot market --addr http://localhost:8090`,
	RunE: runMarket,
}

var marketAddr string

func init() {
	rootCmd.AddCommand(marketCmd)

	marketCmd.Flags().StringVar(&marketAddr, "addr", "", "base URL of the running instance (default http://localhost:<port>)")
}

func runMarket(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	addr := marketAddr
	if addr == "" {
		addr = "http://localhost:" + cfg.Port
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/api/market/start", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("trigger market run (is serve running?): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("market run not accepted: status %d", resp.StatusCode)
	}

	fmt.Println("Market run started")
	return nil
}
