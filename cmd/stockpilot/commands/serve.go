package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jvorel/stockpilot/internal/activity"
	"github.com/jvorel/stockpilot/internal/api"
	"github.com/jvorel/stockpilot/internal/api/handlers"
	"github.com/jvorel/stockpilot/internal/external/news"
	"github.com/jvorel/stockpilot/internal/external/tiingo"
	"github.com/jvorel/stockpilot/internal/favourites"
	"github.com/jvorel/stockpilot/internal/market"
	"github.com/jvorel/stockpilot/internal/scheduler"
	"github.com/jvorel/stockpilot/internal/scheduler/jobs"
	"github.com/jvorel/stockpilot/pkg/config"
	"github.com/jvorel/stockpilot/pkg/httputil"
	"github.com/jvorel/stockpilot/pkg/logger"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and the market scheduler",
	Long: `Starts the HTTP API server and the cron scheduler.

Endpoints:
  GET    /health                 - Health check
  GET    /api/favourites         - List favourite stocks
  POST   /api/favourites         - Add a favourite stock
  DELETE /api/favourites/{t}     - Remove a favourite stock
  GET    /api/market/search?q=   - Ticker search
  POST   /api/market/start       - Trigger a market run
  POST   /api/ratings            - Rating callback from the news module
  GET    /api/activity           - Recent activity log entries
  GET    /api/activity/stream    - Live activity feed (websocket)
  GET    /api/jobs               - Scheduler job statistics

Example:
  go run ./cmd/stockpilot serve
  go run ./cmd/stockpilot serve --port 8080`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "override the configured API port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing StockPilot")

	// Shared collaborators
	activityLog := activity.NewLog()
	store := favourites.NewStore(cfg.FavouritesPath)

	// External gateway clients
	marketClient := tiingo.NewClient(
		httputil.New(log).WithRateLimit(cfg.Tiingo.RateLimit),
		log, cfg.Tiingo.BaseURL, cfg.Tiingo.APIKey,
	)
	newsClient := news.NewClient(
		httputil.New(log),
		log, cfg.News.BaseURL, cfg.News.ListPath, cfg.News.SalePath,
	)

	// Pipeline
	filters, err := market.FiltersFromNames(cfg.Pipeline.Filters)
	if err != nil {
		return fmt.Errorf("configure filters: %w", err)
	}

	pipeline := market.NewPipeline(
		market.Config{
			RatingThreshold: cfg.Rating.Threshold,
			RatingMin:       cfg.Rating.Min,
			RatingMax:       cfg.Rating.Max,
			Filters:         filters,
			WaitTimeout:     cfg.Pipeline.WaitTimeout,
		},
		store, marketClient, newsClient, activityLog, log,
	)

	// Scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewMarketJob(pipeline, cfg.Schedule)); err != nil {
		return fmt.Errorf("register market job: %w", err)
	}

	// HTTP API
	router := api.NewRouter(
		handlers.NewFavouritesHandler(store, activityLog, log),
		handlers.NewMarketHandler(pipeline, marketClient, log),
		handlers.NewActivityHandler(activityLog, log),
		handlers.NewJobsHandler(sched, log),
		log,
	)
	server := api.New(cfg, log, router)

	sched.Start()
	defer sched.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
