package jobs

import (
	"context"

	"github.com/jvorel/stockpilot/internal/market"
)

// MarketJob runs the market pipeline on the configured cron schedule.
type MarketJob struct {
	pipeline *market.Pipeline
	schedule string
}

// NewMarketJob creates the scheduled market pipeline job.
func NewMarketJob(pipeline *market.Pipeline, schedule string) *MarketJob {
	return &MarketJob{
		pipeline: pipeline,
		schedule: schedule,
	}
}

// Name implements scheduler.Job.
func (j *MarketJob) Name() string {
	return "market_pipeline"
}

// Schedule implements scheduler.Job.
func (j *MarketJob) Schedule() string {
	return j.schedule
}

// Run implements scheduler.Job. The pipeline's error is returned for the
// scheduler to record; it is never re-raised beyond that.
func (j *MarketJob) Run(ctx context.Context) error {
	return j.pipeline.Run(ctx, "scheduled")
}
