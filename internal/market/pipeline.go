package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jvorel/stockpilot/internal/favourites"
	"github.com/jvorel/stockpilot/pkg/logger"
)

// FavouriteSource supplies the user-curated favourites list.
type FavouriteSource interface {
	List() ([]favourites.Stock, error)
}

// MarketData is the market-data gateway the pipeline fetches prices from.
type MarketData interface {
	// RecentPrices returns the recent closing prices for a ticker,
	// oldest-first.
	RecentPrices(ctx context.Context, ticker string) ([]float64, error)
}

// RatingSink dispatches stock batches to the news-rating service.
type RatingSink interface {
	PostList(ctx context.Context, runID string, records []StockRecord) error
	PostSale(ctx context.Context, runID string, records []StockRecord) error
}

// ActivityLog receives human-readable pipeline events.
type ActivityLog interface {
	Append(source, message string)
}

// Config holds the pipeline's tuning parameters.
type Config struct {
	RatingThreshold int
	RatingMin       int
	RatingMax       int

	// Filters applied during phase one, in order. Empty means every
	// favourite passes.
	Filters []Filter

	// How long phase one waits for the rating callback.
	WaitTimeout time.Duration
}

// Pipeline drives the two-phase market run: favourites -> price filtering ->
// outbound list dispatch -> rating callback -> recommendation tagging ->
// outbound sale dispatch.
//
// Phase one (Run) and phase two (HandleRatings) race over the shared run
// state; all access to it is mutex-guarded. Phase two is self-contained, so
// a callback arriving after phase one timed out is still fully processed.
type Pipeline struct {
	favourites FavouriteSource
	marketData MarketData
	ratings    RatingSink
	activity   ActivityLog
	logger     *logger.Logger

	filters     []Filter
	validator   Validator
	threshold   int
	waitTimeout time.Duration

	mu      sync.Mutex
	runID   string        // run ID of the most recent outbound batch
	pending *Batch        // validated callback batch; nil until phase two stores one
	waiter  chan struct{} // closed by phase two to release the phase-one wait
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(
	cfg Config,
	favs FavouriteSource,
	marketData MarketData,
	ratings RatingSink,
	activity ActivityLog,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		favourites:  favs,
		marketData:  marketData,
		ratings:     ratings,
		activity:    activity,
		logger:      log,
		filters:     cfg.Filters,
		validator:   Validator{RatingMin: cfg.RatingMin, RatingMax: cfg.RatingMax},
		threshold:   cfg.RatingThreshold,
		waitTimeout: cfg.WaitTimeout,
	}
}

// Run executes phase one: load favourites, filter by price trend, dispatch
// the candidate batch to the rating service and wait for its callback.
//
// The returned error is for the caller to log; a failed run never takes the
// scheduler or an HTTP handler down with it. A timed-out wait is not an
// error: the run is abandoned and a late callback is still honoured by
// HandleRatings.
func (p *Pipeline) Run(ctx context.Context, mode string) error {
	p.activity.Append("market", "Market started "+mode)

	if err := p.run(ctx, mode); err != nil {
		p.activity.Append("market", "Market failed: "+err.Error())
		return err
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, mode string) error {
	runID, waiter := p.beginRun()

	log := p.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"mode":   mode,
	})

	favs, err := p.favourites.List()
	if err != nil {
		if !errors.Is(err, favourites.ErrNotFound) {
			return fmt.Errorf("load favourites: %w", err)
		}
		favs = nil
	}
	p.activity.Append("market", fmt.Sprintf("Receiving favourite stocks: %d", len(favs)))

	tickers, err := p.filterStocks(ctx, favs)
	if err != nil {
		return err
	}
	p.activity.Append("market", fmt.Sprintf("Filtered stocks: %d", len(tickers)))

	if len(tickers) == 0 {
		p.activity.Append("market", "No stocks to process")
		log.Info("No stocks passed filtering, run is a no-op")
		return nil
	}

	batch := newBatch(runID, tickers)
	if err := p.ratings.PostList(ctx, runID, batch.Records); err != nil {
		return fmt.Errorf("dispatch list batch: %w", err)
	}
	p.activity.Append("market", fmt.Sprintf("Sending %d stocks for rating", len(batch.Records)))

	select {
	case <-waiter:
		p.activity.Append("market", "Market finished successfully")
		log.Info("Run completed, ratings received")
	case <-time.After(p.waitTimeout):
		p.activity.Append("market", "Rating callback timed out, run abandoned")
		log.WithField("timeout", p.waitTimeout).Warn("Run abandoned waiting for ratings")
	case <-ctx.Done():
		log.Warn("Run cancelled while waiting for ratings")
	}

	return nil
}

// beginRun resets the run state and registers a fresh waiter.
func (p *Pipeline) beginRun() (string, chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = nil
	p.runID = uuid.NewString()
	p.waiter = make(chan struct{})
	return p.runID, p.waiter
}

// filterStocks fetches recent prices per favourite, in input order, and
// keeps the tickers that satisfy every configured filter.
func (p *Pipeline) filterStocks(ctx context.Context, favs []favourites.Stock) ([]string, error) {
	var tickers []string
	for _, fav := range favs {
		prices, err := p.marketData.RecentPrices(ctx, fav.Ticker)
		if err != nil {
			return nil, fmt.Errorf("fetch prices for %s: %w", fav.Ticker, err)
		}

		if p.passesFilters(prices) {
			tickers = append(tickers, fav.Ticker)
		}
	}
	return tickers, nil
}

// passesFilters applies all filters; zero filters means everything passes.
func (p *Pipeline) passesFilters(prices []float64) bool {
	for _, f := range p.filters {
		if !f.Apply(prices) {
			return false
		}
	}
	return true
}

// newBatch builds a fresh batch for the filtered tickers. The name field
// carries the ticker; ratings and recommendations arrive later.
func newBatch(runID string, tickers []string) *Batch {
	date := time.Now().Unix()
	records := make([]StockRecord, 0, len(tickers))
	for _, ticker := range tickers {
		records = append(records, StockRecord{Name: ticker, Date: date})
	}
	return &Batch{RunID: runID, Date: date, Records: records}
}

// HandleRatings executes phase two on a raw callback payload: validate,
// store the batch, tag recommendations and dispatch the final batch.
//
// A non-empty runID that does not match the current outbound run is
// rejected as stale. An empty runID is accepted for providers that do not
// echo the correlation header; such callbacks are treated as belonging to
// whatever run is current, which preserves the historical behaviour.
func (p *Pipeline) HandleRatings(ctx context.Context, runID string, raw []byte) error {
	records, err := p.validator.Validate(raw)
	if err != nil {
		p.activity.Append("market", "Rating callback rejected: "+err.Error())
		return err
	}

	if err := p.storeBatch(runID, records); err != nil {
		p.activity.Append("market", "Rating callback rejected: "+err.Error())
		return err
	}
	p.activity.Append("market", fmt.Sprintf("Ratings received for %d stocks", len(records)))

	tagged, err := p.tagRecommendations(records)
	if err != nil {
		// Validation bounds every rating, so this is a logic bug.
		p.logger.WithError(err).Error("Recommendation tagging hit an out-of-range rating after validation")
		p.activity.Append("market", "Recommendation tagging failed: "+err.Error())
		return err
	}
	p.activity.Append("market", "Adding recommendations to stocks")

	if err := p.ratings.PostSale(ctx, runID, tagged); err != nil {
		p.activity.Append("market", "Market failed: "+err.Error())
		return fmt.Errorf("dispatch sale batch: %w", err)
	}
	p.activity.Append("market", fmt.Sprintf("Sending %d rated stocks for sale", len(tagged)))

	return nil
}

// storeBatch records the validated batch as the current run state and
// releases a waiting phase one.
func (p *Pipeline) storeBatch(runID string, records []StockRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if runID != "" && p.runID != "" && runID != p.runID {
		return fmt.Errorf("%w: got %s, current run is %s", ErrStaleRun, runID, p.runID)
	}

	var date int64
	if len(records) > 0 {
		date = records[0].Date
	}
	p.pending = &Batch{RunID: p.runID, Date: date, Records: records}

	if p.waiter != nil {
		close(p.waiter)
		p.waiter = nil
	}
	return nil
}

// tagRecommendations derives the sale flag for each record: a rating
// strictly above the threshold recommends selling, a rating at or below it
// recommends holding. Ratings outside the configured bounds are an
// invariant violation.
func (p *Pipeline) tagRecommendations(records []StockRecord) ([]StockRecord, error) {
	min := p.validator.RatingMin
	max := p.validator.RatingMax

	tagged := make([]StockRecord, len(records))
	for i, record := range records {
		switch {
		case record.Rating > p.threshold && record.Rating <= max:
			record.Sale = 1
		case record.Rating >= min && record.Rating <= p.threshold:
			record.Sale = 0
		default:
			return nil, fmt.Errorf("%w: %d for %s", ErrInvalidRating, record.Rating, record.Name)
		}
		tagged[i] = record
	}
	return tagged, nil
}

// CurrentBatch returns a copy of the stored run state, or nil when no
// validated callback has arrived since the last run started.
func (p *Pipeline) CurrentBatch() *Batch {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending == nil {
		return nil
	}
	cp := *p.pending
	cp.Records = append([]StockRecord(nil), p.pending.Records...)
	return &cp
}
