package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/jvorel/stockpilot/internal/external/news"
	"github.com/jvorel/stockpilot/internal/external/tiingo"
	"github.com/jvorel/stockpilot/internal/market"
	"github.com/jvorel/stockpilot/pkg/logger"
)

// maxCallbackBody bounds the inbound rating-callback payload.
const maxCallbackBody = 1 << 20 // 1 MiB

// TickerSearcher is the slice of the market-data gateway the search
// endpoint needs.
type TickerSearcher interface {
	Search(ctx context.Context, query string) ([]tiingo.Company, error)
}

// MarketHandler handles pipeline trigger, callback and search endpoints.
type MarketHandler struct {
	pipeline *market.Pipeline
	searcher TickerSearcher
	logger   *logger.Logger
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(pipeline *market.Pipeline, searcher TickerSearcher, log *logger.Logger) *MarketHandler {
	return &MarketHandler{
		pipeline: pipeline,
		searcher: searcher,
		logger:   log,
	}
}

// Search looks up tickers for a free-text query. Upstream failures degrade
// to an empty result set; the user never sees a gateway fault.
// GET /api/market/search?q=tesla
func (h *MarketHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	results, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		h.logger.WithError(err).WithField("query", query).Warn("Ticker search failed")
		results = []tiingo.Company{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    results,
	})
}

// Start triggers a manual pipeline run. The run executes asynchronously;
// its outcome lands in the activity log.
// POST /api/market/start
func (h *MarketHandler) Start(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := h.pipeline.Run(context.Background(), "manual"); err != nil {
			h.logger.WithError(err).Error("Manual market run failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"status":  "started",
	})
}

// RatingsCallback receives the asynchronous rating batch from the news
// module and hands it to phase two. Validation failures are acknowledged
// with 400 and the condition name; they never propagate as a fault.
// POST /api/ratings
func (h *MarketHandler) RatingsCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	runID := r.Header.Get(news.RunIDHeader)

	if err := h.pipeline.HandleRatings(r.Context(), runID, body); err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Warn("Rating callback rejected")

		switch {
		case errors.Is(err, market.ErrEmptyBatch),
			errors.Is(err, market.ErrMalformedBatch),
			errors.Is(err, market.ErrNoValidRecords),
			errors.Is(err, market.ErrStaleRun):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Failed to process ratings")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  "ok",
	})
}
