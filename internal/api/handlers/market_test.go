package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvorel/stockpilot/internal/activity"
	"github.com/jvorel/stockpilot/internal/external/news"
	"github.com/jvorel/stockpilot/internal/external/tiingo"
	"github.com/jvorel/stockpilot/internal/favourites"
	"github.com/jvorel/stockpilot/internal/market"
	"github.com/jvorel/stockpilot/pkg/logger"
)

type stubSearcher struct {
	results []tiingo.Company
	err     error
}

func (s *stubSearcher) Search(context.Context, string) ([]tiingo.Company, error) {
	return s.results, s.err
}

type emptyFavourites struct{}

func (emptyFavourites) List() ([]favourites.Stock, error) { return nil, favourites.ErrNotFound }

type noPrices struct{}

func (noPrices) RecentPrices(context.Context, string) ([]float64, error) {
	return nil, errors.New("not used")
}

// ackSink accepts every dispatch.
type ackSink struct{}

func (ackSink) PostList(context.Context, string, []market.StockRecord) error { return nil }
func (ackSink) PostSale(context.Context, string, []market.StockRecord) error { return nil }

func newMarketHandler(searcher TickerSearcher) *MarketHandler {
	pipeline := market.NewPipeline(
		market.Config{RatingThreshold: 3, RatingMin: 1, RatingMax: 5, WaitTimeout: time.Millisecond},
		emptyFavourites{}, noPrices{}, ackSink{}, activity.NewLog(), logger.NewNop(),
	)
	return NewMarketHandler(pipeline, searcher, logger.NewNop())
}

func TestSearchReturnsResults(t *testing.T) {
	h := newMarketHandler(&stubSearcher{results: []tiingo.Company{{Name: "Acme", Ticker: "ACME"}}})

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/market/search?q=acme", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[{"name":"Acme","ticker":"ACME"}]}`, rec.Body.String())
}

func TestSearchDegradesToEmptyOnUpstreamFailure(t *testing.T) {
	h := newMarketHandler(&stubSearcher{err: errors.New("gateway down")})

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/market/search?q=acme", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())
}

func TestSearchRequiresQuery(t *testing.T) {
	h := newMarketHandler(&stubSearcher{})

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/market/search", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartAcknowledgesImmediately(t *testing.T) {
	h := newMarketHandler(&stubSearcher{})

	rec := httptest.NewRecorder()
	h.Start(rec, httptest.NewRequest(http.MethodPost, "/api/market/start", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRatingsCallbackAcceptsValidBatch(t *testing.T) {
	h := newMarketHandler(&stubSearcher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ratings",
		strings.NewReader(`[{"name":"TST","date":1700000000,"rating":4}]`))
	h.RatingsCallback(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"status":"ok"}`, rec.Body.String())
}

func TestRatingsCallbackRejectsInvalidBatches(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty batch", body: `[]`},
		{name: "non-array body", body: `{"name":"X"}`},
		{name: "non-object element", body: `[123]`},
		{name: "all records dropped", body: `[{"name":"X","date":0,"rating":999}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newMarketHandler(&stubSearcher{})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/ratings", strings.NewReader(tt.body))
			h.RatingsCallback(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRatingsCallbackRejectsStaleRunID(t *testing.T) {
	h := newMarketHandler(&stubSearcher{})

	// establish a current run so a mismatched ID can be stale
	require.NoError(t, h.pipeline.Run(context.Background(), "manual"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ratings",
		strings.NewReader(`[{"name":"TST","date":0,"rating":4}]`))
	req.Header.Set(news.RunIDHeader, "some-other-run")
	h.RatingsCallback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
