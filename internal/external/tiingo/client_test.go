package tiingo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvorel/stockpilot/pkg/httputil"
	"github.com/jvorel/stockpilot/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logger.NewNop()
	return NewClient(httputil.New(log).DisableRetry(), log, srv.URL, "test-key")
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tiingo/utilities/search", r.URL.Path)
		assert.Equal(t, "acme corp", r.URL.Query().Get("query"))
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"Acme Corp","ticker":"ACME"},{"name":"Acme Labs","ticker":"ACML"}]`))
	})

	results, err := c.Search(context.Background(), "  Acme Corp ")
	require.NoError(t, err)
	assert.Equal(t, []Company{
		{Name: "Acme Corp", Ticker: "ACME"},
		{Name: "Acme Labs", Ticker: "ACML"},
	}, results)
}

func TestSearchEmptyResultIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.Search(context.Background(), "nothing")
	assert.Error(t, err)
}

func TestSearchNonSuccessStatusIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Search(context.Background(), "acme")
	assert.Error(t, err)
}

func TestRecentPrices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tiingo/daily/ACME/prices", r.URL.Path)
		assert.Equal(t, "daily", r.URL.Query().Get("resampleFreq"))
		assert.Equal(t, "close", r.URL.Query().Get("columns"))
		assert.NotEmpty(t, r.URL.Query().Get("startDate"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"close":95},{"close":96},{"close":97},{"close":98},
			{"close":99},{"close":100},{"close":101},{"close":102}
		]`))
	})

	prices, err := c.RecentPrices(context.Background(), "ACME")
	require.NoError(t, err)

	// only the trailing window survives, oldest first
	assert.Equal(t, []float64{97, 98, 99, 100, 101, 102}, prices)
}

func TestRecentPricesEmptySeriesIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.RecentPrices(context.Background(), "ACME")
	assert.Error(t, err)
}

func TestRecentPricesNonSuccessStatusIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.RecentPrices(context.Background(), "NOPE")
	assert.Error(t, err)
}
