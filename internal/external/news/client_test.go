package news

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvorel/stockpilot/internal/market"
	"github.com/jvorel/stockpilot/pkg/httputil"
	"github.com/jvorel/stockpilot/pkg/logger"
)

func TestPostListSendsBatchWithRunID(t *testing.T) {
	var gotPath, gotRunID string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRunID = r.Header.Get(RunIDHeader)
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	log := logger.NewNop()
	c := NewClient(httputil.New(log).DisableRetry(), log, srv.URL, "/liststock", "/salestock")

	records := []market.StockRecord{{Name: "TST", Date: 1700000000}}
	require.NoError(t, c.PostList(context.Background(), "run-42", records))

	assert.Equal(t, "/liststock", gotPath)
	assert.Equal(t, "run-42", gotRunID)

	var decoded []market.StockRecord
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, records, decoded)
}

func TestPostSaleUsesSaleEndpoint(t *testing.T) {
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	log := logger.NewNop()
	c := NewClient(httputil.New(log).DisableRetry(), log, srv.URL, "/liststock", "/salestock")

	err := c.PostSale(context.Background(), "run-42", []market.StockRecord{{Name: "TST", Rating: 4, Sale: 1}})
	require.NoError(t, err)
	assert.Equal(t, "/salestock", gotPath)
}

func TestPostNonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	log := logger.NewNop()
	c := NewClient(httputil.New(log).DisableRetry(), log, srv.URL, "/liststock", "/salestock")

	err := c.PostList(context.Background(), "", []market.StockRecord{{Name: "TST"}})
	assert.Error(t, err)
}
