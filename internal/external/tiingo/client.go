package tiingo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jvorel/stockpilot/pkg/httputil"
	"github.com/jvorel/stockpilot/pkg/logger"
)

// Client handles communication with the Tiingo market-data API.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// Company is one ticker-search result.
type Company struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// recentWindow is how many trading days of closing prices RecentPrices
// keeps. The lookback is wider so weekends and holidays cannot shrink the
// window below it.
const (
	recentWindow = 6
	lookbackDays = 14
)

// NewClient creates a Tiingo client.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Search looks up tickers matching a free-text query and returns the
// matching (name, ticker) pairs. A non-success response or an empty result
// set is an error.
func (c *Client) Search(ctx context.Context, query string) ([]Company, error) {
	query = strings.ToLower(strings.TrimSpace(query))

	requestURL := fmt.Sprintf("%s/tiingo/utilities/search?query=%s&token=%s",
		c.baseURL, url.QueryEscape(query), c.apiKey)

	resp, err := c.httpClient.Get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("tiingo search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tiingo search returned status %d", resp.StatusCode)
	}

	var results []Company
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode tiingo search response: %w", err)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no tickers found for query %q", query)
	}

	c.logger.WithFields(map[string]interface{}{
		"query": query,
		"count": len(results),
	}).Debug("Ticker search completed")

	return results, nil
}

// RecentPrices returns the closing prices of the last trading days for a
// ticker, oldest-first, at most recentWindow entries. A non-success
// response or an empty series is an error.
func (c *Client) RecentPrices(ctx context.Context, ticker string) ([]float64, error) {
	startDate := time.Now().AddDate(0, 0, -lookbackDays).Format("2006-01-02")

	requestURL := fmt.Sprintf(
		"%s/tiingo/daily/%s/prices?startDate=%s&resampleFreq=daily&columns=close&token=%s",
		c.baseURL, url.PathEscape(ticker), startDate, c.apiKey)

	resp, err := c.httpClient.Get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("tiingo price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tiingo price request returned status %d", resp.StatusCode)
	}

	var entries []struct {
		Close float64 `json:"close"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode tiingo price response: %w", err)
	}

	if len(entries) > recentWindow {
		entries = entries[len(entries)-recentWindow:]
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no price data found for ticker %q", ticker)
	}

	prices := make([]float64, len(entries))
	for i, entry := range entries {
		prices[i] = entry.Close
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(prices),
	}).Debug("Fetched recent prices")

	return prices, nil
}
