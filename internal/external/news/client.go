package news

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jvorel/stockpilot/internal/market"
	"github.com/jvorel/stockpilot/pkg/httputil"
	"github.com/jvorel/stockpilot/pkg/logger"
)

// RunIDHeader carries the pipeline run ID on outbound dispatches so the
// rating service can echo it back on its callback.
const RunIDHeader = "X-Run-Id"

// Client dispatches stock batches to the news-rating service. The service
// responds to the list dispatch asynchronously via an HTTP callback, so
// both posts are acknowledge-only from the client's point of view.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	listURL    string
	saleURL    string
}

// NewClient creates a rating-service client from the configured base URL
// and endpoint paths.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, listPath, salePath string) *Client {
	base := strings.TrimRight(baseURL, "/")
	return &Client{
		httpClient: httpClient,
		logger:     log,
		listURL:    base + listPath,
		saleURL:    base + salePath,
	}
}

// PostList sends the freshly filtered batch to the list endpoint.
func (c *Client) PostList(ctx context.Context, runID string, records []market.StockRecord) error {
	return c.post(ctx, c.listURL, runID, records)
}

// PostSale sends the rated, recommendation-tagged batch to the sale endpoint.
func (c *Client) PostSale(ctx context.Context, runID string, records []market.StockRecord) error {
	return c.post(ctx, c.saleURL, runID, records)
}

func (c *Client) post(ctx context.Context, url, runID string, records []market.StockRecord) error {
	headers := map[string]string{}
	if runID != "" {
		headers[RunIDHeader] = runID
	}

	resp, err := c.httpClient.PostJSON(ctx, url, records, headers)
	if err != nil {
		return fmt.Errorf("news module request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("news module returned status %d for %s", resp.StatusCode, url)
	}

	c.logger.WithFields(map[string]interface{}{
		"url":    url,
		"run_id": runID,
		"count":  len(records),
	}).Debug("Batch dispatched to news module")

	return nil
}
