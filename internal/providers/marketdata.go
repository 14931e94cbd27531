package providers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/config"
	"github.com/finsightlab/finsight-go/internal/models"
)

// MarketDataClient talks to the daily-quote and price-history provider.
// History returns the provider's table shape untouched; cleaning it up is
// the normalizer's job, not the client's.
type MarketDataClient struct {
	http *httpClient
}

// NewMarketDataClient creates a market-data client from config.
func NewMarketDataClient(cfg config.ProviderConfig, logger *logrus.Logger) *MarketDataClient {
	return &MarketDataClient{http: newHTTPClient("market-data", cfg, logger)}
}

// History fetches the raw daily price table for symbol over the named
// range ("1mo", "1y", ...). The table may carry composite columns when
// the upstream batched several symbols into one response.
func (c *MarketDataClient) History(ctx context.Context, symbol, period string) (models.RawTable, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("range", period)

	var table models.RawTable
	if err := c.http.getJSON(ctx, "/v1/history?"+q.Encode(), &table); err != nil {
		return models.RawTable{}, err
	}
	return table, nil
}

// Quote fetches the latest price for symbol.
func (c *MarketDataClient) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var quote models.Quote
	if err := c.http.getJSON(ctx, "/v1/quote?"+q.Encode(), &quote); err != nil {
		return models.Quote{}, err
	}
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}
	return quote, nil
}

type lookupResponse struct {
	Symbol   string `json:"symbol"`
	Tradable bool   `json:"tradable"`
}

// IsTradable reports whether symbol resolves to a real instrument. A 404
// from the provider means "no such symbol", not a fetch failure.
func (c *MarketDataClient) IsTradable(ctx context.Context, symbol string) (bool, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var resp lookupResponse
	err := c.http.getJSON(ctx, "/v1/lookup?"+q.Encode(), &resp)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return resp.Tradable, nil
}
