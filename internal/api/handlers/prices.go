package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/finsightlab/finsight-go/internal/cache"
	"github.com/finsightlab/finsight-go/internal/models"
	"github.com/finsightlab/finsight-go/internal/services"
)

// maxQuoteFanout bounds concurrent quote fetches during valuation.
const maxQuoteFanout = 4

// PriceFetcher resolves current prices for ledger symbols. It is shared
// by every handler that needs a valued portfolio so they all go through
// the same quote caches.
type PriceFetcher struct {
	market   MarketDataProvider
	quotes   QuoteCache
	quoteTTL time.Duration
	logger   *logrus.Entry
}

// NewPriceFetcher creates a price fetcher. quotes may be nil when Redis
// is disabled.
func NewPriceFetcher(market MarketDataProvider, quotes QuoteCache, quoteTTL time.Duration, logger *logrus.Logger) *PriceFetcher {
	return &PriceFetcher{
		market:   market,
		quotes:   quotes,
		quoteTTL: quoteTTL,
		logger:   logger.WithField("component", "price_fetcher"),
	}
}

// Snapshot values the session's whole ledger at current prices. Symbols
// whose quotes cannot be fetched stay unpriced rather than failing the
// valuation.
func (f *PriceFetcher) Snapshot(ctx context.Context, session *services.SessionContext) models.PortfolioSnapshot {
	prices := f.Prices(ctx, session, session.Ledger.Symbols())
	return session.Ledger.ValueAll(prices)
}

// Prices resolves current prices for symbols with bounded fan-out.
// Resolution order: Redis quote cache, then the session fetch cache in
// front of the market-data provider.
func (f *PriceFetcher) Prices(ctx context.Context, session *services.SessionContext, symbols []string) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxQuoteFanout)
	for _, symbol := range symbols {
		g.Go(func() error {
			quote, err := f.resolveQuote(gctx, session, symbol)
			if err != nil {
				f.logger.WithError(err).WithField("symbol", symbol).Warn("Quote unavailable, leaving position unpriced")
				return nil
			}
			mu.Lock()
			prices[symbol] = quote.Price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return prices
}

func (f *PriceFetcher) resolveQuote(ctx context.Context, session *services.SessionContext, symbol string) (models.Quote, error) {
	if f.quotes != nil {
		if quote, ok := f.quotes.Get(ctx, symbol); ok {
			return *quote, nil
		}
	}

	key := cache.Key("quote", map[string]string{"symbol": symbol})
	v, err := session.Cache.GetOrFetch(ctx, key, f.quoteTTL, func(ctx context.Context) (interface{}, error) {
		quote, err := f.market.Quote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if f.quotes != nil {
			f.quotes.Set(ctx, quote)
		}
		return quote, nil
	})
	if err != nil {
		return models.Quote{}, err
	}
	return v.(models.Quote), nil
}
