package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsightlab/finsight-go/internal/models"
	"github.com/finsightlab/finsight-go/internal/services"
)

func portfolioRouter(sessions *services.SessionManager, market *fakeMarket) *gin.Engine {
	h := NewPortfolioHandler(sessions, nil, NewPriceFetcher(market, nil, time.Minute, testLogger()), testLogger())
	router := gin.New()
	group := router.Group("/portfolio", asUser(testUserID))
	group.GET("", h.Snapshot)
	group.POST("/positions", h.Acquire)
	group.POST("/disposals", h.Dispose)
	group.DELETE("/positions/:symbol", h.Remove)
	return router
}

func TestPortfolio_AcquireMergesAtWeightedAverage(t *testing.T) {
	sessions := newSessionManager()
	router := portfolioRouter(sessions, newFakeMarket())

	w := doJSON(router, http.MethodPost, "/portfolio/positions", `{"symbol": "AAPL", "quantity": "10", "price": "100"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, http.MethodPost, "/portfolio/positions", `{"symbol": "AAPL", "quantity": "10", "price": "200"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var holding models.Holding
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &holding))
	assert.Equal(t, "20", holding.Quantity.String())
	assert.Equal(t, "150", holding.AverageCost.String())
}

func TestPortfolio_AcquireRejectsNonPositive(t *testing.T) {
	router := portfolioRouter(newSessionManager(), newFakeMarket())

	w := doJSON(router, http.MethodPost, "/portfolio/positions", `{"symbol": "AAPL", "quantity": "-5", "price": "100"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPortfolio_DisposeOverHeldQuantity(t *testing.T) {
	router := portfolioRouter(newSessionManager(), newFakeMarket())

	doJSON(router, http.MethodPost, "/portfolio/positions", `{"symbol": "AAPL", "quantity": "5", "price": "100"}`)
	w := doJSON(router, http.MethodPost, "/portfolio/disposals", `{"symbol": "AAPL", "quantity": "6"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPortfolio_SnapshotLeavesUnpricedSymbolOut(t *testing.T) {
	sessions := newSessionManager()
	market := newFakeMarket()
	market.quotes["AAPL"] = decimal.RequireFromString("150")
	router := portfolioRouter(sessions, market)

	doJSON(router, http.MethodPost, "/portfolio/positions", `{"symbol": "AAPL", "quantity": "4", "price": "125"}`)
	doJSON(router, http.MethodPost, "/portfolio/positions", `{"symbol": "XXXX", "quantity": "2", "price": "50"}`)

	w := doJSON(router, http.MethodGet, "/portfolio", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot models.PortfolioSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	// Only AAPL is priced: 4 * 150 against a 500 cost basis.
	assert.Equal(t, "600", snapshot.TotalValue.String())
	assert.Equal(t, "100", snapshot.TotalGainLoss.String())
	assert.Equal(t, []string{"XXXX"}, snapshot.UnpricedSymbols)
}

func TestPortfolio_SnapshotCachesQuotes(t *testing.T) {
	sessions := newSessionManager()
	market := newFakeMarket()
	market.quotes["AAPL"] = decimal.RequireFromString("150")
	router := portfolioRouter(sessions, market)

	doJSON(router, http.MethodPost, "/portfolio/positions", `{"symbol": "AAPL", "quantity": "1", "price": "100"}`)
	doJSON(router, http.MethodGet, "/portfolio", "")
	doJSON(router, http.MethodGet, "/portfolio", "")

	market.mu.Lock()
	defer market.mu.Unlock()
	assert.Equal(t, 1, market.quoteCalls)
}

func TestPortfolio_RemoveThenSnapshotIsEmpty(t *testing.T) {
	sessions := newSessionManager()
	router := portfolioRouter(sessions, newFakeMarket())

	doJSON(router, http.MethodPost, "/portfolio/positions", `{"symbol": "AAPL", "quantity": "1", "price": "100"}`)
	w := doJSON(router, http.MethodDelete, "/portfolio/positions/AAPL", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, "/portfolio", "")
	var snapshot models.PortfolioSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Empty(t, snapshot.Positions)
}
