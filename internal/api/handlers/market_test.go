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

func marketRouter(sessions *services.SessionManager, market *fakeMarket) *gin.Engine {
	h := NewMarketHandler(sessions, market, time.Minute, time.Minute, testLogger())
	router := gin.New()
	group := router.Group("/market", asUser(testUserID))
	group.GET("/quote/:symbol", h.Quote)
	group.GET("/history/:symbol", h.History)
	group.GET("/trends", h.Trends)
	return router
}

func TestMarket_HistoryReturnsNormalizedSeries(t *testing.T) {
	market := newFakeMarket()
	market.histories["AAPL"] = models.RawTable{
		Columns: []models.RawColumn{{Field: "close", Symbol: "AAPL"}},
		Rows: []models.RawRow{
			{Date: "2026-01-02", Cells: []interface{}{187.25}},
			{Date: "2026-01-01", Cells: []interface{}{nil}},
			{Date: "2026-01-05", Cells: []interface{}{190.10}},
		},
	}
	router := marketRouter(newSessionManager(), market)

	w := doJSON(router, http.MethodGet, "/market/history/AAPL", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Points []models.SeriesPoint `json:"points"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// The row without a close is dropped and the rest come back sorted.
	require.Len(t, resp.Points, 2)
	assert.True(t, resp.Points[0].Date.Before(resp.Points[1].Date))
	assert.Equal(t, "190.1", resp.Points[1].Close.String())
}

func TestMarket_QuoteCachedPerSession(t *testing.T) {
	market := newFakeMarket()
	market.quotes["AAPL"] = decimal.RequireFromString("187.25")
	router := marketRouter(newSessionManager(), market)

	w := doJSON(router, http.MethodGet, "/market/quote/AAPL", "")
	require.Equal(t, http.StatusOK, w.Code)
	doJSON(router, http.MethodGet, "/market/quote/AAPL", "")

	var quote models.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.Equal(t, "187.25", quote.Price.String())

	market.mu.Lock()
	defer market.mu.Unlock()
	assert.Equal(t, 1, market.quoteCalls)
}

func TestMarket_HistoryProviderFailure(t *testing.T) {
	router := marketRouter(newSessionManager(), newFakeMarket())

	w := doJSON(router, http.MethodGet, "/market/history/AAPL", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestMarket_TrendsRecordsReportSection(t *testing.T) {
	sessions := newSessionManager()
	market := newFakeMarket()
	market.histories["AAPL"] = closesTable("AAPL", 100, 102, 104, 106, 108)
	router := marketRouter(sessions, market)

	w := doJSON(router, http.MethodGet, "/market/trends?symbol=AAPL", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Trends []models.SeriesAnalytics `json:"trends"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trends, 1)
	assert.Equal(t, "8", resp.Trends[0].Change.String())
	// Too short for SMA(20): the indicator is absent, not zero.
	assert.Nil(t, resp.Trends[0].SMA)

	session, err := sessions.Get(testUserID)
	require.NoError(t, err)
	section, ok := session.Report.Get("market_trends")
	require.True(t, ok)
	assert.Equal(t, models.StatusOk, section.Status)
}

func TestMarket_TrendsAllFailuresDegradeSection(t *testing.T) {
	sessions := newSessionManager()
	router := marketRouter(sessions, newFakeMarket())

	w := doJSON(router, http.MethodGet, "/market/trends?symbol=AAPL", "")
	require.Equal(t, http.StatusOK, w.Code)

	session, err := sessions.Get(testUserID)
	require.NoError(t, err)
	section, ok := session.Report.Get("market_trends")
	require.True(t, ok)
	assert.Equal(t, models.StatusFailed, section.Status)
	assert.NotEmpty(t, section.Reason)
}

func TestMarket_TrendsEmptyWatchlistIsEmptySection(t *testing.T) {
	sessions := newSessionManager()
	router := marketRouter(sessions, newFakeMarket())

	w := doJSON(router, http.MethodGet, "/market/trends", "")
	require.Equal(t, http.StatusOK, w.Code)

	session, err := sessions.Get(testUserID)
	require.NoError(t, err)
	section, ok := session.Report.Get("market_trends")
	require.True(t, ok)
	assert.Equal(t, models.StatusEmpty, section.Status)
}
