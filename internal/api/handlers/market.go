package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/cache"
	"github.com/finsightlab/finsight-go/internal/middleware"
	"github.com/finsightlab/finsight-go/internal/models"
	"github.com/finsightlab/finsight-go/internal/services"
)

const defaultHistoryRange = "1y"

// MarketHandler serves price history, quotes, and the trends view.
type MarketHandler struct {
	sessions   *services.SessionManager
	market     MarketDataProvider
	normalizer *services.SeriesNormalizer
	historyTTL time.Duration
	quoteTTL   time.Duration
	logger     *logrus.Entry
}

// NewMarketHandler creates a market handler.
func NewMarketHandler(sessions *services.SessionManager, market MarketDataProvider, historyTTL, quoteTTL time.Duration, logger *logrus.Logger) *MarketHandler {
	return &MarketHandler{
		sessions:   sessions,
		market:     market,
		normalizer: services.NewSeriesNormalizer(),
		historyTTL: historyTTL,
		quoteTTL:   quoteTTL,
		logger:     logger.WithField("component", "market_handler"),
	}
}

// Quote returns the latest price for a symbol, cached per session.
func (h *MarketHandler) Quote(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	symbol := c.Param("symbol")

	session, err := h.sessions.Get(userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to open session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	key := cache.Key("quote", map[string]string{"symbol": symbol})
	v, err := session.Cache.GetOrFetch(c.Request.Context(), key, h.quoteTTL, func(ctx context.Context) (interface{}, error) {
		return h.market.Quote(ctx, symbol)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v.(models.Quote))
}

// History returns the normalized daily series for a symbol. The raw
// provider response is cached per session; normalization reruns on every
// request since it is pure and cheap.
func (h *MarketHandler) History(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	symbol := c.Param("symbol")
	period := c.DefaultQuery("range", defaultHistoryRange)

	session, err := h.sessions.Get(userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to open session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	points, err := h.normalizedHistory(c, session, symbol, period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "range": period, "points": points})
}

// Trends computes the analytics readout for each requested symbol and
// records the outcome as the market_trends report section. A symbol whose
// fetch fails degrades the section, not the response.
func (h *MarketHandler) Trends(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	period := c.DefaultQuery("range", defaultHistoryRange)

	session, err := h.sessions.Get(userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to open session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	symbols := c.QueryArray("symbol")
	if len(symbols) == 0 {
		// Default to the watchlist when no symbols are given.
		symbols, err = session.Watchlist.List(c.Request.Context(), userID)
		if err != nil {
			h.logger.WithError(err).Error("Failed to list watchlist")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}

	if len(symbols) == 0 {
		session.Report.Put(models.EmptySection("market_trends"))
		c.JSON(http.StatusOK, gin.H{"range": period, "trends": []models.SeriesAnalytics{}})
		return
	}

	trends := make([]models.SeriesAnalytics, 0, len(symbols))
	var failures []string
	payload := make(map[string]interface{}, len(symbols))
	for _, symbol := range symbols {
		points, err := h.normalizedHistory(c, session, symbol, period)
		if err != nil {
			h.logger.WithError(err).WithField("symbol", symbol).Warn("Trend analysis skipped")
			failures = append(failures, fmt.Sprintf("%s: %v", symbol, err))
			continue
		}
		analytics := services.AnalyzeSeries(symbol, points)
		trends = append(trends, analytics)
		payload[symbol] = analytics
	}

	switch {
	case len(trends) == 0 && len(failures) > 0:
		session.Report.Put(models.FailedSection("market_trends", failures[0]))
	case len(trends) == 0:
		session.Report.Put(models.EmptySection("market_trends"))
	default:
		session.Report.Put(models.OkSection("market_trends", payload))
	}

	c.JSON(http.StatusOK, gin.H{"range": period, "trends": trends, "failed": failures})
}

func (h *MarketHandler) normalizedHistory(c *gin.Context, session *services.SessionContext, symbol, period string) ([]models.SeriesPoint, error) {
	key := cache.Key("market-history", map[string]string{"symbol": symbol, "range": period})
	v, err := session.Cache.GetOrFetch(c.Request.Context(), key, h.historyTTL, func(ctx context.Context) (interface{}, error) {
		return h.market.History(ctx, symbol, period)
	})
	if err != nil {
		return nil, err
	}
	return h.normalizer.Normalize(v.(models.RawTable), symbol)
}
