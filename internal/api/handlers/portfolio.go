package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/middleware"
	"github.com/finsightlab/finsight-go/internal/models"
	"github.com/finsightlab/finsight-go/internal/services"
)

// HoldingStore persists ledger changes across sessions.
type HoldingStore interface {
	Upsert(ctx context.Context, ownerID string, h models.Holding) error
	Delete(ctx context.Context, ownerID, symbol string) error
}

// PortfolioHandler serves the position ledger endpoints.
type PortfolioHandler struct {
	sessions *services.SessionManager
	store    HoldingStore
	pricer   *PriceFetcher
	logger   *logrus.Entry
}

// NewPortfolioHandler creates a portfolio handler. store may be nil for
// session-only operation.
func NewPortfolioHandler(sessions *services.SessionManager, store HoldingStore, pricer *PriceFetcher, logger *logrus.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		sessions: sessions,
		store:    store,
		pricer:   pricer,
		logger:   logger.WithField("component", "portfolio_handler"),
	}
}

type AcquisitionRequest struct {
	Symbol   string          `json:"symbol" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Price    decimal.Decimal `json:"price" binding:"required"`
}

type DisposalRequest struct {
	Symbol   string          `json:"symbol" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// Acquire records a buy and persists the merged holding.
func (h *PortfolioHandler) Acquire(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	var req AcquisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.Get(userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to open session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	holding, err := session.Ledger.RecordAcquisition(req.Symbol, req.Quantity, req.Price)
	if err != nil {
		respondError(c, err)
		return
	}
	h.persistHolding(c.Request.Context(), userID, holding)
	c.JSON(http.StatusOK, holding)
}

// Dispose records a sell at the position's fixed average cost.
func (h *PortfolioHandler) Dispose(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	var req DisposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.Get(userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to open session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	holding, err := session.Ledger.RecordDisposal(req.Symbol, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	if holding.Quantity.IsZero() {
		h.deleteHolding(c.Request.Context(), userID, holding.Symbol)
	} else {
		h.persistHolding(c.Request.Context(), userID, holding)
	}
	c.JSON(http.StatusOK, holding)
}

// Remove drops a position entirely.
func (h *PortfolioHandler) Remove(c *gin.Context) {
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

	session.Ledger.Remove(symbol)
	h.deleteHolding(c.Request.Context(), userID, symbol)
	c.Status(http.StatusNoContent)
}

// Snapshot values the whole portfolio at current prices. Symbols whose
// quotes cannot be fetched are reported as unpriced rather than failing
// the valuation.
func (h *PortfolioHandler) Snapshot(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	session, err := h.sessions.Get(userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to open session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	snapshot := h.pricer.Snapshot(c.Request.Context(), session)

	section := models.OkSection("portfolio", map[string]interface{}{
		"total_value":      snapshot.TotalValue.String(),
		"total_gain_loss":  snapshot.TotalGainLoss.String(),
		"positions":        len(snapshot.Positions),
		"unpriced_symbols": snapshot.UnpricedSymbols,
	})
	if len(snapshot.Positions) == 0 {
		section = models.EmptySection("portfolio")
	}
	session.Report.Put(section)

	c.JSON(http.StatusOK, snapshot)
}

func (h *PortfolioHandler) persistHolding(ctx context.Context, userID string, holding models.Holding) {
	if h.store == nil {
		return
	}
	if err := h.store.Upsert(ctx, userID, holding); err != nil {
		h.logger.WithError(err).WithField("symbol", holding.Symbol).Error("Failed to persist holding")
	}
}

func (h *PortfolioHandler) deleteHolding(ctx context.Context, userID, symbol string) {
	if h.store == nil {
		return
	}
	if err := h.store.Delete(ctx, userID, symbol); err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to delete holding")
	}
}
