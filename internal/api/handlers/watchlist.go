package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/middleware"
	"github.com/finsightlab/finsight-go/internal/services"
)

// WatchlistHandler serves the tracked-symbol endpoints.
type WatchlistHandler struct {
	sessions *services.SessionManager
	logger   *logrus.Entry
}

// NewWatchlistHandler creates a watchlist handler.
func NewWatchlistHandler(sessions *services.SessionManager, logger *logrus.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		sessions: sessions,
		logger:   logger.WithField("component", "watchlist_handler"),
	}
}

type WatchlistAddRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

// Add tracks a symbol. Adding one already tracked succeeds without
// change.
func (h *WatchlistHandler) Add(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	var req WatchlistAddRequest
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

	if err := session.Watchlist.Add(c.Request.Context(), userID, req.Symbol); err != nil {
		respondError(c, err)
		return
	}
	h.respondList(c, session, userID)
}

// Remove stops tracking a symbol; removing an absent one is a no-op.
func (h *WatchlistHandler) Remove(c *gin.Context) {
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

	if err := session.Watchlist.Remove(c.Request.Context(), userID, c.Param("symbol")); err != nil {
		respondError(c, err)
		return
	}
	h.respondList(c, session, userID)
}

// List returns the tracked symbols, sorted.
func (h *WatchlistHandler) List(c *gin.Context) {
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
	h.respondList(c, session, userID)
}

func (h *WatchlistHandler) respondList(c *gin.Context, session *services.SessionContext, userID string) {
	symbols, err := session.Watchlist.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list watchlist")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbols": symbols})
}
