package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/middleware"
	"github.com/finsightlab/finsight-go/internal/models"
	"github.com/finsightlab/finsight-go/internal/services"
)

// Summarizer is the advisor surface the handler consumes.
type Summarizer interface {
	Summarize(ctx context.Context, sections []models.ReportSection, snapshot *models.PortfolioSnapshot) (string, error)
	Ask(ctx context.Context, question string, sections []models.ReportSection, snapshot *models.PortfolioSnapshot) (string, error)
}

// AdvisorHandler serves the natural-language briefing endpoints.
type AdvisorHandler struct {
	sessions *services.SessionManager
	advisor  Summarizer
	pricer   *PriceFetcher
	logger   *logrus.Entry
}

// NewAdvisorHandler creates an advisor handler. advisor may be nil when
// no model is configured; pricer may be nil when no market data source
// is wired, in which case prompts carry sections only.
func NewAdvisorHandler(sessions *services.SessionManager, advisor Summarizer, pricer *PriceFetcher, logger *logrus.Logger) *AdvisorHandler {
	return &AdvisorHandler{
		sessions: sessions,
		advisor:  advisor,
		pricer:   pricer,
		logger:   logger.WithField("component", "advisor_handler"),
	}
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// Summary produces a briefing over the session's report sections.
func (h *AdvisorHandler) Summary(c *gin.Context) {
	session, ok := h.openSession(c)
	if !ok {
		return
	}
	if h.advisor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advisor not configured"})
		return
	}

	summary, err := h.advisor.Summarize(c.Request.Context(), session.Report.Snapshot(), h.portfolioSnapshot(c.Request.Context(), session))
	if err != nil {
		h.logger.WithError(err).Error("Summary generation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "advisor unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// Ask answers a question grounded on the session's report sections.
func (h *AdvisorHandler) Ask(c *gin.Context) {
	session, ok := h.openSession(c)
	if !ok {
		return
	}
	if h.advisor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advisor not configured"})
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.advisor.Ask(c.Request.Context(), req.Question, session.Report.Snapshot(), h.portfolioSnapshot(c.Request.Context(), session))
	if err != nil {
		h.logger.WithError(err).Error("Advisor question failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "advisor unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// Report exposes the raw section snapshot for debugging the dashboard.
func (h *AdvisorHandler) Report(c *gin.Context) {
	session, ok := h.openSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": session.Report.Snapshot()})
}

// portfolioSnapshot values the ledger so prompts see current holdings.
// Nil when there is nothing to value, so the prompt skips the portfolio
// block instead of rendering empty totals.
func (h *AdvisorHandler) portfolioSnapshot(ctx context.Context, session *services.SessionContext) *models.PortfolioSnapshot {
	if h.pricer == nil || len(session.Ledger.Symbols()) == 0 {
		return nil
	}
	snapshot := h.pricer.Snapshot(ctx, session)
	return &snapshot
}

func (h *AdvisorHandler) openSession(c *gin.Context) (*services.SessionContext, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil, false
	}
	session, err := h.sessions.Get(userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to open session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}
	return session, true
}
