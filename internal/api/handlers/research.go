package handlers

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/cache"
	"github.com/finsightlab/finsight-go/internal/middleware"
	"github.com/finsightlab/finsight-go/internal/models"
	"github.com/finsightlab/finsight-go/internal/services"
)

// ResearchHandler serves the auxiliary data sources of the dashboard:
// fund search, news, economic series, and filings. Each endpoint records
// its outcome as a report section so the advisor sees what loaded, what
// was empty, and what failed.
type ResearchHandler struct {
	sessions   *services.SessionManager
	funds      FundSearcher
	news       NewsProvider
	econ       EconProvider
	filings    FilingsProvider
	newsTTL    time.Duration
	filingsTTL time.Duration
	logger     *logrus.Entry
}

// NewResearchHandler creates a research handler. Any provider may be nil
// when its upstream is not configured; the matching endpoints then report
// the section as failed.
func NewResearchHandler(sessions *services.SessionManager, funds FundSearcher, news NewsProvider, econ EconProvider, filings FilingsProvider, newsTTL, filingsTTL time.Duration, logger *logrus.Logger) *ResearchHandler {
	return &ResearchHandler{
		sessions:   sessions,
		funds:      funds,
		news:       news,
		econ:       econ,
		filings:    filings,
		newsTTL:    newsTTL,
		filingsTTL: filingsTTL,
		logger:     logger.WithField("component", "research_handler"),
	}
}

func (h *ResearchHandler) session(c *gin.Context) (*services.SessionContext, string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil, "", false
	}
	session, err := h.sessions.Get(userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to open session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, "", false
	}
	return session, userID, true
}

// SearchFunds searches the fund registry by name fragment.
func (h *ResearchHandler) SearchFunds(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	if h.funds == nil {
		session.Report.Put(models.FailedSection("funds", "fund search not configured"))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "fund search not configured"})
		return
	}

	matches, err := h.funds.Search(c.Request.Context(), query)
	if err != nil {
		session.Report.Put(models.FailedSection("funds", err.Error()))
		respondError(c, err)
		return
	}

	if len(matches) == 0 {
		session.Report.Put(models.EmptySection("funds"))
	} else {
		session.Report.Put(models.OkSection("funds", map[string]interface{}{
			"query": query, "matches": matches,
		}))
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "matches": matches})
}

// News returns recent headlines for a query, cached per session.
func (h *ResearchHandler) News(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if h.news == nil {
		session.Report.Put(models.FailedSection("news", "news provider not configured"))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "news provider not configured"})
		return
	}

	key := cache.Key("news", map[string]string{"q": query, "limit": strconv.Itoa(limit)})
	v, err := session.Cache.GetOrFetch(c.Request.Context(), key, h.newsTTL, func(ctx context.Context) (interface{}, error) {
		return h.news.Headlines(ctx, query, limit)
	})
	if err != nil {
		session.Report.Put(models.FailedSection("news", err.Error()))
		respondError(c, err)
		return
	}
	articles := v.([]models.Article)

	if len(articles) == 0 {
		session.Report.Put(models.EmptySection("news"))
	} else {
		session.Report.Put(models.OkSection("news", map[string]interface{}{
			"query": query, "articles": headlineTitles(articles),
		}))
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "articles": articles})
}

// EconSeries returns observations of an economic series.
func (h *ResearchHandler) EconSeries(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}
	seriesID := c.Param("series")
	if h.econ == nil {
		session.Report.Put(models.FailedSection("economy", "economic data provider not configured"))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "economic data provider not configured"})
		return
	}

	var start time.Time
	if s := c.Query("start"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
			return
		}
		start = parsed
	}

	obs, err := h.econ.Series(c.Request.Context(), seriesID, start)
	if err != nil {
		session.Report.Put(models.FailedSection("economy", err.Error()))
		respondError(c, err)
		return
	}

	if len(obs) == 0 {
		session.Report.Put(models.EmptySection("economy"))
	} else {
		latest := obs[len(obs)-1]
		session.Report.Put(models.OkSection("economy", map[string]interface{}{
			"series": seriesID,
			"latest": latest.Value.String(),
			"as_of":  latest.Date.Format("2006-01-02"),
		}))
	}
	c.JSON(http.StatusOK, gin.H{"series": seriesID, "observations": obs})
}

// Filings returns a company's recent filings and headline facts, cached
// per session. Filings churn slowly, so the TTL is long.
func (h *ResearchHandler) Filings(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}
	cik := c.Param("cik")
	if h.filings == nil {
		session.Report.Put(models.FailedSection("filings", "filings provider not configured"))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "filings provider not configured"})
		return
	}

	// The form filter is part of the logical request: different filters
	// must never share a cache entry.
	forms := append([]string(nil), c.QueryArray("form")...)
	sort.Strings(forms)
	key := cache.Key("filings", map[string]string{"cik": cik, "forms": strings.Join(forms, ",")})
	v, err := session.Cache.GetOrFetch(c.Request.Context(), key, h.filingsTTL, func(ctx context.Context) (interface{}, error) {
		return h.filings.RecentFilings(ctx, cik, forms, 20)
	})
	if err != nil {
		session.Report.Put(models.FailedSection("filings", err.Error()))
		respondError(c, err)
		return
	}
	filings := v.([]models.Filing)

	if len(filings) == 0 {
		session.Report.Put(models.EmptySection("filings"))
	} else {
		session.Report.Put(models.OkSection("filings", map[string]interface{}{
			"cik":    cik,
			"count":  len(filings),
			"latest": filings[0].FormType + " filed " + filings[0].FilingDate.Format("2006-01-02"),
		}))
	}
	c.JSON(http.StatusOK, gin.H{"cik": cik, "filings": filings})
}

// Facts returns the latest annual values of the requested concepts.
func (h *ResearchHandler) Facts(c *gin.Context) {
	session, _, ok := h.session(c)
	if !ok {
		return
	}
	cik := c.Param("cik")
	if h.filings == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "filings provider not configured"})
		return
	}

	concepts := c.QueryArray("concept")
	if len(concepts) == 0 {
		concepts = []string{"Revenues", "NetIncomeLoss", "Assets", "Liabilities"}
	}

	facts, err := h.filings.Facts(c.Request.Context(), cik, concepts)
	if err != nil {
		session.Report.Put(models.FailedSection("company_facts", err.Error()))
		respondError(c, err)
		return
	}

	if len(facts) == 0 {
		session.Report.Put(models.EmptySection("company_facts"))
	} else {
		payload := make(map[string]interface{}, len(facts))
		for _, f := range facts {
			payload[f.Concept] = f.Value.String() + " " + f.Unit
		}
		session.Report.Put(models.OkSection("company_facts", payload))
	}
	c.JSON(http.StatusOK, gin.H{"cik": cik, "facts": facts})
}

func headlineTitles(articles []models.Article) []string {
	titles := make([]string, 0, len(articles))
	for _, a := range articles {
		titles = append(titles, a.Title)
	}
	return titles
}
