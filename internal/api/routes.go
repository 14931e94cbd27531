// Package api wires the HTTP routes of the dashboard service.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/finsightlab/finsight-go/internal/api/handlers"
	"github.com/finsightlab/finsight-go/internal/middleware"
)

// Handlers groups the endpoint implementations the router mounts.
type Handlers struct {
	Health    *handlers.HealthHandler
	Users     *handlers.UserHandler
	Portfolio *handlers.PortfolioHandler
	Watchlist *handlers.WatchlistHandler
	Market    *handlers.MarketHandler
	Research  *handlers.ResearchHandler
	Advisor   *handlers.AdvisorHandler
}

// SetupRoutes mounts all endpoints. Everything under /api/v1 except user
// registration and login requires a bearer token.
func SetupRoutes(router *gin.Engine, h Handlers, auth *middleware.AuthMiddleware) {
	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")

	users := v1.Group("/users")
	{
		users.POST("/register", h.Users.Register)
		users.POST("/login", h.Users.Login)
	}

	authed := v1.Group("")
	authed.Use(auth.RequireAuth())
	{
		portfolio := authed.Group("/portfolio")
		{
			portfolio.GET("", h.Portfolio.Snapshot)
			portfolio.POST("/positions", h.Portfolio.Acquire)
			portfolio.POST("/disposals", h.Portfolio.Dispose)
			portfolio.DELETE("/positions/:symbol", h.Portfolio.Remove)
		}

		watchlist := authed.Group("/watchlist")
		{
			watchlist.GET("", h.Watchlist.List)
			watchlist.POST("", h.Watchlist.Add)
			watchlist.DELETE("/:symbol", h.Watchlist.Remove)
		}

		market := authed.Group("/market")
		{
			market.GET("/quote/:symbol", h.Market.Quote)
			market.GET("/history/:symbol", h.Market.History)
			market.GET("/trends", h.Market.Trends)
		}

		authed.GET("/funds/search", h.Research.SearchFunds)
		authed.GET("/news", h.Research.News)
		authed.GET("/econ/:series", h.Research.EconSeries)

		filings := authed.Group("/filings")
		{
			filings.GET("/:cik", h.Research.Filings)
			filings.GET("/:cik/facts", h.Research.Facts)
		}

		advisor := authed.Group("/advisor")
		{
			advisor.GET("/summary", h.Advisor.Summary)
			advisor.POST("/ask", h.Advisor.Ask)
		}
		authed.GET("/report", h.Advisor.Report)
	}
}
