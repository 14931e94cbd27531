// Package handlers implements the HTTP endpoints of the dashboard API.
// Handlers stay thin: they bind input, pick the caller's session, call
// into the services, and translate domain errors to status codes.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finsightlab/finsight-go/internal/models"
	"github.com/finsightlab/finsight-go/internal/utils"
)

// MarketDataProvider is the slice of the market-data client the handlers
// consume. Tests substitute canned implementations.
type MarketDataProvider interface {
	History(ctx context.Context, symbol, period string) (models.RawTable, error)
	Quote(ctx context.Context, symbol string) (models.Quote, error)
}

// FundSearcher searches the mutual-fund registry.
type FundSearcher interface {
	Search(ctx context.Context, query string) ([]models.FundMatch, error)
}

// NewsProvider fetches recent headlines.
type NewsProvider interface {
	Headlines(ctx context.Context, query string, limit int) ([]models.Article, error)
}

// EconProvider fetches economic series observations.
type EconProvider interface {
	Series(ctx context.Context, seriesID string, start time.Time) ([]models.EconObservation, error)
}

// FilingsProvider fetches company facts and filing references.
type FilingsProvider interface {
	Facts(ctx context.Context, cik string, concepts []string) ([]models.Fact, error)
	RecentFilings(ctx context.Context, cik string, forms []string, limit int) ([]models.Filing, error)
}

// QuoteCache is the cross-session quote store backed by Redis. Get misses
// are not errors; Set failures are logged inside the cache, not surfaced.
type QuoteCache interface {
	Get(ctx context.Context, symbol string) (*models.Quote, bool)
	Set(ctx context.Context, quote models.Quote)
}

// respondError maps domain errors onto HTTP statuses. Validation errors
// are the caller's fault, provider failures are upstream's, everything
// else is ours.
func respondError(c *gin.Context, err error) {
	var (
		acquisitionErr *utils.InvalidAcquisitionError
		disposalErr    *utils.InvalidDisposalError
		symbolErr      *utils.InvalidSymbolError
		normErr        *utils.NormalizationError
		fetchErr       *utils.FetchError
	)
	switch {
	case errors.As(err, &acquisitionErr), errors.As(err, &disposalErr), errors.As(err, &symbolErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &normErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
