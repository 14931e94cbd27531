package providers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/config"
	"github.com/finsightlab/finsight-go/internal/models"
)

// FundsClient searches the mutual-fund registry by scheme name.
type FundsClient struct {
	http *httpClient
}

// NewFundsClient creates a fund-search client from config.
func NewFundsClient(cfg config.ProviderConfig, logger *logrus.Logger) *FundsClient {
	return &FundsClient{http: newHTTPClient("funds", cfg, logger)}
}

type fundScheme struct {
	SchemeCode int    `json:"schemeCode"`
	SchemeName string `json:"schemeName"`
}

// Search returns the schemes whose names match query. An empty result is
// a valid answer, not an error.
func (c *FundsClient) Search(ctx context.Context, query string) ([]models.FundMatch, error) {
	q := url.Values{}
	q.Set("q", query)

	var schemes []fundScheme
	if err := c.http.getJSON(ctx, "/mf/search?"+q.Encode(), &schemes); err != nil {
		return nil, err
	}

	matches := make([]models.FundMatch, 0, len(schemes))
	for _, s := range schemes {
		matches = append(matches, models.FundMatch{
			Name: s.SchemeName,
			Code: strconv.Itoa(s.SchemeCode),
		})
	}
	return matches, nil
}
