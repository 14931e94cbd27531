package providers

import (
	"context"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/config"
	"github.com/finsightlab/finsight-go/internal/models"
)

// EconClient fetches observations of published economic data series
// (CPI, unemployment rate, policy rates and the like).
type EconClient struct {
	http *httpClient
}

// NewEconClient creates an economic-data client from config.
func NewEconClient(cfg config.ProviderConfig, logger *logrus.Logger) *EconClient {
	return &EconClient{http: newHTTPClient("econ", cfg, logger)}
}

type econResponse struct {
	Observations []econObservation `json:"observations"`
}

type econObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// Series returns the observations of seriesID from start onward, oldest
// first. Placeholder values the provider publishes for missing periods
// ("." in the wire format) are dropped.
func (c *EconClient) Series(ctx context.Context, seriesID string, start time.Time) ([]models.EconObservation, error) {
	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", c.http.apiKey)
	q.Set("file_type", "json")
	if !start.IsZero() {
		q.Set("observation_start", start.Format("2006-01-02"))
	}

	var resp econResponse
	if err := c.http.getJSON(ctx, "/fred/series/observations?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	obs := make([]models.EconObservation, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		if o.Value == "." || o.Value == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			continue
		}
		value, err := decimal.NewFromString(o.Value)
		if err != nil {
			continue
		}
		obs = append(obs, models.EconObservation{Date: date, Value: value})
	}
	return obs, nil
}
