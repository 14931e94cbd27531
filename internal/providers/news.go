package providers

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/config"
	"github.com/finsightlab/finsight-go/internal/models"
)

// NewsClient fetches recent headlines for a search phrase.
type NewsClient struct {
	http *httpClient
}

// NewNewsClient creates a news client from config.
func NewNewsClient(cfg config.ProviderConfig, logger *logrus.Logger) *NewsClient {
	return &NewsClient{http: newHTTPClient("news", cfg, logger)}
}

type newsResponse struct {
	Status   string        `json:"status"`
	Articles []newsArticle `json:"articles"`
}

type newsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// Headlines returns up to limit articles matching query, newest first per
// the provider's own sort.
func (c *NewsClient) Headlines(ctx context.Context, query string, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(limit))
	q.Set("apiKey", c.http.apiKey)

	var resp newsResponse
	if err := c.http.getJSON(ctx, "/v2/everything?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	articles := make([]models.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		published, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			c.http.logger.WithField("published_at", a.PublishedAt).Debug("Skipping article with unparseable timestamp")
			continue
		}
		articles = append(articles, models.Article{
			Title:       a.Title,
			Source:      a.Source.Name,
			PublishedAt: published,
			Description: a.Description,
			URL:         a.URL,
		})
	}
	return articles, nil
}
