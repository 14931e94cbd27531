// Package providers holds the HTTP clients for the external data sources
// the dashboard pulls from: daily market data, mutual-fund search, news,
// economic series, and regulatory filings. Every client wraps transport
// and decode failures in a FetchError naming the provider so callers can
// degrade the affected report section without parsing message strings.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/config"
	"github.com/finsightlab/finsight-go/internal/utils"
)

const userAgent = "FinSight-Go/1.0"

// httpClient is the transport shared by all provider clients.
type httpClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	name    string
	logger  *logrus.Entry
}

func newHTTPClient(name string, cfg config.ProviderConfig, logger *logrus.Logger) *httpClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		name:    name,
		logger:  logger.WithField("provider", name),
	}
}

// getJSON performs a GET against path (already query-encoded) and decodes
// the response body into result. Any failure, including a non-2xx status,
// comes back as a *utils.FetchError for this provider.
func (c *httpClient) getJSON(ctx context.Context, path string, result interface{}) error {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return utils.NewFetchError(c.name, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return utils.NewFetchError(c.name, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WithError(err).Warn("Error closing response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return utils.NewFetchError(c.name, fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode >= 400 {
		return utils.NewFetchError(c.name, &statusError{Code: resp.StatusCode, Body: truncateBody(body)})
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return utils.NewFetchError(c.name, fmt.Errorf("decoding response: %w", err))
		}
	}
	return nil
}

// statusError preserves the upstream HTTP status so callers can treat
// "not found" differently from outages.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func truncateBody(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
