package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finsightlab/finsight-go/internal/config"
	"github.com/finsightlab/finsight-go/internal/models"
)

// FilingsClient pulls company facts and recent filing references from
// the regulator's public company-data endpoints. Lookups are keyed by
// CIK, the regulator's zero-padded ten-digit company identifier.
type FilingsClient struct {
	http *httpClient
}

// NewFilingsClient creates a filings client from config.
func NewFilingsClient(cfg config.ProviderConfig, logger *logrus.Logger) *FilingsClient {
	return &FilingsClient{http: newHTTPClient("filings", cfg, logger)}
}

type companyFactsResponse struct {
	EntityName string                           `json:"entityName"`
	Facts      map[string]map[string]factDetail `json:"facts"`
}

type factDetail struct {
	Units map[string][]factUnit `json:"units"`
}

type factUnit struct {
	End   string          `json:"end"`
	Value decimal.Decimal `json:"val"`
	Form  string          `json:"form"`
}

// Facts returns the most recent annual value of each requested concept
// for the company identified by cik, ordered as requested. Concepts the
// company never reported are simply absent from the result.
func (c *FilingsClient) Facts(ctx context.Context, cik string, concepts []string) ([]models.Fact, error) {
	var resp companyFactsResponse
	path := fmt.Sprintf("/api/xbrl/companyfacts/CIK%s.json", cik)
	if err := c.http.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	gaap := resp.Facts["us-gaap"]
	facts := make([]models.Fact, 0, len(concepts))
	for _, concept := range concepts {
		detail, ok := gaap[concept]
		if !ok {
			continue
		}
		if fact, ok := latestAnnualFact(concept, detail); ok {
			facts = append(facts, fact)
		}
	}
	return facts, nil
}

func latestAnnualFact(concept string, detail factDetail) (models.Fact, bool) {
	var (
		best     factUnit
		bestUnit string
		found    bool
	)
	for unit, entries := range detail.Units {
		for _, e := range entries {
			if e.Form != "10-K" {
				continue
			}
			if !found || e.End > best.End {
				best, bestUnit, found = e, unit, true
			}
		}
	}
	if !found {
		return models.Fact{}, false
	}
	return models.Fact{
		Concept: concept,
		Period:  best.End,
		Value:   best.Value,
		Unit:    bestUnit,
	}, true
}

type submissionsResponse struct {
	Filings struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	Form            []string `json:"form"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// RecentFilings returns up to limit filings of the given forms for cik,
// newest first. An empty forms slice means all forms.
func (c *FilingsClient) RecentFilings(ctx context.Context, cik string, forms []string, limit int) ([]models.Filing, error) {
	if limit <= 0 {
		limit = 20
	}
	var resp submissionsResponse
	path := fmt.Sprintf("/submissions/CIK%s.json", cik)
	if err := c.http.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(forms))
	for _, f := range forms {
		wanted[f] = true
	}

	recent := resp.Filings.Recent
	filings := make([]models.Filing, 0, limit)
	for i := range recent.Form {
		// The recent block is columnar; a short column means a
		// truncated response and nothing past it is usable.
		if i >= len(recent.FilingDate) || i >= len(recent.AccessionNumber) || i >= len(recent.PrimaryDocument) {
			break
		}
		if len(wanted) > 0 && !wanted[recent.Form[i]] {
			continue
		}
		filed, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			continue
		}
		filing := models.Filing{
			FormType:   recent.Form[i],
			FilingDate: filed,
			URL:        filingURL(cik, recent.AccessionNumber[i], recent.PrimaryDocument[i]),
		}
		if i < len(recent.ReportDate) && recent.ReportDate[i] != "" {
			if reported, err := time.Parse("2006-01-02", recent.ReportDate[i]); err == nil {
				filing.ReportDate = reported
			}
		}
		filings = append(filings, filing)
		if len(filings) == limit {
			break
		}
	}

	sort.SliceStable(filings, func(i, j int) bool {
		return filings[i].FilingDate.After(filings[j].FilingDate)
	})
	return filings, nil
}

func filingURL(cik, accession, document string) string {
	compact := strings.ReplaceAll(accession, "-", "")
	return fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/%s",
		strings.TrimLeft(cik, "0"), compact, document)
}
