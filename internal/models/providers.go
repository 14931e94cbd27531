package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundMatch is one mutual-fund search result.
type FundMatch struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Article is one news item.
type Article struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
}

// Fact is one labeled numeric company fact from a filings provider,
// keyed by concept name and reporting period.
type Fact struct {
	Concept string          `json:"concept"`
	Period  string          `json:"period"`
	Value   decimal.Decimal `json:"value"`
	Unit    string          `json:"unit,omitempty"`
}

// Filing is one regulatory filing reference.
type Filing struct {
	FormType   string    `json:"form_type"`
	FilingDate time.Time `json:"filing_date"`
	ReportDate time.Time `json:"report_date,omitempty"`
	URL        string    `json:"url"`
}

// EconObservation is one observation of an economic data series.
type EconObservation struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}
