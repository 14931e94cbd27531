package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawColumn identifies one column of a provider table. Field is the flat
// column name ("close", "volume"). Symbol is non-empty when the provider
// emitted composite (field, symbol) column pairs, which happens on
// batched multi-symbol requests.
type RawColumn struct {
	Field  string `json:"field"`
	Symbol string `json:"symbol,omitempty"`
}

// RawRow is one unvalidated provider row. Cells align positionally with
// the table's Columns and hold whatever the wire decoder produced:
// numbers, strings, or nil.
type RawRow struct {
	Date  string        `json:"date"`
	Cells []interface{} `json:"cells"`
}

// RawTable is the heterogeneous tabular shape returned by market-data
// style providers before normalization. Nothing in it is trusted.
type RawTable struct {
	Columns []RawColumn `json:"columns"`
	Rows    []RawRow    `json:"rows"`
}

// SeriesPoint is one cleaned observation of a daily time series. Close is
// always present: rows without a usable close are dropped during
// normalization, never zero-filled. The remaining fields are nil when the
// provider omitted them or the value failed numeric coercion.
type SeriesPoint struct {
	Date   time.Time        `json:"date"`
	Open   *decimal.Decimal `json:"open,omitempty"`
	High   *decimal.Decimal `json:"high,omitempty"`
	Low    *decimal.Decimal `json:"low,omitempty"`
	Close  decimal.Decimal  `json:"close"`
	Volume *decimal.Decimal `json:"volume,omitempty"`
}

// Quote is the latest price for a single symbol.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// SeriesAnalytics summarizes a normalized series for the market-trends
// view: last close, absolute and percentage change over the window, and
// standard indicator readouts.
type SeriesAnalytics struct {
	Symbol      string           `json:"symbol"`
	Points      int              `json:"points"`
	FirstClose  decimal.Decimal  `json:"first_close"`
	LastClose   decimal.Decimal  `json:"last_close"`
	Change      decimal.Decimal  `json:"change"`
	ChangePct   *decimal.Decimal `json:"change_pct,omitempty"`
	SMA         *decimal.Decimal `json:"sma,omitempty"`
	RSI         *decimal.Decimal `json:"rsi,omitempty"`
	WindowStart time.Time        `json:"window_start"`
	WindowEnd   time.Time        `json:"window_end"`
}
