package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one portfolio position. Quantity is always positive: a
// holding disposed down to exactly zero is removed, never stored with
// quantity 0. AverageCost is the weighted-average acquisition price per
// unit in the recording currency.
type Holding struct {
	Symbol      string          `json:"symbol" db:"symbol"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost" db:"average_cost"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// CostBasis returns quantity * average cost.
func (h Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AverageCost)
}

// PositionValue is one holding valued against current prices. The pointer
// fields are nil for an unpriced position: a missing market price is
// reported as absent, never as zero, because zero is indistinguishable
// from a legitimate zero price.
type PositionValue struct {
	Symbol       string           `json:"symbol"`
	Quantity     decimal.Decimal  `json:"quantity"`
	AverageCost  decimal.Decimal  `json:"average_cost"`
	CostBasis    decimal.Decimal  `json:"cost_basis"`
	LastPrice    *decimal.Decimal `json:"last_price,omitempty"`
	CurrentValue *decimal.Decimal `json:"current_value,omitempty"`
	GainLoss     *decimal.Decimal `json:"gain_loss,omitempty"`
	GainLossPct  *decimal.Decimal `json:"gain_loss_pct,omitempty"`
}

// Priced reports whether a current market price was available.
func (p PositionValue) Priced() bool {
	return p.LastPrice != nil
}

// PortfolioSnapshot is the valuation of a whole portfolio at one instant.
// TotalValue and the gain/loss figures cover priced positions only;
// TotalCost covers every holding. TotalGainLossPct is nil when the priced
// cost basis is zero.
type PortfolioSnapshot struct {
	Positions        []PositionValue  `json:"positions"`
	UnpricedSymbols  []string         `json:"unpriced_symbols,omitempty"`
	TotalValue       decimal.Decimal  `json:"total_value"`
	TotalCost        decimal.Decimal  `json:"total_cost"`
	PricedCost       decimal.Decimal  `json:"priced_cost"`
	TotalGainLoss    decimal.Decimal  `json:"total_gain_loss"`
	TotalGainLossPct *decimal.Decimal `json:"total_gain_loss_pct,omitempty"`
	AsOf             time.Time        `json:"as_of"`
}

// TopAllocations returns the n largest priced positions by current value.
func (s PortfolioSnapshot) TopAllocations(n int) []PositionValue {
	var priced []PositionValue
	for _, p := range s.Positions {
		if p.Priced() {
			priced = append(priced, p)
		}
	}
	if n > len(priced) {
		n = len(priced)
	}
	return priced[:n]
}
