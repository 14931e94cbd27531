package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsightlab/finsight-go/internal/models"
	"github.com/finsightlab/finsight-go/internal/utils"
)

var oneHundred = decimal.NewFromInt(100)

// PositionLedger maintains the holdings of one portfolio (one user).
// Repeated acquisitions of the same symbol merge into a weighted-average
// cost basis. Mutations are serialized: every acquisition is applied
// exactly once, never lost to a concurrent update.
type PositionLedger struct {
	mu       sync.Mutex
	holdings map[string]models.Holding
	now      func() time.Time
}

// NewPositionLedger creates an empty ledger.
func NewPositionLedger() *PositionLedger {
	return &PositionLedger{
		holdings: make(map[string]models.Holding),
		now:      time.Now,
	}
}

// NewPositionLedgerFromHoldings restores a ledger from persisted
// holdings, e.g. loaded at session start. Holdings with non-positive
// quantity are skipped.
func NewPositionLedgerFromHoldings(holdings []models.Holding) *PositionLedger {
	l := NewPositionLedger()
	for _, h := range holdings {
		if !h.Quantity.IsPositive() {
			continue
		}
		h.Symbol = normalizeSymbol(h.Symbol)
		l.holdings[h.Symbol] = h
	}
	return l
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// RecordAcquisition applies one buy. Quantity and price must both be
// positive or the ledger is left unchanged. On a repeat acquisition the
// average cost is recomputed as
//
//	(oldQty*oldAvg + qty*price) / (oldQty + qty)
//
// which makes the basis insensitive to acquisition order.
func (l *PositionLedger) RecordAcquisition(symbol string, quantity, price decimal.Decimal) (models.Holding, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return models.Holding{}, utils.NewInvalidAcquisitionError(symbol, "empty symbol")
	}
	if !quantity.IsPositive() {
		return models.Holding{}, utils.NewInvalidAcquisitionError(symbol, "quantity must be positive, got %s", quantity)
	}
	if !price.IsPositive() {
		return models.Holding{}, utils.NewInvalidAcquisitionError(symbol, "price must be positive, got %s", price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h, exists := l.holdings[symbol]
	if !exists {
		h = models.Holding{Symbol: symbol, Quantity: quantity, AverageCost: price, UpdatedAt: l.now()}
		l.holdings[symbol] = h
		return h, nil
	}

	newQuantity := h.Quantity.Add(quantity)
	totalCost := h.Quantity.Mul(h.AverageCost).Add(quantity.Mul(price))
	h.Quantity = newQuantity
	h.AverageCost = totalCost.Div(newQuantity)
	h.UpdatedAt = l.now()
	l.holdings[symbol] = h
	return h, nil
}

// RecordDisposal reduces a holding by quantity at a fixed average cost,
// the standard weighted-average treatment. Disposing the full quantity
// removes the holding; disposing more than is held is rejected with no
// mutation. Realized-gain accounting is out of scope here.
func (l *PositionLedger) RecordDisposal(symbol string, quantity decimal.Decimal) (models.Holding, error) {
	symbol = normalizeSymbol(symbol)
	if !quantity.IsPositive() {
		return models.Holding{}, utils.NewInvalidDisposalError(symbol, "quantity must be positive, got %s", quantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h, exists := l.holdings[symbol]
	if !exists {
		return models.Holding{}, utils.NewInvalidDisposalError(symbol, "no holding")
	}
	if quantity.GreaterThan(h.Quantity) {
		return models.Holding{}, utils.NewInvalidDisposalError(symbol, "have %s, tried to dispose %s", h.Quantity, quantity)
	}

	h.Quantity = h.Quantity.Sub(quantity)
	h.UpdatedAt = l.now()
	if h.Quantity.IsZero() {
		// Never retain a holding at quantity 0.
		delete(l.holdings, symbol)
		return h, nil
	}
	l.holdings[symbol] = h
	return h, nil
}

// Remove deletes the holding unconditionally; no-op when absent.
func (l *PositionLedger) Remove(symbol string) {
	symbol = normalizeSymbol(symbol)
	l.mu.Lock()
	delete(l.holdings, symbol)
	l.mu.Unlock()
}

// Holding returns one holding by symbol.
func (l *PositionLedger) Holding(symbol string) (models.Holding, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holdings[normalizeSymbol(symbol)]
	return h, ok
}

// Holdings returns a copy of every holding, sorted by symbol.
func (l *PositionLedger) Holdings() []models.Holding {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Holding, 0, len(l.holdings))
	for _, h := range l.holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Symbols returns every held symbol, sorted.
func (l *PositionLedger) Symbols() []string {
	holdings := l.Holdings()
	symbols := make([]string, len(holdings))
	for i, h := range holdings {
		symbols[i] = h.Symbol
	}
	return symbols
}

// ValueAll values every holding against currentPrices. Holdings without
// a price are reported as unpriced and excluded from TotalValue and from
// the gain/loss figures; they are never valued at zero. ValueAll is a
// total function over the holding set: it cannot fail, only report
// partial results. Positions come back ranked by current value, unpriced
// positions last.
func (l *PositionLedger) ValueAll(currentPrices map[string]decimal.Decimal) models.PortfolioSnapshot {
	l.mu.Lock()
	holdings := make([]models.Holding, 0, len(l.holdings))
	for _, h := range l.holdings {
		holdings = append(holdings, h)
	}
	l.mu.Unlock()

	snapshot := models.PortfolioSnapshot{
		TotalValue:    decimal.Zero,
		TotalCost:     decimal.Zero,
		PricedCost:    decimal.Zero,
		TotalGainLoss: decimal.Zero,
		AsOf:          l.now(),
	}

	for _, h := range holdings {
		cost := h.CostBasis()
		pv := models.PositionValue{
			Symbol:      h.Symbol,
			Quantity:    h.Quantity,
			AverageCost: h.AverageCost,
			CostBasis:   cost,
		}
		snapshot.TotalCost = snapshot.TotalCost.Add(cost)

		price, ok := currentPrices[h.Symbol]
		if !ok {
			snapshot.UnpricedSymbols = append(snapshot.UnpricedSymbols, h.Symbol)
			snapshot.Positions = append(snapshot.Positions, pv)
			continue
		}

		value := h.Quantity.Mul(price)
		gainLoss := value.Sub(cost)
		pv.LastPrice = &price
		pv.CurrentValue = &value
		pv.GainLoss = &gainLoss
		if cost.IsPositive() {
			pct := gainLoss.Div(cost).Mul(oneHundred)
			pv.GainLossPct = &pct
		}

		snapshot.TotalValue = snapshot.TotalValue.Add(value)
		snapshot.PricedCost = snapshot.PricedCost.Add(cost)
		snapshot.Positions = append(snapshot.Positions, pv)
	}

	snapshot.TotalGainLoss = snapshot.TotalValue.Sub(snapshot.PricedCost)
	if snapshot.PricedCost.IsPositive() {
		pct := snapshot.TotalGainLoss.Div(snapshot.PricedCost).Mul(oneHundred)
		snapshot.TotalGainLossPct = &pct
	}

	sort.SliceStable(snapshot.Positions, func(i, j int) bool {
		a, b := snapshot.Positions[i], snapshot.Positions[j]
		switch {
		case a.Priced() && !b.Priced():
			return true
		case !a.Priced() && b.Priced():
			return false
		case a.Priced():
			return a.CurrentValue.GreaterThan(*b.CurrentValue)
		default:
			return a.Symbol < b.Symbol
		}
	})
	sort.Strings(snapshot.UnpricedSymbols)
	return snapshot
}
