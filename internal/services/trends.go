package services

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"

	"github.com/finsightlab/finsight-go/internal/models"
)

// Default indicator windows for the market-trends view.
const (
	DefaultSMAPeriod = 20
	DefaultRSIPeriod = 14
)

// AnalyzeSeries derives the market-trends readout from a normalized
// series: window change plus latest SMA and RSI. Indicator fields stay
// nil when the series is shorter than the indicator window; a reading
// that cannot be computed is missing, not zero.
func AnalyzeSeries(symbol string, points []models.SeriesPoint) models.SeriesAnalytics {
	analytics := models.SeriesAnalytics{
		Symbol: symbol,
		Points: len(points),
	}
	if len(points) == 0 {
		return analytics
	}

	first := points[0]
	last := points[len(points)-1]
	analytics.FirstClose = first.Close
	analytics.LastClose = last.Close
	analytics.Change = last.Close.Sub(first.Close)
	analytics.WindowStart = first.Date
	analytics.WindowEnd = last.Date
	if first.Close.IsPositive() {
		pct := analytics.Change.Div(first.Close).Mul(oneHundred)
		analytics.ChangePct = &pct
	}

	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i], _ = p.Close.Float64()
	}

	if len(closes) >= DefaultSMAPeriod {
		smaIndicator := trend.NewSmaWithPeriod[float64](DefaultSMAPeriod)
		values := helper.ChanToSlice(smaIndicator.Compute(helper.SliceToChan(closes)))
		if len(values) > 0 {
			sma := decimal.NewFromFloat(values[len(values)-1])
			analytics.SMA = &sma
		}
	}

	if len(closes) >= DefaultRSIPeriod+1 {
		rsiIndicator := momentum.NewRsiWithPeriod[float64](DefaultRSIPeriod)
		values := helper.ChanToSlice(rsiIndicator.Compute(helper.SliceToChan(closes)))
		if len(values) > 0 {
			rsi := decimal.NewFromFloat(values[len(values)-1])
			analytics.RSI = &rsi
		}
	}

	return analytics
}
