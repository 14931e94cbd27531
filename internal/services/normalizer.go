package services

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsightlab/finsight-go/internal/models"
	"github.com/finsightlab/finsight-go/internal/utils"
)

// SeriesNormalizer converts heterogeneous provider tables into canonical
// ordered daily series. Providers batch symbols into composite (field,
// symbol) columns, mix strings and numbers in the same column, and emit
// revision duplicates; the normalizer reduces all of that to one clean
// sequence per symbol.
type SeriesNormalizer struct{}

// NewSeriesNormalizer creates a series normalizer.
func NewSeriesNormalizer() *SeriesNormalizer {
	return &SeriesNormalizer{}
}

// Date layouts providers are known to emit.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Normalize reduces raw to the ordered series for symbol.
//
// Rows whose close is absent or non-numeric are dropped entirely: a
// missing close must never surface as a zero close, because zero is a
// legitimate price and would corrupt gain/loss math downstream. Duplicate
// dates keep the last-seen row. An input that reduces to zero usable rows
// returns an empty slice and no error; empty means "no data", which is a
// different condition from a fetch failure.
func (n *SeriesNormalizer) Normalize(raw models.RawTable, symbol string) ([]models.SeriesPoint, error) {
	fieldIndex, err := resolveColumns(raw.Columns, symbol)
	if err != nil {
		return nil, err
	}

	closeIdx, ok := fieldIndex["close"]
	if !ok {
		if closeIdx, ok = fieldIndex["adj_close"]; !ok {
			return nil, utils.NewUnparseableError("no close-like column among %d columns", len(raw.Columns))
		}
	}

	// Keep last-seen per date, preserving the position of the first
	// occurrence so a stable sort is enough afterwards.
	byDate := make(map[time.Time]models.SeriesPoint)
	for _, row := range raw.Rows {
		date, ok := parseDate(row.Date)
		if !ok {
			continue
		}
		closeVal := coerceNumeric(cellAt(row, closeIdx))
		if closeVal == nil {
			continue
		}

		point := models.SeriesPoint{Date: date, Close: *closeVal}
		if idx, ok := fieldIndex["open"]; ok {
			point.Open = coerceNumeric(cellAt(row, idx))
		}
		if idx, ok := fieldIndex["high"]; ok {
			point.High = coerceNumeric(cellAt(row, idx))
		}
		if idx, ok := fieldIndex["low"]; ok {
			point.Low = coerceNumeric(cellAt(row, idx))
		}
		if idx, ok := fieldIndex["volume"]; ok {
			point.Volume = coerceNumeric(cellAt(row, idx))
		}
		byDate[date] = point
	}

	points := make([]models.SeriesPoint, 0, len(byDate))
	for _, p := range byDate {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// resolveColumns maps canonical field names to column positions. For
// composite tables it prefers columns tagged with the requested symbol;
// when the table carries exactly one symbol, that one serves. Multiple
// symbols with no match for the requested one, or duplicate columns for
// the same field, cannot be resolved.
func resolveColumns(columns []models.RawColumn, symbol string) (map[string]int, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	composite := false
	symbols := make(map[string]struct{})
	for _, col := range columns {
		if col.Symbol != "" {
			composite = true
			symbols[strings.ToUpper(col.Symbol)] = struct{}{}
		}
	}

	if composite && len(symbols) > 1 {
		if _, ok := symbols[symbol]; !ok {
			return nil, utils.NewAmbiguousColumnsError("table carries %d symbols, none matching %q", len(symbols), symbol)
		}
	}

	fieldIndex := make(map[string]int)
	for i, col := range columns {
		if composite && len(symbols) > 1 && strings.ToUpper(col.Symbol) != symbol {
			continue
		}
		field := canonicalField(col.Field)
		if field == "" {
			continue
		}
		if _, dup := fieldIndex[field]; dup {
			return nil, utils.NewAmbiguousColumnsError("duplicate column for field %q", field)
		}
		fieldIndex[field] = i
	}
	return fieldIndex, nil
}

// canonicalField normalizes provider column names ("Adj Close", "CLOSE",
// "close_price") to the canonical set, or "" for columns we don't carry.
func canonicalField(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	switch name {
	case "open", "high", "low", "close", "volume":
		return name
	case "adj_close", "adjclose", "adjusted_close":
		return "adj_close"
	case "close_price", "closing_price":
		return "close"
	default:
		return ""
	}
}

func cellAt(row models.RawRow, idx int) interface{} {
	if idx < 0 || idx >= len(row.Cells) {
		return nil
	}
	return row.Cells[idx]
}

// coerceNumeric parses a raw cell as a number. Anything unparseable is
// missing, not zero: nil is returned for nil cells, placeholder strings,
// and non-finite floats.
func coerceNumeric(cell interface{}) *decimal.Decimal {
	switch v := cell.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return &v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		d := decimal.NewFromFloat(v)
		return &d
	case float32:
		return coerceNumeric(float64(v))
	case int:
		d := decimal.NewFromInt(int64(v))
		return &d
	case int64:
		d := decimal.NewFromInt(v)
		return &d
	case json.Number:
		return coerceString(v.String())
	case string:
		return coerceString(v)
	default:
		return nil
	}
}

func coerceString(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "n/a", "na", "null", "none", "-", "nan":
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nil
	}
	return &d
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// Time of day is irrelevant for daily series.
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
