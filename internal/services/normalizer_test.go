package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsightlab/finsight-go/internal/models"
	"github.com/finsightlab/finsight-go/internal/utils"
)

func flatTable(fields []string, rows []models.RawRow) models.RawTable {
	cols := make([]models.RawColumn, len(fields))
	for i, f := range fields {
		cols[i] = models.RawColumn{Field: f}
	}
	return models.RawTable{Columns: cols, Rows: rows}
}

func TestNormalize_DropsRowsWithoutUsableClose(t *testing.T) {
	n := NewSeriesNormalizer()
	raw := flatTable([]string{"close"}, []models.RawRow{
		{Date: "2024-03-01", Cells: []interface{}{"N/A"}},
		{Date: "2024-03-02", Cells: []interface{}{101.5}},
		{Date: "2024-03-03", Cells: []interface{}{nil}},
		{Date: "2024-03-04", Cells: []interface{}{"not a number"}},
	})

	points, err := n.Normalize(raw, "AAPL")
	require.NoError(t, err)
	require.Len(t, points, 1, "unusable rows are absent, not zero-filled")
	assert.Equal(t, "101.5", points[0].Close.String())
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), points[0].Date)
}

func TestNormalize_OrdersAscendingByDate(t *testing.T) {
	n := NewSeriesNormalizer()
	raw := flatTable([]string{"close"}, []models.RawRow{
		{Date: "2024-03-03", Cells: []interface{}{3.0}},
		{Date: "2024-03-01", Cells: []interface{}{1.0}},
		{Date: "2024-03-02", Cells: []interface{}{2.0}},
	})

	points, err := n.Normalize(raw, "AAPL")
	require.NoError(t, err)
	require.Len(t, points, 3)
	for i, want := range []string{"1", "2", "3"} {
		assert.Equal(t, want, points[i].Close.String())
	}
	assert.True(t, points[0].Date.Before(points[1].Date))
	assert.True(t, points[1].Date.Before(points[2].Date))
}

func TestNormalize_DuplicateDatesKeepLastSeen(t *testing.T) {
	n := NewSeriesNormalizer()
	raw := flatTable([]string{"close"}, []models.RawRow{
		{Date: "2024-03-01", Cells: []interface{}{100.0}},
		{Date: "2024-03-01", Cells: []interface{}{100.5}}, // revision duplicate
	})

	points, err := n.Normalize(raw, "AAPL")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "100.5", points[0].Close.String())
}

func TestNormalize_CompositeColumnsPreferRequestedSymbol(t *testing.T) {
	n := NewSeriesNormalizer()
	raw := models.RawTable{
		Columns: []models.RawColumn{
			{Field: "Close", Symbol: "AAPL"},
			{Field: "Close", Symbol: "MSFT"},
			{Field: "Volume", Symbol: "AAPL"},
			{Field: "Volume", Symbol: "MSFT"},
		},
		Rows: []models.RawRow{
			{Date: "2024-03-01", Cells: []interface{}{187.0, 415.0, 1000.0, 2000.0}},
		},
	}

	points, err := n.Normalize(raw, "aapl")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "187", points[0].Close.String())
	require.NotNil(t, points[0].Volume)
	assert.Equal(t, "1000", points[0].Volume.String())
}

func TestNormalize_SingleForeignSymbolStillResolves(t *testing.T) {
	// Index tickers come back tagged with their own symbol even on a
	// single-symbol request; with only one symbol present there is
	// nothing ambiguous.
	n := NewSeriesNormalizer()
	raw := models.RawTable{
		Columns: []models.RawColumn{{Field: "Close", Symbol: "^NSEI"}},
		Rows:    []models.RawRow{{Date: "2024-03-01", Cells: []interface{}{22100.25}}},
	}

	points, err := n.Normalize(raw, "NIFTY50")
	require.NoError(t, err)
	require.Len(t, points, 1)
}

func TestNormalize_AmbiguousColumns(t *testing.T) {
	n := NewSeriesNormalizer()
	raw := models.RawTable{
		Columns: []models.RawColumn{
			{Field: "Close", Symbol: "AAPL"},
			{Field: "Close", Symbol: "MSFT"},
		},
		Rows: []models.RawRow{{Date: "2024-03-01", Cells: []interface{}{1.0, 2.0}}},
	}

	_, err := n.Normalize(raw, "GOOG")
	assert.ErrorIs(t, err, utils.ErrAmbiguousColumns)
}

func TestNormalize_NoCloseColumn(t *testing.T) {
	n := NewSeriesNormalizer()
	raw := flatTable([]string{"open", "volume"}, []models.RawRow{
		{Date: "2024-03-01", Cells: []interface{}{1.0, 2.0}},
	})

	_, err := n.Normalize(raw, "AAPL")
	assert.ErrorIs(t, err, utils.ErrUnparseable)
}

func TestNormalize_AdjCloseFallback(t *testing.T) {
	n := NewSeriesNormalizer()
	raw := flatTable([]string{"Adj Close"}, []models.RawRow{
		{Date: "2024-03-01", Cells: []interface{}{99.9}},
	})

	points, err := n.Normalize(raw, "AAPL")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "99.9", points[0].Close.String())
}

func TestNormalize_EmptyInputIsEmptyNotError(t *testing.T) {
	n := NewSeriesNormalizer()

	points, err := n.Normalize(flatTable([]string{"close"}, nil), "AAPL")
	require.NoError(t, err)
	assert.Empty(t, points)

	// All rows unusable reduces to empty as well.
	raw := flatTable([]string{"close"}, []models.RawRow{
		{Date: "2024-03-01", Cells: []interface{}{"N/A"}},
		{Date: "bogus-date", Cells: []interface{}{100.0}},
	})
	points, err = n.Normalize(raw, "AAPL")
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestNormalize_OptionalFieldsStayMissing(t *testing.T) {
	n := NewSeriesNormalizer()
	raw := flatTable([]string{"open", "close"}, []models.RawRow{
		{Date: "2024-03-01", Cells: []interface{}{"N/A", 50.0}},
	})

	points, err := n.Normalize(raw, "AAPL")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Nil(t, points[0].Open, "unparseable open is missing, not zero")
}

func TestCoerceNumeric_StringFormats(t *testing.T) {
	d := coerceNumeric("1,234.56")
	require.NotNil(t, d)
	assert.Equal(t, "1234.56", d.String())

	assert.Nil(t, coerceNumeric("NaN"))
	assert.Nil(t, coerceNumeric(""))
	assert.Nil(t, coerceNumeric("-"))
}
