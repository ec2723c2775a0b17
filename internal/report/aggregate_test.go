package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagpilot/attribution-insights/internal/models"
)

func order(total string, source, medium, date string) models.OrderRecord {
	d, err := decimal.NewFromString(total)
	if err != nil {
		panic(err)
	}
	ts, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.OrderRecord{
		Total:     d,
		Source:    source,
		Medium:    medium,
		CreatedAt: ts,
		Status:    models.StatusCompleted,
	}
}

func TestAggregateExample(t *testing.T) {
	records := []models.OrderRecord{
		order("100", "google", "cpc", "2024-01-01"),
		order("50", "google", "cpc", "2024-01-01"),
		order("75", "", "", "2024-01-02"),
	}

	res := Aggregate(records, BreakdownSourceMedium, 10)

	assert.Equal(t, 225.0, res.Summary.TotalSales)
	assert.Equal(t, 3, res.Summary.TotalOrders)
	assert.Equal(t, 75.0, res.Summary.AvgOrderValue)

	require.Len(t, res.SourceSummary, 2)
	assert.Equal(t, SourceSummaryRow{Key: "Paid Search", Orders: 2, Revenue: 150}, res.SourceSummary[0])
	assert.Equal(t, SourceSummaryRow{Key: "Direct", Orders: 1, Revenue: 75}, res.SourceSummary[1])

	require.Len(t, res.RevenueTrends, 2)
	assert.Equal(t, "2024-01-01", res.RevenueTrends[0].Date)
	cell, ok := res.RevenueTrends[0].Cell("Paid Search")
	require.True(t, ok)
	assert.Equal(t, TrendCell{Label: "Paid Search", Value: 150}, cell)
	cell, ok = res.RevenueTrends[0].Cell("Direct")
	require.True(t, ok)
	assert.Equal(t, int64(0), cell.Value)

	assert.Equal(t, "2024-01-02", res.RevenueTrends[1].Date)
	cell, _ = res.RevenueTrends[1].Cell("Direct")
	assert.Equal(t, int64(75), cell.Value)

	assert.False(t, res.Truncated)
}

func TestAggregateEmptyInput(t *testing.T) {
	res := Aggregate(nil, BreakdownSourceMedium, 10)

	assert.Equal(t, 0.0, res.Summary.TotalSales)
	assert.Equal(t, 0, res.Summary.TotalOrders)
	assert.Equal(t, 0.0, res.Summary.AvgOrderValue)
	assert.Empty(t, res.SourceSummary)
	assert.Empty(t, res.RevenueTrends)
	assert.Empty(t, res.DailyTotals)
}

func TestAggregateTotalsMatchSummary(t *testing.T) {
	records := []models.OrderRecord{
		order("19.99", "google", "cpc", "2024-03-01"),
		order("35.50", "bing", "cpc", "2024-03-01"),
		order("12.25", "news.example", "referral", "2024-03-02"),
		order("99.95", "", "", "2024-03-03"),
		order("5.01", "google", "organic", "2024-03-03"),
		order("0.30", "google", "organic", "2024-03-04"),
	}

	res := Aggregate(records, BreakdownSourceMedium, 0)

	var revenue float64
	var orders int
	for _, row := range res.SourceSummary {
		revenue += row.Revenue
		orders += row.Orders
	}
	assert.InDelta(t, res.Summary.TotalSales, revenue, 1e-9)
	assert.Equal(t, res.Summary.TotalOrders, orders)
}

func TestAggregateEmptyRepresentationsCollapse(t *testing.T) {
	records := []models.OrderRecord{
		order("10", "", "", "2024-01-01"),
		order("20", "unknown", "unknown", "2024-01-01"),
		order("30", "(none)", "null", "2024-01-02"),
	}

	res := Aggregate(records, BreakdownSourceMedium, 10)

	require.Len(t, res.SourceSummary, 1)
	assert.Equal(t, "Direct", res.SourceSummary[0].Key)
	assert.Equal(t, 3, res.SourceSummary[0].Orders)
	assert.Equal(t, 60.0, res.SourceSummary[0].Revenue)
}

func TestAggregateIdempotent(t *testing.T) {
	records := []models.OrderRecord{
		order("100", "google", "cpc", "2024-01-01"),
		order("75", "", "", "2024-01-02"),
		order("50", "bing", "organic", "2024-01-02"),
	}

	first := Aggregate(records, BreakdownSourceMedium, 10)
	second := Aggregate(records, BreakdownSourceMedium, 10)
	assert.Equal(t, first, second)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAggregateStableTieBreak(t *testing.T) {
	records := []models.OrderRecord{
		order("50", "alpha", "banner", "2024-01-01"),
		order("50", "beta", "banner", "2024-01-01"),
	}

	res := Aggregate(records, BreakdownSourceMedium, 10)

	require.Len(t, res.SourceSummary, 2)
	assert.Equal(t, "alpha / banner", res.SourceSummary[0].Key)
	assert.Equal(t, "beta / banner", res.SourceSummary[1].Key)
}

func TestAggregateTopNTruncation(t *testing.T) {
	records := []models.OrderRecord{
		order("300", "a", "banner", "2024-01-01"),
		order("200", "b", "banner", "2024-01-01"),
		order("100", "c", "banner", "2024-01-02"),
	}

	res := Aggregate(records, BreakdownSourceMedium, 2)

	assert.True(t, res.Truncated)
	require.Len(t, res.SourceSummary, 2)
	assert.Equal(t, "a / banner", res.SourceSummary[0].Key)
	assert.Equal(t, "b / banner", res.SourceSummary[1].Key)

	// Dropped keys disappear from the trend series too.
	for _, point := range res.RevenueTrends {
		_, ok := point.Cell("c / banner")
		assert.False(t, ok)
	}

	// Totals still cover every order, truncated or not.
	assert.Equal(t, 600.0, res.Summary.TotalSales)
	assert.Equal(t, 3, res.Summary.TotalOrders)
}

func TestTrendPointJSONShape(t *testing.T) {
	records := []models.OrderRecord{
		order("100.4", "google", "cpc", "2024-01-01"),
	}

	res := Aggregate(records, BreakdownSourceMedium, 10)
	require.Len(t, res.RevenueTrends, 1)

	raw, err := json.Marshal(res.RevenueTrends[0])
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.JSONEq(t, `"2024-01-01T00:00:00"`, string(decoded["date"]))
	assert.JSONEq(t, `{"label":"Paid Search","value":100}`, string(decoded["Paid Search"]))
}

func TestAggregateRoundsOnlyTrendCells(t *testing.T) {
	records := []models.OrderRecord{
		order("10.49", "google", "cpc", "2024-01-01"),
		order("10.49", "google", "cpc", "2024-01-02"),
	}

	res := Aggregate(records, BreakdownSourceMedium, 10)

	// Summary keeps the exact sum.
	assert.Equal(t, 20.98, res.Summary.TotalSales)
	assert.Equal(t, 20.98, res.SourceSummary[0].Revenue)

	// Each daily cell rounds independently.
	cell, _ := res.RevenueTrends[0].Cell("Paid Search")
	assert.Equal(t, int64(10), cell.Value)
	cell, _ = res.RevenueTrends[1].Cell("Paid Search")
	assert.Equal(t, int64(10), cell.Value)
}

func TestAggregateDailyTotals(t *testing.T) {
	records := []models.OrderRecord{
		order("100", "google", "cpc", "2024-01-02"),
		order("50", "bing", "organic", "2024-01-01"),
		order("25", "bing", "organic", "2024-01-01"),
	}

	res := Aggregate(records, BreakdownSourceMedium, 10)

	require.Len(t, res.DailyTotals, 2)
	assert.Equal(t, DailyTotal{Date: "2024-01-01", Sales: 75, Orders: 2}, res.DailyTotals[0])
	assert.Equal(t, DailyTotal{Date: "2024-01-02", Sales: 100, Orders: 1}, res.DailyTotals[1])
}
