package report

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tagpilot/attribution-insights/internal/models"
)

// Summary is the whole-range rollup.
type Summary struct {
	TotalSales    float64 `json:"total_sales"`
	TotalOrders   int     `json:"total_orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// SourceSummaryRow is one row of the ranked attribution table.
type SourceSummaryRow struct {
	Key     string  `json:"source"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// TrendCell is a single chart datum for one key on one date.
type TrendCell struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// TrendPoint is one calendar date of the trend chart. Its JSON form
// flattens the per-key cells next to the date, the shape the chart
// widget consumes:
//
//	{"date":"2024-01-01T00:00:00","Paid Search":{"label":"Paid Search","value":150}}
type TrendPoint struct {
	Date  string
	keys  []string
	cells map[string]TrendCell
}

// Cell returns the datum for key, which must be one of the retained keys.
func (p TrendPoint) Cell(key string) (TrendCell, bool) {
	c, ok := p.cells[key]
	return c, ok
}

func (p TrendPoint) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.WriteString(`"date":`)
	date, err := json.Marshal(p.Date + "T00:00:00")
	if err != nil {
		return nil, err
	}
	buf.Write(date)
	for _, key := range p.keys {
		buf.WriteByte(',')
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		cell, err := json.Marshal(p.cells[key])
		if err != nil {
			return nil, err
		}
		buf.Write(cell)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DailyTotal is the per-day rollup used by the summary chart.
type DailyTotal struct {
	Date   string  `json:"date"`
	Sales  float64 `json:"sales"`
	Orders int     `json:"orders"`
}

// Result is the output of one aggregation pass.
type Result struct {
	Summary       Summary
	SourceSummary []SourceSummaryRow
	RevenueTrends []TrendPoint
	DailyTotals   []DailyTotal
	// Truncated reports whether the top-N cap dropped keys; dropped keys
	// are absent from both the summary and the trend series.
	Truncated bool
}

type keyTotals struct {
	orders  int
	revenue decimal.Decimal
}

// Aggregate derives the ranked summary, the per-day trend matrix and the
// range totals from raw order records. topN caps the retained keys; a
// non-positive value disables truncation. Amounts stay exact decimals
// through summation; only trend cells are rounded (independently per
// cell, so daily cell sums can drift from the summary total).
func Aggregate(records []models.OrderRecord, breakdown Breakdown, topN int) Result {
	byKey := make(map[string]*keyTotals)
	var keyOrder []string

	daily := make(map[string]map[string]decimal.Decimal)
	dailySales := make(map[string]decimal.Decimal)
	dailyOrders := make(map[string]int)

	totalSales := decimal.Zero

	for _, rec := range records {
		key := AttributionKey(rec, breakdown)

		kt, ok := byKey[key]
		if !ok {
			kt = &keyTotals{}
			byKey[key] = kt
			keyOrder = append(keyOrder, key)
		}
		kt.orders++
		kt.revenue = kt.revenue.Add(rec.Total)

		date := rec.CreatedAt.Format("2006-01-02")
		perKey, ok := daily[date]
		if !ok {
			perKey = make(map[string]decimal.Decimal)
			daily[date] = perKey
		}
		perKey[key] = perKey[key].Add(rec.Total)
		dailySales[date] = dailySales[date].Add(rec.Total)
		dailyOrders[date]++

		totalSales = totalSales.Add(rec.Total)
	}

	// Rank keys by revenue, ties kept in first-encountered order.
	ranked := make([]string, len(keyOrder))
	copy(ranked, keyOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		return byKey[ranked[i]].revenue.GreaterThan(byKey[ranked[j]].revenue)
	})

	truncated := false
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
		truncated = true
	}

	summaryRows := make([]SourceSummaryRow, 0, len(ranked))
	for _, key := range ranked {
		kt := byKey[key]
		summaryRows = append(summaryRows, SourceSummaryRow{
			Key:     key,
			Orders:  kt.orders,
			Revenue: kt.revenue.InexactFloat64(),
		})
	}

	dates := make([]string, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	trends := make([]TrendPoint, 0, len(dates))
	dailyTotals := make([]DailyTotal, 0, len(dates))
	for _, date := range dates {
		cells := make(map[string]TrendCell, len(ranked))
		for _, key := range ranked {
			cells[key] = TrendCell{
				Label: key,
				Value: daily[date][key].Round(0).IntPart(),
			}
		}
		trends = append(trends, TrendPoint{Date: date, keys: ranked, cells: cells})
		dailyTotals = append(dailyTotals, DailyTotal{
			Date:   date,
			Sales:  dailySales[date].InexactFloat64(),
			Orders: dailyOrders[date],
		})
	}

	totalOrders := len(records)
	avg := decimal.Zero
	if totalOrders > 0 {
		avg = totalSales.Div(decimal.NewFromInt(int64(totalOrders)))
	}

	return Result{
		Summary: Summary{
			TotalSales:    totalSales.InexactFloat64(),
			TotalOrders:   totalOrders,
			AvgOrderValue: avg.InexactFloat64(),
		},
		SourceSummary: summaryRows,
		RevenueTrends: trends,
		DailyTotals:   dailyTotals,
		Truncated:     truncated,
	}
}
