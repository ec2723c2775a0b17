package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagpilot/attribution-insights/internal/models"
)

func seedOrder(r *MemoryOrderReader, id int64, status models.OrderStatus, created string, total string) {
	ts, err := time.Parse("2006-01-02 15:04:05", created)
	if err != nil {
		panic(err)
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		panic(err)
	}
	r.SeedOrder(models.OrderRecord{
		OrderID:   id,
		Status:    status,
		CreatedAt: ts,
		Total:     amount,
	})
}

func day(s string) time.Time {
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return ts
}

func TestParseStatusFilter(t *testing.T) {
	for _, s := range []string{"", "all", "completed", "processing", "on-hold"} {
		_, err := ParseStatusFilter(s)
		assert.NoError(t, err, s)
	}

	f, err := ParseStatusFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	_, err = ParseStatusFilter("refunded")
	assert.Error(t, err)
}

func TestStatusFilterStatuses(t *testing.T) {
	assert.Equal(t, models.ReportedStatuses, FilterAll.Statuses())
	assert.Equal(t, []models.OrderStatus{models.StatusOnHold}, FilterOnHold.Statuses())
}

func TestFetchOrdersRangeInclusive(t *testing.T) {
	r := NewMemoryOrderReader()
	seedOrder(r, 1, models.StatusCompleted, "2024-01-01 00:00:00", "10")
	seedOrder(r, 2, models.StatusCompleted, "2024-01-05 12:30:00", "20")
	seedOrder(r, 3, models.StatusCompleted, "2024-01-07 23:59:59", "30")
	seedOrder(r, 4, models.StatusCompleted, "2024-01-08 00:00:00", "40")
	seedOrder(r, 5, models.StatusCompleted, "2023-12-31 23:59:59", "50")

	got, err := r.FetchOrders(context.Background(), day("2024-01-01"), day("2024-01-07"), FilterAll)
	require.NoError(t, err)

	ids := make([]int64, 0, len(got))
	for _, rec := range got {
		ids = append(ids, rec.OrderID)
	}
	// Both endpoint days included, the neighbors on either side excluded.
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestFetchOrdersStatusFilter(t *testing.T) {
	r := NewMemoryOrderReader()
	seedOrder(r, 1, models.StatusCompleted, "2024-01-02 10:00:00", "10")
	seedOrder(r, 2, models.StatusProcessing, "2024-01-02 11:00:00", "20")
	seedOrder(r, 3, models.StatusOnHold, "2024-01-02 12:00:00", "30")
	seedOrder(r, 4, models.OrderStatus("refunded"), "2024-01-02 13:00:00", "40")

	all, err := r.FetchOrders(context.Background(), day("2024-01-01"), day("2024-01-03"), FilterAll)
	require.NoError(t, err)
	assert.Len(t, all, 3, "refunded orders never report")

	completed, err := r.FetchOrders(context.Background(), day("2024-01-01"), day("2024-01-03"), FilterCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, int64(1), completed[0].OrderID)
}

func TestFetchOrdersEmpty(t *testing.T) {
	r := NewMemoryOrderReader()

	got, err := r.FetchOrders(context.Background(), day("2024-01-01"), day("2024-01-31"), FilterAll)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTopProductsRanking(t *testing.T) {
	r := NewMemoryOrderReader()
	seedOrder(r, 1, models.StatusCompleted, "2024-01-02 10:00:00", "100")
	seedOrder(r, 2, models.StatusCompleted, "2024-01-03 10:00:00", "200")
	seedOrder(r, 3, models.StatusCompleted, "2024-02-01 10:00:00", "300")

	r.SeedLineItem(MemoryLineItem{OrderID: 1, ProductID: 11, ProductName: "Widget", Quantity: 2, Total: decimal.NewFromInt(60)})
	r.SeedLineItem(MemoryLineItem{OrderID: 2, ProductID: 12, ProductName: "Gadget", Quantity: 1, Total: decimal.NewFromInt(150)})
	r.SeedLineItem(MemoryLineItem{OrderID: 2, ProductID: 11, ProductName: "Widget", Quantity: 1, Total: decimal.NewFromInt(30)})
	// Outside the queried range, must not count.
	r.SeedLineItem(MemoryLineItem{OrderID: 3, ProductID: 13, ProductName: "Doodad", Quantity: 9, Total: decimal.NewFromInt(900)})

	rows, err := r.TopProducts(context.Background(), day("2024-01-01"), day("2024-01-31"), FilterAll, 10)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, models.ProductSummaryRow{ProductID: 12, ProductName: "Gadget", Quantity: 1, Revenue: 150}, rows[0])
	assert.Equal(t, models.ProductSummaryRow{ProductID: 11, ProductName: "Widget", Quantity: 3, Revenue: 90}, rows[1])
}

func TestTopProductsLimit(t *testing.T) {
	r := NewMemoryOrderReader()
	seedOrder(r, 1, models.StatusCompleted, "2024-01-02 10:00:00", "600")
	for i := int64(1); i <= 5; i++ {
		r.SeedLineItem(MemoryLineItem{
			OrderID:   1,
			ProductID: i,
			Quantity:  1,
			Total:     decimal.NewFromInt(i * 10),
		})
	}

	rows, err := r.TopProducts(context.Background(), day("2024-01-01"), day("2024-01-31"), FilterAll, 2)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(5), rows[0].ProductID)
	assert.Equal(t, int64(4), rows[1].ProductID)
}

func TestNewOrderReaderRejectsUnknownSchema(t *testing.T) {
	_, err := NewOrderReader(nil, Schema("sqlite"))
	assert.Error(t, err)
}
