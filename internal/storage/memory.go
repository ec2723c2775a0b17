package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tagpilot/attribution-insights/internal/models"
)

// MemoryLineItem is a seeded order line for the in-memory reader.
type MemoryLineItem struct {
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int64
	Total       decimal.Decimal
}

// MemoryOrderReader keeps seeded orders in memory. It backs tests and
// development runs without a database, honoring the same range and
// status semantics as the Postgres readers.
type MemoryOrderReader struct {
	mu     sync.RWMutex
	orders []models.OrderRecord
	items  []MemoryLineItem
}

func NewMemoryOrderReader() *MemoryOrderReader {
	return &MemoryOrderReader{}
}

// SeedOrder adds an order record.
func (r *MemoryOrderReader) SeedOrder(rec models.OrderRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, rec)
}

// SeedLineItem adds an order line for product ranking.
func (r *MemoryOrderReader) SeedLineItem(item MemoryLineItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
}

func (r *MemoryOrderReader) FetchOrders(ctx context.Context, start, end time.Time, filter StatusFilter) ([]models.OrderRecord, error) {
	lo, hi := rangeBounds(start, end)
	wanted := make(map[models.OrderStatus]bool)
	for _, s := range filter.Statuses() {
		wanted[s] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.OrderRecord
	for _, rec := range r.orders {
		if rec.CreatedAt.Before(lo) || rec.CreatedAt.After(hi) {
			continue
		}
		if !wanted[rec.Status] {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryOrderReader) TopProducts(ctx context.Context, start, end time.Time, filter StatusFilter, limit int) ([]models.ProductSummaryRow, error) {
	orders, err := r.FetchOrders(ctx, start, end, filter)
	if err != nil {
		return nil, err
	}
	inRange := make(map[int64]bool, len(orders))
	for _, o := range orders {
		inRange[o.OrderID] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	type acc struct {
		name    string
		qty     int64
		revenue decimal.Decimal
	}
	byProduct := make(map[int64]*acc)
	var order []int64
	for _, item := range r.items {
		if !inRange[item.OrderID] {
			continue
		}
		a, ok := byProduct[item.ProductID]
		if !ok {
			a = &acc{name: item.ProductName}
			byProduct[item.ProductID] = a
			order = append(order, item.ProductID)
		}
		a.qty += item.Quantity
		a.revenue = a.revenue.Add(item.Total)
	}

	rows := make([]models.ProductSummaryRow, 0, len(byProduct))
	for _, id := range order {
		a := byProduct[id]
		rows = append(rows, models.ProductSummaryRow{
			ProductID:   id,
			ProductName: a.name,
			Quantity:    a.qty,
			Revenue:     a.revenue.InexactFloat64(),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Revenue > rows[j].Revenue
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
