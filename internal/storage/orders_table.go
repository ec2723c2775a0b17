package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/tagpilot/attribution-insights/internal/models"
)

// OrdersTableReader reads the optimized order storage layout: an orders
// table with a 1:1 order_attribution side table and a denormalized
// order_product_lookup for line items.
type OrdersTableReader struct {
	pool *pgxpool.Pool
}

// NewOrdersTableReader creates a reader for the optimized layout.
func NewOrdersTableReader(pool *pgxpool.Pool) *OrdersTableReader {
	return &OrdersTableReader{pool: pool}
}

func (r *OrdersTableReader) FetchOrders(ctx context.Context, start, end time.Time, filter StatusFilter) ([]models.OrderRecord, error) {
	lo, hi := rangeBounds(start, end)

	rows, err := r.pool.Query(ctx, `
		SELECT
			o.id,
			o.created_at,
			o.total_amount::text,
			o.status,
			COALESCE(a.source_type, ''),
			COALESCE(a.source, ''),
			COALESCE(a.medium, ''),
			COALESCE(a.campaign, ''),
			COALESCE(a.device_type, ''),
			COALESCE(a.referrer, ''),
			COALESCE(a.page_views, 0)
		FROM orders o
		LEFT JOIN order_attribution a ON a.order_id = o.id
		WHERE o.status = ANY($1)
		AND o.created_at >= $2
		AND o.created_at <= $3
		AND o.total_amount IS NOT NULL
		ORDER BY o.created_at ASC
	`, statusStrings(filter), lo, hi)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var records []models.OrderRecord
	for rows.Next() {
		var rec models.OrderRecord
		var total string
		var status string

		if err := rows.Scan(&rec.OrderID, &rec.CreatedAt, &total, &status,
			&rec.SourceType, &rec.Source, &rec.Medium, &rec.Campaign,
			&rec.DeviceType, &rec.Referrer, &rec.PageViews); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}

		amount, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("invalid order total for order %d: %w", rec.OrderID, err)
		}
		rec.Total = amount
		rec.Status = models.OrderStatus(status)

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order rows: %w", err)
	}

	return records, nil
}

func (r *OrdersTableReader) TopProducts(ctx context.Context, start, end time.Time, filter StatusFilter, limit int) ([]models.ProductSummaryRow, error) {
	lo, hi := rangeBounds(start, end)

	rows, err := r.pool.Query(ctx, `
		SELECT
			l.product_id,
			COALESCE(p.name, ''),
			SUM(l.product_qty),
			SUM(l.product_total)::text
		FROM order_product_lookup l
		JOIN orders o ON o.id = l.order_id
		LEFT JOIN products p ON p.id = l.product_id
		WHERE o.status = ANY($1)
		AND o.created_at >= $2
		AND o.created_at <= $3
		GROUP BY l.product_id, p.name
		ORDER BY SUM(l.product_total) DESC
		LIMIT $4
	`, statusStrings(filter), lo, hi, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	return scanProductRows(rows)
}
