package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/tagpilot/attribution-insights/internal/models"
)

// Meta keys the legacy layout spreads one order across.
const (
	metaOrderTotal = "_order_total"
	metaSourceType = "_attribution_source_type"
	metaSource     = "_attribution_source"
	metaMedium     = "_attribution_medium"
	metaCampaign   = "_attribution_campaign"
	metaDeviceType = "_attribution_device_type"
	metaReferrer   = "_attribution_referrer"
	metaPageViews  = "_attribution_page_views"

	itemMetaProductID = "_product_id"
	itemMetaQty       = "_qty"
	itemMetaLineTotal = "_line_total"
)

// MetaTableReader reads the legacy entity-attribute-value layout: a
// generic entries table with order fields scattered over entry_meta
// key/value rows, one LEFT JOIN per attribute.
type MetaTableReader struct {
	pool *pgxpool.Pool
}

// NewMetaTableReader creates a reader for the legacy layout.
func NewMetaTableReader(pool *pgxpool.Pool) *MetaTableReader {
	return &MetaTableReader{pool: pool}
}

func (r *MetaTableReader) FetchOrders(ctx context.Context, start, end time.Time, filter StatusFilter) ([]models.OrderRecord, error) {
	lo, hi := rangeBounds(start, end)

	rows, err := r.pool.Query(ctx, `
		SELECT
			e.id,
			e.created_at,
			m_total.meta_value,
			e.status,
			COALESCE(m_stype.meta_value, ''),
			COALESCE(m_source.meta_value, ''),
			COALESCE(m_medium.meta_value, ''),
			COALESCE(m_campaign.meta_value, ''),
			COALESCE(m_device.meta_value, ''),
			COALESCE(m_referrer.meta_value, ''),
			COALESCE(NULLIF(m_views.meta_value, '')::int, 0)
		FROM entries e
		JOIN entry_meta m_total ON m_total.entry_id = e.id AND m_total.meta_key = $4
		LEFT JOIN entry_meta m_stype ON m_stype.entry_id = e.id AND m_stype.meta_key = $5
		LEFT JOIN entry_meta m_source ON m_source.entry_id = e.id AND m_source.meta_key = $6
		LEFT JOIN entry_meta m_medium ON m_medium.entry_id = e.id AND m_medium.meta_key = $7
		LEFT JOIN entry_meta m_campaign ON m_campaign.entry_id = e.id AND m_campaign.meta_key = $8
		LEFT JOIN entry_meta m_device ON m_device.entry_id = e.id AND m_device.meta_key = $9
		LEFT JOIN entry_meta m_referrer ON m_referrer.entry_id = e.id AND m_referrer.meta_key = $10
		LEFT JOIN entry_meta m_views ON m_views.entry_id = e.id AND m_views.meta_key = $11
		WHERE e.entry_type = 'shop_order'
		AND e.status = ANY($1)
		AND e.created_at >= $2
		AND e.created_at <= $3
		AND m_total.meta_value IS NOT NULL
		ORDER BY e.created_at ASC
	`, statusStrings(filter), lo, hi,
		metaOrderTotal, metaSourceType, metaSource, metaMedium,
		metaCampaign, metaDeviceType, metaReferrer, metaPageViews)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
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
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}

		amount, err := decimal.NewFromString(total)
		if err != nil {
			// Legacy meta rows occasionally hold junk; a broken total means
			// the order never completed attribution capture.
			continue
		}
		rec.Total = amount
		rec.Status = models.OrderStatus(status)

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entry rows: %w", err)
	}

	return records, nil
}

func (r *MetaTableReader) TopProducts(ctx context.Context, start, end time.Time, filter StatusFilter, limit int) ([]models.ProductSummaryRow, error) {
	lo, hi := rangeBounds(start, end)

	rows, err := r.pool.Query(ctx, `
		SELECT
			im_product.meta_value::bigint AS product_id,
			MAX(oi.item_name),
			SUM(COALESCE(NULLIF(im_qty.meta_value, '')::int, 0)),
			SUM(COALESCE(NULLIF(im_total.meta_value, '')::numeric, 0))::text
		FROM order_items oi
		JOIN entries e ON e.id = oi.entry_id
		JOIN order_itemmeta im_product ON im_product.item_id = oi.item_id AND im_product.meta_key = $4
		LEFT JOIN order_itemmeta im_qty ON im_qty.item_id = oi.item_id AND im_qty.meta_key = $5
		LEFT JOIN order_itemmeta im_total ON im_total.item_id = oi.item_id AND im_total.meta_key = $6
		WHERE oi.item_type = 'line_item'
		AND e.status = ANY($1)
		AND e.created_at >= $2
		AND e.created_at <= $3
		GROUP BY im_product.meta_value
		ORDER BY SUM(COALESCE(NULLIF(im_total.meta_value, '')::numeric, 0)) DESC
		LIMIT $7
	`, statusStrings(filter), lo, hi,
		itemMetaProductID, itemMetaQty, itemMetaLineTotal, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	return scanProductRows(rows)
}
