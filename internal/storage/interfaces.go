package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tagpilot/attribution-insights/internal/models"
)

// StatusFilter narrows a report to an order status set.
type StatusFilter string

const (
	FilterAll        StatusFilter = "all"
	FilterCompleted  StatusFilter = "completed"
	FilterProcessing StatusFilter = "processing"
	FilterOnHold     StatusFilter = "on-hold"
)

// ParseStatusFilter validates a caller-supplied status filter. The empty
// string means "all".
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterCompleted, FilterProcessing, FilterOnHold:
		return StatusFilter(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Statuses expands the filter into the concrete status set.
func (f StatusFilter) Statuses() []models.OrderStatus {
	if f == FilterAll || f == "" {
		return models.ReportedStatuses
	}
	return []models.OrderStatus{models.OrderStatus(f)}
}

// OrderReader retrieves order records annotated with attribution metadata.
// The physical layout (normalized order tables vs the legacy meta-table
// layout) is resolved once at startup; callers see one logical contract.
type OrderReader interface {
	// FetchOrders returns all orders created inside [start 00:00:00,
	// end 23:59:59], both inclusive. Orders without a recorded total are
	// skipped: they represent incomplete capture, not zero revenue.
	FetchOrders(ctx context.Context, start, end time.Time, filter StatusFilter) ([]models.OrderRecord, error)

	// TopProducts ranks products by revenue over the same inclusive range
	// and status set, considering line items only.
	TopProducts(ctx context.Context, start, end time.Time, filter StatusFilter, limit int) ([]models.ProductSummaryRow, error)
}

// Schema identifies a physical order storage layout.
type Schema string

const (
	// SchemaOrders is the optimized layout: dedicated order tables with a
	// normalized attribution side table.
	SchemaOrders Schema = "orders"
	// SchemaMeta is the legacy layout: a generic entries table with
	// attribution spread across key/value metadata rows.
	SchemaMeta Schema = "meta"
)

// DetectSchema probes the database once for the optimized layout. It is
// called at startup; the answer never changes per-query.
func DetectSchema(ctx context.Context, pool *pgxpool.Pool) (Schema, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_name = 'order_attribution'
		)
	`).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to probe order schema: %w", err)
	}
	if exists {
		return SchemaOrders, nil
	}
	return SchemaMeta, nil
}

// NewOrderReader builds the reader for the given schema.
func NewOrderReader(pool *pgxpool.Pool, schema Schema) (OrderReader, error) {
	switch schema {
	case SchemaOrders:
		return NewOrdersTableReader(pool), nil
	case SchemaMeta:
		return NewMetaTableReader(pool), nil
	}
	return nil, fmt.Errorf("unknown order schema %q", schema)
}

// rangeBounds widens a calendar-date pair to the inclusive timestamp range
// every reader implementation queries with.
func rangeBounds(start, end time.Time) (time.Time, time.Time) {
	lo := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	hi := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, end.Location())
	return lo, hi
}

// statusStrings converts the status set for SQL ANY() binding.
func statusStrings(f StatusFilter) []string {
	statuses := f.Statuses()
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
