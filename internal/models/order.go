package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the order states the reports care about.
type OrderStatus string

const (
	StatusCompleted  OrderStatus = "completed"
	StatusProcessing OrderStatus = "processing"
	StatusOnHold     OrderStatus = "on-hold"
)

// ReportedStatuses is the status set a report covers when no explicit
// status filter is given.
var ReportedStatuses = []OrderStatus{StatusCompleted, StatusProcessing, StatusOnHold}

// OrderRecord is a read-only order row annotated with last-touch
// attribution metadata. Attribution fields are raw as stored: empty
// string means the field was absent; canonicalization happens in the
// aggregator, not here.
type OrderRecord struct {
	OrderID    int64
	CreatedAt  time.Time
	Total      decimal.Decimal
	Status     OrderStatus
	SourceType string
	Source     string
	Medium     string
	Campaign   string
	DeviceType string
	Referrer   string
	PageViews  int
}

// ProductSummaryRow is one entry of the product ranking. Revenue is the
// exact SQL-side sum, converted for the wire at the boundary.
type ProductSummaryRow struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}
