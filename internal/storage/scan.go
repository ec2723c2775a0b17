package storage

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tagpilot/attribution-insights/internal/models"
)

func scanProductRows(rows pgx.Rows) ([]models.ProductSummaryRow, error) {
	var out []models.ProductSummaryRow
	for rows.Next() {
		var row models.ProductSummaryRow
		var revenue string

		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.Quantity, &revenue); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}

		amount, err := decimal.NewFromString(revenue)
		if err != nil {
			return nil, fmt.Errorf("invalid product revenue for product %d: %w", row.ProductID, err)
		}
		row.Revenue = amount.InexactFloat64()

		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product rows: %w", err)
	}
	return out, nil
}
