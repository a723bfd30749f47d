package store

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"
)

// TableRules describes the columns of a table that only the store may write
// and how it derives them.
type TableRules struct {
	Name      string
	Generated []string
	// Defaults are applied to columns absent from an insert.
	Defaults Record
	// Compute fills generated columns on a full row. Nil for tables without
	// derived data.
	Compute func(row Record, seq int64)
}

func (t TableRules) isGenerated(col string) bool {
	for _, g := range t.Generated {
		if g == col {
			return true
		}
	}
	return false
}

// DefaultTables mirrors the generated columns of the postgres schema in
// internal/database/schema.sql.
func DefaultTables() []TableRules {
	return []TableRules{
		{
			Name:      TableCustomers,
			Generated: []string{"id", "total_orders", "total_spent", "last_order_date", "created_at"},
			Defaults:  Record{"customer_type": "New", "total_orders": 0, "total_spent": 0.0},
		},
		{
			Name:      TableProducts,
			Generated: []string{"id", "created_at"},
			Defaults: Record{
				"gender":                 "Unisex",
				"top_notes":              []string{},
				"middle_notes":           []string{},
				"base_notes":             []string{},
				"total_stock_ml":         0.0,
				"low_stock_threshold_ml": 100.0,
				"active":                 true,
			},
		},
		{
			Name:      TableQuantities,
			Generated: []string{"id"},
		},
		{
			Name:      TableOrders,
			Generated: []string{"id", "order_code", "profit", "total", "created_at"},
			Defaults: Record{
				"status":         "Pending",
				"payment_status": "Unpaid",
				"discount":       0.0,
				"delivery_fee":   0.0,
				"product_cost":   0.0,
			},
			Compute: computeOrder,
		},
	}
}

func computeOrder(row Record, seq int64) {
	price := cast.ToFloat64(row["price"])
	if row["custom_price"] != nil {
		price = cast.ToFloat64(row["custom_price"])
	}
	discount := cast.ToFloat64(row["discount"])
	fee := cast.ToFloat64(row["delivery_fee"])
	cost := cast.ToFloat64(row["product_cost"])

	row["total"] = round2(price - discount + fee)
	row["profit"] = round2(price - discount - cost)
	if row["order_code"] == nil {
		row["order_code"] = fmt.Sprintf("ORD-%05d", seq)
	}
	if row["order_date"] == nil {
		row["order_date"] = time.Now().UTC()
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DefaultQuantities are the sizes every fresh store starts with, matching the
// seed in the postgres schema.
func DefaultQuantities() []Record {
	return []Record{
		{"label": "10ml", "value_ml": 10.0},
		{"label": "15ml", "value_ml": 15.0},
		{"label": "30ml", "value_ml": 30.0},
		{"label": "100ml", "value_ml": 100.0},
	}
}
