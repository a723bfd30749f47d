package schema

import (
	"errors"
	"testing"

	"perfume-backoffice/internal/models"
	"perfume-backoffice/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productRow(extra store.Record) store.Record {
	r := store.Record{
		"id": "p1", "name": "Oud Wood", "brand": "Tom Ford",
		"price_10ml": 500.0, "price_15ml": 700.0, "price_30ml": 1300.0, "price_100ml": 4000.0,
	}
	for k, v := range extra {
		r[k] = v
	}
	return r
}

func TestParseCustomer_Defaults(t *testing.T) {
	tests := []struct {
		name string
		rec  store.Record
	}{
		{"absent", store.Record{"id": "c1", "name": "John"}},
		{"nil is absent", store.Record{"id": "c1", "name": "John", "customer_type": nil, "total_orders": nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCustomer(tt.rec)
			require.NoError(t, err)
			assert.Equal(t, models.CustomerNew, c.CustomerType)
			assert.Equal(t, 0, c.TotalOrders)
			assert.Equal(t, 0.0, c.TotalSpent)
			assert.Nil(t, c.LastOrderDate)
		})
	}
}

func TestParseCustomer_Required(t *testing.T) {
	_, err := ParseCustomer(store.Record{"id": "c1", "phone": "017"})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("name"))
	assert.Equal(t, "is required", verr.FieldMap()["name"])
	assert.Len(t, verr.Fields, 1, "one entry per field")
	assert.Contains(t, err.Error(), "invalid customer")
}

func TestParseProduct_Coercion(t *testing.T) {
	tests := []struct {
		name  string
		extra store.Record
		check func(t *testing.T, p models.Product)
	}{
		{"numeric strings", store.Record{"price_10ml": "550.50", "total_stock_ml": "80"}, func(t *testing.T, p models.Product) {
			assert.Equal(t, 550.5, p.Price10ML)
			assert.Equal(t, 80.0, p.TotalStockML)
			assert.True(t, p.LowStock())
		}},
		{"postgres array literal", store.Record{"top_notes": `{bergamot,"pink pepper"}`}, func(t *testing.T, p models.Product) {
			assert.Equal(t, []string{"bergamot", "pink pepper"}, p.TopNotes)
		}},
		{"json array", store.Record{"base_notes": `["amber","musk"]`}, func(t *testing.T, p models.Product) {
			assert.Equal(t, []string{"amber", "musk"}, p.BaseNotes)
		}},
		{"any slice", store.Record{"middle_notes": []any{"rose", "iris"}}, func(t *testing.T, p models.Product) {
			assert.Equal(t, []string{"rose", "iris"}, p.MiddleNotes)
		}},
		{"defaults", nil, func(t *testing.T, p models.Product) {
			assert.Equal(t, models.GenderUnisex, p.Gender)
			assert.Equal(t, []string{}, p.TopNotes)
			assert.Equal(t, 100.0, p.LowStockThresholdML)
			assert.True(t, p.Active)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProduct(productRow(tt.extra))
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestParseProduct_Rules(t *testing.T) {
	tests := []struct {
		name  string
		extra store.Record
		field string
		msg   string
	}{
		{"enum", store.Record{"gender": "Other"}, "gender", "must be one of Male, Female, Unisex"},
		{"negative price", store.Record{"price_30ml": -1.0}, "price_30ml", "must be at least 0"},
		{"bad number", store.Record{"price_15ml": "cheap"}, "price_15ml", ""},
		{"missing price", store.Record{"price_100ml": nil}, "price_100ml", "is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProduct(productRow(tt.extra))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.True(t, verr.Has(tt.field), verr.Error())
			if tt.msg != "" {
				assert.Equal(t, tt.msg, verr.FieldMap()[tt.field])
			}
		})
	}
}

func orderRow(extra store.Record) store.Record {
	r := store.Record{
		"id": "o1", "order_code": "ORD-00001",
		"customer_id": "c1", "product_id": "p1", "quantity_id": "q10",
		"price": 500.0, "profit": 300.0, "total": 560.0, "delivery_fee": 60.0,
	}
	for k, v := range extra {
		r[k] = v
	}
	return r
}

func TestParseOrder_Joins(t *testing.T) {
	o, err := ParseOrder(orderRow(store.Record{
		"customer": store.Record{"id": "c1", "name": "John"},
		"product":  map[string]any{"id": "p1", "name": "Oud Wood"},
		"quantity": store.Record{"id": "q10", "label": "10ml", "value_ml": "10"},
	}))
	require.NoError(t, err)
	require.NotNil(t, o.Customer)
	assert.Equal(t, "John", o.Customer.Name)
	require.NotNil(t, o.Product)
	assert.Equal(t, "Oud Wood", o.Product.Name, "joined subsets skip required columns")
	require.NotNil(t, o.Quantity)
	assert.Equal(t, 10.0, o.VolumeML())
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, models.PaymentUnpaid, o.PaymentStatus)
}

func TestParseOrder_MissingJoin(t *testing.T) {
	_, err := ParseOrder(orderRow(store.Record{"product": nil}))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.True(t, verr.Has("product"))
	assert.Equal(t, "join", verr.Fields[0].Rule)
}

func TestParseOrder_CustomVolumeWithoutQuantity(t *testing.T) {
	o, err := ParseOrder(orderRow(store.Record{
		"quantity_id":        nil,
		"custom_quantity_ml": 20.0,
		"quantity":           nil,
	}))
	require.NoError(t, err)
	assert.Nil(t, o.Quantity)
	assert.Equal(t, 20.0, o.VolumeML())
}

func TestParseOrder_JoinErrorsArePrefixed(t *testing.T) {
	_, err := ParseOrder(orderRow(store.Record{
		"customer": store.Record{"id": "c1", "customer_type": "Gold"},
	}))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("customer.customer_type"))
}

func TestParseOrders_Diagnostics(t *testing.T) {
	rows := []store.Record{
		orderRow(nil),
		orderRow(store.Record{"id": "o2", "total": nil}),
		orderRow(store.Record{"id": "o3", "product": nil}),
		orderRow(store.Record{"id": "o4", "status": "Lost"}),
		orderRow(store.Record{"id": "o5"}),
	}

	orders, diags := ParseOrders(rows)
	require.Len(t, orders, 2)
	assert.Equal(t, "o1", orders[0].ID)
	assert.Equal(t, "o5", orders[1].ID)

	require.Len(t, diags, 3)
	assert.Equal(t, 1, diags[0].Index)
	assert.Equal(t, "o2", diags[0].ID)
	assert.Contains(t, diags[2].String(), `id="o4"`)
}
