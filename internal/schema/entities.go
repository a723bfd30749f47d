package schema

import (
	"perfume-backoffice/internal/models"
	"perfume-backoffice/internal/store"
)

var (
	customerSchema = entitySchema{
		name:     "customer",
		required: []string{"id", "name"},
		defaults: map[string]any{
			"customer_type": string(models.CustomerNew),
			"total_orders":  0,
			"total_spent":   0.0,
		},
	}

	productSchema = entitySchema{
		name:     "product",
		required: []string{"id", "name", "brand", "price_10ml", "price_15ml", "price_30ml", "price_100ml"},
		defaults: map[string]any{
			"gender":                 string(models.GenderUnisex),
			"top_notes":              []string{},
			"middle_notes":           []string{},
			"base_notes":             []string{},
			"total_stock_ml":         0.0,
			"low_stock_threshold_ml": 100.0,
			"active":                 true,
		},
	}

	quantitySchema = entitySchema{
		name:     "quantity",
		required: []string{"id", "label", "value_ml"},
	}

	orderSchema = entitySchema{
		name:     "order",
		required: []string{"id", "price", "profit", "total"},
		defaults: map[string]any{
			"status":         string(models.StatusPending),
			"payment_status": string(models.PaymentUnpaid),
			"discount":       0.0,
			"delivery_fee":   0.0,
			"product_cost":   0.0,
		},
	}
)

func ParseCustomer(r store.Record) (models.Customer, error) {
	return parseWith[models.Customer](customerSchema, r)
}

func ParseProduct(r store.Record) (models.Product, error) {
	return parseWith[models.Product](productSchema, r)
}

func ParseQuantity(r store.Record) (models.Quantity, error) {
	return parseWith[models.Quantity](quantitySchema, r)
}

// ParseOrder parses an order row and its joined sub-objects. A join key that
// is absent is fine; a join key holding nil means the referenced row is gone
// and the order is rejected. The quantity join may be nil when the order
// carries a custom volume.
func ParseOrder(r store.Record) (models.Order, error) {
	var o models.Order
	verr := orderSchema.decode(r, &o)
	if verr == nil {
		verr = &ValidationError{Entity: orderSchema.name}
	}

	if v, ok := r["customer"]; ok {
		c, err := parseJoin[models.Customer](customerSchema, "customer", v, verr)
		if err == nil {
			o.Customer = c
		}
	}
	if v, ok := r["product"]; ok {
		p, err := parseJoin[models.Product](productSchema, "product", v, verr)
		if err == nil {
			o.Product = p
		}
	}
	if v, ok := r["quantity"]; ok && !(isNil(v) && o.CustomQuantityML != nil) {
		q, err := parseJoin[models.Quantity](quantitySchema, "quantity", v, verr)
		if err == nil {
			o.Quantity = q
		}
	}

	if len(verr.Fields) > 0 {
		return models.Order{}, verr
	}
	return o, nil
}

func ParseCustomers(rows []store.Record) ([]models.Customer, []Diagnostic) {
	return ParseAll(rows, ParseCustomer)
}

func ParseProducts(rows []store.Record) ([]models.Product, []Diagnostic) {
	return ParseAll(rows, ParseProduct)
}

func ParseQuantities(rows []store.Record) ([]models.Quantity, []Diagnostic) {
	return ParseAll(rows, ParseQuantity)
}

func ParseOrders(rows []store.Record) ([]models.Order, []Diagnostic) {
	return ParseAll(rows, ParseOrder)
}

func parseWith[T any](s entitySchema, r store.Record) (T, error) {
	var out T
	if verr := s.decode(r, &out); verr != nil {
		var zero T
		return zero, verr
	}
	return out, nil
}

type joinMissing struct{}

func (joinMissing) Error() string { return "referenced row missing" }

// parseJoin parses a joined sub-object with the relaxed schema and records
// its failures on parent under prefix.
func parseJoin[T any](s entitySchema, prefix string, v any, parent *ValidationError) (*T, error) {
	rec, ok := asRecord(v)
	if !ok {
		parent.Fields = append(parent.Fields, FieldError{
			Field:   prefix,
			Rule:    "join",
			Message: "references a " + s.name + " that no longer exists",
		})
		return nil, joinMissing{}
	}
	var out T
	if verr := s.relaxed().decode(rec, &out); verr != nil {
		for _, f := range verr.Fields {
			f.Field = prefix + "." + f.Field
			parent.Fields = append(parent.Fields, f)
		}
		return nil, verr
	}
	return &out, nil
}
