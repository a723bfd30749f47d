package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"perfume-backoffice/internal/cache"
	"perfume-backoffice/internal/form"
	"perfume-backoffice/internal/models"
	"perfume-backoffice/internal/pricing"
	"perfume-backoffice/internal/schema"
	"perfume-backoffice/internal/store"

	"go.uber.org/zap"
)

// OrderForm edits an order. CustomerID holds either the id of an existing
// customer or the name typed for a new one.
type OrderForm struct {
	CustomerID       string               `json:"customer_id" validate:"required,notblank"`
	ProductID        string               `json:"product_id" validate:"required"`
	QuantityID       string               `json:"quantity_id" validate:"required_without=CustomQuantityML"`
	CustomQuantityML *float64             `json:"custom_quantity_ml" validate:"omitempty,gt=0"`
	Price            float64              `json:"price" validate:"gte=0"`
	CustomPrice      *float64             `json:"custom_price" validate:"omitempty,gte=0"`
	Status           models.OrderStatus   `json:"status" validate:"oneof=Pending Confirmed Shipped Delivered Cancelled"`
	PaymentStatus    models.PaymentStatus `json:"payment_status" validate:"oneof=Paid Partial Unpaid"`
	PaymentMethod    models.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=Cash bKash Bank Card"`
	Discount         float64              `json:"discount" validate:"gte=0"`
	DeliveryFee      float64              `json:"delivery_fee" validate:"gte=0"`
	ProductCost      float64              `json:"product_cost" validate:"gte=0"`
	Notes            string               `json:"notes"`
	OrderDate        *time.Time           `json:"order_date"`
	DeliveryDate     *time.Time           `json:"delivery_date"`
}

func defaultOrderForm() OrderForm {
	return OrderForm{
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentUnpaid,
	}
}

func OrderFormFrom(o models.Order) OrderForm {
	f := OrderForm{
		CustomerID:       o.CustomerID,
		ProductID:        o.ProductID,
		QuantityID:       o.QuantityID,
		CustomQuantityML: o.CustomQuantityML,
		Price:            o.Price,
		CustomPrice:      o.CustomPrice,
		Status:           o.Status,
		PaymentStatus:    o.PaymentStatus,
		Discount:         o.Discount,
		DeliveryFee:      o.DeliveryFee,
		ProductCost:      o.ProductCost,
		Notes:            o.Notes,
		DeliveryDate:     o.DeliveryDate,
	}
	if o.PaymentMethod != nil {
		f.PaymentMethod = *o.PaymentMethod
	}
	if !o.OrderDate.IsZero() {
		d := o.OrderDate
		f.OrderDate = &d
	}
	return f
}

// price is what the order is stored at: the custom price when one was
// entered, else the derived price.
func (f OrderForm) price() float64 {
	return pricing.Effective(f.Price, f.CustomPrice)
}

func (f OrderForm) paymentMethod() *models.PaymentMethod {
	if f.PaymentMethod == "" {
		return nil
	}
	m := f.PaymentMethod
	return &m
}

func (f OrderForm) Create(customerID string) models.OrderCreate {
	return models.OrderCreate{
		CustomerID:       customerID,
		ProductID:        f.ProductID,
		QuantityID:       f.QuantityID,
		CustomQuantityML: f.CustomQuantityML,
		Price:            f.price(),
		CustomPrice:      f.CustomPrice,
		Status:           f.Status,
		PaymentStatus:    f.PaymentStatus,
		PaymentMethod:    f.paymentMethod(),
		Discount:         f.Discount,
		DeliveryFee:      f.DeliveryFee,
		ProductCost:      f.ProductCost,
		Notes:            f.Notes,
		OrderDate:        f.OrderDate,
		DeliveryDate:     f.DeliveryDate,
	}
}

func (f OrderForm) Update(customerID string) models.OrderUpdate {
	price := f.price()
	status, payment := f.Status, f.PaymentStatus
	discount, fee, cost := f.Discount, f.DeliveryFee, f.ProductCost
	productID := f.ProductID
	return models.OrderUpdate{
		CustomerID:       &customerID,
		ProductID:        &productID,
		QuantityID:       patchString(f.QuantityID),
		CustomQuantityML: models.SetPtr(f.CustomQuantityML),
		Price:            &price,
		CustomPrice:      models.SetPtr(f.CustomPrice),
		Status:           &status,
		PaymentStatus:    &payment,
		PaymentMethod:    models.SetPtr(f.paymentMethod()),
		Discount:         &discount,
		DeliveryFee:      &fee,
		ProductCost:      &cost,
		Notes:            patchString(f.Notes),
		OrderDate:        f.OrderDate,
		DeliveryDate:     models.SetPtr(f.DeliveryDate),
	}
}

type OrderService struct {
	deps       Deps
	coll       *cache.Collection[models.Order]
	edit       *editor[OrderForm]
	customers  *CustomerService
	products   *ProductService
	quantities *QuantityService
}

var orderJoins = []store.Join{
	{As: "customer", Table: store.TableCustomers, ForeignKey: "customer_id"},
	{As: "product", Table: store.TableProducts, ForeignKey: "product_id"},
	{As: "quantity", Table: store.TableQuantities, ForeignKey: "quantity_id"},
}

func NewOrderService(d Deps, customers *CustomerService, products *ProductService, quantities *QuantityService) *OrderService {
	s := &OrderService{
		deps: d,
		edit: newEditor(form.New(defaultOrderForm(), form.Struct[OrderForm](form.Messages{
			"customer_id": "Customer is required",
			"product_id":  "Product is required",
			"quantity_id": "Quantity is required",
		}))),
		customers:  customers,
		products:   products,
		quantities: quantities,
	}
	s.coll = cache.NewCollection(store.TableOrders, s.fetch,
		func(o models.Order) string { return o.ID }, d.options(true))
	d.register(s.coll)
	return s
}

func (s *OrderService) fetch(ctx context.Context) ([]models.Order, error) {
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	rows, err := s.deps.Store.Select(ctx, store.TableOrders, store.Query{
		Joins:   orderJoins,
		OrderBy: "created_at",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders, diags := schema.ParseOrders(rows)
	logDiagnostics("order", diags)
	return orders, nil
}

func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.coll.Get(ctx)
}

func (s *OrderService) State() cache.State[models.Order] {
	return s.coll.State()
}

// SearchCustomers backs the customer autocomplete of the order form.
func (s *OrderService) SearchCustomers(ctx context.Context, query string) ([]models.Customer, error) {
	return s.customers.Search(ctx, query)
}

// Quote derives the price of productID at the quantity's volume, or at
// customML when set.
func (s *OrderService) Quote(ctx context.Context, productID, quantityID string, customML *float64) (float64, error) {
	p, ok, err := s.products.Find(ctx, productID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("product %s: %w", productID, store.ErrNotFound)
	}

	var q *models.Quantity
	if quantityID != "" {
		found, ok, err := s.quantities.Find(ctx, quantityID)
		if err != nil {
			return 0, err
		}
		if !ok && customML == nil {
			return 0, fmt.Errorf("quantity %s: %w", quantityID, store.ErrNotFound)
		}
		if ok {
			q = &found
		}
	}
	return pricing.Derive(p, pricing.Volume(q, customML)), nil
}

// Create inserts an order. Its customer, product and quantity ids must name
// existing records; an unknown id fails validation on its field.
func (s *OrderService) Create(ctx context.Context, in models.OrderCreate) (models.Order, error) {
	if err := s.checkRefs(ctx, in.CustomerID, in.ProductID, in.QuantityID); err != nil {
		return models.Order{}, err
	}
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	row, err := s.deps.Store.Insert(ctx, store.TableOrders, store.Record(in.Record()))
	if err != nil {
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}
	s.customers.Invalidate(ctx)
	return s.merge(ctx, row), nil
}

func (s *OrderService) Update(ctx context.Context, id string, in models.OrderUpdate) (models.Order, error) {
	var quantityID string
	if q := in.QuantityID.Value(); q != nil {
		quantityID = *q
	}
	if err := s.checkRefs(ctx, deref(in.CustomerID), deref(in.ProductID), quantityID); err != nil {
		return models.Order{}, err
	}
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	row, err := s.deps.Store.Update(ctx, store.TableOrders, id, store.Record(in.Record()))
	if err != nil {
		return models.Order{}, fmt.Errorf("update order %s: %w", id, err)
	}
	s.customers.Invalidate(ctx)
	return s.merge(ctx, row), nil
}

// checkRefs looks up the referenced ids, skipping empty ones.
func (s *OrderService) checkRefs(ctx context.Context, customerID, productID, quantityID string) error {
	errs := form.Errors{}
	refs := []struct {
		id, field, msg string
		exists         func(context.Context, string) (bool, error)
	}{
		{customerID, "customer_id", "Customer not found", func(ctx context.Context, id string) (bool, error) {
			return exists(ctx, s.customers.coll, id)
		}},
		{productID, "product_id", "Product not found", func(ctx context.Context, id string) (bool, error) {
			return exists(ctx, s.products.coll, id)
		}},
		{quantityID, "quantity_id", "Quantity not found", func(ctx context.Context, id string) (bool, error) {
			return exists(ctx, s.quantities.coll, id)
		}},
	}
	for _, r := range refs {
		if r.id == "" {
			continue
		}
		ok, err := r.exists(ctx, r.id)
		if err != nil {
			return err
		}
		if !ok {
			errs[r.field] = r.msg
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// exists looks id up in c. A miss refetches once, so rows written by another
// client since the last load are found.
func exists[T any](ctx context.Context, c *cache.Collection[T], id string) (bool, error) {
	if _, err := c.Get(ctx); err != nil {
		return false, err
	}
	if _, ok := c.Find(id); ok {
		return true, nil
	}
	c.Invalidate(ctx)
	if _, err := c.Get(ctx); err != nil {
		return false, err
	}
	_, ok := c.Find(id)
	return ok, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// merge upserts a written order, attaching the referenced rows from the
// other collections' caches since writes return the bare row.
func (s *OrderService) merge(ctx context.Context, row store.Record) models.Order {
	o, err := schema.ParseOrder(row)
	if err != nil {
		zap.S().Warnw("mutation returned an invalid order; refetching", "id", row.ID(), "error", err)
		s.coll.Invalidate(ctx)
		return models.Order{ID: row.ID()}
	}
	prev, _ := s.coll.Find(o.ID)
	if c, ok := s.customers.coll.Find(o.CustomerID); ok {
		o.Customer = &c
	} else if prev.CustomerID == o.CustomerID {
		o.Customer = prev.Customer
	}
	if p, ok := s.products.coll.Find(o.ProductID); ok {
		o.Product = &p
	} else if prev.ProductID == o.ProductID {
		o.Product = prev.Product
	}
	if q, ok := s.quantities.coll.Find(o.QuantityID); ok {
		o.Quantity = &q
	} else if prev.QuantityID == o.QuantityID {
		o.Quantity = prev.Quantity
	}
	s.coll.Upsert(ctx, o)
	return o
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	if err := s.deps.Store.Delete(ctx, store.TableOrders, id); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	s.coll.Evict(ctx, id)
	s.customers.Invalidate(ctx)
	return nil
}

func (s *OrderService) BeginEdit(o models.Order)  { s.edit.begin(o.ID, OrderFormFrom(o)) }
func (s *OrderService) BeginCreate()              { s.edit.beginNew() }
func (s *OrderService) CancelEdit()               { s.edit.cancel() }
func (s *OrderService) EndEdit()                  { s.edit.cancel() }
func (s *OrderService) Session() Session          { return s.edit.session() }
func (s *OrderService) Form() FormView[OrderForm] { return s.edit.view() }

// UpdateForm applies fn to the form and re-derives the price when the
// product, quantity or custom volume changed.
func (s *OrderService) UpdateForm(ctx context.Context, fn func(*OrderForm)) error {
	var before, after OrderForm
	err := s.edit.update(func(f *OrderForm) {
		before = *f
		fn(f)
		after = *f
	})
	if err != nil {
		return err
	}
	if !selectionChanged(before, after) || after.ProductID == "" {
		return nil
	}
	if after.QuantityID == "" && after.CustomQuantityML == nil {
		return nil
	}

	price, err := s.Quote(ctx, after.ProductID, after.QuantityID, after.CustomQuantityML)
	if err != nil {
		zap.S().Debugw("price not derived", "product_id", after.ProductID, "quantity_id", after.QuantityID, "error", err)
		return nil
	}
	return s.edit.update(func(f *OrderForm) {
		if !selectionChanged(after, *f) {
			f.Price = price
		}
	})
}

func selectionChanged(a, b OrderForm) bool {
	if a.ProductID != b.ProductID || a.QuantityID != b.QuantityID {
		return true
	}
	switch {
	case a.CustomQuantityML == nil && b.CustomQuantityML == nil:
		return false
	case a.CustomQuantityML == nil || b.CustomQuantityML == nil:
		return true
	}
	return *a.CustomQuantityML != *b.CustomQuantityML
}

// Submit persists the order form. A customer reference that matches no
// existing customer id is taken as a new customer's name: that customer is
// created first and the order points at it.
func (s *OrderService) Submit(ctx context.Context) (models.Order, error) {
	var saved models.Order
	err := s.edit.submit(func(sub submission[OrderForm]) error {
		customerID, err := s.resolveCustomer(ctx, sub)
		if err != nil {
			return err
		}
		if sub.target == "" {
			saved, err = s.Create(ctx, sub.values.Create(customerID))
		} else {
			saved, err = s.Update(ctx, sub.target, sub.values.Update(customerID))
		}
		return err
	})
	return saved, err
}

func (s *OrderService) resolveCustomer(ctx context.Context, sub submission[OrderForm]) (string, error) {
	ref := sub.values.CustomerID
	ok, err := exists(ctx, s.customers.coll, ref)
	if err != nil {
		return "", err
	}
	if ok {
		return ref, nil
	}

	created, err := s.customers.Create(ctx, models.CustomerCreate{Name: strings.TrimSpace(ref)})
	if err != nil {
		return "", err
	}
	// a retry after a failed order create must reuse this customer
	sub.amend(func(f *OrderForm) {
		if f.CustomerID == ref {
			f.CustomerID = created.ID
		}
	})
	return created.ID, nil
}
