package models

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusConfirmed OrderStatus = "Confirmed"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPartial PaymentStatus = "Partial"
	PaymentUnpaid  PaymentStatus = "Unpaid"
)

type PaymentMethod string

const (
	MethodCash  PaymentMethod = "Cash"
	MethodBKash PaymentMethod = "bKash"
	MethodBank  PaymentMethod = "Bank"
	MethodCard  PaymentMethod = "Card"
)

type Order struct {
	ID        string `json:"id" mapstructure:"id" validate:"required"`
	OrderCode string `json:"order_code" mapstructure:"order_code"`

	CustomerID       string   `json:"customer_id" mapstructure:"customer_id"`
	ProductID        string   `json:"product_id" mapstructure:"product_id"`
	QuantityID       string   `json:"quantity_id" mapstructure:"quantity_id"`
	CustomQuantityML *float64 `json:"custom_quantity_ml" mapstructure:"custom_quantity_ml" validate:"omitempty,gt=0"`

	Price       float64  `json:"price" mapstructure:"price" validate:"gte=0"`
	CustomPrice *float64 `json:"custom_price" mapstructure:"custom_price" validate:"omitempty,gte=0"`

	Status        OrderStatus    `json:"status" mapstructure:"status" validate:"oneof=Pending Confirmed Shipped Delivered Cancelled"`
	PaymentStatus PaymentStatus  `json:"payment_status" mapstructure:"payment_status" validate:"oneof=Paid Partial Unpaid"`
	PaymentMethod *PaymentMethod `json:"payment_method" mapstructure:"payment_method" validate:"omitempty,oneof=Cash bKash Bank Card"`

	Discount    float64 `json:"discount" mapstructure:"discount" validate:"gte=0"`
	DeliveryFee float64 `json:"delivery_fee" mapstructure:"delivery_fee" validate:"gte=0"`
	ProductCost float64 `json:"product_cost" mapstructure:"product_cost" validate:"gte=0"`

	// Generated by the store.
	Profit float64 `json:"profit" mapstructure:"profit"`
	Total  float64 `json:"total" mapstructure:"total"`

	Notes        string     `json:"notes" mapstructure:"notes"`
	OrderDate    time.Time  `json:"order_date" mapstructure:"order_date"`
	DeliveryDate *time.Time `json:"delivery_date" mapstructure:"delivery_date"`
	CreatedAt    time.Time  `json:"created_at" mapstructure:"created_at"`

	Customer *Customer `json:"customer,omitempty" mapstructure:"-" validate:"-"`
	Product  *Product  `json:"product,omitempty" mapstructure:"-" validate:"-"`
	Quantity *Quantity `json:"quantity,omitempty" mapstructure:"-" validate:"-"`
}

// EffectivePrice is the price the customer pays before discount and fees.
func (o Order) EffectivePrice() float64 {
	if o.CustomPrice != nil {
		return *o.CustomPrice
	}
	return o.Price
}

// VolumeML is the custom volume if one was set, else the referenced
// quantity's volume. Zero when neither is known.
func (o Order) VolumeML() float64 {
	if o.CustomQuantityML != nil {
		return *o.CustomQuantityML
	}
	if o.Quantity != nil {
		return o.Quantity.ValueML
	}
	return 0
}

// OrderCreate has no field for order_code, profit or total.
type OrderCreate struct {
	CustomerID       string         `json:"customer_id" validate:"required,notblank"`
	ProductID        string         `json:"product_id" validate:"required"`
	QuantityID       string         `json:"quantity_id" validate:"required_without=CustomQuantityML"`
	CustomQuantityML *float64       `json:"custom_quantity_ml" validate:"omitempty,gt=0"`
	Price            float64        `json:"price" validate:"gte=0"`
	CustomPrice      *float64       `json:"custom_price" validate:"omitempty,gte=0"`
	Status           OrderStatus    `json:"status" validate:"omitempty,oneof=Pending Confirmed Shipped Delivered Cancelled"`
	PaymentStatus    PaymentStatus  `json:"payment_status" validate:"omitempty,oneof=Paid Partial Unpaid"`
	PaymentMethod    *PaymentMethod `json:"payment_method" validate:"omitempty,oneof=Cash bKash Bank Card"`
	Discount         float64        `json:"discount" validate:"gte=0"`
	DeliveryFee      float64        `json:"delivery_fee" validate:"gte=0"`
	ProductCost      float64        `json:"product_cost" validate:"gte=0"`
	Notes            string         `json:"notes"`
	OrderDate        *time.Time     `json:"order_date"`
	DeliveryDate     *time.Time     `json:"delivery_date"`
}

func (o OrderCreate) Record() map[string]any {
	rec := map[string]any{
		"customer_id":  o.CustomerID,
		"product_id":   o.ProductID,
		"price":        o.Price,
		"discount":     o.Discount,
		"delivery_fee": o.DeliveryFee,
		"product_cost": o.ProductCost,
	}
	if o.QuantityID != "" {
		rec["quantity_id"] = o.QuantityID
	}
	put(rec, "custom_quantity_ml", o.CustomQuantityML)
	put(rec, "custom_price", o.CustomPrice)
	if o.Status != "" {
		rec["status"] = string(o.Status)
	}
	if o.PaymentStatus != "" {
		rec["payment_status"] = string(o.PaymentStatus)
	}
	if o.PaymentMethod != nil {
		rec["payment_method"] = string(*o.PaymentMethod)
	}
	if o.Notes != "" {
		rec["notes"] = o.Notes
	}
	put(rec, "order_date", o.OrderDate)
	put(rec, "delivery_date", o.DeliveryDate)
	return rec
}

type OrderUpdate struct {
	CustomerID       *string              `json:"customer_id" validate:"omitempty,notblank"`
	ProductID        *string              `json:"product_id" validate:"omitempty,min=1"`
	QuantityID       Patch[string]        `json:"quantity_id"`
	CustomQuantityML Patch[float64]       `json:"custom_quantity_ml"`
	Price            *float64             `json:"price" validate:"omitempty,gte=0"`
	CustomPrice      Patch[float64]       `json:"custom_price"`
	Status           *OrderStatus         `json:"status" validate:"omitempty,oneof=Pending Confirmed Shipped Delivered Cancelled"`
	PaymentStatus    *PaymentStatus       `json:"payment_status" validate:"omitempty,oneof=Paid Partial Unpaid"`
	PaymentMethod    Patch[PaymentMethod] `json:"payment_method"`
	Discount         *float64             `json:"discount" validate:"omitempty,gte=0"`
	DeliveryFee      *float64             `json:"delivery_fee" validate:"omitempty,gte=0"`
	ProductCost      *float64             `json:"product_cost" validate:"omitempty,gte=0"`
	Notes            Patch[string]        `json:"notes"`
	OrderDate        *time.Time           `json:"order_date"`
	DeliveryDate     Patch[time.Time]     `json:"delivery_date"`
}

func (u OrderUpdate) Record() map[string]any {
	rec := map[string]any{}
	put(rec, "customer_id", u.CustomerID)
	put(rec, "product_id", u.ProductID)
	u.QuantityID.put(rec, "quantity_id")
	u.CustomQuantityML.put(rec, "custom_quantity_ml")
	put(rec, "price", u.Price)
	u.CustomPrice.put(rec, "custom_price")
	if u.Status != nil {
		rec["status"] = string(*u.Status)
	}
	if u.PaymentStatus != nil {
		rec["payment_status"] = string(*u.PaymentStatus)
	}
	if u.PaymentMethod.IsSet() {
		if m := u.PaymentMethod.Value(); m != nil {
			rec["payment_method"] = string(*m)
		} else {
			rec["payment_method"] = nil
		}
	}
	put(rec, "discount", u.Discount)
	put(rec, "delivery_fee", u.DeliveryFee)
	put(rec, "product_cost", u.ProductCost)
	u.Notes.put(rec, "notes")
	put(rec, "order_date", u.OrderDate)
	u.DeliveryDate.put(rec, "delivery_date")
	return rec
}
