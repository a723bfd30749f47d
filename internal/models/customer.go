package models

import "time"

type CustomerType string

const (
	CustomerNew     CustomerType = "New"
	CustomerRegular CustomerType = "Regular"
	CustomerVIP     CustomerType = "VIP"
)

type Customer struct {
	ID           string       `json:"id" mapstructure:"id" validate:"required"`
	Name         string       `json:"name" mapstructure:"name" validate:"required"`
	Phone        string       `json:"phone" mapstructure:"phone"`
	Email        string       `json:"email" mapstructure:"email"`
	Address      string       `json:"address" mapstructure:"address"`
	City         string       `json:"city" mapstructure:"city"`
	CustomerType CustomerType `json:"customer_type" mapstructure:"customer_type" validate:"oneof=New Regular VIP"`
	Notes        string       `json:"notes" mapstructure:"notes"`

	// Maintained by the store from the orders table.
	TotalOrders   int        `json:"total_orders" mapstructure:"total_orders" validate:"gte=0"`
	TotalSpent    float64    `json:"total_spent" mapstructure:"total_spent"`
	LastOrderDate *time.Time `json:"last_order_date" mapstructure:"last_order_date"`

	CreatedAt time.Time `json:"created_at" mapstructure:"created_at"`
}

// CustomerCreate has no field for the store-maintained aggregates.
type CustomerCreate struct {
	Name         string       `json:"name" validate:"required,notblank"`
	Phone        string       `json:"phone"`
	Email        string       `json:"email" validate:"omitempty,email"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	CustomerType CustomerType `json:"customer_type" validate:"omitempty,oneof=New Regular VIP"`
	Notes        string       `json:"notes"`
}

func (c CustomerCreate) Record() map[string]any {
	rec := map[string]any{"name": c.Name}
	if c.CustomerType != "" {
		rec["customer_type"] = string(c.CustomerType)
	}
	for col, v := range map[string]string{
		"phone":   c.Phone,
		"email":   c.Email,
		"address": c.Address,
		"city":    c.City,
		"notes":   c.Notes,
	} {
		if v != "" {
			rec[col] = v
		}
	}
	return rec
}

// CustomerUpdate sends only the fields that are set.
type CustomerUpdate struct {
	Name         *string       `json:"name" validate:"omitempty,notblank"`
	Phone        Patch[string] `json:"phone"`
	Email        Patch[string] `json:"email"`
	Address      Patch[string] `json:"address"`
	City         Patch[string] `json:"city"`
	CustomerType *CustomerType `json:"customer_type" validate:"omitempty,oneof=New Regular VIP"`
	Notes        Patch[string] `json:"notes"`
}

func (u CustomerUpdate) Record() map[string]any {
	rec := map[string]any{}
	put(rec, "name", u.Name)
	if u.CustomerType != nil {
		rec["customer_type"] = string(*u.CustomerType)
	}
	u.Phone.put(rec, "phone")
	u.Email.put(rec, "email")
	u.Address.put(rec, "address")
	u.City.put(rec, "city")
	u.Notes.put(rec, "notes")
	return rec
}
