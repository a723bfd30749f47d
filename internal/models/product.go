package models

import (
	"encoding/json"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderUnisex Gender = "Unisex"
)

type Product struct {
	ID     string `json:"id" mapstructure:"id" validate:"required"`
	Name   string `json:"name" mapstructure:"name" validate:"required"`
	Brand  string `json:"brand" mapstructure:"brand" validate:"required"`
	SKU    string `json:"sku" mapstructure:"sku"`
	Gender Gender `json:"gender" mapstructure:"gender" validate:"oneof=Male Female Unisex"`
	Season string `json:"season" mapstructure:"season"`

	// Note order is display order.
	TopNotes    []string `json:"top_notes" mapstructure:"top_notes"`
	MiddleNotes []string `json:"middle_notes" mapstructure:"middle_notes"`
	BaseNotes   []string `json:"base_notes" mapstructure:"base_notes"`

	Price10ML  float64 `json:"price_10ml" mapstructure:"price_10ml" validate:"gte=0"`
	Price15ML  float64 `json:"price_15ml" mapstructure:"price_15ml" validate:"gte=0"`
	Price30ML  float64 `json:"price_30ml" mapstructure:"price_30ml" validate:"gte=0"`
	Price100ML float64 `json:"price_100ml" mapstructure:"price_100ml" validate:"gte=0"`

	TotalStockML        float64 `json:"total_stock_ml" mapstructure:"total_stock_ml" validate:"gte=0"`
	LowStockThresholdML float64 `json:"low_stock_threshold_ml" mapstructure:"low_stock_threshold_ml" validate:"gte=0"`
	Active              bool    `json:"active" mapstructure:"active"`

	CreatedAt time.Time `json:"created_at" mapstructure:"created_at"`
}

// LowStock reports whether stock has fallen under the product's threshold.
func (p Product) LowStock() bool {
	return p.TotalStockML < p.LowStockThresholdML
}

// MarshalJSON adds the derived low_stock flag.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		LowStock bool `json:"low_stock"`
	}{plain(p), p.LowStock()})
}

// ProductCreate requires all four tier prices. A nil threshold or active
// flag leaves the column to its store default.
type ProductCreate struct {
	Name                string   `json:"name" validate:"required"`
	Brand               string   `json:"brand" validate:"required"`
	SKU                 string   `json:"sku"`
	Gender              Gender   `json:"gender" validate:"omitempty,oneof=Male Female Unisex"`
	Season              string   `json:"season"`
	TopNotes            []string `json:"top_notes"`
	MiddleNotes         []string `json:"middle_notes"`
	BaseNotes           []string `json:"base_notes"`
	Price10ML           *float64 `json:"price_10ml" validate:"required,gte=0"`
	Price15ML           *float64 `json:"price_15ml" validate:"required,gte=0"`
	Price30ML           *float64 `json:"price_30ml" validate:"required,gte=0"`
	Price100ML          *float64 `json:"price_100ml" validate:"required,gte=0"`
	TotalStockML        float64  `json:"total_stock_ml" validate:"gte=0"`
	LowStockThresholdML *float64 `json:"low_stock_threshold_ml" validate:"omitempty,gte=0"`
	Active              *bool    `json:"active"`
}

func (p ProductCreate) Record() map[string]any {
	rec := map[string]any{
		"name":           p.Name,
		"brand":          p.Brand,
		"top_notes":      notesOrEmpty(p.TopNotes),
		"middle_notes":   notesOrEmpty(p.MiddleNotes),
		"base_notes":     notesOrEmpty(p.BaseNotes),
		"total_stock_ml": p.TotalStockML,
	}
	put(rec, "price_10ml", p.Price10ML)
	put(rec, "price_15ml", p.Price15ML)
	put(rec, "price_30ml", p.Price30ML)
	put(rec, "price_100ml", p.Price100ML)
	put(rec, "low_stock_threshold_ml", p.LowStockThresholdML)
	put(rec, "active", p.Active)
	if p.Gender != "" {
		rec["gender"] = string(p.Gender)
	}
	if p.SKU != "" {
		rec["sku"] = p.SKU
	}
	if p.Season != "" {
		rec["season"] = p.Season
	}
	return rec
}

type ProductUpdate struct {
	Name                *string       `json:"name" validate:"omitempty,min=1"`
	Brand               *string       `json:"brand" validate:"omitempty,min=1"`
	SKU                 Patch[string] `json:"sku"`
	Gender              *Gender       `json:"gender" validate:"omitempty,oneof=Male Female Unisex"`
	Season              Patch[string] `json:"season"`
	TopNotes            *[]string     `json:"top_notes"`
	MiddleNotes         *[]string     `json:"middle_notes"`
	BaseNotes           *[]string     `json:"base_notes"`
	Price10ML           *float64      `json:"price_10ml" validate:"omitempty,gte=0"`
	Price15ML           *float64      `json:"price_15ml" validate:"omitempty,gte=0"`
	Price30ML           *float64      `json:"price_30ml" validate:"omitempty,gte=0"`
	Price100ML          *float64      `json:"price_100ml" validate:"omitempty,gte=0"`
	TotalStockML        *float64      `json:"total_stock_ml" validate:"omitempty,gte=0"`
	LowStockThresholdML *float64      `json:"low_stock_threshold_ml" validate:"omitempty,gte=0"`
	Active              *bool         `json:"active"`
}

func (u ProductUpdate) Record() map[string]any {
	rec := map[string]any{}
	put(rec, "name", u.Name)
	put(rec, "brand", u.Brand)
	if u.Gender != nil {
		rec["gender"] = string(*u.Gender)
	}
	u.SKU.put(rec, "sku")
	u.Season.put(rec, "season")
	for col, notes := range map[string]*[]string{
		"top_notes":    u.TopNotes,
		"middle_notes": u.MiddleNotes,
		"base_notes":   u.BaseNotes,
	} {
		if notes != nil {
			rec[col] = notesOrEmpty(*notes)
		}
	}
	put(rec, "price_10ml", u.Price10ML)
	put(rec, "price_15ml", u.Price15ML)
	put(rec, "price_30ml", u.Price30ML)
	put(rec, "price_100ml", u.Price100ML)
	put(rec, "total_stock_ml", u.TotalStockML)
	put(rec, "low_stock_threshold_ml", u.LowStockThresholdML)
	put(rec, "active", u.Active)
	return rec
}

func notesOrEmpty(n []string) []string {
	if n == nil {
		return []string{}
	}
	return n
}
