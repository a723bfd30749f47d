// Package pricing derives an order price from a product's tier prices.
package pricing

import (
	"math"

	"perfume-backoffice/internal/models"

	"github.com/shopspring/decimal"
)

// Tiers are the volumes a product carries a fixed price for.
var Tiers = []float64{10, 15, 30, 100}

// Derive returns the price of valueML of p. Tier volumes use the tier price
// as stored; any other volume is interpolated from the 10ml price and
// rounded to cents. A non-positive or NaN volume prices at 0.
func Derive(p models.Product, valueML float64) float64 {
	if math.IsNaN(valueML) || math.IsInf(valueML, 0) || valueML <= 0 {
		return 0
	}
	switch valueML {
	case 10:
		return p.Price10ML
	case 15:
		return p.Price15ML
	case 30:
		return p.Price30ML
	case 100:
		return p.Price100ML
	}
	unit := decimal.NewFromFloat(p.Price10ML).Div(decimal.NewFromInt(10))
	return unit.Mul(decimal.NewFromFloat(valueML)).Round(2).InexactFloat64()
}

// Effective returns custom when it is set, else derived.
func Effective(derived float64, custom *float64) float64 {
	if custom != nil {
		return *custom
	}
	return derived
}

// Volume picks the volume an order is priced at: the custom volume when set,
// else the referenced quantity's.
func Volume(q *models.Quantity, customML *float64) float64 {
	if customML != nil {
		return *customML
	}
	if q == nil {
		return 0
	}
	return q.ValueML
}
