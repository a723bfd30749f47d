package pricing

import (
	"math"
	"testing"

	"perfume-backoffice/internal/models"

	"github.com/stretchr/testify/assert"
)

func testProduct() models.Product {
	return models.Product{
		ID:         "p1",
		Name:       "Oud Wood",
		Price10ML:  500,
		Price15ML:  700,
		Price30ML:  1300,
		Price100ML: 4000,
	}
}

func TestDerive_TierPrices(t *testing.T) {
	p := testProduct()

	tests := []struct {
		ml   float64
		want float64
	}{
		{10, 500},
		{15, 700},
		{30, 1300},
		{100, 4000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Derive(p, tt.ml), "tier %vml", tt.ml)
	}
}

func TestDerive_TierIsNotInterpolated(t *testing.T) {
	// 15ml tier deliberately cheaper than 1.5x the 10ml price
	p := testProduct()
	p.Price15ML = 600
	assert.Equal(t, 600.0, Derive(p, 15))
}

func TestDerive_Interpolates(t *testing.T) {
	p := testProduct()

	tests := []struct {
		name string
		ml   float64
		want float64
	}{
		{"20ml", 20, 1000},
		{"5ml", 5, 250},
		{"50ml", 50, 2500},
		{"fractional", 2.5, 125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(p, tt.ml))
		})
	}
}

func TestDerive_RoundsToCents(t *testing.T) {
	p := testProduct()
	p.Price10ML = 333.33
	assert.Equal(t, 233.33, Derive(p, 7))
}

func TestDerive_NonPositiveVolume(t *testing.T) {
	p := testProduct()
	assert.Zero(t, Derive(p, 0))
	assert.Zero(t, Derive(p, -5))
	assert.Zero(t, Derive(p, math.NaN()))
	assert.Zero(t, Derive(p, math.Inf(1)))
}

func TestEffective(t *testing.T) {
	custom := 800.0
	assert.Equal(t, 800.0, Effective(1000, &custom))
	assert.Equal(t, 1000.0, Effective(1000, nil))

	zero := 0.0
	assert.Equal(t, 0.0, Effective(1000, &zero), "explicit zero custom price still wins")
}

func TestVolume(t *testing.T) {
	q := &models.Quantity{ID: "q", Label: "30ml", ValueML: 30}
	custom := 12.0

	assert.Equal(t, 30.0, Volume(q, nil))
	assert.Equal(t, 12.0, Volume(q, &custom))
	assert.Equal(t, 12.0, Volume(nil, &custom))
	assert.Zero(t, Volume(nil, nil))
}
