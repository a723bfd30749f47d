package service

import (
	"context"
	"testing"

	"perfume-backoffice/internal/models"
	"perfume-backoffice/internal/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotes(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"bergamot, lemon,, pepper ", []string{"bergamot", "lemon", "pepper"}},
		{"", []string{}},
		{" , ", []string{}},
		{"oud", []string{"oud"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseNotes(tt.in), "input %q", tt.in)
	}
}

func catalog() []models.Product {
	return []models.Product{
		{ID: "1", Name: "Oud Wood", Brand: "Tom Ford", Gender: models.GenderUnisex, Season: "Winter"},
		{ID: "2", Name: "Bleu", Brand: "Chanel", Gender: models.GenderMale, Season: "Summer"},
		{ID: "3", Name: "Coco Mademoiselle", Brand: "Chanel", Gender: models.GenderFemale},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter ProductFilter
		want   []string
	}{
		{"empty", ProductFilter{}, []string{"1", "2", "3"}},
		{"search name", ProductFilter{Search: "oud"}, []string{"1"}},
		{"search brand", ProductFilter{Search: "CHANEL"}, []string{"2", "3"}},
		{"brand and gender", ProductFilter{Brand: "Chanel", Gender: models.GenderFemale}, []string{"3"}},
		{"season", ProductFilter{Season: "Summer"}, []string{"2"}},
		{"no match", ProductFilter{Search: "vanilla"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, p := range Filter(catalog(), tt.filter) {
				got = append(got, p.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFacets(t *testing.T) {
	got := Facets(catalog())
	assert.Equal(t, []string{"Chanel", "Tom Ford"}, got.Brands)
	assert.Equal(t, []string{"Female", "Male", "Unisex"}, got.Genders)
	assert.Equal(t, []string{"Summer", "Winter"}, got.Seasons)
}

func TestProductService_SubmitRoundTripsNotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	products, err := f.products.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)

	f.products.BeginEdit(products[0])
	assert.Equal(t, "oud", f.products.Form().Values.TopNotes)

	require.NoError(t, f.products.UpdateForm(func(p *ProductForm) {
		p.TopNotes = "oud, rosewood"
		p.BaseNotes = "amber"
		p.TotalStockML = 40
	}))
	updated, err := f.products.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"oud", "rosewood"}, updated.TopNotes)
	assert.Equal(t, []string{"amber"}, updated.BaseNotes)
	assert.Equal(t, []string{}, updated.MiddleNotes)
	assert.True(t, updated.LowStock())
	assert.Equal(t, 500.0, updated.Price10ML, "unchanged tier prices are preserved")
}

func TestProductService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.products.BeginCreate()
	require.NoError(t, f.products.UpdateForm(func(p *ProductForm) {
		p.Price15ML = -1
	}))

	_, err := f.products.Submit(ctx)
	require.Error(t, err)

	errs := f.products.Form().Errors
	assert.Equal(t, "Product name is required", errs["name"])
	assert.Equal(t, "Brand is required", errs["brand"])
	assert.Equal(t, "Price 15ml must be at least 0", errs["price_15ml"])
	assert.Empty(t, f.rec.writes())
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.products.BeginCreate()
	require.NoError(t, f.products.UpdateForm(func(p *ProductForm) {
		p.Name = "Aventus"
		p.Brand = "Creed"
		p.Gender = models.GenderMale
		p.Price10ML, p.Price15ML, p.Price30ML, p.Price100ML = 900, 1300, 2500, 8000
	}))

	created, err := f.products.Submit(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Active)
	assert.Equal(t, 100.0, created.LowStockThresholdML)
	assert.Equal(t, []string{}, created.TopNotes)

	found, ok, err := f.products.Find(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Aventus", found.Name)
}

func TestProductService_Import(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rows := []sheet.Row{
		{Line: 2, Cells: map[string]string{
			"name": "Aventus", "brand": "Creed", "gender": "Male",
			"top_notes":  "pineapple, bergamot",
			"price_10ml": "900", "price_15ml": "1300", "price_30ml": "2500", "price_100ml": "8000",
		}},
		{Line: 3, Cells: map[string]string{"name": "No Brand", "price_15ml": "cheap"}},
		{Line: 4, Cells: map[string]string{
			"name": "Gypsy Water", "brand": "Byredo", "active": "false",
			"price_10ml": "400", "price_15ml": "550", "price_30ml": "1000", "price_100ml": "3000",
		}},
		{Line: 5, Cells: map[string]string{"name": "Tobacco Vanille", "brand": "Tom Ford", "price_10ml": "700"}},
	}

	res := f.products.Import(ctx, rows)
	require.Len(t, res.Created, 2)
	require.Len(t, res.Skipped, 2)

	aventus := res.Created[0]
	assert.Equal(t, models.GenderMale, aventus.Gender)
	assert.Equal(t, []string{"pineapple", "bergamot"}, aventus.TopNotes)
	assert.Equal(t, 8000.0, aventus.Price100ML)
	assert.True(t, aventus.Active)
	assert.False(t, res.Created[1].Active)

	skipped := res.Skipped[0]
	assert.Equal(t, 3, skipped.Line)
	assert.Equal(t, "Brand is required", skipped.Fields["brand"])
	assert.Equal(t, "Price 15ml must be a number", skipped.Fields["price_15ml"])
	assert.Equal(t, "Price 10ml is required", skipped.Fields["price_10ml"])

	missing := res.Skipped[1]
	assert.Equal(t, 5, missing.Line)
	assert.Equal(t, "Price 30ml is required", missing.Fields["price_30ml"])
	assert.NotContains(t, missing.Fields, "price_10ml")

	products, err := f.products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 3)
}
