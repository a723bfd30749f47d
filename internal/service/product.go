package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"perfume-backoffice/internal/cache"
	"perfume-backoffice/internal/form"
	"perfume-backoffice/internal/models"
	"perfume-backoffice/internal/schema"
	"perfume-backoffice/internal/sheet"
	"perfume-backoffice/internal/store"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// ProductForm edits notes as comma separated text.
type ProductForm struct {
	Name                string        `json:"name" validate:"required"`
	Brand               string        `json:"brand" validate:"required"`
	SKU                 string        `json:"sku"`
	Gender              models.Gender `json:"gender" validate:"oneof=Male Female Unisex"`
	Season              string        `json:"season"`
	TopNotes            string        `json:"top_notes"`
	MiddleNotes         string        `json:"middle_notes"`
	BaseNotes           string        `json:"base_notes"`
	Price10ML           float64       `json:"price_10ml" validate:"gte=0"`
	Price15ML           float64       `json:"price_15ml" validate:"gte=0"`
	Price30ML           float64       `json:"price_30ml" validate:"gte=0"`
	Price100ML          float64       `json:"price_100ml" validate:"gte=0"`
	TotalStockML        float64       `json:"total_stock_ml" validate:"gte=0"`
	LowStockThresholdML float64       `json:"low_stock_threshold_ml" validate:"gte=0"`
	Active              bool          `json:"active"`
}

func defaultProductForm() ProductForm {
	return ProductForm{
		Gender:              models.GenderUnisex,
		LowStockThresholdML: 100,
		Active:              true,
	}
}

func ProductFormFrom(p models.Product) ProductForm {
	f := ProductForm{
		Name:                p.Name,
		Brand:               p.Brand,
		SKU:                 p.SKU,
		Gender:              p.Gender,
		Season:              p.Season,
		TopNotes:            strings.Join(p.TopNotes, ", "),
		MiddleNotes:         strings.Join(p.MiddleNotes, ", "),
		BaseNotes:           strings.Join(p.BaseNotes, ", "),
		Price10ML:           p.Price10ML,
		Price15ML:           p.Price15ML,
		Price30ML:           p.Price30ML,
		Price100ML:          p.Price100ML,
		TotalStockML:        p.TotalStockML,
		LowStockThresholdML: p.LowStockThresholdML,
		Active:              p.Active,
	}
	if f.Gender == "" {
		f.Gender = models.GenderUnisex
	}
	return f
}

func (f ProductForm) Create() models.ProductCreate {
	p10, p15, p30, p100 := f.Price10ML, f.Price15ML, f.Price30ML, f.Price100ML
	threshold, active := f.LowStockThresholdML, f.Active
	return models.ProductCreate{
		Name:                strings.TrimSpace(f.Name),
		Brand:               strings.TrimSpace(f.Brand),
		SKU:                 f.SKU,
		Gender:              f.Gender,
		Season:              f.Season,
		TopNotes:            ParseNotes(f.TopNotes),
		MiddleNotes:         ParseNotes(f.MiddleNotes),
		BaseNotes:           ParseNotes(f.BaseNotes),
		Price10ML:           &p10,
		Price15ML:           &p15,
		Price30ML:           &p30,
		Price100ML:          &p100,
		TotalStockML:        f.TotalStockML,
		LowStockThresholdML: &threshold,
		Active:              &active,
	}
}

func (f ProductForm) Update() models.ProductUpdate {
	name := strings.TrimSpace(f.Name)
	brand := strings.TrimSpace(f.Brand)
	gender := f.Gender
	top, middle, base := ParseNotes(f.TopNotes), ParseNotes(f.MiddleNotes), ParseNotes(f.BaseNotes)
	p10, p15, p30, p100 := f.Price10ML, f.Price15ML, f.Price30ML, f.Price100ML
	stock, threshold, active := f.TotalStockML, f.LowStockThresholdML, f.Active
	return models.ProductUpdate{
		Name:                &name,
		Brand:               &brand,
		SKU:                 patchString(f.SKU),
		Gender:              &gender,
		Season:              patchString(f.Season),
		TopNotes:            &top,
		MiddleNotes:         &middle,
		BaseNotes:           &base,
		Price10ML:           &p10,
		Price15ML:           &p15,
		Price30ML:           &p30,
		Price100ML:          &p100,
		TotalStockML:        &stock,
		LowStockThresholdML: &threshold,
		Active:              &active,
	}
}

// ParseNotes splits "bergamot, lemon,, pepper" into its non-empty notes,
// keeping their order.
func ParseNotes(s string) []string {
	out := []string{}
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// ProductFilter narrows a product list. Empty fields match everything.
type ProductFilter struct {
	Search string
	Brand  string
	Gender models.Gender
	Season string
}

// Filter keeps the products matching f. Search is a case-insensitive
// substring match against name or brand.
func Filter(products []models.Product, f ProductFilter) []models.Product {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Brand), q) {
			continue
		}
		if f.Brand != "" && p.Brand != f.Brand {
			continue
		}
		if f.Gender != "" && p.Gender != f.Gender {
			continue
		}
		if f.Season != "" && p.Season != f.Season {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ProductFacets are the distinct filter values present in a product list.
type ProductFacets struct {
	Brands  []string `json:"brands"`
	Genders []string `json:"genders"`
	Seasons []string `json:"seasons"`
}

func Facets(products []models.Product) ProductFacets {
	brands, genders, seasons := map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, p := range products {
		if p.Brand != "" {
			brands[p.Brand] = true
		}
		if p.Gender != "" {
			genders[string(p.Gender)] = true
		}
		if p.Season != "" {
			seasons[p.Season] = true
		}
	}
	return ProductFacets{Brands: sortedKeys(brands), Genders: sortedKeys(genders), Seasons: sortedKeys(seasons)}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var validateProduct = form.Struct[ProductForm](form.Messages{
	"name":  "Product name is required",
	"brand": "Brand is required",
})

type ProductService struct {
	deps Deps
	coll *cache.Collection[models.Product]
	edit *editor[ProductForm]
}

func NewProductService(d Deps) *ProductService {
	s := &ProductService{
		deps: d,
		edit: newEditor(form.New(defaultProductForm(), validateProduct)),
	}
	s.coll = cache.NewCollection(store.TableProducts, s.fetch,
		func(p models.Product) string { return p.ID }, d.options(true))
	d.register(s.coll)
	return s
}

func (s *ProductService) fetch(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	rows, err := s.deps.Store.Select(ctx, store.TableProducts, store.Query{OrderBy: "created_at", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products, diags := schema.ParseProducts(rows)
	logDiagnostics("product", diags)
	return products, nil
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.coll.Get(ctx)
}

func (s *ProductService) State() cache.State[models.Product] {
	return s.coll.State()
}

func (s *ProductService) Find(ctx context.Context, id string) (models.Product, bool, error) {
	if _, err := s.List(ctx); err != nil {
		return models.Product{}, false, err
	}
	p, ok := s.coll.Find(id)
	return p, ok, nil
}

func (s *ProductService) Create(ctx context.Context, in models.ProductCreate) (models.Product, error) {
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	row, err := s.deps.Store.Insert(ctx, store.TableProducts, store.Record(in.Record()))
	if err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}
	return s.merge(ctx, row), nil
}

func (s *ProductService) Update(ctx context.Context, id string, in models.ProductUpdate) (models.Product, error) {
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	row, err := s.deps.Store.Update(ctx, store.TableProducts, id, store.Record(in.Record()))
	if err != nil {
		return models.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	return s.merge(ctx, row), nil
}

func (s *ProductService) merge(ctx context.Context, row store.Record) models.Product {
	p, err := schema.ParseProduct(row)
	if err != nil {
		zap.S().Warnw("mutation returned an invalid product; refetching", "id", row.ID(), "error", err)
		s.coll.Invalidate(ctx)
		return models.Product{ID: row.ID()}
	}
	s.coll.Upsert(ctx, p)
	return p
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	if err := s.deps.Store.Delete(ctx, store.TableProducts, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	s.coll.Evict(ctx, id)
	return nil
}

func (s *ProductService) BeginEdit(p models.Product)  { s.edit.begin(p.ID, ProductFormFrom(p)) }
func (s *ProductService) BeginCreate()                { s.edit.beginNew() }
func (s *ProductService) CancelEdit()                 { s.edit.cancel() }
func (s *ProductService) EndEdit()                    { s.edit.cancel() }
func (s *ProductService) Session() Session            { return s.edit.session() }
func (s *ProductService) Form() FormView[ProductForm] { return s.edit.view() }

func (s *ProductService) UpdateForm(fn func(*ProductForm)) error {
	return s.edit.update(fn)
}

func (s *ProductService) Submit(ctx context.Context) (models.Product, error) {
	var saved models.Product
	err := s.edit.submit(func(sub submission[ProductForm]) error {
		var err error
		if sub.target == "" {
			saved, err = s.Create(ctx, sub.values.Create())
		} else {
			saved, err = s.Update(ctx, sub.target, sub.values.Update())
		}
		return err
	})
	return saved, err
}

// ImportError is a sheet row that was not imported.
type ImportError struct {
	Line   int         `json:"line"`
	Error  string      `json:"error"`
	Fields form.Errors `json:"fields,omitempty"`
}

type ImportResult struct {
	Created []models.Product `json:"created"`
	Skipped []ImportError    `json:"skipped"`
}

// Import creates one product per sheet row. Every tier price cell must be
// filled. Rows that fail validation or are rejected by the store are
// reported and skipped; the rest still go through.
func (s *ProductService) Import(ctx context.Context, rows []sheet.Row) ImportResult {
	res := ImportResult{Created: []models.Product{}, Skipped: []ImportError{}}
	for _, row := range rows {
		f, errs := productFormFromRow(row)
		if v := validateProduct(f); v != nil {
			for k, m := range v {
				if _, ok := errs[k]; !ok {
					errs[k] = m
				}
			}
		}
		if len(errs) > 0 {
			res.Skipped = append(res.Skipped, ImportError{Line: row.Line, Error: "invalid row", Fields: errs})
			continue
		}
		p, err := s.Create(ctx, f.Create())
		if err != nil {
			res.Skipped = append(res.Skipped, ImportError{Line: row.Line, Error: err.Error()})
			continue
		}
		res.Created = append(res.Created, p)
	}
	zap.S().Infow("product import finished", "created", len(res.Created), "skipped", len(res.Skipped))
	return res
}

func productFormFromRow(row sheet.Row) (ProductForm, form.Errors) {
	f := defaultProductForm()
	errs := form.Errors{}

	f.Name = row.Get("name")
	f.Brand = row.Get("brand")
	f.SKU = row.Get("sku")
	f.Season = row.Get("season")
	f.TopNotes = row.Get("top_notes")
	f.MiddleNotes = row.Get("middle_notes")
	f.BaseNotes = row.Get("base_notes")
	if g := row.Get("gender"); g != "" {
		f.Gender = models.Gender(g)
	}

	for key, dst := range map[string]*float64{
		"price_10ml":             &f.Price10ML,
		"price_15ml":             &f.Price15ML,
		"price_30ml":             &f.Price30ML,
		"price_100ml":            &f.Price100ML,
		"total_stock_ml":         &f.TotalStockML,
		"low_stock_threshold_ml": &f.LowStockThresholdML,
	} {
		v := row.Get(key)
		if v == "" {
			if strings.HasPrefix(key, "price_") {
				errs[key] = humanizeKey(key) + " is required"
			}
			continue
		}
		n, err := cast.ToFloat64E(v)
		if err != nil {
			errs[key] = humanizeKey(key) + " must be a number"
			continue
		}
		*dst = n
	}
	if v := row.Get("active"); v != "" {
		b, err := cast.ToBoolE(strings.ToLower(v))
		if err != nil {
			errs["active"] = "Active must be true or false"
		} else {
			f.Active = b
		}
	}
	return f, errs
}

func humanizeKey(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}
