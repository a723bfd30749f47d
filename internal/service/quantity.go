package service

import (
	"context"
	"fmt"

	"perfume-backoffice/internal/cache"
	"perfume-backoffice/internal/models"
	"perfume-backoffice/internal/schema"
	"perfume-backoffice/internal/store"
)

// QuantityService is a read-only view of the quantity lookup table.
type QuantityService struct {
	deps Deps
	coll *cache.Collection[models.Quantity]
}

func NewQuantityService(d Deps) *QuantityService {
	s := &QuantityService{deps: d}
	s.coll = cache.NewCollection(store.TableQuantities, s.fetch,
		func(q models.Quantity) string { return q.ID }, d.options(false))
	d.register(s.coll)
	return s
}

func (s *QuantityService) fetch(ctx context.Context) ([]models.Quantity, error) {
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	rows, err := s.deps.Store.Select(ctx, store.TableQuantities, store.Query{OrderBy: "value_ml"})
	if err != nil {
		return nil, fmt.Errorf("list quantities: %w", err)
	}
	quantities, diags := schema.ParseQuantities(rows)
	logDiagnostics("quantity", diags)
	return quantities, nil
}

func (s *QuantityService) List(ctx context.Context) ([]models.Quantity, error) {
	return s.coll.Get(ctx)
}

func (s *QuantityService) State() cache.State[models.Quantity] {
	return s.coll.State()
}

func (s *QuantityService) Find(ctx context.Context, id string) (models.Quantity, bool, error) {
	if _, err := s.List(ctx); err != nil {
		return models.Quantity{}, false, err
	}
	q, ok := s.coll.Find(id)
	return q, ok, nil
}
