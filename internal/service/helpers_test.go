package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"perfume-backoffice/internal/cache"
	"perfume-backoffice/internal/store"

	"github.com/stretchr/testify/require"
)

type call struct {
	Op     string
	Table  string
	ID     string
	Values store.Record
}

// recordingStore records every call to the wrapped store and can fail or
// block chosen operations.
type recordingStore struct {
	store.Store

	mu     sync.Mutex
	calls  []call
	fail   map[string]error // "insert:orders" -> error
	block  chan struct{}
	inside chan struct{}
}

func (r *recordingStore) record(op, table, id string, values store.Record) error {
	r.mu.Lock()
	r.calls = append(r.calls, call{Op: op, Table: table, ID: id, Values: values})
	err := r.fail[op+":"+table]
	block := r.block
	r.mu.Unlock()

	if block != nil && op != "select" {
		if r.inside != nil {
			r.inside <- struct{}{}
		}
		<-block
	}
	return err
}

func (r *recordingStore) failOn(op, table string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail == nil {
		r.fail = map[string]error{}
	}
	r.fail[op+":"+table] = err
}

func (r *recordingStore) writes() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []call
	for _, c := range r.calls {
		if c.Op != "select" {
			out = append(out, c)
		}
	}
	return out
}

func (r *recordingStore) Select(ctx context.Context, table string, q store.Query) ([]store.Record, error) {
	if err := r.record("select", table, "", nil); err != nil {
		return nil, err
	}
	return r.Store.Select(ctx, table, q)
}

func (r *recordingStore) Insert(ctx context.Context, table string, values store.Record) (store.Record, error) {
	if err := r.record("insert", table, "", values); err != nil {
		return nil, err
	}
	return r.Store.Insert(ctx, table, values)
}

func (r *recordingStore) Update(ctx context.Context, table, id string, values store.Record) (store.Record, error) {
	if err := r.record("update", table, id, values); err != nil {
		return nil, err
	}
	return r.Store.Update(ctx, table, id, values)
}

func (r *recordingStore) Delete(ctx context.Context, table, id string) error {
	if err := r.record("delete", table, id, nil); err != nil {
		return err
	}
	return r.Store.Delete(ctx, table, id)
}

type fixture struct {
	mem        *store.MemoryStore
	rec        *recordingStore
	cache      *cache.Client
	customers  *CustomerService
	products   *ProductService
	quantities *QuantityService
	orders     *OrderService
}

var seedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mem := store.NewMemoryStore()
	require.NoError(t, mem.Seed(store.TableQuantities,
		store.Record{"id": "q10", "label": "10ml", "value_ml": 10.0},
		store.Record{"id": "q15", "label": "15ml", "value_ml": 15.0},
		store.Record{"id": "q30", "label": "30ml", "value_ml": 30.0},
		store.Record{"id": "q100", "label": "100ml", "value_ml": 100.0},
	))
	require.NoError(t, mem.Seed(store.TableProducts, store.Record{
		"id": "p1", "name": "Oud Wood", "brand": "Tom Ford", "gender": "Unisex",
		"top_notes": []string{"oud"}, "middle_notes": []string{}, "base_notes": []string{},
		"price_10ml": 500.0, "price_15ml": 700.0, "price_30ml": 1300.0, "price_100ml": 4000.0,
		"total_stock_ml": 250.0, "low_stock_threshold_ml": 100.0, "active": true,
		"created_at": seedTime,
	}))
	require.NoError(t, mem.Seed(store.TableCustomers,
		customerRow("c1", "John", seedTime),
		customerRow("c2", "Jordan", seedTime.Add(time.Minute)),
		customerRow("c3", "Mary", seedTime.Add(2*time.Minute)),
	))

	rec := &recordingStore{Store: mem}
	client := cache.NewClient()
	deps := Deps{Store: rec, Cache: client, Timeout: time.Second}

	f := &fixture{mem: mem, rec: rec, cache: client}
	f.customers = NewCustomerService(deps)
	f.products = NewProductService(deps)
	f.quantities = NewQuantityService(deps)
	f.orders = NewOrderService(deps, f.customers, f.products, f.quantities)
	return f
}

func customerRow(id, name string, created time.Time) store.Record {
	return store.Record{
		"id": id, "name": name, "customer_type": "Regular",
		"total_orders": 0, "total_spent": 0.0, "created_at": created,
	}
}

func orderRow(i int, productID string) store.Record {
	return store.Record{
		"id":             fmt.Sprintf("o%d", i),
		"order_code":     fmt.Sprintf("ORD-%05d", i),
		"customer_id":    "c1",
		"product_id":     productID,
		"quantity_id":    "q30",
		"price":          1300.0,
		"profit":         1300.0,
		"total":          1300.0,
		"status":         "Pending",
		"payment_status": "Unpaid",
		"order_date":     seedTime,
		"created_at":     seedTime.Add(time.Duration(i) * time.Minute),
	}
}

func ptr[T any](v T) *T { return &v }
