package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

type memTable struct {
	rules TableRules
	rows  []Record
	seq   int64
}

// MemoryStore is an in-process Store with the same generated-column rules as
// the postgres schema. It backs STORE_DRIVER=memory and the package tests.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string]*memTable
	now    func() time.Time
}

func NewMemoryStore(tables ...TableRules) *MemoryStore {
	if len(tables) == 0 {
		tables = DefaultTables()
	}
	m := &MemoryStore{
		tables: make(map[string]*memTable, len(tables)),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, t := range tables {
		m.tables[t.Name] = &memTable{rules: t}
	}
	return m
}

// Seed inserts rows verbatim, generated columns included. Rows without an id
// get one.
func (m *MemoryStore) Seed(table string, rows ...Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[table]
	if !ok {
		return newError("seed", table, "", ErrUnknownTable)
	}
	for _, r := range rows {
		row := cloneRecord(r)
		if row.ID() == "" {
			row["id"] = uuid.NewString()
		}
		t.seq++
		t.rows = append(t.rows, row)
	}
	return nil
}

func (m *MemoryStore) Select(ctx context.Context, table string, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError("select", table, "", fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[table]
	if !ok {
		return nil, newError("select", table, "", ErrUnknownTable)
	}

	out := make([]Record, 0, len(t.rows))
	for _, row := range t.rows {
		if !matches(row, q.Filters) {
			continue
		}
		r := cloneRecord(row)
		for _, j := range q.Joins {
			ref, ok := m.tables[j.Table]
			if !ok {
				return nil, newError("select", j.Table, "", ErrUnknownTable)
			}
			r[j.As] = nil
			if fk := cast.ToString(row[j.ForeignKey]); fk != "" {
				if idx := ref.indexOf(fk); idx >= 0 {
					r[j.As] = cloneRecord(ref.rows[idx])
				}
			}
		}
		out = append(out, r)
	}

	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, k int) bool {
			c := compareValues(out[i][q.OrderBy], out[k][q.OrderBy])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	return out, nil
}

func (m *MemoryStore) Insert(ctx context.Context, table string, values Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError("insert", table, "", fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[table]
	if !ok {
		return nil, newError("insert", table, "", ErrUnknownTable)
	}
	if col := t.generatedIn(values); col != "" {
		return nil, newError("insert", table, "428C9", fmt.Errorf("%w: %s", ErrGeneratedColumn, col))
	}

	row := cloneRecord(values)
	for k, v := range t.rules.Defaults {
		if row[k] == nil {
			row[k] = cloneValue(v)
		}
	}
	row["id"] = uuid.NewString()
	if t.rules.isGenerated("created_at") {
		row["created_at"] = m.now()
	}
	t.seq++
	if t.rules.Compute != nil {
		t.rules.Compute(row, t.seq)
	}
	t.rows = append(t.rows, row)
	m.afterWrite(table, nil, row)

	return cloneRecord(row), nil
}

func (m *MemoryStore) Update(ctx context.Context, table, id string, values Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError("update", table, "", fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[table]
	if !ok {
		return nil, newError("update", table, "", ErrUnknownTable)
	}
	if col := t.generatedIn(values); col != "" {
		return nil, newError("update", table, "428C9", fmt.Errorf("%w: %s", ErrGeneratedColumn, col))
	}
	idx := t.indexOf(id)
	if idx < 0 {
		return nil, newError("update", table, "", fmt.Errorf("%w: id %s", ErrNotFound, id))
	}

	before := cloneRecord(t.rows[idx])
	row := t.rows[idx]
	for k, v := range values {
		row[k] = cloneValue(v)
	}
	if t.rules.Compute != nil {
		t.rules.Compute(row, t.seq)
	}
	m.afterWrite(table, before, row)

	return cloneRecord(row), nil
}

func (m *MemoryStore) Delete(ctx context.Context, table, id string) error {
	if err := ctx.Err(); err != nil {
		return newError("delete", table, "", fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[table]
	if !ok {
		return newError("delete", table, "", ErrUnknownTable)
	}
	idx := t.indexOf(id)
	if idx < 0 {
		return newError("delete", table, "", fmt.Errorf("%w: id %s", ErrNotFound, id))
	}
	before := t.rows[idx]
	t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
	m.afterWrite(table, before, nil)
	return nil
}

// afterWrite keeps the customer aggregates in step with the orders table,
// the way the postgres trigger does. Caller holds m.mu.
func (m *MemoryStore) afterWrite(table string, before, after Record) {
	if table != TableOrders {
		return
	}
	seen := map[string]bool{}
	for _, r := range []Record{before, after} {
		if r == nil {
			continue
		}
		id := cast.ToString(r["customer_id"])
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		m.recomputeCustomer(id)
	}
}

func (m *MemoryStore) recomputeCustomer(id string) {
	customers, ok := m.tables[TableCustomers]
	if !ok {
		return
	}
	idx := customers.indexOf(id)
	if idx < 0 {
		return
	}

	var (
		count int
		spent float64
		last  any
	)
	if orders, ok := m.tables[TableOrders]; ok {
		for _, o := range orders.rows {
			if cast.ToString(o["customer_id"]) != id {
				continue
			}
			count++
			spent += cast.ToFloat64(o["total"])
			if last == nil || compareValues(o["order_date"], last) > 0 {
				last = o["order_date"]
			}
		}
	}
	c := customers.rows[idx]
	c["total_orders"] = count
	c["total_spent"] = round2(spent)
	c["last_order_date"] = last
}

func (t *memTable) indexOf(id string) int {
	for i, r := range t.rows {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

func (t *memTable) generatedIn(values Record) string {
	for k := range values {
		if t.rules.isGenerated(k) {
			return k
		}
	}
	return ""
}

func matches(row Record, filters map[string]any) bool {
	for k, want := range filters {
		if cast.ToString(row[k]) != cast.ToString(want) {
			return false
		}
	}
	return true
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	sa, sb := cast.ToString(a), cast.ToString(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func cloneRecord(r Record) Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...)
	case []any:
		return append([]any(nil), x...)
	case Record:
		return cloneRecord(x)
	case map[string]any:
		return cloneRecord(Record(x))
	default:
		return v
	}
}
