package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   string
	Name string
}

type fetcher struct {
	mu    sync.Mutex
	calls int
	rows  []row
	err   error
}

func (f *fetcher) fetch(ctx context.Context) ([]row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]row(nil), f.rows...), nil
}

func newRows(f *fetcher, opts Options) *Collection[row] {
	return NewCollection("rows", f.fetch, func(r row) string { return r.ID }, opts)
}

func TestCollection_LoadStates(t *testing.T) {
	ctx := context.Background()
	f := &fetcher{}
	c := newRows(f, Options{})

	assert.Equal(t, NotLoaded, c.State().Status)

	items, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, Loaded, c.State().Status)
	assert.True(t, c.State().Empty())

	f.rows = []row{{ID: "1", Name: "a"}}
	c.Invalidate(ctx)
	assert.True(t, c.State().Stale)

	items, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.False(t, c.State().Empty())
}

func TestCollection_GetUsesCacheUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	f := &fetcher{rows: []row{{ID: "1"}}}
	c := newRows(f, Options{})

	for i := 0; i < 3; i++ {
		_, err := c.Get(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.calls)

	c.Invalidate(ctx)
	_, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
}

func TestCollection_Failed(t *testing.T) {
	ctx := context.Background()
	f := &fetcher{err: errors.New("boom")}
	c := newRows(f, Options{})

	_, err := c.Get(ctx)
	require.Error(t, err)

	st := c.State()
	assert.Equal(t, Failed, st.Status)
	assert.EqualError(t, st.Err, "boom")

	f.err = nil
	_, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Loaded, c.State().Status)
}

func TestCollection_TTL(t *testing.T) {
	ctx := context.Background()
	f := &fetcher{rows: []row{{ID: "1"}}}
	c := newRows(f, Options{TTL: time.Minute})

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, _ = c.Get(ctx)
	assert.Equal(t, 1, f.calls)

	now = now.Add(time.Minute)
	assert.True(t, c.State().Stale)
	_, _ = c.Get(ctx)
	assert.Equal(t, 2, f.calls)
}

func TestCollection_UpsertAndEvict(t *testing.T) {
	ctx := context.Background()
	f := &fetcher{rows: []row{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}}
	c := newRows(f, Options{})

	_, err := c.Get(ctx)
	require.NoError(t, err)

	c.Upsert(ctx, row{ID: "2", Name: "B"})
	c.Upsert(ctx, row{ID: "3", Name: "c"})
	assert.Equal(t, []row{{"1", "a"}, {"2", "B"}, {"3", "c"}}, c.State().Items)

	c.Evict(ctx, "1")
	c.Evict(ctx, "missing")
	assert.Equal(t, []row{{"2", "B"}, {"3", "c"}}, c.State().Items)
	assert.Equal(t, 1, f.calls, "local writes do not refetch")
}

func TestCollection_UpsertPrepend(t *testing.T) {
	ctx := context.Background()
	f := &fetcher{rows: []row{{ID: "1"}}}
	c := newRows(f, Options{PrependNew: true})

	_, err := c.Get(ctx)
	require.NoError(t, err)
	c.Upsert(ctx, row{ID: "2"})

	items := c.State().Items
	require.Len(t, items, 2)
	assert.Equal(t, "2", items[0].ID)
}

func TestCollection_UpsertBeforeLoadIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := &fetcher{rows: []row{{ID: "1"}}}
	c := newRows(f, Options{})

	c.Upsert(ctx, row{ID: "9"})
	assert.Equal(t, NotLoaded, c.State().Status)

	items, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []row{{ID: "1"}}, items)
}

func TestCollection_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	f := &fetcher{rows: []row{{ID: "1", Name: "a"}}}
	c := newRows(f, Options{})

	items, err := c.Get(ctx)
	require.NoError(t, err)
	items[0].Name = "mutated"

	again, _ := c.Get(ctx)
	assert.Equal(t, "a", again[0].Name)
}

type memMirror struct {
	data map[string][]byte
}

func (m *memMirror) Get(_ context.Context, key string) ([]byte, bool, error) {
	d, ok := m.data[key]
	return d, ok, nil
}

func (m *memMirror) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	m.data[key] = data
	return nil
}

func (m *memMirror) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestCollection_Mirror(t *testing.T) {
	ctx := context.Background()
	mirror := &memMirror{data: map[string][]byte{}}
	f := &fetcher{rows: []row{{ID: "1", Name: "a"}}}

	first := newRows(f, Options{Mirror: mirror})
	_, err := first.Get(ctx)
	require.NoError(t, err)
	assert.Contains(t, mirror.data, "perfume:collection:rows")

	second := newRows(f, Options{Mirror: mirror})
	items, err := second.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []row{{"1", "a"}}, items)
	assert.Equal(t, 1, f.calls, "second collection served from the mirror")

	first.Invalidate(ctx)
	assert.NotContains(t, mirror.data, "perfume:collection:rows")
}

func TestClient_InvalidateAll(t *testing.T) {
	ctx := context.Background()
	f := &fetcher{rows: []row{{ID: "1"}}}
	a := NewCollection("a", f.fetch, func(r row) string { return r.ID }, Options{})
	b := NewCollection("b", f.fetch, func(r row) string { return r.ID }, Options{})

	client := NewClient()
	client.Register(a)
	client.Register(b)
	assert.Equal(t, []string{"a", "b"}, client.Keys())

	_, _ = a.Get(ctx)
	_, _ = b.Get(ctx)
	client.InvalidateAll(ctx)

	assert.True(t, a.State().Stale)
	assert.True(t, b.State().Stale)

	client.Invalidate(ctx, "unknown")
}

func TestCollection_InvalidateDuringFetchForcesRefetch(t *testing.T) {
	ctx := context.Background()
	var (
		mu      sync.Mutex
		calls   int
		current = []row{{ID: "1"}}
	)
	started := make(chan struct{})
	release := make(chan struct{})
	c := NewCollection("rows", func(context.Context) ([]row, error) {
		mu.Lock()
		calls++
		n := calls
		snapshot := append([]row(nil), current...)
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
		}
		return snapshot, nil
	}, func(r row) string { return r.ID }, Options{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Get(ctx)
		assert.NoError(t, err)
	}()

	<-started
	mu.Lock()
	current = []row{{ID: "1"}, {ID: "2"}}
	mu.Unlock()
	c.Invalidate(ctx)
	close(release)
	<-done

	assert.True(t, c.State().Stale, "an invalidation during the fetch survives it")

	items, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, calls)
}

func TestCollection_UpsertDuringFetchIsNotLost(t *testing.T) {
	ctx := context.Background()
	f := &fetcher{rows: []row{{ID: "1"}}}
	c := newRows(f, Options{})
	_, err := c.Get(ctx)
	require.NoError(t, err)

	c.Invalidate(ctx)
	gen := c.gen
	c.Upsert(ctx, row{ID: "2"})

	assert.False(t, c.store([]row{{ID: "1"}}, gen), "snapshot taken before the upsert is outdated")
	items, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
	assert.Len(t, items, 1, "refetched from the source")
}
