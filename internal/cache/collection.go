package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Status int

const (
	NotLoaded Status = iota
	Loading
	Loaded
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "not_loaded"
	}
}

// Mirror is a shared second-level store for collection snapshots.
type Mirror interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type Options struct {
	// TTL after which a loaded collection is refetched. Zero keeps it until
	// invalidated.
	TTL    time.Duration
	Mirror Mirror
	// PrependNew puts upserted rows that are not yet cached at the front,
	// for collections ordered newest first.
	PrependNew bool
}

// State is a point-in-time view of a collection.
type State[T any] struct {
	Status    Status
	Items     []T
	Err       error
	Stale     bool
	FetchedAt time.Time
}

// Empty reports a loaded collection with no rows.
func (s State[T]) Empty() bool {
	return s.Status == Loaded && len(s.Items) == 0
}

// Collection is a read-through cache of one entity list. The only writers are
// the entity's own mutations, through Upsert, Evict and Invalidate.
type Collection[T any] struct {
	key   string
	fetch func(ctx context.Context) ([]T, error)
	idOf  func(T) string
	opts  Options
	group singleflight.Group

	mu        sync.RWMutex
	items     []T
	status    Status
	err       error
	stale     bool
	fetchedAt time.Time
	now       func() time.Time
	// gen moves on every Upsert, Evict and Invalidate. A load that sees it
	// move while fetching keeps its rows but leaves the collection stale.
	gen uint64
}

func NewCollection[T any](key string, fetch func(ctx context.Context) ([]T, error), idOf func(T) string, opts Options) *Collection[T] {
	return &Collection[T]{
		key:   key,
		fetch: fetch,
		idOf:  idOf,
		opts:  opts,
		now:   time.Now,
	}
}

func (c *Collection[T]) Key() string { return c.key }

// Get returns the cached rows, loading them first when the collection was
// never loaded, is stale or has expired.
func (c *Collection[T]) Get(ctx context.Context) ([]T, error) {
	c.mu.RLock()
	fresh := c.status == Loaded && !c.stale && !c.expired()
	items := c.items
	c.mu.RUnlock()
	if fresh {
		return clone(items), nil
	}

	v, err, _ := c.group.Do(c.key, func() (any, error) {
		return c.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]T)), nil
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	if c.status == NotLoaded || c.status == Failed {
		c.status = Loading
	}
	gen := c.gen
	c.mu.Unlock()

	if items, ok := c.fromMirror(ctx); ok {
		c.store(items, gen)
		return items, nil
	}

	items, err := c.fetch(ctx)
	if err != nil {
		c.mu.Lock()
		c.status = Failed
		c.err = err
		c.mu.Unlock()
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	if c.store(items, gen) {
		c.toMirror(ctx, items)
	}
	return items, nil
}

// store installs a loaded snapshot and reports whether it is still current.
func (c *Collection[T]) store(items []T, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.gen == gen
	c.items = items
	c.status = Loaded
	c.err = nil
	c.stale = !current
	c.fetchedAt = c.now()
	return current
}

// State reports the collection without triggering a load.
func (c *Collection[T]) State() State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State[T]{
		Status:    c.status,
		Items:     clone(c.items),
		Err:       c.err,
		Stale:     c.stale || c.expired(),
		FetchedAt: c.fetchedAt,
	}
}

// Find returns the cached row with id, without loading.
func (c *Collection[T]) Find(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if c.idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Upsert replaces the row with the same id or adds it. A collection that was
// never loaded is left alone; its first Get fetches everything anyway.
func (c *Collection[T]) Upsert(ctx context.Context, item T) {
	c.mu.Lock()
	if c.status == Loaded {
		id := c.idOf(item)
		replaced := false
		next := make([]T, 0, len(c.items)+1)
		for _, it := range c.items {
			if c.idOf(it) == id {
				next = append(next, item)
				replaced = true
				continue
			}
			next = append(next, it)
		}
		if !replaced {
			if c.opts.PrependNew {
				next = append([]T{item}, next...)
			} else {
				next = append(next, item)
			}
		}
		c.items = next
	}
	c.gen++
	c.mu.Unlock()
	c.dropMirror(ctx)
}

// Evict removes the row with id if cached.
func (c *Collection[T]) Evict(ctx context.Context, id string) {
	c.mu.Lock()
	next := make([]T, 0, len(c.items))
	for _, it := range c.items {
		if c.idOf(it) != id {
			next = append(next, it)
		}
	}
	c.items = next
	c.gen++
	c.mu.Unlock()
	c.dropMirror(ctx)
}

// Invalidate marks the collection stale so the next Get refetches it.
func (c *Collection[T]) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.stale = true
	c.gen++
	c.mu.Unlock()
	c.dropMirror(ctx)
}

func (c *Collection[T]) expired() bool {
	return c.opts.TTL > 0 && c.status == Loaded && c.now().Sub(c.fetchedAt) > c.opts.TTL
}

func (c *Collection[T]) mirrorKey() string {
	return "perfume:collection:" + c.key
}

func (c *Collection[T]) fromMirror(ctx context.Context) ([]T, bool) {
	if c.opts.Mirror == nil {
		return nil, false
	}
	data, ok, err := c.opts.Mirror.Get(ctx, c.mirrorKey())
	if err != nil {
		zap.S().Warnf("cache mirror read %s failed (continuing with store): %v", c.key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		zap.S().Warnf("cache mirror %s holds bad data (continuing with store): %v", c.key, err)
		return nil, false
	}
	return items, true
}

func (c *Collection[T]) toMirror(ctx context.Context, items []T) {
	if c.opts.Mirror == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		zap.S().Warnf("cache mirror marshal %s: %v", c.key, err)
		return
	}
	if err := c.opts.Mirror.Set(ctx, c.mirrorKey(), data, c.opts.TTL); err != nil {
		zap.S().Warnf("cache mirror write %s: %v", c.key, err)
	}
}

func (c *Collection[T]) dropMirror(ctx context.Context) {
	if c.opts.Mirror == nil {
		return
	}
	if err := c.opts.Mirror.Del(ctx, c.mirrorKey()); err != nil {
		zap.S().Warnf("cache mirror delete %s: %v", c.key, err)
	}
}

func clone[T any](items []T) []T {
	if items == nil {
		return nil
	}
	return append(make([]T, 0, len(items)), items...)
}
