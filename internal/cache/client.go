package cache

import (
	"context"
	"sort"
	"sync"
)

// Invalidator is implemented by every Collection.
type Invalidator interface {
	Key() string
	Invalidate(ctx context.Context)
}

// Client indexes the collections of one process by key so they can be
// invalidated together.
type Client struct {
	mu    sync.RWMutex
	colls map[string]Invalidator
}

func NewClient() *Client {
	return &Client{colls: map[string]Invalidator{}}
}

func (c *Client) Register(inv Invalidator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.colls[inv.Key()] = inv
}

// Invalidate marks one collection stale. Unknown keys are ignored.
func (c *Client) Invalidate(ctx context.Context, key string) {
	c.mu.RLock()
	inv, ok := c.colls[key]
	c.mu.RUnlock()
	if ok {
		inv.Invalidate(ctx)
	}
}

func (c *Client) InvalidateAll(ctx context.Context) {
	for _, k := range c.Keys() {
		c.Invalidate(ctx, k)
	}
}

func (c *Client) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.colls))
	for k := range c.colls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
