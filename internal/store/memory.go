package store

import (
	"context"
	"fmt"

	"github.com/patrickmn/go-cache"
)

var _ Store = (*Memory)(nil)

// Memory keeps counters in process memory. Values are lost on restart.
type Memory struct {
	cache *cache.Cache
}

func NewMemory() *Memory {
	return &Memory{cache: cache.New(cache.NoExpiration, 0)}
}

func (c *Memory) Get(ctx context.Context, key string) (int64, error) {
	v, ok := c.cache.Get(key)
	if !ok {
		return 0, ErrNotFound
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("memory %s: unexpected value %T", key, v)
	}
	return n, nil
}

func (c *Memory) Set(ctx context.Context, key string, v int64) error {
	c.cache.Set(key, v, cache.NoExpiration)
	return nil
}

func (c *Memory) Incr(ctx context.Context, key string) (int64, error) {
	// Add fails when the key already exists, which is fine.
	_ = c.cache.Add(key, int64(0), cache.NoExpiration)
	n, err := c.cache.IncrementInt64(key, 1)
	if err != nil {
		return 0, fmt.Errorf("memory %s: %w", key, err)
	}
	return n, nil
}

func (c *Memory) Close() error {
	return nil
}
