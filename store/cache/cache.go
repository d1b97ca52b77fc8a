package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Config controls the in-memory cache.
//
//   - MaxItems <= 0 falls back to 1000
//   - DefaultTTL <= 0 means entries never expire (LRU eviction still applies)
type Config struct {
	MaxItems   int
	DefaultTTL time.Duration
	// OnEviction is called for entries dropped by capacity or TTL.
	// It is also called for explicit deletes.
	OnEviction func(key, value string)
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		MaxItems:   1000,
		DefaultTTL: 30 * time.Minute,
	}
}

// Cache is an in-memory LRU cache with TTL.
type Cache struct {
	lru    *expirable.LRU[string, string]
	closed atomic.Bool
}

// New creates an in-memory cache.
func New(cfg Config) *Cache {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 1000
	}

	return &Cache{
		lru: expirable.NewLRU[string, string](cfg.MaxItems, cfg.OnEviction, cfg.DefaultTTL),
	}
}

func (c *Cache) Get(_ context.Context, key string) (string, bool, error) {
	if c.closed.Load() {
		return "", false, nil
	}
	value, ok := c.lru.Get(key)
	return value, ok, nil
}

func (c *Cache) Set(_ context.Context, key, value string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.lru.Add(key, value)
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.lru.Remove(key)
	return nil
}

// Keys returns the live keys, oldest first.
func (c *Cache) Keys(_ context.Context) ([]string, error) {
	if c.closed.Load() {
		return nil, nil
	}
	return c.lru.Keys(), nil
}

func (c *Cache) Len(_ context.Context) (int, error) {
	return c.lru.Len(), nil
}

func (c *Cache) Clear(_ context.Context) error {
	c.lru.Purge()
	return nil
}

// Close purges the cache and rejects further writes.
// Close is safe to call multiple times.
func (c *Cache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.lru.Purge()
	return nil
}

var _ Engine = (*Cache)(nil)
