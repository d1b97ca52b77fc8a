package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

// TieredCache implements a two-tier caching strategy:
// - L1: In-memory cache (fast, small, DEFAULT)
// - L2: Any Engine, usually Redis (moderate, shared, OPTIONAL)
//
// DEFAULT BEHAVIOR (single instance):
//   - L1 memory cache enabled (1000 items, 30min TTL)
//   - L2 is a NilCache
//
// TO ENABLE REDIS (multi-instance):
//   - Pass a RedisCache as L2
type TieredCache struct {
	l1 *Cache
	l2 Engine
}

// TieredConfig holds the configuration for the tiered cache.
type TieredConfig struct {
	L1MaxItems int           // Max items in L1 memory cache
	L1TTL      time.Duration // TTL for L1 cache entries
}

// DefaultTieredConfig returns the default tiered cache configuration.
func DefaultTieredConfig() *TieredConfig {
	return &TieredConfig{
		L1MaxItems: 1000,
		L1TTL:      30 * time.Minute,
	}
}

// NewTieredCache creates a tiered cache. A nil l2 means memory only.
func NewTieredCache(config *TieredConfig, l2 Engine) *TieredCache {
	if config == nil {
		config = DefaultTieredConfig()
	}
	if l2 == nil {
		l2 = NewNilCache()
	}

	return &TieredCache{
		l1: New(Config{
			MaxItems:   config.L1MaxItems,
			DefaultTTL: config.L1TTL,
		}),
		l2: l2,
	}
}

// Get checks L1, then L2. L2 hits are promoted to L1.
func (t *TieredCache) Get(ctx context.Context, key string) (string, bool, error) {
	if value, found, _ := t.l1.Get(ctx, key); found {
		return value, true, nil
	}

	value, found, err := t.l2.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}

	if err := t.l1.Set(ctx, key, value); err != nil {
		slog.Debug("failed to promote cache value", slog.String("key", key), slog.String("error", err.Error()))
	}
	return value, true, nil
}

// Set stores a value in both tiers. L2 is written first so a failed
// shared write never leaves a value visible only locally.
func (t *TieredCache) Set(ctx context.Context, key, value string) error {
	if err := t.l2.Set(ctx, key, value); err != nil {
		return err
	}
	return t.l1.Set(ctx, key, value)
}

// Delete removes a value from both tiers.
func (t *TieredCache) Delete(ctx context.Context, key string) error {
	if err := t.l1.Delete(ctx, key); err != nil {
		return err
	}
	return t.l2.Delete(ctx, key)
}

// Keys returns the union of both tiers.
func (t *TieredCache) Keys(ctx context.Context) ([]string, error) {
	l1Keys, err := t.l1.Keys(ctx)
	if err != nil {
		return nil, err
	}
	l2Keys, err := t.l2.Keys(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(l1Keys)+len(l2Keys))
	keys := make([]string, 0, len(l1Keys)+len(l2Keys))
	for _, batch := range [][]string{l1Keys, l2Keys} {
		for _, k := range batch {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len counts distinct keys across both tiers.
func (t *TieredCache) Len(ctx context.Context) (int, error) {
	keys, err := t.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Clear clears both tiers.
func (t *TieredCache) Clear(ctx context.Context) error {
	if err := t.l1.Clear(ctx); err != nil {
		return err
	}
	return t.l2.Clear(ctx)
}

// Stats returns per-tier sizes.
func (t *TieredCache) Stats(ctx context.Context) map[string]any {
	stats := make(map[string]any)
	l1Size, _ := t.l1.Len(ctx)
	stats["l1_size"] = l1Size

	_, isNil := t.l2.(*NilCache)
	stats["l2_enabled"] = !isNil
	if !isNil {
		if l2Size, err := t.l2.Len(ctx); err == nil {
			stats["l2_size"] = l2Size
		}
	}
	return stats
}

// Close closes both tiers.
func (t *TieredCache) Close() error {
	var errs []error

	if err := t.l2.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := t.l1.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Errorf("multiple errors: %v", errs)
	}
	return nil
}

var _ Engine = (*TieredCache)(nil)
