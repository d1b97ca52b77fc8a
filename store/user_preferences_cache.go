package store

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/hrygo/prefcache/store/cache"
)

const (
	// UserPreferencesCacheName is the name under which the preference cache is registered.
	UserPreferencesCacheName = "UserPreferencesCacheService"

	// userKeySeparator joins the user id and the preference key.
	// User ids are expected not to contain it.
	userKeySeparator = "_"
)

// UserPreferencesCache scopes cached preference values by user id.
// It holds no state besides the engine reference and the enabled flag;
// concurrency guarantees are those of the engine.
type UserPreferencesCache struct {
	engine  cache.Engine
	enabled atomic.Bool
}

// NewUserPreferencesCache wraps engine and registers the service in registry.
// It must be called once per process and registry.
func NewUserPreferencesCache(engine cache.Engine, registry *cache.Registry) (*UserPreferencesCache, error) {
	c := &UserPreferencesCache{engine: engine}
	c.enabled.Store(true)

	if registry != nil {
		if err := registry.Register(UserPreferencesCacheName, "string", "string", c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CacheKey returns the cache key of a user's preference.
// Two (userID, key) pairs can collide if a user id contains the separator.
func (*UserPreferencesCache) CacheKey(userID, key string) string {
	return userID + userKeySeparator + key
}

// Get returns the cached value of a user's preference.
func (c *UserPreferencesCache) Get(ctx context.Context, userID, key string) (string, bool, error) {
	if !c.Enabled() {
		return "", false, nil
	}
	return c.engine.Get(ctx, c.CacheKey(userID, key))
}

// Put caches the value of a user's preference.
func (c *UserPreferencesCache) Put(ctx context.Context, userID, key, value string) error {
	if !c.Enabled() {
		return nil
	}
	return c.engine.Set(ctx, c.CacheKey(userID, key), value)
}

// Remove drops a single cached preference.
func (c *UserPreferencesCache) Remove(ctx context.Context, userID, key string) error {
	return c.engine.Delete(ctx, c.CacheKey(userID, key))
}

// RemoveUserValues removes every cached value of userID.
// An empty user id is a no-op, never a full flush.
//
// Keys are read once and removed afterwards: a value cached for the user
// after the snapshot is taken is not removed by this call.
func (c *UserPreferencesCache) RemoveUserValues(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}

	prefix := userID + userKeySeparator
	keys, err := c.engine.Keys(ctx)
	if err != nil {
		return err
	}

	var toRemove []string
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			toRemove = append(toRemove, key)
		}
	}

	for _, key := range toRemove {
		if err := c.engine.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Name implements cache.Cacheable.
func (*UserPreferencesCache) Name() string {
	return UserPreferencesCacheName
}

func (c *UserPreferencesCache) Enabled() bool {
	return c.enabled.Load()
}

func (c *UserPreferencesCache) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
}

// Reset drops every cached value, for all users.
func (c *UserPreferencesCache) Reset(ctx context.Context) error {
	return c.engine.Clear(ctx)
}

func (c *UserPreferencesCache) Size(ctx context.Context) (int, error) {
	return c.engine.Len(ctx)
}

var _ cache.Cacheable = (*UserPreferencesCache)(nil)
