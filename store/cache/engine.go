// Package cache provides the string-to-string cache engines used by the store.
//
// Three engines are available:
//   - Cache: in-process LRU with per-entry TTL (default)
//   - RedisCache: shared cache for multi-instance deployments (optional)
//   - TieredCache: Cache in front of any other Engine
//
// Engines are safe for concurrent use. Services built on top of an engine
// register themselves in a Registry so they can be listed, reset and toggled
// at runtime.
package cache

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned by mutating calls on a closed engine.
	ErrClosed = errors.New("cache is closed")
	// ErrCacheNotFound is returned by the registry for unknown cache names.
	ErrCacheNotFound = errors.New("cache not found")
	// ErrAlreadyRegistered is returned when a cache name is registered twice.
	ErrAlreadyRegistered = errors.New("cache already registered")
)

// Engine is the capability set every cache backend provides.
type Engine interface {
	// Get returns the value and whether it was present.
	// A miss is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys returns a snapshot of the current keys. The slice is owned by
	// the caller and is not affected by later mutations.
	Keys(ctx context.Context) ([]string, error)
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Close() error
}
