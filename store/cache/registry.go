package cache

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Cacheable is a named cache service that can be administered at runtime.
type Cacheable interface {
	Name() string
	Enabled() bool
	SetEnabled(enabled bool)
	Reset(ctx context.Context) error
	Size(ctx context.Context) (int, error)
}

// CacheInfo describes a registered cache service.
type CacheInfo struct {
	Name      string `json:"name"`
	KeyType   string `json:"keyType"`
	ValueType string `json:"valueType"`
	Enabled   bool   `json:"enabled"`
	Size      int    `json:"size"`
}

type registration struct {
	keyType   string
	valueType string
	service   Cacheable
}

// Registry tracks the cache services of a process.
// It is created once at startup and passed to every service that registers.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]*registration),
	}
}

// Register adds a cache service under name.
func (r *Registry) Register(name, keyType, valueType string, service Cacheable) error {
	if name == "" {
		return errors.New("cache name is required")
	}
	if service == nil {
		return errors.New("cache service is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.services[name]; ok {
		return errors.Wrap(ErrAlreadyRegistered, name)
	}
	r.services[name] = &registration{
		keyType:   keyType,
		valueType: valueType,
		service:   service,
	}

	slog.Debug("cache service registered", slog.String("name", name), slog.String("key_type", keyType), slog.String("value_type", valueType))
	return nil
}

// Get returns the service registered under name.
func (r *Registry) Get(name string) (Cacheable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.services[name]
	if !ok {
		return nil, errors.Wrap(ErrCacheNotFound, name)
	}
	return reg.service, nil
}

// List returns every registered cache, sorted by name.
// Size is -1 when the backing engine cannot report it.
func (r *Registry) List(ctx context.Context) []CacheInfo {
	r.mu.RLock()
	infos := make([]CacheInfo, 0, len(r.services))
	for name, reg := range r.services {
		infos = append(infos, CacheInfo{
			Name:      name,
			KeyType:   reg.keyType,
			ValueType: reg.valueType,
			Enabled:   reg.service.Enabled(),
		})
	}
	r.mu.RUnlock()

	// Sizes may hit the network; query them outside the lock.
	for i := range infos {
		svc, err := r.Get(infos[i].Name)
		if err != nil {
			continue
		}
		size, err := svc.Size(ctx)
		if err != nil {
			size = -1
		}
		infos[i].Size = size
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Reset clears the cache registered under name.
func (r *Registry) Reset(ctx context.Context, name string) error {
	svc, err := r.Get(name)
	if err != nil {
		return err
	}
	return svc.Reset(ctx)
}

// SetEnabled toggles the cache registered under name.
// Disabling a cache also resets it so stale values are not served on re-enable.
func (r *Registry) SetEnabled(ctx context.Context, name string, enabled bool) error {
	svc, err := r.Get(name)
	if err != nil {
		return err
	}
	svc.SetEnabled(enabled)
	if !enabled {
		return svc.Reset(ctx)
	}
	return nil
}

// ResetAll clears every registered cache and returns the first error.
func (r *Registry) ResetAll(ctx context.Context) error {
	r.mu.RLock()
	services := make([]Cacheable, 0, len(r.services))
	for _, reg := range r.services {
		services = append(services, reg.service)
	}
	r.mu.RUnlock()

	var firstErr error
	for _, svc := range services {
		if err := svc.Reset(ctx); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "failed to reset cache %s", svc.Name())
		}
	}
	return firstErr
}
