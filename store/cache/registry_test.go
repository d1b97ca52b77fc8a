package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// engineService is a minimal Cacheable over an Engine.
type engineService struct {
	name    string
	engine  Engine
	enabled bool
}

func (s *engineService) Name() string                    { return s.name }
func (s *engineService) Enabled() bool                   { return s.enabled }
func (s *engineService) SetEnabled(enabled bool)         { s.enabled = enabled }
func (s *engineService) Reset(ctx context.Context) error { return s.engine.Clear(ctx) }
func (s *engineService) Size(ctx context.Context) (int, error) {
	return s.engine.Len(ctx)
}

func newEngineService(name string) *engineService {
	return &engineService{name: name, engine: New(Config{MaxItems: 10}), enabled: true}
}

func TestRegistry_RegisterAndList(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	b := newEngineService("b")
	a := newEngineService("a")
	require.NoError(t, r.Register("b", "string", "string", b))
	require.NoError(t, r.Register("a", "string", "int", a))
	require.NoError(t, a.engine.Set(ctx, "x", "1"))

	infos := r.List(ctx)
	require.Len(t, infos, 2)
	assert.Equal(t, CacheInfo{Name: "a", KeyType: "string", ValueType: "int", Enabled: true, Size: 1}, infos[0])
	assert.Equal(t, "b", infos[1].Name)
	assert.Zero(t, infos[1].Size)
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := NewRegistry()
	svc := newEngineService("dup")

	require.NoError(t, r.Register("dup", "string", "string", svc))
	assert.ErrorIs(t, r.Register("dup", "string", "string", svc), ErrAlreadyRegistered)
	assert.Error(t, r.Register("", "string", "string", svc))
	assert.Error(t, r.Register("nil", "string", "string", nil))
}

func TestRegistry_UnknownName(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrCacheNotFound)
	assert.ErrorIs(t, r.Reset(ctx, "missing"), ErrCacheNotFound)
	assert.ErrorIs(t, r.SetEnabled(ctx, "missing", false), ErrCacheNotFound)
}

func TestRegistry_ResetAndToggle(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	svc := newEngineService("prefs")
	require.NoError(t, r.Register("prefs", "string", "string", svc))

	require.NoError(t, svc.engine.Set(ctx, "k", "v"))
	require.NoError(t, r.Reset(ctx, "prefs"))
	size, _ := svc.engine.Len(ctx)
	assert.Zero(t, size)

	require.NoError(t, svc.engine.Set(ctx, "k", "v"))
	require.NoError(t, r.SetEnabled(ctx, "prefs", false))
	assert.False(t, svc.Enabled())
	size, _ = svc.engine.Len(ctx)
	assert.Zero(t, size, "disabling must drop cached values")

	require.NoError(t, r.SetEnabled(ctx, "prefs", true))
	assert.True(t, svc.Enabled())
}

func TestRegistry_ResetAll(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	one, two := newEngineService("one"), newEngineService("two")
	require.NoError(t, r.Register("one", "string", "string", one))
	require.NoError(t, r.Register("two", "string", "string", two))
	require.NoError(t, one.engine.Set(ctx, "k", "v"))
	require.NoError(t, two.engine.Set(ctx, "k", "v"))

	require.NoError(t, r.ResetAll(ctx))

	for _, info := range r.List(ctx) {
		assert.Zero(t, info.Size, info.Name)
	}
}
