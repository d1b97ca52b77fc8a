package cache

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingEngine fails every call; it stands in for an unreachable L2.
type failingEngine struct{ NilCache }

var errL2Down = errors.New("l2 down")

func (failingEngine) Get(context.Context, string) (string, bool, error) { return "", false, errL2Down }
func (failingEngine) Set(context.Context, string, string) error         { return errL2Down }
func (failingEngine) Keys(context.Context) ([]string, error)            { return nil, errL2Down }

func TestTieredCache_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	tc := NewTieredCache(nil, nil)
	defer tc.Close()

	require.NoError(t, tc.Set(ctx, "k", "v"))
	val, ok, err := tc.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	stats := tc.Stats(ctx)
	assert.Equal(t, 1, stats["l1_size"])
	assert.Equal(t, false, stats["l2_enabled"])
}

func TestTieredCache_PromotesL2Hits(t *testing.T) {
	ctx := context.Background()
	l2 := New(Config{MaxItems: 10, DefaultTTL: time.Minute})
	tc := NewTieredCache(&TieredConfig{L1MaxItems: 10, L1TTL: time.Minute}, l2)
	defer tc.Close()

	require.NoError(t, l2.Set(ctx, "shared", "from-l2"))

	val, ok, err := tc.Get(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from-l2", val)

	val, ok, _ = tc.l1.Get(ctx, "shared")
	assert.True(t, ok)
	assert.Equal(t, "from-l2", val)
}

func TestTieredCache_WritesAndDeletesBothTiers(t *testing.T) {
	ctx := context.Background()
	l2 := New(Config{MaxItems: 10})
	tc := NewTieredCache(nil, l2)
	defer tc.Close()

	require.NoError(t, tc.Set(ctx, "k", "v"))
	_, ok, _ := l2.Get(ctx, "k")
	assert.True(t, ok)

	require.NoError(t, tc.Delete(ctx, "k"))
	_, ok, _ = l2.Get(ctx, "k")
	assert.False(t, ok)
	_, ok, _ = tc.l1.Get(ctx, "k")
	assert.False(t, ok)
}

func TestTieredCache_KeysIsDeduplicatedUnion(t *testing.T) {
	ctx := context.Background()
	l2 := New(Config{MaxItems: 10})
	tc := NewTieredCache(nil, l2)
	defer tc.Close()

	require.NoError(t, tc.Set(ctx, "both", "1"))
	require.NoError(t, l2.Set(ctx, "l2-only", "2"))
	require.NoError(t, tc.l1.Set(ctx, "l1-only", "3"))

	keys, err := tc.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"both", "l2-only", "l1-only"}, keys)

	size, err := tc.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, size)
}

func TestTieredCache_L2ErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	tc := NewTieredCache(nil, &failingEngine{})
	defer tc.Close()

	assert.ErrorIs(t, tc.Set(ctx, "k", "v"), errL2Down)
	_, ok, _ := tc.l1.Get(ctx, "k")
	assert.False(t, ok, "L1 must not hold a value the shared tier rejected")

	_, _, err := tc.Get(ctx, "missing")
	assert.ErrorIs(t, err, errL2Down)

	_, err = tc.Keys(ctx)
	assert.ErrorIs(t, err, errL2Down)
}

func TestTieredCache_Clear(t *testing.T) {
	ctx := context.Background()
	l2 := New(Config{MaxItems: 10})
	tc := NewTieredCache(nil, l2)
	defer tc.Close()

	require.NoError(t, tc.Set(ctx, "a", "1"))
	require.NoError(t, tc.Clear(ctx))

	size, _ := tc.Len(ctx)
	assert.Zero(t, size)
}
