package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/prefcache/internal/profile"
	"github.com/hrygo/prefcache/server/middleware"
	"github.com/hrygo/prefcache/store"
	"github.com/hrygo/prefcache/store/cache"
)

func newTestProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p := &profile.Profile{
		Mode:          "dev",
		Addr:          "127.0.0.1",
		Data:          t.TempDir(),
		Driver:        "sqlite",
		CacheMaxItems: 10,
		CacheTTL:      time.Minute,
	}
	require.NoError(t, p.Validate())
	return p
}

func TestNewCacheEngine_MemoryOnly(t *testing.T) {
	engine, err := newCacheEngine(context.Background(), newTestProfile(t))
	require.NoError(t, err)
	defer engine.Close()

	stats := engine.Stats(context.Background())
	assert.Equal(t, false, stats["l2_enabled"])
}

func TestNewCacheEngine_BadRedis(t *testing.T) {
	p := newTestProfile(t)
	p.RedisURL = "redis://127.0.0.1:1/0"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := newCacheEngine(ctx, p)
	assert.Error(t, err)
}

func TestIssueToken(t *testing.T) {
	token, err := issueToken("test-secret", "alice", false, time.Hour)
	require.NoError(t, err)

	claims, err := middleware.NewAuthenticator("test-secret").Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.False(t, claims.Admin)

	_, err = issueToken("", "alice", false, time.Hour)
	assert.Error(t, err)
	_, err = issueToken("test-secret", "", false, time.Hour)
	assert.Error(t, err)
	_, err = issueToken("test-secret", "alice", false, 0)
	assert.Error(t, err)
}

func TestRun_RequiresTokenWithSecret(t *testing.T) {
	ctx := context.Background()
	p := newTestProfile(t)
	p.Secret = "test-secret"

	s, engine, err := run(ctx, p)
	require.NoError(t, err)
	defer func() {
		s.Shutdown(ctx)
		_ = engine.Close()
	}()

	url := fmt.Sprintf("http://%s/api/v1/users/alice/preferences/theme?default=light", s.Addr())
	resp, err := http.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := issueToken(p.Secret, "alice", false, time.Minute)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRun_ServesPreferences(t *testing.T) {
	ctx := context.Background()
	p := newTestProfile(t)

	s, engine, err := run(ctx, p)
	require.NoError(t, err)
	defer func() {
		s.Shutdown(ctx)
		_ = engine.Close()
	}()

	base := fmt.Sprintf("http://%s/api/v1", s.Addr())
	req, err := http.NewRequest(http.MethodPut, base+"/users/alice/preferences/theme", strings.NewReader(`{"value":"dark"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/caches")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Caches []cache.CacheInfo `json:"caches"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Caches, 1)
	assert.Equal(t, store.UserPreferencesCacheName, body.Caches[0].Name)
	assert.Equal(t, 1, body.Caches[0].Size)
}
