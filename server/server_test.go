package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/prefcache/internal/profile"
	teststore "github.com/hrygo/prefcache/store/test"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t, "sqlite")

	p := &profile.Profile{
		Mode:      "dev",
		Addr:      "127.0.0.1",
		RateLimit: 1,
		RateBurst: 5,
	}

	s, err := NewServer(ctx, p, ts.Store, ts.Registry)
	require.NoError(t, err)
	return s
}

func TestServer_Healthz(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Service ready.", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestServer_RateLimited(t *testing.T) {
	s := newTestServer(t)

	var last int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/caches", nil)
		req.RemoteAddr = "198.51.100.1:1234"
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestServer_RateLimitIgnoresForwardingHeaders(t *testing.T) {
	s := newTestServer(t)

	codes := make([]int, 0, 10)
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "198.51.100.2:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		req.Header.Set("X-Real-Ip", fmt.Sprintf("192.0.2.%d", i+1))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, http.StatusOK, codes[4])
	assert.Equal(t, http.StatusTooManyRequests, codes[5], "rotating forwarded addresses share the peer's bucket")
	assert.Equal(t, http.StatusTooManyRequests, codes[9])
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	require.NotEmpty(t, s.Addr())

	resp, err := http.Get(fmt.Sprintf("http://%s/api/v1/users/alice/preferences/theme?default=light", s.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"user_id":"alice","key":"theme","value":"light"}`, string(body))

	s.Shutdown(ctx)

	_, err = http.Get(fmt.Sprintf("http://%s/healthz", s.Addr()))
	assert.Error(t, err)
}
