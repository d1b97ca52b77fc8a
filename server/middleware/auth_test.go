package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestEcho(a *Authenticator) *echo.Echo {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/users/:user/preferences", ok, a.RequireUser("user"))
	e.GET("/caches", ok, a.RequireAdmin())
	return e
}

func serveWithToken(e *echo.Echo, path, token string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthenticator_RequireUser(t *testing.T) {
	a := NewAuthenticator("test-secret")
	e := newAuthTestEcho(a)

	alice, err := a.GenerateAccessToken("alice", false, time.Hour)
	require.NoError(t, err)
	admin, err := a.GenerateAccessToken("root", true, time.Hour)
	require.NoError(t, err)
	expired, err := a.GenerateAccessToken("alice", false, -time.Minute)
	require.NoError(t, err)
	forged, err := NewAuthenticator("other-secret").GenerateAccessToken("alice", false, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{name: "own preferences", path: "/users/alice/preferences", token: alice, want: http.StatusNoContent},
		{name: "other user", path: "/users/bob/preferences", token: alice, want: http.StatusForbidden},
		{name: "prefix of another user", path: "/users/alicia/preferences", token: alice, want: http.StatusForbidden},
		{name: "admin on any user", path: "/users/bob/preferences", token: admin, want: http.StatusNoContent},
		{name: "missing token", path: "/users/alice/preferences", want: http.StatusUnauthorized},
		{name: "expired token", path: "/users/alice/preferences", token: expired, want: http.StatusUnauthorized},
		{name: "wrong secret", path: "/users/alice/preferences", token: forged, want: http.StatusUnauthorized},
		{name: "garbage token", path: "/users/alice/preferences", token: "not-a-jwt", want: http.StatusUnauthorized},
		{name: "admin route as user", path: "/caches", token: alice, want: http.StatusForbidden},
		{name: "admin route as admin", path: "/caches", token: admin, want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serveWithToken(e, tt.path, tt.token))
		})
	}
}

func TestAuthenticator_RejectsOtherAlgorithms(t *testing.T) {
	a := NewAuthenticator("test-secret")

	claims := &AccessClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.Parse(unsigned)
	assert.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, serveWithToken(newAuthTestEcho(a), "/users/alice/preferences", unsigned))
}

func TestAuthenticator_RequiresExpiry(t *testing.T) {
	a := NewAuthenticator("test-secret")

	claims := &AccessClaims{RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, Subject: "alice"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = a.Parse(token)
	assert.Error(t, err)
}
