package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	apperrors "github.com/hrygo/prefcache/internal/errors"
)

// Issuer is the iss claim of every access token.
const Issuer = "prefcache"

const bearerPrefix = "Bearer "

// AccessClaims are the claims carried by an access token.
// The subject is the user id the token acts for.
type AccessClaims struct {
	Admin bool `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens signed with the server secret.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// GenerateAccessToken signs a token for userID that expires after ttl.
func (a *Authenticator) GenerateAccessToken(userID string, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}
	return token, nil
}

// Parse validates tokenString and returns its claims.
func (a *Authenticator) Parse(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "invalid access token")
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid access token")
	}
	return claims, nil
}

// RequireUser lets a request through when its token subject matches the
// path parameter param, or when the token belongs to an admin.
func (a *Authenticator) RequireUser(param string) echo.MiddlewareFunc {
	return a.require(func(c echo.Context, claims *AccessClaims) bool {
		return claims.Admin || claims.Subject == c.Param(param)
	})
}

// RequireAdmin lets a request through only with an admin token.
func (a *Authenticator) RequireAdmin() echo.MiddlewareFunc {
	return a.require(func(_ echo.Context, claims *AccessClaims) bool {
		return claims.Admin
	})
}

func (a *Authenticator) require(allowed func(echo.Context, *AccessClaims) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				return writeAuthError(c, http.StatusUnauthorized, apperrors.Unauthorized("missing bearer token"))
			}
			claims, err := a.Parse(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				return writeAuthError(c, http.StatusUnauthorized, apperrors.Unauthorized("invalid bearer token"))
			}
			if !allowed(c, claims) {
				return writeAuthError(c, http.StatusForbidden, apperrors.PermissionDenied("token does not grant access to this resource"))
			}
			return next(c)
		}
	}
}

func writeAuthError(c echo.Context, status int, err *apperrors.PrefError) error {
	return c.JSON(status, map[string]string{
		"code":    string(err.Code),
		"message": err.Message,
	})
}
