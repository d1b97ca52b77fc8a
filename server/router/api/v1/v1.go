package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/prefcache/internal/profile"
	"github.com/hrygo/prefcache/server/internal/observability"
	apimiddleware "github.com/hrygo/prefcache/server/middleware"
	"github.com/hrygo/prefcache/store"
	"github.com/hrygo/prefcache/store/cache"
)

type APIV1Service struct {
	Profile  *profile.Profile
	Store    *store.Store
	Registry *cache.Registry
	Metrics  *observability.Metrics
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, registry *cache.Registry, metrics *observability.Metrics) *APIV1Service {
	return &APIV1Service{
		Profile:  profile,
		Store:    store,
		Registry: registry,
		Metrics:  metrics,
	}
}

// RegisterRoutes registers the preference and cache administration routes
// under /api/v1 on the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	group := echoServer.Group("/api/v1")
	group.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
	}))

	var userAuth, adminAuth []echo.MiddlewareFunc
	if s.Profile != nil && s.Profile.IsAuthEnabled() {
		auth := apimiddleware.NewAuthenticator(s.Profile.Secret)
		userAuth = append(userAuth, auth.RequireUser("user"))
		adminAuth = append(adminAuth, auth.RequireAdmin())
	}

	group.GET("/users/:user/preferences", s.ListUserPreferences, userAuth...)
	group.DELETE("/users/:user/preferences", s.ClearUserPreferences, userAuth...)
	group.GET("/users/:user/preferences/:key", s.GetUserPreference, userAuth...)
	group.PUT("/users/:user/preferences/:key", s.UpsertUserPreference, userAuth...)
	group.DELETE("/users/:user/preferences/:key", s.DeleteUserPreference, userAuth...)

	group.GET("/preferences/:key/users", s.ListPreferenceUsers, adminAuth...)
	group.GET("/caches", s.ListCaches, adminAuth...)
	group.POST("/caches/reset", s.ResetAllCaches, adminAuth...)
	group.POST("/caches/:name/reset", s.ResetCache, adminAuth...)
	group.PUT("/caches/:name/enabled", s.SetCacheEnabled, adminAuth...)
	group.GET("/system/metrics/overview", s.GetMetricsOverview, adminAuth...)
}
