package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/prefcache/internal/errors"
	"github.com/hrygo/prefcache/store/cache"
)

type ListCachesResponse struct {
	Caches []cache.CacheInfo `json:"caches"`
}

type SetCacheEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// ListCaches returns every registered cache service.
// GET /api/v1/caches
func (s *APIV1Service) ListCaches(c echo.Context) error {
	return c.JSON(http.StatusOK, ListCachesResponse{Caches: s.Registry.List(c.Request().Context())})
}

// ResetCache clears one cache service.
// POST /api/v1/caches/:name/reset
func (s *APIV1Service) ResetCache(c echo.Context) error {
	name := c.Param("name")
	if err := s.Registry.Reset(c.Request().Context(), name); err != nil {
		return writeError(c, err)
	}
	slog.Info("cache reset", slog.String("name", name))
	return c.NoContent(http.StatusNoContent)
}

// ResetAllCaches clears every registered cache service.
// POST /api/v1/caches/reset
func (s *APIV1Service) ResetAllCaches(c echo.Context) error {
	if err := s.Registry.ResetAll(c.Request().Context()); err != nil {
		return writeError(c, apperrors.CacheUnavailable("failed to reset caches", err))
	}
	slog.Info("all caches reset")
	return c.NoContent(http.StatusNoContent)
}

// SetCacheEnabled enables or disables one cache service.
// PUT /api/v1/caches/:name/enabled
func (s *APIV1Service) SetCacheEnabled(c echo.Context) error {
	name := c.Param("name")

	var request SetCacheEnabledRequest
	if err := c.Bind(&request); err != nil {
		return writeError(c, apperrors.InvalidArgument("invalid request body"))
	}
	if request.Enabled == nil {
		return writeError(c, apperrors.InvalidArgument("enabled is required"))
	}

	if err := s.Registry.SetEnabled(c.Request().Context(), name, *request.Enabled); err != nil {
		return writeError(c, err)
	}
	slog.Info("cache toggled", slog.String("name", name), slog.Bool("enabled", *request.Enabled))
	return c.NoContent(http.StatusNoContent)
}
