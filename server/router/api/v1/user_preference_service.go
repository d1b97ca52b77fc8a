package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/prefcache/internal/errors"
)

// UserPreference is the JSON view of one stored preference.
type UserPreference struct {
	UserID string `json:"user_id"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// UpsertUserPreferenceRequest is the body of PUT /users/:user/preferences/:key.
type UpsertUserPreferenceRequest struct {
	Value *string `json:"value"`
}

// ListUserPreferencesResponse lists the keys a user has set.
type ListUserPreferencesResponse struct {
	UserID string   `json:"user_id"`
	Keys   []string `json:"keys"`
}

// ListPreferenceUsersResponse answers a lookup by key and value.
type ListPreferenceUsersResponse struct {
	Key     string   `json:"key"`
	Value   string   `json:"value"`
	UserIDs []string `json:"user_ids"`
}

// ListUserPreferences returns the keys a user has set.
// GET /api/v1/users/:user/preferences
func (s *APIV1Service) ListUserPreferences(c echo.Context) error {
	userID := c.Param("user")
	keys, err := s.Store.ListPreferenceKeys(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	if keys == nil {
		keys = []string{}
	}
	return c.JSON(http.StatusOK, ListUserPreferencesResponse{UserID: userID, Keys: keys})
}

// GetUserPreference returns a preference value, or the "default" query
// parameter when the user never set it.
// GET /api/v1/users/:user/preferences/:key?default=
func (s *APIV1Service) GetUserPreference(c echo.Context) error {
	userID, key := c.Param("user"), c.Param("key")
	value, err := s.Store.GetPreference(c.Request().Context(), userID, key, c.QueryParam("default"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, UserPreference{UserID: userID, Key: key, Value: value})
}

// UpsertUserPreference stores a preference value.
// PUT /api/v1/users/:user/preferences/:key
func (s *APIV1Service) UpsertUserPreference(c echo.Context) error {
	userID, key := c.Param("user"), c.Param("key")

	var request UpsertUserPreferenceRequest
	if err := c.Bind(&request); err != nil {
		return writeError(c, apperrors.InvalidArgument("invalid request body"))
	}
	if request.Value == nil {
		return writeError(c, apperrors.InvalidArgument("value is required"))
	}

	if err := s.Store.PutPreference(c.Request().Context(), userID, key, *request.Value); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, UserPreference{UserID: userID, Key: key, Value: *request.Value})
}

// DeleteUserPreference removes one preference.
// DELETE /api/v1/users/:user/preferences/:key
func (s *APIV1Service) DeleteUserPreference(c echo.Context) error {
	if err := s.Store.ClearPreference(c.Request().Context(), c.Param("user"), c.Param("key")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearUserPreferences removes every preference of a user, in storage and in the cache.
// DELETE /api/v1/users/:user/preferences
func (s *APIV1Service) ClearUserPreferences(c echo.Context) error {
	if err := s.Store.ClearPreferences(c.Request().Context(), c.Param("user")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPreferenceUsers returns the users holding value under key.
// GET /api/v1/preferences/:key/users?value=
func (s *APIV1Service) ListPreferenceUsers(c echo.Context) error {
	key, value := c.Param("key"), c.QueryParam("value")
	userIDs, err := s.Store.ListUsersWithPreference(c.Request().Context(), key, value)
	if err != nil {
		return writeError(c, err)
	}
	if userIDs == nil {
		userIDs = []string{}
	}
	return c.JSON(http.StatusOK, ListPreferenceUsersResponse{Key: key, Value: value, UserIDs: userIDs})
}
